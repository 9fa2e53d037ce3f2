package coingecko

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGecko struct {
	coins      []coinListItem
	prices     map[string]map[string]float64
	listCalls  atomic.Int64
	listStatus int
}

func (f *fakeGecko) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/coins/list", func(w http.ResponseWriter, r *http.Request) {
		f.listCalls.Add(1)
		if f.listStatus != 0 {
			w.WriteHeader(f.listStatus)
			return
		}
		json.NewEncoder(w).Encode(f.coins)
	})
	mux.HandleFunc("/simple/price", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(f.prices)
	})
	return mux
}

func newTestGeckoClient(t *testing.T, f *fakeGecko) *Client {
	srv := httptest.NewServer(f.handler())
	t.Cleanup(srv.Close)
	return NewClient(zerolog.Nop(), WithBaseURL(srv.URL))
}

func TestResolve(t *testing.T) {
	f := &fakeGecko{
		coins: []coinListItem{
			{ID: "bitcoin", Symbol: "btc", Name: "Bitcoin"},
		},
		prices: map[string]map[string]float64{
			"bitcoin": {"usd": 60000, "usd_market_cap": 1.2e12},
		},
	}
	client := newTestGeckoClient(t, f)

	coin, err := client.Resolve(context.Background(), "BTC")
	require.NoError(t, err)
	require.NotNil(t, coin)

	assert.Equal(t, "bitcoin", coin.ID)
	assert.Equal(t, "Bitcoin", coin.Name)
	require.NotNil(t, coin.MarketCap)
	assert.Equal(t, 1.2e12, *coin.MarketCap)
}

func TestResolveCollisionPicksHighestMarketCap(t *testing.T) {
	f := &fakeGecko{
		coins: []coinListItem{
			{ID: "junk-bitcoin", Symbol: "btc", Name: "Junk Bitcoin"},
			{ID: "bitcoin", Symbol: "btc", Name: "Bitcoin"},
			{ID: "bitcoin-fan-token", Symbol: "btc", Name: "Bitcoin Fan Token"},
		},
		prices: map[string]map[string]float64{
			"junk-bitcoin":      {"usd": 0.01, "usd_market_cap": 5000},
			"bitcoin":           {"usd": 60000, "usd_market_cap": 1.2e12},
			"bitcoin-fan-token": {"usd": 1, "usd_market_cap": 100000},
		},
	}
	client := newTestGeckoClient(t, f)

	coin, err := client.Resolve(context.Background(), "BTC")
	require.NoError(t, err)
	require.NotNil(t, coin)
	assert.Equal(t, "bitcoin", coin.ID)
}

func TestResolveUnknownSymbol(t *testing.T) {
	f := &fakeGecko{
		coins: []coinListItem{{ID: "bitcoin", Symbol: "btc", Name: "Bitcoin"}},
	}
	client := newTestGeckoClient(t, f)

	coin, err := client.Resolve(context.Background(), "NOPE")
	require.NoError(t, err)
	assert.Nil(t, coin)
}

func TestResolveZeroCapCandidatesRejected(t *testing.T) {
	f := &fakeGecko{
		coins: []coinListItem{{ID: "dead-coin", Symbol: "ded", Name: "Dead Coin"}},
		prices: map[string]map[string]float64{
			"dead-coin": {"usd": 0, "usd_market_cap": 0},
		},
	}
	client := newTestGeckoClient(t, f)

	coin, err := client.Resolve(context.Background(), "DED")
	require.NoError(t, err)
	assert.Nil(t, coin, "candidates with no market cap are junk listings")
}

func TestSymbolMapLoadedOnce(t *testing.T) {
	f := &fakeGecko{
		coins: []coinListItem{{ID: "bitcoin", Symbol: "btc", Name: "Bitcoin"}},
		prices: map[string]map[string]float64{
			"bitcoin": {"usd": 60000, "usd_market_cap": 1.2e12},
		},
	}
	client := newTestGeckoClient(t, f)

	_, err := client.Resolve(context.Background(), "BTC")
	require.NoError(t, err)
	_, err = client.Resolve(context.Background(), "NOPE")
	require.NoError(t, err)

	assert.Equal(t, int64(1), f.listCalls.Load(), "coins list must be fetched once")
}

func TestResolveListError(t *testing.T) {
	f := &fakeGecko{listStatus: http.StatusTooManyRequests}
	client := newTestGeckoClient(t, f)

	_, err := client.Resolve(context.Background(), "BTC")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestCandidateCap(t *testing.T) {
	coins := make([]coinListItem, 0, maxCandidates+5)
	for i := 0; i < maxCandidates+5; i++ {
		coins = append(coins, coinListItem{ID: string(rune('a'+i)) + "-coin", Symbol: "pop", Name: "Pop"})
	}
	f := &fakeGecko{coins: coins}
	client := newTestGeckoClient(t, f)

	ids, err := client.candidateIDs(context.Background(), "POP")
	require.NoError(t, err)
	assert.Len(t, ids, maxCandidates)
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "Bitcoin", displayName("bitcoin"))
	assert.Equal(t, "Bitcoin Cash", displayName("bitcoin-cash"))
	assert.Equal(t, "Usd Coin", displayName("usd-coin"))
}

func TestDisplayNameConcurrent(t *testing.T) {
	// Worker pools resolve symbols in parallel, so name derivation must be
	// race-free. Run with -race.
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				assert.Equal(t, "Bitcoin Cash", displayName("bitcoin-cash"))
			}
		}()
	}
	wg.Wait()
}
