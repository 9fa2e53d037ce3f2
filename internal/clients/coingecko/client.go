// Package coingecko provides a client for the CoinGecko API.
// Symbol resolution goes through the full coins list, which maps one symbol
// to many coin ids (every fork and meme token reuses popular symbols); the
// client caps candidates per symbol and picks the one with the highest
// market cap.
package coingecko

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/time/rate"

	"github.com/StephanAkkerman/ticker-classifier/internal/classify"
)

const (
	defaultBaseURL = "https://api.coingecko.com/api/v3"

	// Free tier allows roughly 30 calls/minute.
	requestsPerMinute = 30

	// Popular symbols collide with dozens of junk coins; checking more than
	// a handful of candidates wastes the rate budget.
	maxCandidates = 10
)

// Client is the CoinGecko API client. It implements classify.CryptoProvider.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	log        zerolog.Logger

	mu        sync.Mutex
	symbolIDs map[string][]string // BTC -> [bitcoin, bitcoin-token, ...]
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API base URL (used by tests).
func WithBaseURL(base string) Option {
	return func(c *Client) { c.baseURL = strings.TrimSuffix(base, "/") }
}

// NewClient creates a new CoinGecko client.
func NewClient(log zerolog.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		limiter:    rate.NewLimiter(rate.Every(time.Minute/requestsPerMinute), 1),
		log:        log.With().Str("client", "coingecko").Logger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type coinListItem struct {
	ID     string `json:"id"`
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
}

// Resolve maps a symbol to its best coin listing. A (nil, nil) return means
// CoinGecko has no coin for the symbol (or none with a market cap, which in
// practice means only junk listings matched). Implements
// classify.CryptoProvider.
func (c *Client) Resolve(ctx context.Context, symbol string) (*classify.CryptoCoin, error) {
	ids, err := c.candidateIDs(ctx, symbol)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	params := url.Values{}
	params.Set("ids", strings.Join(ids, ","))
	params.Set("vs_currencies", "usd")
	params.Set("include_market_cap", "true")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/simple/price?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create price request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("price request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("price request returned status %d", resp.StatusCode)
	}

	// id -> {"usd": price, "usd_market_cap": cap}
	var prices map[string]map[string]float64
	if err := json.NewDecoder(resp.Body).Decode(&prices); err != nil {
		return nil, fmt.Errorf("failed to decode price response: %w", err)
	}

	// Highest market cap wins the symbol.
	var bestID string
	var bestCap float64
	for _, id := range ids {
		data, ok := prices[id]
		if !ok {
			continue
		}
		if mcap := data["usd_market_cap"]; mcap > bestCap {
			bestID = id
			bestCap = mcap
		}
	}

	if bestID == "" {
		return nil, nil
	}

	return &classify.CryptoCoin{
		ID:        bestID,
		Name:      displayName(bestID),
		MarketCap: &bestCap,
	}, nil
}

// candidateIDs returns up to maxCandidates coin ids for a symbol, loading
// the full coins list on first use.
func (c *Client) candidateIDs(ctx context.Context, symbol string) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.symbolIDs == nil {
		if err := c.loadSymbolMap(ctx); err != nil {
			return nil, err
		}
	}

	ids := c.symbolIDs[symbol]
	if len(ids) > maxCandidates {
		ids = ids[:maxCandidates]
	}
	return ids, nil
}

// loadSymbolMap fetches /coins/list and builds the symbol -> ids index.
// Callers must hold c.mu.
func (c *Client) loadSymbolMap(ctx context.Context) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/coins/list", nil)
	if err != nil {
		return fmt.Errorf("failed to create coins list request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("coins list request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("coins list request returned status %d", resp.StatusCode)
	}

	var coins []coinListItem
	if err := json.NewDecoder(resp.Body).Decode(&coins); err != nil {
		return fmt.Errorf("failed to decode coins list: %w", err)
	}

	symbolIDs := make(map[string][]string, len(coins))
	for _, coin := range coins {
		sym := strings.ToUpper(coin.Symbol)
		symbolIDs[sym] = append(symbolIDs[sym], coin.ID)
	}

	c.symbolIDs = symbolIDs
	c.log.Debug().Int("coins", len(coins)).Msg("Loaded CoinGecko symbol map")
	return nil
}

// displayName derives a readable name from a coin id ("bitcoin-cash" ->
// "Bitcoin Cash"). The Caser is built per call: cases.Caser carries
// transform state and is not safe for concurrent use.
func displayName(id string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(id, "-", " "))
}
