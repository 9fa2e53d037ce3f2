package server

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	_ "modernc.org/sqlite"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/StephanAkkerman/ticker-classifier/internal/cache"
	"github.com/StephanAkkerman/ticker-classifier/internal/classify"
)

// stubClassifier tags results so tests can tell which execution path ran.
type stubClassifier struct{}

func (stubClassifier) Classify(_ context.Context, symbols []string) []classify.Classification {
	results := make([]classify.Classification, len(symbols))
	for i, sym := range symbols {
		results[i] = classify.Classification{Symbol: sym, Category: classify.CategoryEquity, Source: "sequential"}
	}
	return results
}

func (stubClassifier) ClassifyConcurrent(_ context.Context, symbols []string) []classify.Classification {
	results := make([]classify.Classification, len(symbols))
	for i, sym := range symbols {
		results[i] = classify.Classification{Symbol: sym, Category: classify.CategoryEquity, Source: "concurrent"}
	}
	return results
}

func setupTestServer(t *testing.T) (*Server, *cache.Store, *sql.DB) {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store, err := cache.NewStore(db, time.Hour)
	require.NoError(t, err)

	srv := New(Config{
		Log:        zerolog.Nop(),
		Classifier: stubClassifier{},
		Store:      store,
		Port:       0,
	})
	return srv, store, db
}

func doRequest(t *testing.T, srv *Server, method, path string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	return rec
}

func TestHandleClassify(t *testing.T) {
	srv, _, _ := setupTestServer(t)

	rec := doRequest(t, srv, http.MethodPost, "/api/classify",
		[]byte(`{"symbols":["AAPL","BTC"]}`))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp classifyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.NotEmpty(t, resp.BatchID)
	require.Len(t, resp.Results, 2)
	assert.Equal(t, "AAPL", resp.Results[0].Symbol)
	assert.Equal(t, "BTC", resp.Results[1].Symbol)
	assert.Equal(t, "sequential", resp.Results[0].Source)
}

func TestRequestIDReachesHandlers(t *testing.T) {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store, err := cache.NewStore(db, time.Hour)
	require.NoError(t, err)

	capture := &requestIDClassifier{}
	srv := New(Config{Log: zerolog.Nop(), Classifier: capture, Store: store})

	rec := doRequest(t, srv, http.MethodPost, "/api/classify", []byte(`{"symbols":["AAPL"]}`))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, capture.reqID, "middleware must issue a request id")
}

// requestIDClassifier records the request id visible in the handler context.
type requestIDClassifier struct {
	reqID string
}

func (c *requestIDClassifier) Classify(ctx context.Context, symbols []string) []classify.Classification {
	c.reqID = middleware.GetReqID(ctx)
	return make([]classify.Classification, len(symbols))
}

func (c *requestIDClassifier) ClassifyConcurrent(ctx context.Context, symbols []string) []classify.Classification {
	return c.Classify(ctx, symbols)
}

func TestHandleClassifyConcurrentFlag(t *testing.T) {
	srv, _, _ := setupTestServer(t)

	rec := doRequest(t, srv, http.MethodPost, "/api/classify",
		[]byte(`{"symbols":["AAPL"],"concurrent":true}`))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp classifyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "concurrent", resp.Results[0].Source)
}

func TestHandleClassifyBadBody(t *testing.T) {
	srv, _, _ := setupTestServer(t)

	rec := doRequest(t, srv, http.MethodPost, "/api/classify", []byte(`not json`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleClassifyEmptySymbols(t *testing.T) {
	srv, _, _ := setupTestServer(t)

	rec := doRequest(t, srv, http.MethodPost, "/api/classify", []byte(`{"symbols":[]}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp["error"], "symbols")
}

func TestHandleEvictExpired(t *testing.T) {
	srv, _, db := setupTestServer(t)

	_, err := db.Exec(
		"INSERT INTO tickers (symbol, category, display_name, market_cap, yahoo_lookup, cached_at) VALUES (?, ?, ?, ?, ?, ?)",
		"STALE", "Equity", "Stale Corp", nil, "STALE", time.Now().Add(-2*time.Hour).Unix(),
	)
	require.NoError(t, err)

	rec := doRequest(t, srv, http.MethodPost, "/api/cache/evict", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]int64
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, int64(1), resp["deleted"])
}

func TestHandleClearCache(t *testing.T) {
	srv, store, _ := setupTestServer(t)

	require.NoError(t, store.Put(cache.Entry{Symbol: "AAPL", Category: "Equity", YahooLookup: "AAPL"}))

	rec := doRequest(t, srv, http.MethodDelete, "/api/cache/", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	count, err := store.Count()
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestHandleBackupNotConfigured(t *testing.T) {
	srv, _, _ := setupTestServer(t)

	rec := doRequest(t, srv, http.MethodPost, "/api/backup", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHandleHealth(t *testing.T) {
	srv, store, _ := setupTestServer(t)

	require.NoError(t, store.Put(cache.Entry{Symbol: "AAPL", Category: "Equity", YahooLookup: "AAPL"}))

	rec := doRequest(t, srv, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp healthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, int64(1), resp.CacheEntries)
	assert.GreaterOrEqual(t, resp.UptimeSeconds, int64(0))
}
