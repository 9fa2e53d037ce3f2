// Package yahoo provides a client for the Yahoo Finance quote API.
// Quote requests require a session cookie plus a "crumb" token; the client
// performs that two-step handshake lazily and reuses the credentials until
// Yahoo rejects them.
package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/StephanAkkerman/ticker-classifier/internal/classify"
)

const (
	defaultBaseURL   = "https://query2.finance.yahoo.com"
	defaultCookieURL = "https://fc.yahoo.com"

	// Yahoo rejects requests without a browser-like User-Agent.
	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"
)

// Client is the Yahoo Finance quote client. It implements
// classify.EquityProvider.
type Client struct {
	baseURL    string
	cookieURL  string
	httpClient *http.Client
	log        zerolog.Logger

	mu    sync.Mutex
	crumb string
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the quote API base URL (used by tests).
func WithBaseURL(base string) Option {
	return func(c *Client) { c.baseURL = strings.TrimSuffix(base, "/") }
}

// WithCookieURL overrides the cookie bootstrap URL (used by tests).
func WithCookieURL(u string) Option {
	return func(c *Client) { c.cookieURL = u }
}

// NewClient creates a new Yahoo Finance client.
func NewClient(log zerolog.Logger, opts ...Option) *Client {
	jar, _ := cookiejar.New(nil)
	c := &Client{
		baseURL:   defaultBaseURL,
		cookieURL: defaultCookieURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
			Jar:     jar,
		},
		log: log.With().Str("client", "yahoo").Logger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// quoteResponse mirrors the /v7/finance/quote envelope.
type quoteResponse struct {
	QuoteResponse struct {
		Result []quoteResult `json:"result"`
		Error  *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"quoteResponse"`
}

type quoteResult struct {
	Symbol           string   `json:"symbol"`
	ShortName        string   `json:"shortName"`
	LongName         string   `json:"longName"`
	QuoteType        string   `json:"quoteType"`
	FullExchangeName string   `json:"fullExchangeName"`
	MarketCap        *float64 `json:"marketCap"`
}

// Query looks up quote metadata for a symbol. A (nil, nil) return means
// Yahoo has no listing for it. Implements classify.EquityProvider.
func (c *Client) Query(ctx context.Context, symbol string) (*classify.EquityQuote, error) {
	crumb, err := c.getCrumb(ctx)
	if err != nil {
		return nil, fmt.Errorf("yahoo auth failed: %w", err)
	}

	params := url.Values{}
	params.Set("symbols", symbol)
	params.Set("crumb", crumb)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/v7/finance/quote?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("quote request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		// Credentials expired; clear so the next call re-authenticates.
		c.mu.Lock()
		c.crumb = ""
		c.mu.Unlock()
		return nil, fmt.Errorf("yahoo rejected credentials (401)")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("quote request returned status %d", resp.StatusCode)
	}

	var decoded quoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("failed to decode quote response: %w", err)
	}

	for _, item := range decoded.QuoteResponse.Result {
		if !strings.EqualFold(item.Symbol, symbol) {
			continue
		}

		name := item.ShortName
		if name == "" {
			name = item.LongName
		}
		// A listing without any name is not a usable signal.
		if name == "" {
			continue
		}

		return &classify.EquityQuote{
			Name:      name,
			Exchange:  item.FullExchangeName,
			QuoteType: item.QuoteType,
			MarketCap: item.MarketCap,
		}, nil
	}

	return nil, nil
}

// getCrumb returns the cached crumb token, performing the cookie+crumb
// handshake if needed.
func (c *Client) getCrumb(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.crumb != "" {
		return c.crumb, nil
	}

	// Step 1: hit the cookie endpoint. The response body is irrelevant
	// (usually a 404 page); the session cookies land in the jar.
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cookieURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create cookie request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("cookie request failed: %w", err)
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	// Step 2: fetch the crumb using the session cookies.
	req, err = http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/test/getcrumb", nil)
	if err != nil {
		return "", fmt.Errorf("failed to create crumb request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err = c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("crumb request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("crumb request returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read crumb: %w", err)
	}

	crumb := strings.TrimSpace(string(body))
	if crumb == "" {
		return "", fmt.Errorf("received empty crumb")
	}

	c.log.Debug().Msg("Obtained Yahoo credentials")
	c.crumb = crumb
	return crumb, nil
}
