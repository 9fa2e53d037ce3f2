// Package classify implements the ticker classification pipeline: a cached,
// heuristic-then-provider decision chain that assigns an asset category to
// short ticker-like symbols.
package classify

import (
	"context"
	"strings"
)

// Category is the closed set of asset categories a symbol can resolve to.
type Category string

const (
	CategoryEquity    Category = "Equity"
	CategoryCrypto    Category = "Crypto"
	CategoryForex     Category = "Forex"
	CategoryCommodity Category = "Commodity"
	CategoryIndex     Category = "Index"
	CategoryUnknown   Category = "Unknown"
)

// Resolution provenance values recorded in Classification.Source.
const (
	SourceShortcut  = "shortcut"
	SourceCache     = "cache"
	SourceHeuristic = "heuristic"
	SourceEquity    = "equity"
	SourceCrypto    = "crypto"
)

// Classification is the result of classifying a single symbol.
// MarketCap is nil unless a provider supplied one; Unknown results carry
// empty optional fields and are never persisted.
type Classification struct {
	Symbol      string   `json:"symbol"`
	Category    Category `json:"category"`
	DisplayName string   `json:"display_name,omitempty"`
	MarketCap   *float64 `json:"market_cap,omitempty"`
	YahooLookup string   `json:"yahoo_lookup,omitempty"`
	Source      string   `json:"source,omitempty"`
}

// EquityQuote is the equity provider's response shape.
type EquityQuote struct {
	Name      string
	Exchange  string
	QuoteType string // EQUITY, ETF, MUTUALFUND, INDEX, ...
	MarketCap *float64
}

// CryptoCoin is the crypto provider's response shape.
type CryptoCoin struct {
	ID        string // provider coin id, e.g. "bitcoin"
	Name      string
	MarketCap *float64
}

// EquityProvider looks up quote metadata for a symbol.
// A (nil, nil) return means the provider has no listing for the symbol.
type EquityProvider interface {
	Query(ctx context.Context, symbol string) (*EquityQuote, error)
}

// CryptoProvider resolves a symbol to a coin listing.
// A (nil, nil) return means the provider has no listing for the symbol.
type CryptoProvider interface {
	Resolve(ctx context.Context, symbol string) (*CryptoCoin, error)
}

// Normalize canonicalizes a raw symbol mention for lookups and cache keys.
func Normalize(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}
