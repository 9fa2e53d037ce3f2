package classify

// Heuristic matchers: pure membership tests over small fixed symbol sets,
// checked after a cache miss and before any provider call. Forex runs before
// Commodity; the first match wins. The default sets are disjoint (verified
// by test) so the precedence only matters for contrived inputs.

// majorForex covers the heavily traded ISO 4217 currency codes.
var majorForex = map[string]bool{
	"USD": true, "EUR": true, "JPY": true, "GBP": true,
	"AUD": true, "CAD": true, "CHF": true, "CNY": true,
	"NZD": true,
}

// minorForex covers secondary but commonly mentioned currency codes.
var minorForex = map[string]bool{
	"SEK": true, "NOK": true, "DKK": true, "SGD": true,
	"HKD": true, "KRW": true, "INR": true, "BRL": true,
	"MXN": true, "ZAR": true, "TRY": true, "PLN": true,
	"THB": true, "TWD": true, "ILS": true, "CZK": true,
	"HUF": true, "IDR": true, "PHP": true, "MYR": true,
}

// commodityNames maps commodity aliases to display names.
var commodityNames = map[string]string{
	"GOLD":      "Gold",
	"SILVER":    "Silver",
	"PLATINUM":  "Platinum",
	"PALLADIUM": "Palladium",
	"COPPER":    "Copper",
	"OIL":       "Crude Oil",
	"WTI":       "WTI Crude Oil",
	"BRENT":     "Brent Crude Oil",
	"NATGAS":    "Natural Gas",
	"CORN":      "Corn",
	"WHEAT":     "Wheat",
	"COFFEE":    "Coffee",
	"COCOA":     "Cocoa",
	"SUGAR":     "Sugar",
	"COTTON":    "Cotton",
}

// MatchForex reports whether the normalized symbol is a known currency code.
func MatchForex(symbol string) bool {
	return majorForex[symbol] || minorForex[symbol]
}

// MatchCommodity reports whether the normalized symbol is a known commodity
// alias, returning its display name on a match.
func MatchCommodity(symbol string) (string, bool) {
	name, ok := commodityNames[symbol]
	return name, ok
}

// shortcuts are fixed classifications consulted before the cache. They cover
// symbols the providers resolve poorly or not at all, mostly index tickers
// whose quote lookup needs a caret prefix.
var shortcuts = map[string]Classification{
	"SPX":    {Category: CategoryIndex, DisplayName: "S&P 500", YahooLookup: "^GSPC"},
	"SP500":  {Category: CategoryIndex, DisplayName: "S&P 500", YahooLookup: "^GSPC"},
	"NDX":    {Category: CategoryIndex, DisplayName: "NASDAQ 100", YahooLookup: "^NDX"},
	"DJI":    {Category: CategoryIndex, DisplayName: "Dow Jones Industrial Average", YahooLookup: "^DJI"},
	"VIX":    {Category: CategoryIndex, DisplayName: "CBOE Volatility Index", YahooLookup: "^VIX"},
	"DXY":    {Category: CategoryIndex, DisplayName: "US Dollar Index", YahooLookup: "DX-Y.NYB"},
	"FTSE":   {Category: CategoryIndex, DisplayName: "FTSE 100", YahooLookup: "^FTSE"},
	"DAX":    {Category: CategoryIndex, DisplayName: "DAX", YahooLookup: "^GDAXI"},
	"NIKKEI": {Category: CategoryIndex, DisplayName: "Nikkei 225", YahooLookup: "^N225"},
}

// lookupShortcut returns the fixed classification for a symbol, if any.
// Shortcut hits are never persisted to the cache.
func lookupShortcut(symbol string) (Classification, bool) {
	sc, ok := shortcuts[symbol]
	if !ok {
		return Classification{}, false
	}
	sc.Symbol = symbol
	sc.Source = SourceShortcut
	return sc, true
}
