package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchForex(t *testing.T) {
	for _, sym := range []string{"USD", "EUR", "JPY", "GBP", "CHF", "SEK", "ZAR", "TRY"} {
		assert.True(t, MatchForex(sym), sym)
	}

	for _, sym := range []string{"AAPL", "BTC", "GOLD", "XYZ", ""} {
		assert.False(t, MatchForex(sym), sym)
	}
}

func TestMatchForexIsCaseSensitive(t *testing.T) {
	// Matchers see normalized input only; lowercase never reaches them.
	assert.False(t, MatchForex("eur"))
}

func TestMatchCommodity(t *testing.T) {
	name, ok := MatchCommodity("GOLD")
	require.True(t, ok)
	assert.Equal(t, "Gold", name)

	name, ok = MatchCommodity("OIL")
	require.True(t, ok)
	assert.Equal(t, "Crude Oil", name)

	name, ok = MatchCommodity("BRENT")
	require.True(t, ok)
	assert.Equal(t, "Brent Crude Oil", name)

	_, ok = MatchCommodity("AAPL")
	assert.False(t, ok)

	_, ok = MatchCommodity("EUR")
	assert.False(t, ok)
}

func TestForexAndCommoditySetsDisjoint(t *testing.T) {
	for sym := range commodityNames {
		assert.False(t, MatchForex(sym), "symbol %s in both heuristic sets", sym)
	}
}

func TestLookupShortcut(t *testing.T) {
	sc, ok := lookupShortcut("SPX")
	require.True(t, ok)
	assert.Equal(t, "SPX", sc.Symbol)
	assert.Equal(t, CategoryIndex, sc.Category)
	assert.Equal(t, "S&P 500", sc.DisplayName)
	assert.Equal(t, "^GSPC", sc.YahooLookup)
	assert.Equal(t, SourceShortcut, sc.Source)

	sc, ok = lookupShortcut("DXY")
	require.True(t, ok)
	assert.Equal(t, "DX-Y.NYB", sc.YahooLookup)

	_, ok = lookupShortcut("AAPL")
	assert.False(t, ok)
}

func TestShortcutsCategorized(t *testing.T) {
	for sym, sc := range shortcuts {
		assert.Equal(t, CategoryIndex, sc.Category, sym)
		assert.NotEmpty(t, sc.DisplayName, sym)
		assert.NotEmpty(t, sc.YahooLookup, sym)
	}
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "AAPL", Normalize("aapl"))
	assert.Equal(t, "AAPL", Normalize("  AAPL  "))
	assert.Equal(t, "BTC", Normalize("\tbtc\n"))
	assert.Equal(t, "", Normalize("   "))
	assert.Equal(t, "", Normalize(""))
}
