package classify

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/StephanAkkerman/ticker-classifier/internal/cache"
	"github.com/StephanAkkerman/ticker-classifier/internal/database"
)

// stepOutcome is the tri-state result of a provider step. Distinguishing
// "the provider confirmed no listing" from "the provider could not be
// checked" matters for tests and debugging; the pipeline treats both as
// fall-through.
type stepOutcome int

const (
	stepMatched stepOutcome = iota
	stepNoMatch
	stepErrored
)

const (
	defaultWorkers         = 10
	defaultProviderTimeout = 10 * time.Second
)

// Classifier runs the classification pipeline: cache, then heuristics, then
// providers in fixed precedence (equity before crypto), short-circuiting on
// the first match. Resolved results are written back to the cache.
type Classifier struct {
	store   *cache.Store
	equity  EquityProvider
	crypto  CryptoProvider
	log     zerolog.Logger
	workers int
	timeout time.Duration
}

// ClassifierOption configures a Classifier.
type ClassifierOption func(*Classifier)

// WithWorkers sets the worker count for ClassifyConcurrent.
func WithWorkers(n int) ClassifierOption {
	return func(c *Classifier) {
		if n > 0 {
			c.workers = n
		}
	}
}

// WithProviderTimeout sets the per-call deadline applied to each provider
// lookup, so one slow symbol cannot stall a batch indefinitely.
func WithProviderTimeout(d time.Duration) ClassifierOption {
	return func(c *Classifier) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// New creates a Classifier on an existing cache store. The providers may be
// nil, in which case the corresponding pipeline step is skipped.
func New(store *cache.Store, equity EquityProvider, crypto CryptoProvider, log zerolog.Logger, opts ...ClassifierOption) *Classifier {
	c := &Classifier{
		store:   store,
		equity:  equity,
		crypto:  crypto,
		log:     log.With().Str("component", "classifier").Logger(),
		workers: defaultWorkers,
		timeout: defaultProviderTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// OpenConfig configures Open.
type OpenConfig struct {
	CachePath string
	TTLHours  int
}

// Open creates a Classifier owning its own cache store at the configured
// path. The returned closer releases the underlying database.
func Open(cfg OpenConfig, equity EquityProvider, crypto CryptoProvider, log zerolog.Logger, opts ...ClassifierOption) (*Classifier, func() error, error) {
	if cfg.TTLHours <= 0 {
		cfg.TTLHours = 24
	}

	db, err := database.Open(cfg.CachePath)
	if err != nil {
		return nil, nil, err
	}

	store, err := cache.NewStore(db.Conn(), time.Duration(cfg.TTLHours)*time.Hour)
	if err != nil {
		db.Close()
		return nil, nil, err
	}

	return New(store, equity, crypto, log, opts...), db.Close, nil
}

// Classify resolves the symbols sequentially. The result slice has one entry
// per input symbol, in input order; callers never see errors, a symbol that
// cannot be resolved surfaces as Unknown.
func (c *Classifier) Classify(ctx context.Context, symbols []string) []Classification {
	return c.classifyBatch(ctx, symbols, false)
}

// ClassifyConcurrent resolves the symbols with a bounded worker pool.
// For identical inputs and cache state it returns exactly what Classify
// returns, in input order.
func (c *Classifier) ClassifyConcurrent(ctx context.Context, symbols []string) []Classification {
	return c.classifyBatch(ctx, symbols, true)
}

// classifyBatch resolves each distinct normalized symbol exactly once and
// maps the shared result onto every occurrence, so duplicate inputs yield
// identical records and execution mode never shows in the output. Cache
// reads for the batch go through one bulk query; newly resolved results are
// written back in one transaction.
func (c *Classifier) classifyBatch(ctx context.Context, symbols []string, concurrent bool) []Classification {
	results := make([]Classification, len(symbols))
	if len(symbols) == 0 {
		return results
	}

	normalized := make([]string, len(symbols))
	unique := make([]string, 0, len(symbols))
	seen := make(map[string]bool, len(symbols))
	for i, raw := range symbols {
		sym := Normalize(raw)
		normalized[i] = sym
		if !seen[sym] {
			seen[sym] = true
			unique = append(unique, sym)
		}
	}

	resolved := c.resolveBatch(ctx, unique, concurrent)
	c.persistBatch(resolved)

	for i, sym := range normalized {
		results[i] = resolved[sym]
	}
	return results
}

// resolveBatch runs the per-symbol pipeline over the deduplicated symbols,
// sequentially or with a bounded worker pool, keyed by symbol.
func (c *Classifier) resolveBatch(ctx context.Context, symbols []string, concurrent bool) map[string]Classification {
	prefetch := c.prefetch(symbols)
	resolved := make(map[string]Classification, len(symbols))

	if !concurrent || len(symbols) == 1 {
		for _, sym := range symbols {
			resolved[sym] = c.classifySymbol(ctx, sym, prefetch)
		}
		return resolved
	}

	workers := c.workers
	if len(symbols) < workers {
		workers = len(symbols)
	}

	type outcome struct {
		symbol string
		result Classification
	}

	jobs := make(chan string, len(symbols))
	outcomes := make(chan outcome, len(symbols))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for sym := range jobs {
				outcomes <- outcome{symbol: sym, result: c.classifySymbol(ctx, sym, prefetch)}
			}
		}()
	}

	for _, sym := range symbols {
		jobs <- sym
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(outcomes)
	}()

	for out := range outcomes {
		resolved[out.symbol] = out.result
	}
	return resolved
}

// prefetch bulk-reads the fresh cache entries for a batch in one query.
// A nil return means the bulk read failed and the pipeline falls back to
// per-symbol reads.
func (c *Classifier) prefetch(symbols []string) map[string]*cache.Entry {
	entries, err := c.store.GetMany(symbols)
	if err != nil {
		c.log.Warn().Err(err).Msg("Bulk cache read failed, falling back to per-symbol reads")
		return nil
	}
	return entries
}

// persistBatch writes heuristic- and provider-resolved results back to the
// cache in one transaction. Cache hits, shortcuts and Unknown are never
// persisted. Write failures are logged and dropped.
func (c *Classifier) persistBatch(resolved map[string]Classification) {
	entries := make([]cache.Entry, 0, len(resolved))
	for _, result := range resolved {
		switch result.Source {
		case SourceHeuristic, SourceEquity, SourceCrypto:
			entries = append(entries, cache.Entry{
				Symbol:      result.Symbol,
				Category:    string(result.Category),
				DisplayName: result.DisplayName,
				MarketCap:   result.MarketCap,
				YahooLookup: result.YahooLookup,
			})
		}
	}
	if len(entries) == 0 {
		return
	}

	if err := c.store.PutMany(entries); err != nil {
		c.log.Warn().Err(err).Int("entries", len(entries)).Msg("Cache write failed")
	}
}

// classifySymbol is the single-symbol pipeline shared by both execution
// modes. Steps, short-circuiting on first success:
// shortcut, cache, forex heuristic, commodity heuristic, equity provider,
// crypto provider, Unknown. A non-nil prefetch map stands in for per-symbol
// cache reads; absence from it is a known miss.
func (c *Classifier) classifySymbol(ctx context.Context, raw string, prefetch map[string]*cache.Entry) Classification {
	sym := Normalize(raw)
	if sym == "" {
		return unknown(sym)
	}

	if sc, ok := lookupShortcut(sym); ok {
		return sc
	}

	if entry, ok := prefetch[sym]; ok {
		return cacheResult(entry)
	} else if prefetch == nil {
		if cached := c.fromCache(sym); cached != nil {
			return *cached
		}
	}

	if result, ok := c.matchHeuristics(sym); ok {
		return result
	}

	if result, outcome := c.queryEquity(ctx, sym); outcome == stepMatched {
		return result
	}

	if result, outcome := c.queryCrypto(ctx, sym); outcome == stepMatched {
		return result
	}

	return unknown(sym)
}

// fromCache returns the cached classification for a symbol, or nil on miss.
// Cache failures degrade to a miss; they never abort classification.
func (c *Classifier) fromCache(sym string) *Classification {
	entry, err := c.store.Get(sym)
	if err != nil {
		c.log.Warn().Err(err).Str("symbol", sym).Msg("Cache read failed, treating as miss")
		return nil
	}
	if entry == nil {
		return nil
	}

	result := cacheResult(entry)
	return &result
}

func cacheResult(entry *cache.Entry) Classification {
	return Classification{
		Symbol:      entry.Symbol,
		Category:    Category(entry.Category),
		DisplayName: entry.DisplayName,
		MarketCap:   entry.MarketCap,
		YahooLookup: entry.YahooLookup,
		Source:      SourceCache,
	}
}

// matchHeuristics runs the pure matchers in fixed precedence order:
// Forex first, then Commodity.
func (c *Classifier) matchHeuristics(sym string) (Classification, bool) {
	if MatchForex(sym) {
		return Classification{
			Symbol:      sym,
			Category:    CategoryForex,
			DisplayName: sym + " Currency",
			YahooLookup: sym,
			Source:      SourceHeuristic,
		}, true
	}

	if name, ok := MatchCommodity(sym); ok {
		return Classification{
			Symbol:      sym,
			Category:    CategoryCommodity,
			DisplayName: name,
			YahooLookup: sym,
			Source:      SourceHeuristic,
		}, true
	}

	return Classification{}, false
}

// queryEquity asks the equity provider for a listing. Errors and timeouts
// degrade to fall-through, reported as stepErrored.
func (c *Classifier) queryEquity(ctx context.Context, sym string) (Classification, stepOutcome) {
	if c.equity == nil {
		return Classification{}, stepNoMatch
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	quote, err := c.equity.Query(ctx, sym)
	if err != nil {
		c.log.Debug().Err(err).Str("symbol", sym).Msg("Equity lookup failed")
		return Classification{}, stepErrored
	}
	if quote == nil {
		return Classification{}, stepNoMatch
	}

	category := CategoryEquity
	if quote.QuoteType == "INDEX" {
		category = CategoryIndex
	}

	return Classification{
		Symbol:      sym,
		Category:    category,
		DisplayName: quote.Name,
		MarketCap:   quote.MarketCap,
		YahooLookup: sym,
		Source:      SourceEquity,
	}, stepMatched
}

// queryCrypto asks the crypto provider to resolve the symbol. Crypto winners
// get a provider-specific suffixed lookup key for downstream quote
// compatibility.
func (c *Classifier) queryCrypto(ctx context.Context, sym string) (Classification, stepOutcome) {
	if c.crypto == nil {
		return Classification{}, stepNoMatch
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	coin, err := c.crypto.Resolve(ctx, sym)
	if err != nil {
		c.log.Debug().Err(err).Str("symbol", sym).Msg("Crypto lookup failed")
		return Classification{}, stepErrored
	}
	if coin == nil {
		return Classification{}, stepNoMatch
	}

	return Classification{
		Symbol:      sym,
		Category:    CategoryCrypto,
		DisplayName: coin.Name,
		MarketCap:   coin.MarketCap,
		YahooLookup: sym + "-USD",
		Source:      SourceCrypto,
	}, stepMatched
}

func unknown(sym string) Classification {
	return Classification{Symbol: sym, Category: CategoryUnknown}
}
