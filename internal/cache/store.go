// Package cache provides persistent caching of resolved ticker
// classifications. Entries carry a creation timestamp and are considered
// expired once older than the store's TTL; expiry is a read-time check,
// expired rows stay on disk until overwritten or swept.
package cache

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
)

const schema = `
CREATE TABLE IF NOT EXISTS tickers (
	symbol       TEXT PRIMARY KEY,
	category     TEXT NOT NULL,
	display_name TEXT NOT NULL DEFAULT '',
	market_cap   REAL,
	yahoo_lookup TEXT NOT NULL,
	cached_at    INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_tickers_cached_at ON tickers(cached_at);
`

// Entry is a persisted classification row. Category is stored as its string
// form; the classification layer owns the closed enum.
type Entry struct {
	Symbol      string
	Category    string
	DisplayName string
	MarketCap   *float64
	YahooLookup string
	CachedAt    time.Time
}

// Store provides cache operations over a SQLite connection.
// Each classifier owns its own Store; there is no process-wide instance.
type Store struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time // overridden in tests to pin the freshness boundary
}

// NewStore creates a ticker cache on the given connection, creating the
// schema if needed.
func NewStore(db *sql.DB, ttl time.Duration) (*Store, error) {
	if ttl <= 0 {
		return nil, fmt.Errorf("cache TTL must be positive, got %s", ttl)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to create cache schema: %w", err)
	}
	return &Store{db: db, ttl: ttl, now: time.Now}, nil
}

// TTL returns the store's freshness window.
func (s *Store) TTL() time.Duration {
	return s.ttl
}

// Get returns the entry for a symbol if it exists and is still fresh.
// An entry aged exactly the TTL is still fresh; expiry requires age
// strictly greater than the TTL. Expired or missing rows return (nil, nil);
// they are not deleted here.
func (s *Store) Get(symbol string) (*Entry, error) {
	cutoff := s.now().Add(-s.ttl).Unix()

	row := s.db.QueryRow(
		`SELECT symbol, category, display_name, market_cap, yahoo_lookup, cached_at
		 FROM tickers WHERE symbol = ? AND cached_at >= ?`,
		symbol, cutoff,
	)

	entry, err := scanEntry(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cache entry for %s: %w", symbol, err)
	}
	return entry, nil
}

// GetMany returns the fresh entries for the given symbols, keyed by symbol.
// Symbols without a fresh row are simply absent from the result.
func (s *Store) GetMany(symbols []string) (map[string]*Entry, error) {
	results := make(map[string]*Entry, len(symbols))
	if len(symbols) == 0 {
		return results, nil
	}

	cutoff := s.now().Add(-s.ttl).Unix()

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(symbols)), ",")
	args := make([]interface{}, 0, len(symbols)+1)
	for _, sym := range symbols {
		args = append(args, sym)
	}
	args = append(args, cutoff)

	rows, err := s.db.Query(
		`SELECT symbol, category, display_name, market_cap, yahoo_lookup, cached_at
		 FROM tickers WHERE symbol IN (`+placeholders+`) AND cached_at >= ?`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to read cache entries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		entry, err := scanEntry(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan cache entry: %w", err)
		}
		results[entry.Symbol] = entry
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate cache entries: %w", err)
	}

	return results, nil
}

// Put upserts an entry with the cache timestamp set to now.
// Unknown classifications must never be persisted: a transient provider
// failure would otherwise stick for a full TTL window.
func (s *Store) Put(entry Entry) error {
	if entry.Category == "" || entry.Category == "Unknown" {
		return fmt.Errorf("refusing to cache unresolved classification for %s", entry.Symbol)
	}

	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO tickers (symbol, category, display_name, market_cap, yahoo_lookup, cached_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		entry.Symbol, entry.Category, entry.DisplayName, entry.MarketCap, entry.YahooLookup, s.now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to store cache entry for %s: %w", entry.Symbol, err)
	}
	return nil
}

// PutMany upserts a batch of entries in one transaction with a shared
// timestamp. Rejects the whole batch if any entry is unresolved, same rule
// as Put.
func (s *Store) PutMany(entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin cache write: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(
		`INSERT OR REPLACE INTO tickers (symbol, category, display_name, market_cap, yahoo_lookup, cached_at)
		 VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare cache write: %w", err)
	}
	defer stmt.Close()

	now := s.now().Unix()
	for _, entry := range entries {
		if entry.Category == "" || entry.Category == "Unknown" {
			return fmt.Errorf("refusing to cache unresolved classification for %s", entry.Symbol)
		}
		if _, err := stmt.Exec(entry.Symbol, entry.Category, entry.DisplayName, entry.MarketCap, entry.YahooLookup, now); err != nil {
			return fmt.Errorf("failed to store cache entry for %s: %w", entry.Symbol, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit cache writes: %w", err)
	}
	return nil
}

// EvictExpired bulk-removes rows past the TTL. Storage hygiene only; Get
// already treats expired rows as misses.
func (s *Store) EvictExpired() (int64, error) {
	cutoff := s.now().Add(-s.ttl).Unix()

	result, err := s.db.Exec("DELETE FROM tickers WHERE cached_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to evict expired entries: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return deleted, nil
}

// Clear removes all entries.
func (s *Store) Clear() error {
	if _, err := s.db.Exec("DELETE FROM tickers"); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	return nil
}

// Count returns the total number of rows, fresh or expired.
func (s *Store) Count() (int64, error) {
	var count int64
	if err := s.db.QueryRow("SELECT COUNT(*) FROM tickers").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count cache entries: %w", err)
	}
	return count, nil
}

func scanEntry(scan func(dest ...interface{}) error) (*Entry, error) {
	var entry Entry
	var marketCap sql.NullFloat64
	var cachedAt int64

	err := scan(&entry.Symbol, &entry.Category, &entry.DisplayName, &marketCap, &entry.YahooLookup, &cachedAt)
	if err != nil {
		return nil, err
	}

	if marketCap.Valid {
		entry.MarketCap = &marketCap.Float64
	}
	entry.CachedAt = time.Unix(cachedAt, 0)

	return &entry, nil
}
