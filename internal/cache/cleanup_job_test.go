package cache

import (
	"database/sql"
	"testing"
	"time"

	_ "modernc.org/sqlite"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanupJobRun(t *testing.T) {
	store, db := setupTestStore(t, time.Hour)

	insertRow(t, db, "FRESH", "Equity", time.Now())
	insertRow(t, db, "STALE", "Crypto", time.Now().Add(-2*time.Hour))

	job := NewCleanupJob(store, zerolog.Nop())
	job.Run()

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM tickers").Scan(&count))
	assert.Equal(t, 1, count)

	entry, err := store.Get("FRESH")
	require.NoError(t, err)
	assert.NotNil(t, entry)
}

func TestCleanupJobRunSurvivesStoreFailure(t *testing.T) {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)

	store, err := NewStore(db, time.Hour)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	job := NewCleanupJob(store, zerolog.Nop())
	assert.NotPanics(t, job.Run)
}

func TestCleanupJobSchedule(t *testing.T) {
	store, _ := setupTestStore(t, time.Hour)

	c := cron.New()
	job := NewCleanupJob(store, zerolog.Nop())
	require.NoError(t, job.Schedule(c))
	assert.Len(t, c.Entries(), 1)
}
