package cache

import (
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// CleanupJob sweeps expired rows from the ticker cache. Classification
// correctness never depends on it; it only keeps the file from growing.
type CleanupJob struct {
	store *Store
	log   zerolog.Logger
}

// NewCleanupJob creates a cache cleanup job.
func NewCleanupJob(store *Store, log zerolog.Logger) *CleanupJob {
	return &CleanupJob{
		store: store,
		log:   log.With().Str("job", "cache_cleanup").Logger(),
	}
}

// Run removes all expired entries. Implements cron.Job.
func (j *CleanupJob) Run() {
	deleted, err := j.store.EvictExpired()
	if err != nil {
		j.log.Error().Err(err).Msg("Failed to evict expired cache entries")
		return
	}

	if deleted > 0 {
		j.log.Info().Int64("deleted", deleted).Msg("Evicted expired cache entries")
	}
}

// Schedule registers the job with the given cron runner on a daily schedule.
func (j *CleanupJob) Schedule(c *cron.Cron) error {
	_, err := c.AddJob("0 3 * * *", j)
	return err
}
