package clientdata

import (
	"github.com/rs/zerolog"
)

// CleanupJob removes expired entries from all cache tables.
type CleanupJob struct {
	repo *Repository
	log  zerolog.Logger
}

// NewCleanupJob creates a new cache cleanup job.
func NewCleanupJob(repo *Repository, log zerolog.Logger) *CleanupJob {
	return &CleanupJob{
		repo: repo,
		log:  log.With().Str("job", "price_cache_cleanup").Logger(),
	}
}

// Run removes all expired entries from all tables.
func (j *CleanupJob) Run() error {
	results, err := j.repo.DeleteAllExpired()
	if err != nil {
		j.log.Error().Err(err).Msg("Failed to delete expired cache entries")
		return err
	}

	var totalDeleted int64
	for table, count := range results {
		if count > 0 {
			j.log.Debug().
				Str("table", table).
				Int64("deleted", count).
				Msg("Cleaned up expired cache entries")
			totalDeleted += count
		}
	}

	if totalDeleted > 0 {
		j.log.Info().
			Int64("total_deleted", totalDeleted).
			Msg("Price cache cleanup completed")
	}

	return nil
}

// Name returns the job name for scheduling and logging.
func (j *CleanupJob) Name() string {
	return "price_cache_cleanup"
}
