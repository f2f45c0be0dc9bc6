package scheduler

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// HealthChecker is implemented by the bar store
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// CheckStoreJob verifies integrity of the SQLite bar store
type CheckStoreJob struct {
	log   zerolog.Logger
	store HealthChecker
}

// NewCheckStoreJob creates a new CheckStoreJob
func NewCheckStoreJob(store HealthChecker, log zerolog.Logger) *CheckStoreJob {
	return &CheckStoreJob{
		log:   log.With().Str("job", "check_bar_store").Logger(),
		store: store,
	}
}

// Name returns the job name
func (j *CheckStoreJob) Name() string {
	return "check_bar_store"
}

// Run executes the integrity check
func (j *CheckStoreJob) Run(ctx context.Context) error {
	if j.store == nil {
		j.log.Warn().Msg("Bar store not initialized, skipping")
		return nil
	}

	if err := j.store.HealthCheck(ctx); err != nil {
		j.log.Error().Err(err).Msg("Bar store integrity check failed")
		return fmt.Errorf("bar store is corrupted: %w", err)
	}

	j.log.Debug().Msg("Bar store integrity OK")
	return nil
}
