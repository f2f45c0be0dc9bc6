package scheduler

import (
	"context"

	"github.com/andreasrassloff-ai/darkhorse/internal/database"
	"github.com/rs/zerolog"
)

// largeWALFrames is the WAL size above which a warning is logged
const largeWALFrames = 1000

// Checkpointer is implemented by the bar store
type Checkpointer interface {
	WALCheckpoint(ctx context.Context) (database.WALStatus, error)
}

// CheckWALCheckpointsJob checkpoints the bar store and monitors WAL growth
type CheckWALCheckpointsJob struct {
	log   zerolog.Logger
	store Checkpointer
}

// NewCheckWALCheckpointsJob creates a new CheckWALCheckpointsJob
func NewCheckWALCheckpointsJob(store Checkpointer, log zerolog.Logger) *CheckWALCheckpointsJob {
	return &CheckWALCheckpointsJob{
		log:   log.With().Str("job", "check_wal_checkpoints").Logger(),
		store: store,
	}
}

// Name returns the job name
func (j *CheckWALCheckpointsJob) Name() string {
	return "check_wal_checkpoints"
}

// Run executes the WAL checkpoint. Failures are only logged; the next tick retries.
func (j *CheckWALCheckpointsJob) Run(ctx context.Context) error {
	if j.store == nil {
		return nil
	}

	status, err := j.store.WALCheckpoint(ctx)
	if err != nil {
		j.log.Warn().Err(err).Msg("Failed to check WAL checkpoint")
		return nil
	}

	if status.Frames > largeWALFrames {
		j.log.Warn().
			Int("wal_frames", status.Frames).
			Int("checkpointed", status.Checkpointed).
			Bool("busy", status.Busy).
			Msg("WAL file is large, checkpoint may be needed")
	} else {
		j.log.Debug().
			Int("wal_frames", status.Frames).
			Msg("WAL checkpoint status OK")
	}
	return nil
}
