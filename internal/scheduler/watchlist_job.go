package scheduler

import (
	"context"
	"fmt"

	"github.com/andreasrassloff-ai/darkhorse/internal/history"
	"github.com/andreasrassloff-ai/darkhorse/internal/modules/watchlist"
	"github.com/rs/zerolog"
)

// WatchlistRecorder receives every completed watchlist result
type WatchlistRecorder interface {
	WatchlistCompleted(result watchlist.Result)
}

// WatchlistJob re-analyses the watchlist and publishes the latest result
type WatchlistJob struct {
	log      zerolog.Logger
	analyzer *watchlist.Analyzer
	entries  func() ([]history.Entry, error)
	latest   *watchlist.Latest
	recorder WatchlistRecorder
}

// NewWatchlistJob creates a new WatchlistJob. entries is called on every run
// so edits to the watchlist file are picked up; recorder may be nil.
func NewWatchlistJob(
	analyzer *watchlist.Analyzer,
	entries func() ([]history.Entry, error),
	latest *watchlist.Latest,
	recorder WatchlistRecorder,
	log zerolog.Logger,
) *WatchlistJob {
	return &WatchlistJob{
		log:      log.With().Str("job", "watchlist_analysis").Logger(),
		analyzer: analyzer,
		entries:  entries,
		latest:   latest,
		recorder: recorder,
	}
}

// Name returns the job name
func (j *WatchlistJob) Name() string {
	return "watchlist_analysis"
}

// Run executes the watchlist analysis
func (j *WatchlistJob) Run(ctx context.Context) error {
	entries, err := j.entries()
	if err != nil {
		return fmt.Errorf("failed to load watchlist: %w", err)
	}

	result := j.analyzer.Run(ctx, entries)
	j.latest.Set(result)
	if j.recorder != nil {
		j.recorder.WatchlistCompleted(result)
	}

	j.log.Info().
		Int("reports", len(result.Reports)).
		Int("failures", len(result.Failures)).
		Msg("Watchlist analysis stored")
	return nil
}
