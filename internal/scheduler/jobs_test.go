package scheduler

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/andreasrassloff-ai/darkhorse/internal/database"
	"github.com/andreasrassloff-ai/darkhorse/internal/domain"
	"github.com/andreasrassloff-ai/darkhorse/internal/history"
	"github.com/andreasrassloff-ai/darkhorse/internal/modules/watchlist"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	results []watchlist.Result
}

func (r *recorder) WatchlistCompleted(result watchlist.Result) {
	r.results = append(r.results, result)
}

func dailyBars(n int) []domain.PriceBar {
	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]domain.PriceBar, n)
	price := 100.0
	for i := range bars {
		bars[i] = domain.PriceBar{Date: day.AddDate(0, 0, i), Open: price, High: price, Low: price, Close: price}
		price *= 1.03
	}
	return bars
}

func TestWatchlistJob_PublishesResult(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.json")
	require.NoError(t, history.Save(good, dailyBars(70)))

	entries := []history.Entry{
		{Symbol: "GOOD", Source: history.SourceFile, Path: good},
		{Symbol: "MISSING", Source: history.SourceFile, Path: filepath.Join(dir, "missing.json")},
	}
	latest := &watchlist.Latest{}
	rec := &recorder{}
	job := NewWatchlistJob(
		watchlist.NewAnalyzer(60, nil, zerolog.Nop()),
		func() ([]history.Entry, error) { return entries, nil },
		latest, rec, zerolog.Nop(),
	)

	assert.Equal(t, "watchlist_analysis", job.Name())
	require.NoError(t, job.Run(context.Background()))

	result, ok := latest.Get()
	require.True(t, ok)
	require.Len(t, result.Reports, 1)
	assert.Equal(t, "GOOD", result.Reports[0].Symbol)
	require.Len(t, result.Failures, 1)
	assert.Equal(t, "MISSING", result.Failures[0].Symbol)
	assert.Len(t, rec.results, 1)
}

func TestWatchlistJob_LoadFailure(t *testing.T) {
	latest := &watchlist.Latest{}
	job := NewWatchlistJob(
		watchlist.NewAnalyzer(60, nil, zerolog.Nop()),
		func() ([]history.Entry, error) { return nil, errors.New("unreadable") },
		latest, nil, zerolog.Nop(),
	)

	err := job.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unreadable")

	_, ok := latest.Get()
	assert.False(t, ok)
}

type fakeChecker struct {
	err error
}

func (f fakeChecker) HealthCheck(context.Context) error { return f.err }

func TestCheckStoreJob(t *testing.T) {
	ctx := context.Background()

	assert.NoError(t, NewCheckStoreJob(fakeChecker{}, zerolog.Nop()).Run(ctx))
	assert.NoError(t, NewCheckStoreJob(nil, zerolog.Nop()).Run(ctx))

	corrupt := errors.New("page 4 malformed")
	err := NewCheckStoreJob(fakeChecker{err: corrupt}, zerolog.Nop()).Run(ctx)
	assert.ErrorIs(t, err, corrupt)
}

func TestCheckStoreJob_RealStore(t *testing.T) {
	store, err := history.OpenStore(context.Background(), filepath.Join(t.TempDir(), "bars.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	job := NewCheckStoreJob(store, zerolog.Nop())
	assert.Equal(t, "check_bar_store", job.Name())
	assert.NoError(t, job.Run(context.Background()))

	assert.NoError(t, NewCheckWALCheckpointsJob(store, zerolog.Nop()).Run(context.Background()))
}

type fakeCheckpointer struct {
	status database.WALStatus
	err    error
	calls  int
}

func (f *fakeCheckpointer) WALCheckpoint(context.Context) (database.WALStatus, error) {
	f.calls++
	return f.status, f.err
}

func TestCheckWALCheckpointsJob(t *testing.T) {
	ctx := context.Background()

	job := NewCheckWALCheckpointsJob(nil, zerolog.Nop())
	assert.Equal(t, "check_wal_checkpoints", job.Name())
	assert.NoError(t, job.Run(ctx))

	tests := []struct {
		name  string
		store *fakeCheckpointer
	}{
		{name: "small wal", store: &fakeCheckpointer{status: database.WALStatus{Frames: 10, Checkpointed: 10}}},
		{name: "large wal", store: &fakeCheckpointer{status: database.WALStatus{Frames: 5000, Busy: true}}},
		{name: "checkpoint error is logged", store: &fakeCheckpointer{err: errors.New("database is locked")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NoError(t, NewCheckWALCheckpointsJob(tt.store, zerolog.Nop()).Run(ctx))
			assert.Equal(t, 1, tt.store.calls)
		})
	}
}
