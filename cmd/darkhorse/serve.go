package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/andreasrassloff-ai/darkhorse/internal/clients/yahoo"
	"github.com/andreasrassloff-ai/darkhorse/internal/config"
	"github.com/andreasrassloff-ai/darkhorse/internal/history"
	"github.com/andreasrassloff-ai/darkhorse/internal/metrics"
	"github.com/andreasrassloff-ai/darkhorse/internal/modules/watchlist"
	"github.com/andreasrassloff-ai/darkhorse/internal/scheduler"
	"github.com/andreasrassloff-ai/darkhorse/internal/server"
)

const storeCheckSchedule = "0 0 * * * *"

func runServe(ctx context.Context, cfg *config.Config, log zerolog.Logger, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(stderr)
	host := fs.String("host", cfg.Host, "listen host")
	port := fs.Int("port", cfg.Port, "listen port")
	data := fs.String("data", cfg.DataPath, "price file served by /api/recommendation")
	watchlistPath := fs.String("watchlist", cfg.Watchlist, "watchlist file served by /api/watchlist")
	schedule := fs.String("schedule", cfg.WatchSchedule, "cron schedule (with seconds) for re-analysing the watchlist")
	storePath := fs.String("store", cfg.StorePath, "SQLite bar store checked and checkpointed hourly")
	minHistory := fs.Int("min-history", cfg.MinHistory, "minimum number of bars required for an analysis")
	devMode := fs.Bool("dev", false, "disable response compression")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	m := metrics.New()
	analyzer := watchlist.NewAnalyzer(*minHistory, yahoo.NewClient(log), log)
	latest := &watchlist.Latest{}
	sched := scheduler.New(log)
	jobs := 0

	var watchlistJob scheduler.Job
	if *watchlistPath != "" {
		path := *watchlistPath
		watchlistJob = scheduler.NewWatchlistJob(
			analyzer,
			func() ([]history.Entry, error) { return history.LoadWatchlist(path) },
			latest, m, log,
		)
		if *schedule != "" {
			if err := sched.AddJob(*schedule, watchlistJob); err != nil {
				fmt.Fprintln(stderr, err)
				return 2
			}
			jobs++
		}
	}

	if *storePath != "" {
		store, err := history.OpenStore(ctx, *storePath, log)
		if err != nil {
			fmt.Fprintf(stderr, "failed to open bar store: %v\n", err)
			return 1
		}
		defer store.Close()
		for _, job := range []scheduler.Job{
			scheduler.NewCheckStoreJob(store, log),
			scheduler.NewCheckWALCheckpointsJob(store, log),
		} {
			if err := sched.AddJob(storeCheckSchedule, job); err != nil {
				fmt.Fprintln(stderr, err)
				return 2
			}
			jobs++
		}
	}

	srv := server.New(server.Config{
		Log:          log,
		Addr:         net.JoinHostPort(*host, strconv.Itoa(*port)),
		AssetName:    cfg.AssetName,
		DataPath:     *data,
		Analyzer:     analyzer,
		Latest:       latest,
		WatchlistJob: watchlistJob,
		Metrics:      m,
		DevMode:      *devMode,
	})

	if jobs > 0 {
		sched.Start()
		defer sched.Stop()
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()
	fmt.Fprintf(stdout, "Serving darkhorse on http://%s\n", net.JoinHostPort(*host, strconv.Itoa(*port)))

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("Failed to start server")
			return 1
		}
		return 0
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
		return 1
	}

	log.Info().Msg("Server stopped")
	return 0
}
