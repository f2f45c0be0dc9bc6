package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/andreasrassloff-ai/darkhorse/internal/clients/kucoin"
	"github.com/andreasrassloff-ai/darkhorse/internal/config"
	"github.com/andreasrassloff-ai/darkhorse/internal/history"
)

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

func parseTime(value string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid time %q", value)
}

// fetchRange resolves the download window; start defaults to end minus years
func fetchRange(start, end string, years float64, now time.Time) (time.Time, time.Time, error) {
	to := now.UTC()
	if end != "" {
		t, err := parseTime(end)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		to = t
	}

	from := to.Add(-time.Duration(years * 365 * 24 * float64(time.Hour)))
	if start != "" {
		t, err := parseTime(start)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		from = t
	}

	if !from.Before(to) {
		return time.Time{}, time.Time{}, fmt.Errorf("start %s must be before end %s", from.Format(time.RFC3339), to.Format(time.RFC3339))
	}
	return from, to, nil
}

func runFetch(ctx context.Context, cfg *config.Config, log zerolog.Logger, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("fetch", flag.ContinueOnError)
	fs.SetOutput(stderr)
	symbol := fs.String("symbol", "XMR-USDT", "trading pair to download")
	interval := fs.String("interval", "1hour", "candle interval, e.g. 1min, 1hour or 1day")
	years := fs.Float64("years", 2, "years of history to download when --start is not given")
	start := fs.String("start", "", "start time (RFC3339 or YYYY-MM-DD)")
	end := fs.String("end", "", "end time (default now)")
	output := fs.String("output", "", "target file (default data/xmr-kucoin-<interval>.json)")
	storePath := fs.String("store", cfg.StorePath, "also upsert the candles into this SQLite bar store")
	noSleep := fs.Bool("no-sleep", false, "do not pause between API calls")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	if _, ok := kucoin.IntervalSeconds[*interval]; !ok {
		fmt.Fprintf(stderr, "unsupported interval %q\n", *interval)
		return 2
	}
	from, to, err := fetchRange(*start, *end, *years, time.Now())
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}

	var opts []kucoin.Option
	if *noSleep {
		opts = append(opts, kucoin.WithBatchPause(0))
	}
	client := kucoin.NewClient(cfg.KuCoinURL, log, opts...)

	bars, err := client.Candles(ctx, *symbol, *interval, from, to)
	if err != nil {
		fmt.Fprintf(stderr, "download failed: %v\n", err)
		return 1
	}

	path := *output
	if path == "" {
		path = filepath.Join("data", fmt.Sprintf("xmr-kucoin-%s.json", *interval))
	}
	if err := history.Save(path, bars); err != nil {
		fmt.Fprintf(stderr, "failed to write %s: %v\n", path, err)
		return 1
	}

	if *storePath != "" {
		store, err := history.OpenStore(ctx, *storePath, log)
		if err != nil {
			fmt.Fprintf(stderr, "failed to open bar store: %v\n", err)
			return 1
		}
		defer store.Close()
		if err := store.SaveBars(ctx, *symbol, *interval, bars); err != nil {
			fmt.Fprintf(stderr, "failed to store candles: %v\n", err)
			return 1
		}
	}

	fmt.Fprintf(stdout, "Saved KuCoin data: %s (%d candles, %s)\n", path, len(bars), *interval)
	return 0
}
