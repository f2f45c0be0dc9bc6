package main

import (
	"context"
	"flag"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/andreasrassloff-ai/darkhorse/internal/clients/yahoo"
	"github.com/andreasrassloff-ai/darkhorse/internal/config"
	"github.com/andreasrassloff-ai/darkhorse/internal/history"
	"github.com/andreasrassloff-ai/darkhorse/internal/modules/watchlist"
)

func runAnalyse(ctx context.Context, cfg *config.Config, log zerolog.Logger, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("analyse", flag.ContinueOnError)
	fs.SetOutput(stderr)
	data := fs.String("data", "", "price file to analyse (default "+cfg.DataPath+")")
	watchlistPath := fs.String("watchlist", cfg.Watchlist, "watchlist file listing the instruments to analyse")
	minHistory := fs.Int("min-history", cfg.MinHistory, "minimum number of bars required for an analysis")
	var symbols stringList
	fs.Var(&symbols, "symbol", "SYMBOL=path entry to analyse (repeatable; yahoo:TICKER selects Yahoo)")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *minHistory <= 0 {
		fmt.Fprintln(stderr, "--min-history must be positive")
		return 2
	}

	entries, err := history.CollectEntries(symbols, *watchlistPath)
	if err != nil {
		fmt.Fprintf(stderr, "failed to read instruments: %v\n", err)
		return 1
	}

	// Without instruments, or with an explicit --data, the configured price file is analysed
	if len(entries) == 0 || *data != "" {
		path := *data
		if path == "" {
			path = cfg.DataPath
		}
		entries = append([]history.Entry{{
			Symbol: cfg.AssetName,
			Source: history.SourceFile,
			Path:   path,
		}}, entries...)
	}

	analyzer := watchlist.NewAnalyzer(*minHistory, yahoo.NewClient(log), log)
	result := analyzer.Run(ctx, entries)
	watchlist.Print(stdout, stderr, result)

	if result.HasFailures() {
		return 1
	}
	return 0
}
