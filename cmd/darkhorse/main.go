// Package main is the entry point for darkhorse.
//
// Subcommands:
//   - analyse: recommendation reports for a price file or a watchlist
//   - trade:   the self-rebalancing portfolio demo against live or replayed prices
//   - serve:   the HTTP API with optional scheduled watchlist analysis
//   - fetch:   download historical KuCoin candles into a price file
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/andreasrassloff-ai/darkhorse/internal/config"
	"github.com/andreasrassloff-ai/darkhorse/pkg/logger"
)

const usage = `usage: darkhorse <command> [flags]

commands:
  analyse   analyse a price file, a watchlist or SYMBOL=path entries
  trade     run the rebalancing demo
  serve     run the HTTP API
  fetch     download KuCoin candles into a price file

Run "darkhorse <command> -h" for the flags of a command.
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

type command func(ctx context.Context, cfg *config.Config, log zerolog.Logger, args []string, stdout, stderr io.Writer) int

var commands = map[string]command{
	"analyse": runAnalyse,
	"analyze": runAnalyse,
	"trade":   runTrade,
	"serve":   runServe,
	"fetch":   runFetch,
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return 2
	}

	name := strings.ToLower(args[0])
	if name == "-h" || name == "--help" || name == "help" {
		fmt.Fprint(stdout, usage)
		return 0
	}
	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(stderr, "unknown command %q\n\n%s", args[0], usage)
		return 2
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "configuration error: %v\n", err)
		return 1
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.LogPretty,
		Output: stderr,
	})
	logger.SetGlobalLogger(log)

	return cmd(ctx, cfg, log, args[1:], stdout, stderr)
}

// stringList collects a repeatable string flag
type stringList []string

func (s *stringList) String() string {
	return strings.Join(*s, ",")
}

func (s *stringList) Set(value string) error {
	*s = append(*s, value)
	return nil
}
