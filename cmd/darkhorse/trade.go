package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/andreasrassloff-ai/darkhorse/internal/clients/coingecko"
	"github.com/andreasrassloff-ai/darkhorse/internal/config"
	"github.com/andreasrassloff-ai/darkhorse/internal/domain"
	"github.com/andreasrassloff-ai/darkhorse/internal/feed"
	"github.com/andreasrassloff-ai/darkhorse/internal/history"
	"github.com/andreasrassloff-ai/darkhorse/internal/metrics"
	"github.com/andreasrassloff-ai/darkhorse/internal/modules/rebalancing"
)

func runTrade(ctx context.Context, cfg *config.Config, log zerolog.Logger, args []string, stdout, stderr io.Writer) int {
	rc := cfg.Rebalancing()

	fs := flag.NewFlagSet("trade", flag.ContinueOnError)
	fs.SetOutput(stderr)
	data := fs.String("data", cfg.DataPath, "price file replayed when the live feed is unavailable")
	fs.IntVar(&rc.MinHistory, "min-history", rc.MinHistory, "bars handed to the analysis")
	fs.IntVar(&rc.HistoryLimit, "history-limit", rc.HistoryLimit, "bars requested from the feed per cycle")
	fs.DurationVar(&rc.Interval, "interval", rc.Interval, "pause between cycles")
	fs.Float64Var(&rc.TradeFraction, "trade-fraction", rc.TradeFraction, "maximum share of the portfolio moved per cycle")
	fs.Float64Var(&rc.FeeRate, "fee-rate", rc.FeeRate, "fee charged on every trade, as a fraction of its value")
	fs.IntVar(&rc.Iterations, "iterations", rc.Iterations, "cycles to run (0 runs until interrupted)")
	fs.Float64Var(&rc.StartBase, "start-base", rc.StartBase, "starting balance of the base asset")
	fs.Float64Var(&rc.StartCash, "start-cash", rc.StartCash, "starting cash balance")
	offline := fs.Bool("offline", false, "replay the price file without polling the live feed")
	storePath := fs.String("store", cfg.StorePath, "SQLite bar store replayed instead of the price file")
	storeSymbol := fs.String("store-symbol", "XMR-USDT", "symbol of the stored bars to replay")
	storeInterval := fs.String("store-interval", "1hour", "interval of the stored bars to replay")
	metricsAddr := fs.String("metrics-addr", "", "serve Prometheus metrics on this address while trading")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	replay := func() (feed.Source, error) {
		if *storePath != "" {
			return replayStore(ctx, *storePath, *storeSymbol, *storeInterval, rc.HistoryLimit, log)
		}
		sim, err := feed.LoadSimulated(*data, rc.HistoryLimit)
		if err != nil {
			return nil, err
		}
		return sim, nil
	}

	var source feed.Source
	if *offline {
		sim, err := replay()
		if err != nil {
			fmt.Fprintf(stderr, "failed to prepare the price replay: %v\n", err)
			return 1
		}
		source = sim
	} else {
		live := feed.NewLive(coingecko.NewClient(cfg.CoinGeckoURL, strings.ToLower(rc.QuoteSymbol), log))
		source = feed.NewFallback(live, replay, log)
	}

	m := metrics.New()
	if *metricsAddr != "" {
		srv := &http.Server{Addr: *metricsAddr, Handler: m.Handler(), ReadHeaderTimeout: 10 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Msg("Metrics server failed")
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
		log.Info().Str("addr", *metricsAddr).Msg("Serving metrics")
	}

	r, err := rebalancing.NewRebalancer(rc, source, stdout, log, rebalancing.WithObserver(m))
	if err != nil {
		fmt.Fprintf(stderr, "invalid trading parameters: %v\n", err)
		return 2
	}

	if err := r.Run(ctx); err != nil {
		if errors.Is(err, domain.ErrNoPriceData) {
			fmt.Fprintln(stderr, "No price data received, nothing to report.")
			return 1
		}
		fmt.Fprintf(stderr, "trading stopped: %v\n", err)
		return 1
	}
	return 0
}

// replayStore builds a simulated feed from bars kept in the SQLite store
func replayStore(ctx context.Context, path, symbol, interval string, limit int, log zerolog.Logger) (feed.Source, error) {
	store, err := history.OpenStore(ctx, path, log)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	bars, err := store.LoadBars(ctx, symbol, interval, 0)
	if err != nil {
		return nil, err
	}
	sim, err := feed.NewSimulated(bars, limit)
	if err != nil {
		return nil, err
	}
	return sim, nil
}
