// Package config provides configuration management functionality.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/andreasrassloff-ai/darkhorse/internal/modules/rebalancing"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Prefix of every environment variable read by Load
const Prefix = "DARKHORSE"

// Config holds application configuration
type Config struct {
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogPretty bool   `envconfig:"LOG_PRETTY" default:"true"`

	// Price history analysed by the analyse command and the API
	DataPath string `envconfig:"DATA_PATH" default:"data/monero.json"`

	AssetName   string `envconfig:"ASSET_NAME" default:"Monero (XMR)"`
	BaseSymbol  string `envconfig:"BASE_SYMBOL" default:"XMR"`
	QuoteSymbol string `envconfig:"QUOTE_SYMBOL" default:"USD"`

	MinHistory    int           `envconfig:"MIN_HISTORY" default:"60"`
	HistoryLimit  int           `envconfig:"HISTORY_LIMIT" default:"240"`
	Interval      time.Duration `envconfig:"INTERVAL" default:"60s"`
	TradeFraction float64       `envconfig:"TRADE_FRACTION" default:"0.4"`
	FeeRate       float64       `envconfig:"FEE_RATE" default:"0.001"`
	Iterations    int           `envconfig:"ITERATIONS" default:"0"`
	StartBase     float64       `envconfig:"START_BASE" default:"0.8"`
	StartCash     float64       `envconfig:"START_CASH" default:"0"`

	Host string `envconfig:"HOST" default:"127.0.0.1"`
	Port int    `envconfig:"PORT" default:"8000"`

	// Watchlist file and the cron schedule (seconds field first) for re-analysing it
	Watchlist     string `envconfig:"WATCHLIST"`
	WatchSchedule string `envconfig:"WATCH_SCHEDULE"`

	// Optional SQLite file receiving every downloaded bar
	StorePath string `envconfig:"STORE_PATH"`

	CoinGeckoURL string `envconfig:"COINGECKO_URL" default:"https://api.coingecko.com/api/v3/coins/monero/market_chart"`
	KuCoinURL    string `envconfig:"KUCOIN_URL" default:"https://api.kucoin.com/api/v1/market/candles"`
}

// Load reads configuration from a .env file (if present) and the environment
func Load() (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment: %w", err)
	}

	if cfg.DataPath != "" {
		cfg.DataPath = filepath.Clean(cfg.DataPath)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that the configuration is usable
func (c *Config) Validate() error {
	var errs []error
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("%s_PORT out of range: %d", Prefix, c.Port))
	}
	if c.MinHistory <= 0 {
		errs = append(errs, fmt.Errorf("%s_MIN_HISTORY must be positive", Prefix))
	}
	if c.BaseSymbol == "" || c.QuoteSymbol == "" {
		errs = append(errs, errors.New("base and quote symbols are required"))
	}
	return errors.Join(errs...)
}

// Rebalancing builds the immutable rebalancer parameters from the loaded values.
// Anti-dust thresholds and the share tolerance keep their package defaults.
func (c *Config) Rebalancing() rebalancing.Config {
	rc := rebalancing.DefaultConfig()
	rc.AssetName = c.AssetName
	rc.BaseSymbol = c.BaseSymbol
	rc.QuoteSymbol = c.QuoteSymbol
	rc.MinHistory = c.MinHistory
	rc.HistoryLimit = c.HistoryLimit
	rc.Interval = c.Interval
	rc.TradeFraction = c.TradeFraction
	rc.FeeRate = c.FeeRate
	rc.Iterations = c.Iterations
	rc.StartBase = c.StartBase
	rc.StartCash = c.StartCash
	return rc
}

// Addr returns host:port for the HTTP server
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
