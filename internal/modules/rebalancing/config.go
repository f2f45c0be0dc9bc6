package rebalancing

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// Config is the immutable parameter set of one rebalancing run
type Config struct {
	AssetName   string
	BaseSymbol  string // e.g. XMR
	QuoteSymbol string // e.g. USD

	MinHistory   int // bars handed to the analysis, and the minimum accepted from the feed
	HistoryLimit int // bars requested from the feed on every poll

	Interval   time.Duration // pause between cycles
	RetryFloor time.Duration // lower bound of the pause after a failed poll

	TradeFraction float64 // ceiling of the share moved per cycle, scaled by confidence
	FeeRate       float64 // fraction of the traded value paid as fee
	Iterations    int     // completed cycles before stopping; 0 runs until cancelled

	StartBase float64
	StartCash float64

	// Trades below max(price*MinRelativeTradeShare, MinAbsoluteTradeValue) are skipped
	MinAbsoluteTradeValue float64
	MinRelativeTradeShare float64

	// Share gaps smaller than this are ignored
	ShareTolerance float64
}

// DefaultConfig returns the defaults of the Monero/USD demo
func DefaultConfig() Config {
	return Config{
		AssetName:             "Monero (XMR)",
		BaseSymbol:            "XMR",
		QuoteSymbol:           "USD",
		MinHistory:            60,
		HistoryLimit:          240,
		Interval:              60 * time.Second,
		RetryFloor:            time.Second,
		TradeFraction:         0.4,
		FeeRate:               0.001,
		Iterations:            0,
		StartBase:             0.8,
		StartCash:             0.0,
		MinAbsoluteTradeValue: 10.0,
		MinRelativeTradeShare: 0.10,
		ShareTolerance:        1e-4,
	}
}

// Normalize clamps the trade fraction to [0, 1] and the fee rate to >= 0.
func (c Config) Normalize() Config {
	c.TradeFraction = math.Min(math.Max(c.TradeFraction, 0), 1)
	c.FeeRate = math.Max(c.FeeRate, 0)
	if c.Interval < 0 {
		c.Interval = 0
	}
	if c.RetryFloor <= 0 {
		c.RetryFloor = time.Second
	}
	return c
}

// Validate checks the values that cannot be clamped into range
func (c Config) Validate() error {
	var errs []error
	if c.MinHistory <= 0 {
		errs = append(errs, fmt.Errorf("min history must be positive, got %d", c.MinHistory))
	}
	if c.HistoryLimit < c.MinHistory {
		errs = append(errs, fmt.Errorf("history limit %d is below min history %d", c.HistoryLimit, c.MinHistory))
	}
	if c.Iterations < 0 {
		errs = append(errs, fmt.Errorf("iterations must not be negative, got %d", c.Iterations))
	}
	if c.StartBase < 0 || c.StartCash < 0 {
		errs = append(errs, fmt.Errorf("starting balances must not be negative (base %.6f, cash %.2f)", c.StartBase, c.StartCash))
	}
	if c.MinAbsoluteTradeValue < 0 || c.MinRelativeTradeShare < 0 {
		errs = append(errs, errors.New("minimum trade thresholds must not be negative"))
	}
	return errors.Join(errs...)
}

// MinTradeValue returns the anti-dust threshold in quote currency at price.
func (c Config) MinTradeValue(price float64) float64 {
	return math.Max(price*c.MinRelativeTradeShare, c.MinAbsoluteTradeValue)
}

func (c Config) cycleDelay() time.Duration {
	return c.Interval
}

func (c Config) retryDelay() time.Duration {
	if c.Interval < c.RetryFloor {
		return c.RetryFloor
	}
	return c.Interval
}
