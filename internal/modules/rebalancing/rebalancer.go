// Package rebalancing drives a simulated base/cash portfolio toward the
// allocation implied by the recommendation engine.
package rebalancing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/andreasrassloff-ai/darkhorse/internal/domain"
	"github.com/andreasrassloff-ai/darkhorse/internal/modules/recommendation"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// State of the rebalancing loop
type State string

const (
	StateAwaitingData State = "AWAITING_DATA"
	StateActive       State = "ACTIVE"
)

// Reasons reported for skipped cycles
const (
	SkipFeedUnavailable     = "feed_unavailable"
	SkipInsufficientHistory = "insufficient_history"
	SkipError               = "error"
)

// CycleResult is the outcome of one ACTIVE cycle
type CycleResult struct {
	Iteration      int                           `json:"iteration"`
	Timestamp      time.Time                     `json:"timestamp"`
	Price          float64                       `json:"price"`
	BaseBalance    float64                       `json:"base_balance"` // before the trade
	CashBalance    float64                       `json:"cash_balance"` // before the trade
	TotalValue     float64                       `json:"total_value"`
	Outperformance *float64                      `json:"outperformance,omitempty"`
	Recommendation recommendation.Recommendation `json:"recommendation"`
	Decision       Decision                      `json:"decision"`
}

// Observer receives cycle outcomes, e.g. for metrics
type Observer interface {
	CycleCompleted(result CycleResult, portfolio Portfolio)
	CycleSkipped(reason string)
}

// Option customises a Rebalancer
type Option func(*Rebalancer)

// WithSleeper replaces the wall-clock sleeper
func WithSleeper(s Sleeper) Option {
	return func(r *Rebalancer) { r.sleeper = s }
}

// WithObserver registers an observer for completed and skipped cycles
func WithObserver(o Observer) Option {
	return func(r *Rebalancer) { r.observer = o }
}

// WithClock replaces time.Now for the final valuation timestamp
func WithClock(now func() time.Time) Option {
	return func(r *Rebalancer) { r.now = now }
}

// Rebalancer owns one portfolio and runs the poll/analyse/trade loop.
// It is not safe for concurrent use; create one per instrument.
type Rebalancer struct {
	cfg       Config
	source    domain.BarSource
	sleeper   Sleeper
	observer  Observer
	now       func() time.Time
	report    consoleReport
	log       zerolog.Logger
	runID     string
	portfolio *Portfolio
	state     State
	lastBar   *domain.PriceBar
	cycles    int
}

// NewRebalancer validates cfg and creates a rebalancer reading bars from source
// and writing its console report to out.
func NewRebalancer(cfg Config, source domain.BarSource, out io.Writer, log zerolog.Logger, opts ...Option) (*Rebalancer, error) {
	if source == nil {
		return nil, errors.New("bar source is required")
	}
	cfg = cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid rebalancing config: %w", err)
	}
	if out == nil {
		out = io.Discard
	}

	runID := uuid.New().String()
	r := &Rebalancer{
		cfg:       cfg,
		source:    source,
		sleeper:   WallClock{},
		now:       time.Now,
		report:    consoleReport{w: out, base: cfg.BaseSymbol, quote: cfg.QuoteSymbol},
		log:       log.With().Str("service", "rebalancing").Str("run_id", runID).Logger(),
		runID:     runID,
		portfolio: NewPortfolio(cfg.StartBase, cfg.StartCash),
		state:     StateAwaitingData,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Config returns the normalized configuration
func (r *Rebalancer) Config() Config {
	return r.cfg
}

// Portfolio returns a copy of the current portfolio state
func (r *Rebalancer) Portfolio() Portfolio {
	return *r.portfolio
}

// State returns the loop state after the most recent poll
func (r *Rebalancer) State() State {
	return r.state
}

// Cycles returns the number of completed ACTIVE cycles
func (r *Rebalancer) Cycles() int {
	return r.cycles
}

// Run polls, analyses and trades until the iteration cap is reached or ctx is
// cancelled. Feed failures and short histories never abort the loop; the cycle
// is skipped and retried after a wait. The final valuation and trade summary
// are always written. Run returns domain.ErrNoPriceData if no bar was ever
// received.
func (r *Rebalancer) Run(ctx context.Context) error {
	r.report.printf("Starting live demo: rebalancing the portfolio dynamically between %s and %s.",
		r.cfg.BaseSymbol, r.cfg.QuoteSymbol)
	r.log.Info().
		Str("asset", r.cfg.AssetName).
		Float64("start_base", r.cfg.StartBase).
		Float64("start_cash", r.cfg.StartCash).
		Int("iterations", r.cfg.Iterations).
		Dur("interval", r.cfg.Interval).
		Msg("Rebalancing run started")

	for ctx.Err() == nil {
		result, err := r.Step(ctx)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			r.skip(err)
			if err := r.sleeper.Sleep(ctx, r.cfg.retryDelay()); err != nil {
				break
			}
			continue
		}

		r.report.portfolioLine(result.Timestamp, result.Price, result.BaseBalance, result.CashBalance, result.Outperformance)
		r.report.decision(*result)

		if r.cfg.Iterations > 0 && r.cycles >= r.cfg.Iterations {
			break
		}
		if err := r.sleeper.Sleep(ctx, r.cfg.cycleDelay()); err != nil {
			break
		}
	}

	return r.finish()
}

// Step performs one poll. It returns an error wrapping domain.ErrFeedUnavailable
// or a *domain.InsufficientHistoryError when no ACTIVE cycle could run.
func (r *Rebalancer) Step(ctx context.Context) (*CycleResult, error) {
	bars, err := r.source.History(ctx, r.cfg.HistoryLimit)
	if err != nil {
		r.state = StateAwaitingData
		return nil, fmt.Errorf("failed to fetch price history: %w", err)
	}
	if last, ok := domain.LatestBar(bars); ok {
		r.lastBar = &last
	}
	if err := domain.ValidateEnoughData(bars, r.cfg.MinHistory); err != nil {
		r.state = StateAwaitingData
		return nil, err
	}

	r.state = StateActive
	result := r.Cycle(bars)
	return &result, nil
}

// Cycle runs the analysis on the most recent MinHistory bars and rebalances
// the portfolio at the latest close. bars must not be empty.
func (r *Rebalancer) Cycle(bars []domain.PriceBar) CycleResult {
	r.cycles++
	rec := recommendation.Analyse(r.cfg.AssetName, domain.TailBars(bars, r.cfg.MinHistory))
	latest := bars[len(bars)-1]
	price := latest.Close

	p := r.portfolio
	totalValue := p.TotalValue(price)
	if p.LatchBaseline(totalValue, price) {
		r.log.Info().
			Float64("baseline_total_value", totalValue).
			Float64("baseline_price", price).
			Msg("Performance baseline latched")
	}

	result := CycleResult{
		Iteration:      r.cycles,
		Timestamp:      latest.Date,
		Price:          price,
		BaseBalance:    p.BaseBalance,
		CashBalance:    p.CashBalance,
		TotalValue:     totalValue,
		Outperformance: p.Outperformance(totalValue, price),
		Recommendation: rec,
	}
	result.Decision = Rebalance(p, r.cfg, rec, price)

	r.logCycle(result)
	if r.observer != nil {
		r.observer.CycleCompleted(result, *p)
	}
	return result
}

func (r *Rebalancer) logCycle(result CycleResult) {
	event := r.log.Info().
		Int("iteration", result.Iteration).
		Time("bar_time", result.Timestamp).
		Float64("price", result.Price).
		Float64("base_balance", result.BaseBalance).
		Float64("cash_balance", result.CashBalance).
		Float64("total_value", result.TotalValue).
		Str("action", string(result.Recommendation.Action)).
		Float64("confidence", result.Recommendation.Confidence).
		Float64("target_share", result.Decision.TargetShare).
		Float64("current_share", result.Decision.CurrentShare)
	if result.Outperformance != nil {
		event = event.Float64("outperformance", *result.Outperformance)
	}
	event.Msg("Cycle completed")

	if t := result.Decision.Trade; t != nil {
		r.log.Info().
			Str("side", string(t.Side)).
			Float64("base_amount", t.BaseAmount).
			Float64("value", t.Value).
			Float64("fee", t.Fee).
			Float64("price", t.Price).
			Msg("Trade executed")
	}
	if s := result.Decision.Skipped; s != nil {
		r.log.Info().
			Str("side", string(s.Side)).
			Float64("value", s.Value).
			Float64("min_trade_value", s.MinTradeValue).
			Msg("Trade below minimum volume skipped")
	}
}

func (r *Rebalancer) skip(err error) {
	reason := SkipError
	msg := "Cycle failed, retrying after wait"
	switch {
	case errors.Is(err, domain.ErrFeedUnavailable):
		reason = SkipFeedUnavailable
		msg = "Price feed unavailable, retrying after wait"
	case errors.Is(err, domain.ErrInsufficientHistory):
		reason = SkipInsufficientHistory
		msg = "Too few data points received, waiting for more data"
	}

	r.log.Warn().Err(err).Str("reason", reason).Dur("retry_in", r.cfg.retryDelay()).Msg(msg)
	if r.observer != nil {
		r.observer.CycleSkipped(reason)
	}
}

func (r *Rebalancer) finish() error {
	stats := r.portfolio.Stats
	if r.lastBar == nil {
		r.report.printf("No price data available, stopping the demo.")
		r.report.summary(stats)
		r.log.Error().Msg("Rebalancing run ended without any price data")
		return domain.ErrNoPriceData
	}

	price := r.lastBar.Close
	total := r.portfolio.TotalValue(price)
	outperformance := r.portfolio.Outperformance(total, price)

	r.report.printf("Final state of the demo:")
	r.report.portfolioLine(r.now().UTC(), price, r.portfolio.BaseBalance, r.portfolio.CashBalance, outperformance)
	r.report.summary(stats)

	r.log.Info().
		Int("cycles", r.cycles).
		Int("trades", stats.Trades()).
		Float64("total_value", total).
		Float64("fees", stats.TotalFees()).
		Msg("Rebalancing run finished")
	return nil
}
