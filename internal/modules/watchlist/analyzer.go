// Package watchlist analyses many instruments independently of each other.
package watchlist

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/andreasrassloff-ai/darkhorse/internal/clients/yahoo"
	"github.com/andreasrassloff-ai/darkhorse/internal/domain"
	"github.com/andreasrassloff-ai/darkhorse/internal/history"
	"github.com/andreasrassloff-ai/darkhorse/internal/modules/recommendation"
	"github.com/andreasrassloff-ai/darkhorse/pkg/formulas"
	"github.com/rs/zerolog"
)

const (
	atrPeriod    = 14
	recentCloses = 10
)

// DailySource provides daily bars for Yahoo entries
type DailySource interface {
	DailyBars(ctx context.Context, symbol, period string) ([]domain.PriceBar, error)
}

// Report is the analysis of one instrument
type Report struct {
	Symbol         string                        `json:"symbol"`
	Source         history.Source                `json:"source"`
	Path           string                        `json:"path"`
	Bars           int                           `json:"bars"`
	LatestDate     *time.Time                    `json:"latest_date,omitempty"`
	LastClose      float64                       `json:"last_close"`
	ATR            *float64                      `json:"atr,omitempty"`
	Volatility     *float64                      `json:"volatility,omitempty"`
	RecentCloses   []float64                     `json:"recent_closes"`
	Recommendation recommendation.Recommendation `json:"recommendation"`
}

// Failure records why one entry could not be analysed
type Failure struct {
	Symbol string `json:"symbol"`
	Error  string `json:"error"`
}

// Result of one watchlist run
type Result struct {
	GeneratedAt time.Time `json:"generated_at"`
	Reports     []Report  `json:"reports"`
	Failures    []Failure `json:"failures"`
}

// HasFailures reports whether any entry failed
func (r Result) HasFailures() bool {
	return len(r.Failures) > 0
}

// Analyzer runs the recommendation engine over watchlist entries
type Analyzer struct {
	minHistory int
	daily      DailySource
	log        zerolog.Logger
	now        func() time.Time
}

// NewAnalyzer creates an analyzer. daily may be nil when no entry uses Yahoo.
func NewAnalyzer(minHistory int, daily DailySource, log zerolog.Logger) *Analyzer {
	return &Analyzer{
		minHistory: minHistory,
		daily:      daily,
		log:        log.With().Str("service", "watchlist").Logger(),
		now:        time.Now,
	}
}

// Run analyses every entry; a failing entry is recorded and never affects the others.
func (a *Analyzer) Run(ctx context.Context, entries []history.Entry) Result {
	result := Result{
		GeneratedAt: a.now().UTC(),
		Reports:     []Report{},
		Failures:    []Failure{},
	}

	for _, entry := range entries {
		if ctx.Err() != nil {
			result.Failures = append(result.Failures, Failure{Symbol: entry.Symbol, Error: ctx.Err().Error()})
			continue
		}

		report, err := a.Analyse(ctx, entry)
		if err != nil {
			a.log.Warn().Err(err).Str("symbol", entry.Symbol).Msg("Watchlist entry failed")
			result.Failures = append(result.Failures, Failure{Symbol: entry.Symbol, Error: Describe(entry, err)})
			continue
		}
		result.Reports = append(result.Reports, report)
	}

	a.log.Info().
		Int("entries", len(entries)).
		Int("reports", len(result.Reports)).
		Int("failures", len(result.Failures)).
		Msg("Watchlist analysed")
	return result
}

// Analyse loads, validates and analyses a single entry
func (a *Analyzer) Analyse(ctx context.Context, entry history.Entry) (Report, error) {
	bars, err := a.load(ctx, entry)
	if err != nil {
		return Report{}, err
	}
	if err := domain.ValidateEnoughData(bars, a.minHistory); err != nil {
		return Report{}, err
	}

	closes := domain.ClosingPrices(bars)
	highs := make([]float64, len(bars))
	lows := make([]float64, len(bars))
	for i, bar := range bars {
		highs[i] = bar.High
		lows[i] = bar.Low
	}

	recent := closes
	if len(recent) > recentCloses {
		recent = recent[len(recent)-recentCloses:]
	}

	return Report{
		Symbol:         entry.Symbol,
		Source:         entry.Source,
		Path:           entry.Path,
		Bars:           len(bars),
		LatestDate:     domain.MostRecentDate(bars),
		LastClose:      closes[len(closes)-1],
		ATR:            formulas.CalculateATR(highs, lows, closes, atrPeriod),
		Volatility:     formulas.CalculateVolatility(closes),
		RecentCloses:   append([]float64(nil), recent...),
		Recommendation: recommendation.Analyse(entry.Symbol, bars),
	}, nil
}

func (a *Analyzer) load(ctx context.Context, entry history.Entry) ([]domain.PriceBar, error) {
	switch entry.Source {
	case history.SourceYahoo:
		if a.daily == nil {
			return nil, errors.New("yahoo source is not configured")
		}
		return a.daily.DailyBars(ctx, entry.Path, yahoo.DefaultPeriod)
	default:
		return history.Load(entry.Path)
	}
}

// Describe renders err as the user-facing message for entry
func Describe(entry history.Entry, err error) string {
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Sprintf("no price data found, expected file %s", entry.Path)
	}
	return err.Error()
}
