// Package yahoo provides daily price history for watchlist symbols via go-yfinance.
package yahoo

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/andreasrassloff-ai/darkhorse/internal/domain"
	"github.com/rs/zerolog"
	"github.com/wnjoon/go-yfinance/pkg/models"
	"github.com/wnjoon/go-yfinance/pkg/ticker"
)

// DefaultPeriod covers enough trading days for the long moving average
const DefaultPeriod = "1y"

type historyFunc func(symbol, period string) ([]models.Bar, error)

// Client fetches daily bars from Yahoo Finance
type Client struct {
	log     zerolog.Logger
	history historyFunc
}

// NewClient creates a new Yahoo Finance client
func NewClient(log zerolog.Logger) *Client {
	return &Client{
		log:     log.With().Str("client", "yahoo").Logger(),
		history: fetchHistory,
	}
}

func fetchHistory(symbol, period string) ([]models.Bar, error) {
	t, err := ticker.New(symbol)
	if err != nil {
		return nil, fmt.Errorf("failed to create ticker: %w", err)
	}
	defer t.Close()

	return t.History(models.HistoryParams{
		Period:     period,
		Interval:   "1d",
		AutoAdjust: true,
	})
}

// DailyBars returns adjusted daily bars for symbol over period (e.g. "6mo", "1y"),
// sorted ascending. Bars with a non-finite close are dropped.
func (c *Client) DailyBars(ctx context.Context, symbol, period string) ([]domain.PriceBar, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, fmt.Errorf("symbol is required")
	}
	if period == "" {
		period = DefaultPeriod
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	raw, err := c.history(symbol, period)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get historical prices for %s: %v", domain.ErrFeedUnavailable, symbol, err)
	}

	bars := make([]domain.PriceBar, 0, len(raw))
	for _, b := range raw {
		if math.IsNaN(b.Close) || math.IsInf(b.Close, 0) {
			continue
		}
		bar := domain.PriceBar{
			Date:  b.Date.UTC(),
			Open:  b.Open,
			High:  b.High,
			Low:   b.Low,
			Close: b.Close,
		}
		if volume := float64(b.Volume); volume > 0 {
			bar.Volume = domain.Float64Ptr(volume)
		}
		bars = append(bars, bar)
	}

	sort.SliceStable(bars, func(i, j int) bool {
		return bars[i].Date.Before(bars[j].Date)
	})

	c.log.Debug().
		Str("symbol", symbol).
		Str("period", period).
		Int("bars", len(bars)).
		Msg("Fetched daily history")
	return bars, nil
}
