package yahoo

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/andreasrassloff-ai/darkhorse/internal/domain"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wnjoon/go-yfinance/pkg/models"
)

func TestNewClient(t *testing.T) {
	client := NewClient(zerolog.Nop())
	assert.NotNil(t, client)
	assert.NotNil(t, client.history)
}

func TestDailyBars_ConvertsAndSorts(t *testing.T) {
	day := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	var gotSymbol, gotPeriod string

	client := NewClient(zerolog.Nop())
	client.history = func(symbol, period string) ([]models.Bar, error) {
		gotSymbol, gotPeriod = symbol, period
		return []models.Bar{
			{Date: day.AddDate(0, 0, 1), Open: 2, High: 3, Low: 1, Close: 2.5, Volume: 1000},
			{Date: day, Open: 1, High: 2, Low: 0.5, Close: 1.5},
			{Date: day.AddDate(0, 0, 2), Open: 2, High: 3, Low: 1, Close: math.NaN()},
		}, nil
	}

	bars, err := client.DailyBars(context.Background(), " aapl ", "")
	require.NoError(t, err)
	assert.Equal(t, "AAPL", gotSymbol)
	assert.Equal(t, DefaultPeriod, gotPeriod)

	require.Len(t, bars, 2)
	assert.Equal(t, day, bars[0].Date)
	assert.Nil(t, bars[0].Volume)
	assert.Equal(t, 2.5, bars[1].Close)
	require.NotNil(t, bars[1].Volume)
	assert.Equal(t, 1000.0, *bars[1].Volume)
}

func TestDailyBars_Errors(t *testing.T) {
	client := NewClient(zerolog.Nop())
	client.history = func(string, string) ([]models.Bar, error) {
		return nil, errors.New("no data found, symbol may be delisted")
	}

	_, err := client.DailyBars(context.Background(), "XXXX", "6mo")
	assert.ErrorIs(t, err, domain.ErrFeedUnavailable)

	_, err = client.DailyBars(context.Background(), "  ", "6mo")
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = client.DailyBars(ctx, "AAPL", "6mo")
	assert.ErrorIs(t, err, context.Canceled)
}
