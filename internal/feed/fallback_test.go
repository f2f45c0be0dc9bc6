package feed

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/andreasrassloff-ai/darkhorse/internal/clients/coingecko"
	"github.com/andreasrassloff-ai/darkhorse/internal/domain"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// toggleSource fails while down is set
type toggleSource struct {
	down  bool
	bars  []domain.PriceBar
	calls int
}

func (s *toggleSource) History(_ context.Context, limit int) ([]domain.PriceBar, error) {
	s.calls++
	if s.down {
		return nil, fmt.Errorf("%w: offline", domain.ErrFeedUnavailable)
	}
	return domain.TailBars(s.bars, limit), nil
}

func TestFallback_SwitchesToSimulationAndBack(t *testing.T) {
	primary := &toggleSource{down: true, bars: sourceBars(1, 2, 3)}
	builds := 0
	build := func() (Source, error) {
		builds++
		return NewSimulated(sourceBars(50, 51), 3, WithSimulatedClock(fixedClock))
	}
	f := NewFallback(primary, build, zerolog.Nop())
	ctx := context.Background()

	bars, err := f.History(ctx, 3)
	require.NoError(t, err)
	assert.True(t, f.Simulating())
	assert.Equal(t, 1, builds)
	assert.Contains(t, []float64{50, 51}, bars[len(bars)-1].Close)

	_, err = f.History(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, 1, builds, "simulation is reused while the primary is down")

	primary.down = false
	bars, err = f.History(ctx, 3)
	require.NoError(t, err)
	assert.False(t, f.Simulating())
	assert.Equal(t, []float64{1, 2, 3}, domain.ClosingPrices(bars))

	primary.down = true
	_, err = f.History(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, 2, builds, "simulation is rebuilt after recovery")
	assert.Equal(t, 4, primary.calls)
}

func TestFallback_SimulationUnavailable(t *testing.T) {
	primary := &toggleSource{down: true}
	buildErr := errors.New("missing data/monero.json")
	f := NewFallback(primary, func() (Source, error) { return nil, buildErr }, zerolog.Nop())

	_, err := f.History(context.Background(), 10)
	assert.ErrorIs(t, err, domain.ErrFeedUnavailable)
	assert.Contains(t, err.Error(), "missing data/monero.json")
	assert.False(t, f.Simulating())
}

func TestFallback_CancelledContextDoesNotSimulate(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	primary := SourceFunc(func(ctx context.Context, _ int) ([]domain.PriceBar, error) {
		return nil, ctx.Err()
	})
	f := NewFallback(primary, func() (Source, error) {
		t.Fatal("build must not be called")
		return nil, nil
	}, zerolog.Nop())

	_, err := f.History(ctx, 10)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLive_UsesCoinGecko(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"prices": [[1704067200000, 150.5], [1704067260000, 151.0]]}`)
	}))
	defer server.Close()

	live := NewLive(coingecko.NewClient(server.URL, "usd", zerolog.Nop()))
	bars, err := live.History(context.Background(), 240)
	require.NoError(t, err)
	assert.Equal(t, []float64{150.5, 151.0}, domain.ClosingPrices(bars))
}
