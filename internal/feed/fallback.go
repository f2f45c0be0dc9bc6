package feed

import (
	"context"
	"fmt"
	"sync"

	"github.com/andreasrassloff-ai/darkhorse/internal/domain"
	"github.com/rs/zerolog"
)

// Fallback serves from the primary source and switches to a lazily built
// secondary (usually a simulation) while the primary is unavailable.
// The secondary is discarded once the primary recovers.
type Fallback struct {
	mu        sync.Mutex
	primary   Source
	build     func() (Source, error)
	secondary Source
	active    bool
	log       zerolog.Logger
}

// NewFallback creates a fallback feed; build is called on the first primary failure
func NewFallback(primary Source, build func() (Source, error), log zerolog.Logger) *Fallback {
	return &Fallback{
		primary: primary,
		build:   build,
		log:     log.With().Str("component", "feed").Logger(),
	}
}

// Simulating reports whether the last History call was served by the secondary
func (f *Fallback) Simulating() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.active
}

// History returns primary bars, or secondary bars when the primary fails
func (f *Fallback) History(ctx context.Context, limit int) ([]domain.PriceBar, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	bars, err := f.primary.History(ctx, limit)
	if err == nil {
		if f.active {
			f.log.Info().Msg("Live data available again, ending simulation")
		}
		f.secondary = nil
		f.active = false
		return bars, nil
	}
	if ctx.Err() != nil {
		return nil, err
	}

	if f.secondary == nil {
		secondary, buildErr := f.build()
		if buildErr != nil {
			f.log.Error().
				Err(err).
				AnErr("simulation_error", buildErr).
				Msg("Live data unavailable and simulation not possible")
			return nil, fmt.Errorf("%w: live feed failed (%v) and simulation failed (%v)",
				domain.ErrFeedUnavailable, err, buildErr)
		}
		f.secondary = secondary
		f.log.Warn().Err(err).Msg("Live data unavailable, using historical data for simulation")
	}

	f.active = true
	return f.secondary.History(ctx, limit)
}
