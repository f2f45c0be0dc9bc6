package feed

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/andreasrassloff-ai/darkhorse/internal/domain"
	"github.com/andreasrassloff-ai/darkhorse/internal/history"
)

// Simulated replays a historical bar series onto a synthetic minute timeline.
// Each History call appends one bar; the source wraps around when exhausted.
type Simulated struct {
	mu      sync.Mutex
	limit   int
	source  []domain.PriceBar
	index   int
	history []domain.PriceBar
	now     func() time.Time
}

// SimulatedOption customises a Simulated feed
type SimulatedOption func(*Simulated)

// WithSimulatedClock replaces time.Now for the synthetic timeline
func WithSimulatedClock(now func() time.Time) SimulatedOption {
	return func(s *Simulated) { s.now = now }
}

// NewSimulated seeds limit bars ending now from source
func NewSimulated(source []domain.PriceBar, limit int, opts ...SimulatedOption) (*Simulated, error) {
	if limit <= 0 {
		return nil, errors.New("limit must be positive")
	}
	if len(source) == 0 {
		return nil, fmt.Errorf("%w: no historical data available for simulation", domain.ErrFeedUnavailable)
	}

	s := &Simulated{
		limit:  limit,
		source: source,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	start := s.now().UTC().Add(-time.Duration(limit) * time.Minute)
	s.history = make([]domain.PriceBar, 0, limit)
	for i := 0; i < limit; i++ {
		s.history = append(s.history, s.build(start.Add(time.Duration(i)*time.Minute)))
	}
	return s, nil
}

// LoadSimulated builds a simulation from a JSON price file.
// Load failures wrap domain.ErrFeedUnavailable.
func LoadSimulated(path string, limit int, opts ...SimulatedOption) (*Simulated, error) {
	bars, err := history.Load(path)
	if err != nil {
		return nil, fmt.Errorf("%w: could not load simulation data: %v", domain.ErrFeedUnavailable, err)
	}
	return NewSimulated(bars, limit, opts...)
}

func (s *Simulated) next() domain.PriceBar {
	rec := s.source[s.index]
	s.index = (s.index + 1) % len(s.source)
	return rec
}

// build turns the next source record into a bar at ts whose open continues the previous close
func (s *Simulated) build(ts time.Time) domain.PriceBar {
	rec := s.next()
	open := rec.Open
	if n := len(s.history); n > 0 {
		open = s.history[n-1].Close
	}
	return domain.PriceBar{
		Date:   ts,
		Open:   open,
		High:   max(open, rec.Close, rec.High),
		Low:    min(open, rec.Close, rec.Low),
		Close:  rec.Close,
		Volume: rec.Volume,
	}
}

// Current returns a copy of the simulated history without advancing it
func (s *Simulated) Current() []domain.PriceBar {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.PriceBar(nil), s.history...)
}

// History advances the simulation by one minute and returns at most limit bars
func (s *Simulated) History(_ context.Context, limit int) ([]domain.PriceBar, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ts := s.now().UTC()
	if n := len(s.history); n > 0 {
		if next := s.history[n-1].Date.Add(time.Minute); next.After(ts) {
			ts = next
		}
	}
	s.history = append(s.history, s.build(ts))
	if len(s.history) > s.limit {
		s.history = append([]domain.PriceBar(nil), s.history[len(s.history)-s.limit:]...)
	}

	return append([]domain.PriceBar(nil), domain.TailBars(s.history, limit)...), nil
}
