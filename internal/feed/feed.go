// Package feed provides the price sources polled by the rebalancer.
package feed

import (
	"context"

	"github.com/andreasrassloff-ai/darkhorse/internal/clients/coingecko"
	"github.com/andreasrassloff-ai/darkhorse/internal/domain"
)

// Source yields an ascending bar history of at most limit bars.
// Errors wrap domain.ErrFeedUnavailable when no data can be produced.
type Source = domain.BarSource

// SourceFunc adapts a function to Source
type SourceFunc func(ctx context.Context, limit int) ([]domain.PriceBar, error)

// History calls f(ctx, limit)
func (f SourceFunc) History(ctx context.Context, limit int) ([]domain.PriceBar, error) {
	return f(ctx, limit)
}

// Live polls CoinGecko minute prices
type Live struct {
	client *coingecko.Client
}

// NewLive creates a live feed backed by client
func NewLive(client *coingecko.Client) *Live {
	return &Live{client: client}
}

// History returns the latest limit minute bars
func (l *Live) History(ctx context.Context, limit int) ([]domain.PriceBar, error) {
	return l.client.MinuteBars(ctx, limit)
}
