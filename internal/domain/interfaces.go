package domain

import "context"

// BarSource yields an ascending sequence of at most limit bars.
// Implementations return an error wrapping ErrFeedUnavailable when no data can
// be produced; that condition is distinct from a short history.
type BarSource interface {
	History(ctx context.Context, limit int) ([]PriceBar, error)
}
