package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInsufficientHistory reports fewer bars than an analysis needs
	ErrInsufficientHistory = errors.New("insufficient price history")

	// ErrFeedUnavailable reports that a price source cannot deliver fresh data right now
	ErrFeedUnavailable = errors.New("price feed unavailable")

	// ErrNoPriceData reports that a run finished without ever receiving a bar
	ErrNoPriceData = errors.New("no price data received")
)

// InsufficientHistoryError carries the observed and required bar counts.
type InsufficientHistoryError struct {
	Have int
	Want int
}

func (e *InsufficientHistoryError) Error() string {
	return fmt.Sprintf("not enough price history to analyse: expected at least %d data points, got %d", e.Want, e.Have)
}

// Is lets errors.Is match ErrInsufficientHistory
func (e *InsufficientHistoryError) Is(target error) bool {
	return target == ErrInsufficientHistory
}

// ValidateEnoughData returns an InsufficientHistoryError when bars is shorter than minimum.
func ValidateEnoughData(bars []PriceBar, minimum int) error {
	if len(bars) < minimum {
		return &InsufficientHistoryError{Have: len(bars), Want: minimum}
	}
	return nil
}
