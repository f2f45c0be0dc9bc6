// Package domain provides core domain models and types.
package domain

import "time"

// PriceBar is a single OHLCV observation.
// Volume is nil when the source did not report it; it is never assumed zero.
type PriceBar struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume *float64  `json:"volume"`
}

// Action is the discrete outcome of an analysis
type Action string

const (
	ActionBuy  Action = "Buy"
	ActionSell Action = "Sell"
	ActionHold Action = "Hold"
)

// TradeSide identifies the direction of a simulated trade
type TradeSide string

const (
	TradeSideBuy  TradeSide = "BUY"
	TradeSideSell TradeSide = "SELL"
)

// ClosingPrices extracts the close of every bar, oldest first.
func ClosingPrices(bars []PriceBar) []float64 {
	closes := make([]float64, len(bars))
	for i, bar := range bars {
		closes[i] = bar.Close
	}
	return closes
}

// LatestBar returns the final element of an ascending sequence.
func LatestBar(bars []PriceBar) (PriceBar, bool) {
	if len(bars) == 0 {
		return PriceBar{}, false
	}
	return bars[len(bars)-1], true
}

// MostRecentDate returns the latest bar date, or nil for an empty sequence.
func MostRecentDate(bars []PriceBar) *time.Time {
	if len(bars) == 0 {
		return nil
	}
	latest := bars[0].Date
	for _, bar := range bars[1:] {
		if bar.Date.After(latest) {
			latest = bar.Date
		}
	}
	return &latest
}

// TailBars returns at most the last n bars without copying.
func TailBars(bars []PriceBar, n int) []PriceBar {
	if n <= 0 || n >= len(bars) {
		return bars
	}
	return bars[len(bars)-n:]
}

// Float64Ptr returns a pointer to v
func Float64Ptr(v float64) *float64 {
	return &v
}
