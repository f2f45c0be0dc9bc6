// Package formulas implements the technical indicators used by the
// recommendation engine.
//
// Every indicator takes closing prices ordered oldest first and returns nil
// when the history is too short for the requested window. Callers must treat
// nil as "no signal", never as zero.
package formulas

import (
	"gonum.org/v1/gonum/stat"
)

// Default windows used by the recommendation engine
const (
	ShortSMAWindow = 20
	LongSMAWindow  = 50
	TrendWindow    = 5
	RSIPeriod      = 14
)

// CalculateSMA returns the arithmetic mean of the last window values.
// Returns nil if len(values) < window or window <= 0.
func CalculateSMA(values []float64, window int) *float64 {
	if window <= 0 || len(values) < window {
		return nil
	}
	result := stat.Mean(values[len(values)-window:], nil)
	return &result
}

// CalculateEMA returns the exponential moving average over the whole input.
//
// The average is seeded with the first value (not an SMA of the first window)
// and then updated for every following price with k = 2/(window+1).
// Returns nil under the same guard as CalculateSMA.
func CalculateEMA(values []float64, window int) *float64 {
	if window <= 0 || len(values) < window {
		return nil
	}
	k := 2.0 / float64(window+1)
	ema := values[0]
	for _, price := range values[1:] {
		ema = price*k + ema*(1-k)
	}
	return &ema
}

// CalculateROC returns the fractional change over window periods ending at the
// latest value: (last - past) / past.
// Returns nil if len(values) <= window, window <= 0, or the reference price is 0.
func CalculateROC(values []float64, window int) *float64 {
	if window <= 0 || len(values) <= window {
		return nil
	}
	past := values[len(values)-window-1]
	if past == 0 {
		return nil
	}
	result := (values[len(values)-1] - past) / past
	return &result
}

// CalculateRSI returns the Relative Strength Index over the last period price
// changes using plain (not smoothed) average gain and loss.
//
// RSI Formula:
//
//	RSI = 100 - (100 / (1 + RS))
//	where RS = sum of gains / sum of losses over the window
//
// Returns nil if len(values) <= period and exactly 100 when the window has no losses.
func CalculateRSI(values []float64, period int) *float64 {
	if period <= 0 || len(values) <= period {
		return nil
	}

	gains := 0.0
	losses := 0.0
	window := values[len(values)-period-1:]
	for i := 1; i < len(window); i++ {
		change := window[i] - window[i-1]
		if change > 0 {
			gains += change
		} else {
			losses -= change
		}
	}

	if losses == 0 {
		result := 100.0
		return &result
	}

	rs := gains / losses
	result := 100 - (100 / (1 + rs))
	return &result
}
