package formulas

import (
	"math"

	"github.com/markcheno/go-talib"
	"gonum.org/v1/gonum/stat"
)

// CalculateATR returns the latest Average True Range (Wilder) for the given
// high/low/close series. Returns nil if fewer than period+1 observations exist
// or the slices differ in length.
func CalculateATR(highs, lows, closes []float64, period int) *float64 {
	if period <= 0 || len(closes) < period+1 || len(highs) != len(closes) || len(lows) != len(closes) {
		return nil
	}

	atr := talib.Atr(highs, lows, closes, period)
	if len(atr) == 0 {
		return nil
	}
	last := atr[len(atr)-1]
	if math.IsNaN(last) || math.IsInf(last, 0) {
		return nil
	}
	return &last
}

// CalculateReturns converts prices to simple returns.
// Returns[i] = (Price[i+1] - Price[i]) / Price[i]; a zero price yields a zero return.
func CalculateReturns(prices []float64) []float64 {
	if len(prices) < 2 {
		return []float64{}
	}

	returns := make([]float64, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		if prices[i-1] != 0 {
			returns[i-1] = (prices[i] - prices[i-1]) / prices[i-1]
		}
	}
	return returns
}

// CalculateVolatility returns the sample standard deviation of simple returns.
// Returns nil for fewer than three prices.
func CalculateVolatility(prices []float64) *float64 {
	if len(prices) < 3 {
		return nil
	}
	result := stat.StdDev(CalculateReturns(prices), nil)
	return &result
}
