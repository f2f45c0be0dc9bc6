// Package recommendation turns a price history into a Buy/Sell/Hold signal.
package recommendation

import (
	"fmt"
	"math"

	"github.com/andreasrassloff-ai/darkhorse/internal/domain"
	"github.com/andreasrassloff-ai/darkhorse/pkg/formulas"
)

// Pressure caps per signal family
const (
	maxCrossoverPressure = 0.4
	maxMomentumPressure  = 0.2
	maxRSIPressure       = 0.3

	rsiOverbought = 70.0
	rsiOversold   = 30.0

	// Minimum lead one side needs over the other before the signal is directional
	decisionThreshold = 0.05

	baseConfidence    = 0.2
	minConfidence     = 0.1
	maxConfidence     = 0.95
	maxHoldConfidence = 0.6
)

// Reason texts attached to a recommendation
const (
	ReasonUptrend          = "The short-term moving average is above the long-term average, which points to an uptrend."
	ReasonDowntrend        = "The short-term moving average is below the long-term average, which points to fading momentum."
	ReasonMomentumUp       = "Recent closing prices are rising, momentum is positive (%s over the last periods)."
	ReasonMomentumDown     = "Recent closing prices are falling, momentum is negative (%s over the last periods)."
	ReasonMomentumFlat     = "Recent closing prices are unchanged, momentum is flat."
	ReasonOverbought       = "The RSI is above 70 and indicates an overbought market."
	ReasonOversold         = "The RSI is below 30 and indicates an oversold market."
	ReasonRSINeutral       = "The RSI is moving within a neutral zone."
	ReasonInsufficientData = "Not enough data for a clear signal, the recommendation is therefore neutral."
)

// Recommendation is the immutable result of one analysis
type Recommendation struct {
	Asset        string        `json:"asset"`
	Action       domain.Action `json:"action"`
	Confidence   float64       `json:"confidence"`
	Reasons      []string      `json:"reasons"`
	BuyPressure  float64       `json:"buy_pressure"`
	SellPressure float64       `json:"sell_pressure"`
}

// Analyse computes indicators from the closing prices of history and resolves
// the opposing buy and sell pressures into an action with bounded confidence.
// It is a pure function of its inputs.
func Analyse(asset string, history []domain.PriceBar) Recommendation {
	prices := domain.ClosingPrices(history)

	shortSMA := formulas.CalculateSMA(prices, formulas.ShortSMAWindow)
	longSMA := formulas.CalculateSMA(prices, formulas.LongSMAWindow)
	roc := formulas.CalculateROC(prices, formulas.TrendWindow)
	rsi := formulas.CalculateRSI(prices, formulas.RSIPeriod)

	var (
		buy, sell float64
		reasons   []string
		available bool
	)

	if shortSMA != nil && longSMA != nil && *longSMA != 0 {
		available = true
		delta := (*shortSMA - *longSMA) / *longSMA
		switch {
		case delta > 0:
			buy += math.Min(math.Abs(delta), maxCrossoverPressure)
			reasons = append(reasons, ReasonUptrend)
		case delta < 0:
			sell += math.Min(math.Abs(delta), maxCrossoverPressure)
			reasons = append(reasons, ReasonDowntrend)
		}
	}

	if roc != nil {
		available = true
		switch {
		case *roc > 0:
			buy += math.Min(*roc, maxMomentumPressure)
			reasons = append(reasons, fmt.Sprintf(ReasonMomentumUp, formatPercentage(*roc)))
		case *roc < 0:
			sell += math.Min(math.Abs(*roc), maxMomentumPressure)
			reasons = append(reasons, fmt.Sprintf(ReasonMomentumDown, formatPercentage(*roc)))
		default:
			reasons = append(reasons, ReasonMomentumFlat)
		}
	}

	if rsi != nil {
		available = true
		switch {
		case *rsi > rsiOverbought:
			sell += math.Min((*rsi-rsiOverbought)/30, maxRSIPressure)
			reasons = append(reasons, ReasonOverbought)
		case *rsi < rsiOversold:
			buy += math.Min((rsiOversold-*rsi)/30, maxRSIPressure)
			reasons = append(reasons, ReasonOversold)
		default:
			reasons = append(reasons, ReasonRSINeutral)
		}
	}

	rec := Recommendation{
		Asset:        asset,
		BuyPressure:  buy,
		SellPressure: sell,
	}

	if !available {
		rec.Action = domain.ActionHold
		rec.Confidence = minConfidence
		rec.Reasons = []string{ReasonInsufficientData}
		return rec
	}

	rec.Action, rec.Confidence = resolve(buy, sell)
	rec.Reasons = reasons
	return rec
}

// resolve picks the action for a pair of pressures.
func resolve(buy, sell float64) (domain.Action, float64) {
	switch {
	case buy > sell+decisionThreshold:
		return domain.ActionBuy, clamp(baseConfidence+buy, minConfidence, maxConfidence)
	case sell > buy+decisionThreshold:
		return domain.ActionSell, clamp(baseConfidence+sell, minConfidence, maxConfidence)
	default:
		return domain.ActionHold, clamp(baseConfidence+math.Max(buy, sell)/2, minConfidence, maxHoldConfidence)
	}
}

func formatPercentage(value float64) string {
	return fmt.Sprintf("%+.1f%%", value*100)
}

func clamp(value, lo, hi float64) float64 {
	return math.Min(math.Max(value, lo), hi)
}
