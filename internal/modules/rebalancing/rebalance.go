package rebalancing

import (
	"math"

	"github.com/andreasrassloff-ai/darkhorse/internal/domain"
	"github.com/andreasrassloff-ai/darkhorse/internal/modules/recommendation"
)

// Trade is an executed simulated trade
type Trade struct {
	Side       domain.TradeSide `json:"side"`
	BaseAmount float64          `json:"base_amount"`
	Value      float64          `json:"value"` // quote value before fee
	Fee        float64          `json:"fee"`
	Price      float64          `json:"price"`
	Share      float64          `json:"share"` // cash moved relative to the pre-trade total value
}

// CashDelta returns the change of the cash balance caused by the trade
func (t Trade) CashDelta() float64 {
	if t.Side == domain.TradeSideBuy {
		return -(t.Value + t.Fee)
	}
	return t.Value - t.Fee
}

// SkippedTrade is a planned trade that fell below the minimum trade value
type SkippedTrade struct {
	Side          domain.TradeSide `json:"side"`
	Value         float64          `json:"value"`
	MinTradeValue float64          `json:"min_trade_value"`
}

// Decision describes how one cycle moved (or did not move) the portfolio
type Decision struct {
	TargetShare   float64       `json:"target_share"`
	CurrentShare  float64       `json:"current_share"`
	Gap           float64       `json:"gap"`
	MaxStep       float64       `json:"max_step"`
	Step          float64       `json:"step"`
	MinTradeValue float64       `json:"min_trade_value"`
	Trade         *Trade        `json:"trade,omitempty"`
	Skipped       *SkippedTrade `json:"skipped,omitempty"`
}

// TargetShare derives the desired base-asset weight from the indicator pressures.
// Balanced or absent pressure maps to 0.5; the result is clamped to [0.1, 0.9].
func TargetShare(rec recommendation.Recommendation) float64 {
	total := rec.BuyPressure + rec.SellPressure
	if total <= 0 {
		return 0.5
	}

	bias := (rec.BuyPressure - rec.SellPressure) / total
	dominant := math.Max(rec.BuyPressure, rec.SellPressure)
	dominance := math.Min(math.Max(dominant, 0)/0.9, 1)
	target := 0.5 + 0.4*bias*dominance
	return math.Min(math.Max(target, 0.1), 0.9)
}

// RelativeOutperformance returns (total/baselineTotal - 1) - (price/baselinePrice - 1),
// or nil when either baseline is unset or not positive.
func RelativeOutperformance(totalValue, price float64, baselineTotal, baselinePrice *float64) *float64 {
	if baselineTotal == nil || baselinePrice == nil || *baselineTotal <= 0 || *baselinePrice <= 0 {
		return nil
	}
	portfolioReturn := totalValue/(*baselineTotal) - 1
	priceReturn := price/(*baselinePrice) - 1
	result := portfolioReturn - priceReturn
	return &result
}

// Rebalance moves p a bounded step toward the target share implied by rec.
//
// The step is limited to cfg.TradeFraction*rec.Confidence of the total value.
// Buys are capped so that spend plus fee never exceeds the cash balance, sells
// never exceed the base balance, and trades below the minimum trade value are
// skipped without touching the portfolio.
func Rebalance(p *Portfolio, cfg Config, rec recommendation.Recommendation, price float64) Decision {
	totalValue := p.TotalValue(price)
	d := Decision{
		TargetShare:   TargetShare(rec),
		CurrentShare:  p.BaseShare(price),
		MinTradeValue: cfg.MinTradeValue(price),
	}

	if totalValue <= 0 || price <= 0 {
		return d
	}

	d.Gap = d.TargetShare - d.CurrentShare
	d.MaxStep = cfg.TradeFraction * rec.Confidence
	if math.Abs(d.Gap) < cfg.ShareTolerance || d.MaxStep <= 0 {
		return d
	}
	d.Step = math.Max(-d.MaxStep, math.Min(d.MaxStep, d.Gap))

	switch {
	case d.Step > 0 && p.CashBalance > 0:
		affordable := p.CashBalance / (1 + cfg.FeeRate)
		spend := math.Min(d.Step*totalValue, affordable)
		if spend < d.MinTradeValue {
			if spend > 0 {
				d.Skipped = &SkippedTrade{Side: domain.TradeSideBuy, Value: spend, MinTradeValue: d.MinTradeValue}
			}
			return d
		}
		trade := p.buy(spend, price, cfg.FeeRate)
		trade.Share = (trade.Value + trade.Fee) / totalValue
		d.Trade = &trade

	case d.Step < 0 && p.BaseBalance > 0:
		volume := math.Min(-d.Step*totalValue/price, p.BaseBalance)
		if volume <= 0 {
			return d
		}
		if value := volume * price; value < d.MinTradeValue {
			d.Skipped = &SkippedTrade{Side: domain.TradeSideSell, Value: value, MinTradeValue: d.MinTradeValue}
			return d
		}
		trade := p.sell(volume, price, cfg.FeeRate)
		trade.Share = trade.Value / totalValue
		d.Trade = &trade
	}

	return d
}
