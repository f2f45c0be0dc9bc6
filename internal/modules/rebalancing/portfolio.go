package rebalancing

import (
	"math"

	"github.com/andreasrassloff-ai/darkhorse/internal/domain"
)

// TradeStats accumulates executed trades over the lifetime of a run
type TradeStats struct {
	BuyCount     int     `json:"buy_count"`
	BaseBought   float64 `json:"base_bought"`
	CashSpent    float64 `json:"cash_spent"` // including fees
	BuyFees      float64 `json:"buy_fees"`
	SellCount    int     `json:"sell_count"`
	BaseSold     float64 `json:"base_sold"`
	CashReceived float64 `json:"cash_received"` // net of fees
	SellFees     float64 `json:"sell_fees"`
}

// TotalFees returns buy and sell fees combined
func (s TradeStats) TotalFees() float64 {
	return s.BuyFees + s.SellFees
}

// Trades returns the number of executed trades
func (s TradeStats) Trades() int {
	return s.BuyCount + s.SellCount
}

// Portfolio is the simulated two-asset holding of a run.
// It is owned by a single Rebalancer and never shared.
type Portfolio struct {
	BaseBalance float64 `json:"base_balance"`
	CashBalance float64 `json:"cash_balance"`

	// Latched on the first priced cycle, never recomputed
	BaselineTotalValue *float64 `json:"baseline_total_value,omitempty"`
	BaselinePrice      *float64 `json:"baseline_price,omitempty"`

	Stats TradeStats `json:"stats"`
}

// NewPortfolio creates a portfolio from starting balances
func NewPortfolio(base, cash float64) *Portfolio {
	return &Portfolio{
		BaseBalance: base,
		CashBalance: cash,
	}
}

// TotalValue returns cash plus the base holding valued at price
func (p *Portfolio) TotalValue(price float64) float64 {
	return p.CashBalance + p.BaseBalance*price
}

// BaseShare returns the fraction of total value held in the base asset (0 if total <= 0)
func (p *Portfolio) BaseShare(price float64) float64 {
	total := p.TotalValue(price)
	if total <= 0 {
		return 0
	}
	return (p.BaseBalance * price) / total
}

// LatchBaseline stores the baseline once; it reports whether this call set it.
func (p *Portfolio) LatchBaseline(totalValue, price float64) bool {
	if p.BaselineTotalValue != nil && p.BaselinePrice != nil {
		return false
	}
	p.BaselineTotalValue = domain.Float64Ptr(totalValue)
	p.BaselinePrice = domain.Float64Ptr(price)
	return true
}

// Outperformance returns the portfolio return minus the buy-and-hold return
// since the baseline, or nil while no usable baseline exists.
func (p *Portfolio) Outperformance(totalValue, price float64) *float64 {
	return RelativeOutperformance(totalValue, price, p.BaselineTotalValue, p.BaselinePrice)
}

// buy spends cash (excluding fee) on the base asset at price.
func (p *Portfolio) buy(spend, price, feeRate float64) Trade {
	fee := spend * feeRate
	total := spend + fee
	acquired := spend / price

	p.BaseBalance += acquired
	p.CashBalance = math.Max(p.CashBalance-total, 0)

	p.Stats.BuyCount++
	p.Stats.BaseBought += acquired
	p.Stats.CashSpent += total
	p.Stats.BuyFees += fee

	return Trade{
		Side:       domain.TradeSideBuy,
		BaseAmount: acquired,
		Value:      spend,
		Fee:        fee,
		Price:      price,
	}
}

// sell converts volume units of the base asset into cash at price.
func (p *Portfolio) sell(volume, price, feeRate float64) Trade {
	gross := volume * price
	fee := gross * feeRate
	net := gross - fee

	p.BaseBalance = math.Max(p.BaseBalance-volume, 0)
	p.CashBalance += net

	p.Stats.SellCount++
	p.Stats.BaseSold += volume
	p.Stats.CashReceived += net
	p.Stats.SellFees += fee

	return Trade{
		Side:       domain.TradeSideSell,
		BaseAmount: volume,
		Value:      gross,
		Fee:        fee,
		Price:      price,
	}
}
