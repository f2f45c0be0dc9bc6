package rebalancing

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/andreasrassloff-ai/darkhorse/internal/domain"
)

// consoleReport writes the human-readable run log
type consoleReport struct {
	w     io.Writer
	base  string
	quote string
}

func (r consoleReport) printf(format string, args ...interface{}) {
	fmt.Fprintf(r.w, format+"\n", args...)
}

func (r consoleReport) portfolioLine(ts time.Time, price, base, cash float64, outperformance *float64) {
	total := cash + base*price
	line := fmt.Sprintf(
		"[%s] Price: %.2f %s | Holdings: %.6f %s / %.2f %s | Total value: %.2f %s",
		ts.Format(time.RFC3339), price, r.quote, base, r.base, cash, r.quote, total, r.quote,
	)
	if outperformance != nil {
		line += fmt.Sprintf(" | Outperformance vs. %s: %+.2f%%", r.base, *outperformance*100)
	}
	r.printf("%s", line)
}

func (r consoleReport) decision(result CycleResult) {
	d := result.Decision
	if d.Trade == nil && d.Skipped == nil {
		return
	}

	r.printf("Recommendation: %s (confidence %.2f) | Target %s share %.0f%%",
		result.Recommendation.Action, result.Recommendation.Confidence, r.base, d.TargetShare*100)

	if t := d.Trade; t != nil {
		switch t.Side {
		case domain.TradeSideBuy:
			r.printf(" -> Buy %.6f %s for %.2f %s (+ fee %.2f %s, share %.2f%%).",
				t.BaseAmount, r.base, t.Value, r.quote, t.Fee, r.quote, t.Share*100)
		case domain.TradeSideSell:
			r.printf(" -> Sell %.6f %s and receive %.2f %s (fee %.2f %s, share %.2f%%).",
				t.BaseAmount, r.base, t.Value-t.Fee, r.quote, t.Fee, r.quote, t.Share*100)
		}
	}

	if s := d.Skipped; s != nil {
		kind := "Buy skipped: planned amount"
		if s.Side == domain.TradeSideSell {
			kind = "Sell skipped: planned proceeds"
		}
		r.printf(" -> %s %.2f %s is below the minimum volume of %.2f %s.",
			kind, s.Value, r.quote, s.MinTradeValue, r.quote)
	}

	r.printf("%s", strings.Repeat("-", 80))
}

func (r consoleReport) summary(stats TradeStats) {
	r.printf("Trade summary:")
	if stats.Trades() == 0 {
		r.printf(" -> No trades executed.")
		return
	}

	if stats.BuyCount > 0 {
		r.printf(" -> Buys: %d trades, %.6f %s acquired, %.2f %s spent (fees %.2f %s).",
			stats.BuyCount, stats.BaseBought, r.base, stats.CashSpent, r.quote, stats.BuyFees, r.quote)
	} else {
		r.printf(" -> No buys executed.")
	}

	if stats.SellCount > 0 {
		r.printf(" -> Sells: %d trades, %.6f %s sold, %.2f %s received (fees %.2f %s).",
			stats.SellCount, stats.BaseSold, r.base, stats.CashReceived, r.quote, stats.SellFees, r.quote)
	} else {
		r.printf(" -> No sells executed.")
	}

	r.printf(" -> Total fees paid: %.2f %s.", stats.TotalFees(), r.quote)
}
