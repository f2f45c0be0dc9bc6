package watchlist

import (
	"fmt"
	"io"
	"strings"
)

// Print writes the human-readable reports to w and the failures to errw
func Print(w, errw io.Writer, result Result) {
	for _, r := range result.Reports {
		fmt.Fprintln(w, strings.Repeat("=", 60))
		fmt.Fprintf(w, "Analysis for %s\n", r.Symbol)
		if r.LatestDate != nil {
			fmt.Fprintf(w, "Last trading day: %s\n", r.LatestDate.Format("2006-01-02"))
		}
		fmt.Fprintf(w, "Recommendation: %s (confidence %.2f)\n", r.Recommendation.Action, r.Recommendation.Confidence)
		fmt.Fprintln(w, "Reasons:")
		for _, reason := range r.Recommendation.Reasons {
			fmt.Fprintf(w, "  - %s\n", reason)
		}

		snapshot := fmt.Sprintf("Last close: %.2f", r.LastClose)
		if r.ATR != nil {
			snapshot += fmt.Sprintf(" | ATR(%d): %.2f", atrPeriod, *r.ATR)
		}
		if r.Volatility != nil {
			snapshot += fmt.Sprintf(" | Volatility: %.2f%%", *r.Volatility*100)
		}
		fmt.Fprintln(w, snapshot)
	}

	for _, f := range result.Failures {
		fmt.Fprintf(errw, "%s: %s\n", f.Symbol, f.Error)
	}
}
