// Package metrics exposes rebalancer and watchlist activity as Prometheus metrics.
package metrics

import (
	"net/http"

	"github.com/andreasrassloff-ai/darkhorse/internal/modules/rebalancing"
	"github.com/andreasrassloff-ai/darkhorse/internal/modules/watchlist"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "darkhorse"

// Metrics holds all collectors on a dedicated registry
type Metrics struct {
	registry *prometheus.Registry

	CyclesTotal    prometheus.Counter
	SkippedCycles  *prometheus.CounterVec // labels: reason
	TradesTotal    *prometheus.CounterVec // labels: side
	FeesTotal      *prometheus.CounterVec // labels: side
	DustSkips      *prometheus.CounterVec // labels: side
	Price          prometheus.Gauge
	BaseBalance    prometheus.Gauge
	CashBalance    prometheus.Gauge
	TotalValue     prometheus.Gauge
	TargetShare    prometheus.Gauge
	Confidence     prometheus.Gauge
	Outperformance prometheus.Gauge

	WatchlistRuns     prometheus.Counter
	WatchlistFailures prometheus.Counter
}

// New creates and registers all collectors
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		CyclesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rebalance_cycles_total",
			Help:      "Completed rebalancing cycles",
		}),
		SkippedCycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rebalance_skipped_cycles_total",
			Help:      "Polls that did not produce a cycle (by reason)",
		}, []string{"reason"}),
		TradesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "trades_total",
			Help:      "Executed simulated trades (by side)",
		}, []string{"side"}),
		FeesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fees_total",
			Help:      "Fees paid in quote currency (by side)",
		}, []string{"side"}),
		DustSkips: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dust_trades_skipped_total",
			Help:      "Trades skipped below the minimum trade value (by side)",
		}, []string{"side"}),
		Price: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "price",
			Help:      "Latest close used for valuation",
		}),
		BaseBalance: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "base_balance",
			Help:      "Base asset balance after the latest cycle",
		}),
		CashBalance: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cash_balance",
			Help:      "Cash balance after the latest cycle",
		}),
		TotalValue: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "total_value",
			Help:      "Portfolio value in quote currency after the latest cycle",
		}),
		TargetShare: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "target_share",
			Help:      "Target base asset share of the latest cycle",
		}),
		Confidence: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "recommendation_confidence",
			Help:      "Confidence of the latest recommendation",
		}),
		Outperformance: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "outperformance_ratio",
			Help:      "Portfolio return minus buy-and-hold return since the baseline",
		}),
		WatchlistRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "watchlist_runs_total",
			Help:      "Completed watchlist analyses",
		}),
		WatchlistFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "watchlist_entry_failures_total",
			Help:      "Watchlist entries that could not be analysed",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.CyclesTotal,
		m.SkippedCycles,
		m.TradesTotal,
		m.FeesTotal,
		m.DustSkips,
		m.Price,
		m.BaseBalance,
		m.CashBalance,
		m.TotalValue,
		m.TargetShare,
		m.Confidence,
		m.Outperformance,
		m.WatchlistRuns,
		m.WatchlistFailures,
	)
	return m
}

// Registry returns the registry holding all collectors
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// CycleCompleted implements rebalancing.Observer
func (m *Metrics) CycleCompleted(result rebalancing.CycleResult, p rebalancing.Portfolio) {
	m.CyclesTotal.Inc()
	m.Price.Set(result.Price)
	m.BaseBalance.Set(p.BaseBalance)
	m.CashBalance.Set(p.CashBalance)
	m.TotalValue.Set(p.TotalValue(result.Price))
	m.TargetShare.Set(result.Decision.TargetShare)
	m.Confidence.Set(result.Recommendation.Confidence)
	if result.Outperformance != nil {
		m.Outperformance.Set(*result.Outperformance)
	}

	if t := result.Decision.Trade; t != nil {
		side := string(t.Side)
		m.TradesTotal.WithLabelValues(side).Inc()
		m.FeesTotal.WithLabelValues(side).Add(t.Fee)
	}
	if s := result.Decision.Skipped; s != nil {
		m.DustSkips.WithLabelValues(string(s.Side)).Inc()
	}
}

// CycleSkipped implements rebalancing.Observer
func (m *Metrics) CycleSkipped(reason string) {
	m.SkippedCycles.WithLabelValues(reason).Inc()
}

// WatchlistCompleted records one watchlist run
func (m *Metrics) WatchlistCompleted(result watchlist.Result) {
	m.WatchlistRuns.Inc()
	m.WatchlistFailures.Add(float64(len(result.Failures)))
}
