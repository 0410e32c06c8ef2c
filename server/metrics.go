package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"modelcompare/internal/bench"
)

// Metrics exposes batch counters and the per-model latency distribution.
// Each Server carries its own registry so tests stay isolated.
type Metrics struct {
	registry  *prometheus.Registry
	runsTotal prometheus.Counter
	items     *prometheus.CounterVec
	cost      *prometheus.CounterVec
	latency   *prometheus.HistogramVec
}

// NewMetrics builds the metric set on a fresh registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)
	return &Metrics{
		registry: registry,
		runsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "modelcompare_runs_total",
			Help: "Number of comparison batches started.",
		}),
		items: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "modelcompare_items_total",
			Help: "Completed work items by model and status.",
		}, []string{"model", "status"}),
		cost: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "modelcompare_cost_usd_total",
			Help: "Estimated spend by model in USD.",
		}, []string{"model"}),
		latency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "modelcompare_call_latency_seconds",
			Help:    "Inference call latency by model.",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		}, []string{"model"}),
	}
}

// RunStarted counts one batch submission.
func (m *Metrics) RunStarted() {
	m.runsTotal.Inc()
}

// ObserveResult records one completed work item.
func (m *Metrics) ObserveResult(r bench.InferenceResult) {
	model := r.Item.Model.Name
	m.items.WithLabelValues(model, string(r.Status)).Inc()
	if !r.Failed() {
		m.cost.WithLabelValues(model).Add(r.Cost)
		m.latency.WithLabelValues(model).Observe(r.LatencyMS / 1000)
	}
}

// Handler serves the scrape endpoint for this metric set.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
