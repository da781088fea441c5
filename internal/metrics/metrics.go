// Package metrics exposes the monitoring surface of the pipeline as
// Prometheus metrics: request totals, cache effectiveness, spend, and
// budget utilization.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the ordering pipeline.
type Metrics struct {
	registry *prometheus.Registry

	RequestsTotal         prometheus.Counter
	RequestsDenied        prometheus.Counter
	CacheHits             prometheus.Counter
	CacheMisses           prometheus.Counter
	OptimizedRequests     prometheus.Counter
	SpendTotal            prometheus.Counter
	BudgetUtilization     prometheus.Gauge
	TranscriptionFailures prometheus.Counter
	TranscriptionSeconds  prometheus.Histogram
}

// New creates and registers all pipeline metrics on a fresh registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		RequestsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "ordervox_requests_total",
			Help: "Total number of voice-order requests processed",
		}),
		RequestsDenied: factory.NewCounter(prometheus.CounterOpts{
			Name: "ordervox_requests_denied_total",
			Help: "Requests denied by budget admission control",
		}),
		CacheHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "ordervox_cache_hits_total",
			Help: "Requests served from the transcription cache",
		}),
		CacheMisses: factory.NewCounter(prometheus.CounterOpts{
			Name: "ordervox_cache_misses_total",
			Help: "Requests that required a transcription call",
		}),
		OptimizedRequests: factory.NewCounter(prometheus.CounterOpts{
			Name: "ordervox_optimized_requests_total",
			Help: "Requests whose audio was optimized before transcription",
		}),
		SpendTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "ordervox_spend_dollars_total",
			Help: "Cumulative transcription and parsing spend in dollars",
		}),
		BudgetUtilization: factory.NewGauge(prometheus.GaugeOpts{
			Name: "ordervox_budget_utilization",
			Help: "Spend over the trailing window divided by the daily budget",
		}),
		TranscriptionFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "ordervox_transcription_failures_total",
			Help: "Failed transcription attempts, including timeouts",
		}),
		TranscriptionSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "ordervox_transcription_duration_seconds",
			Help:    "Wall-clock duration of transcription backend calls",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

// Registry returns the backing registry for the /metrics handler.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
