package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters and histograms for the aggregation
// pipeline and the LLM gateway.
type Metrics struct {
	AdapterRequests *prometheus.CounterVec   // labels: source, outcome={ok,empty,error}
	AdapterDuration *prometheus.HistogramVec // labels: source
	GeocodeRequests *prometheus.CounterVec   // labels: outcome={resolved,failed,default}

	LLMRequests *prometheus.CounterVec // labels: provider, outcome
	LLMDuration prometheus.Histogram

	SnapshotRefreshes prometheus.Counter
	SnapshotErrors    prometheus.Counter
}

func newMetrics() *Metrics {
	return &Metrics{
		AdapterRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hazardwatch",
			Name:      "adapter_requests_total",
			Help:      "Data-source adapter calls by source and outcome.",
		}, []string{"source", "outcome"}),
		AdapterDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "hazardwatch",
			Name:      "adapter_duration_seconds",
			Help:      "Data-source adapter call duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
		}, []string{"source"}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hazardwatch",
			Name:      "geocode_requests_total",
			Help:      "Location resolutions by outcome.",
		}, []string{"outcome"}),
		LLMRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hazardwatch",
			Name:      "llm_requests_total",
			Help:      "Generation calls by provider and outcome.",
		}, []string{"provider", "outcome"}),
		LLMDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "hazardwatch",
			Name:      "llm_duration_seconds",
			Help:      "Generation call duration in seconds.",
			Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		SnapshotRefreshes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hazardwatch",
			Name:      "snapshot_refreshes_total",
			Help:      "Completed dashboard snapshot refreshes.",
		}),
		SnapshotErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hazardwatch",
			Name:      "snapshot_errors_total",
			Help:      "Failed dashboard snapshot refreshes.",
		}),
	}
}

// NewMetrics creates and registers all metrics with the default registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.AdapterRequests,
		m.AdapterDuration,
		m.GeocodeRequests,
		m.LLMRequests,
		m.LLMDuration,
		m.SnapshotRefreshes,
		m.SnapshotErrors,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics across tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}
