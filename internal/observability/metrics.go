package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "delivery_radius"

// Metrics holds the Prometheus counters, histograms, and gauges for the radius service.
type Metrics struct {
	QueriesTotal      *prometheus.CounterVec // labels: outcome={complete,invalid_source,invalid_params,error}
	QueryDuration     prometheus.Histogram
	QueryInFlight     prometheus.Gauge
	CandidatesScanned prometheus.Counter
	EdgeCases         prometheus.Histogram
	OverridesTotal    prometheus.Counter

	// Drive-time metrics.
	DriveTimeCache         *prometheus.CounterVec // labels: result={hit,miss}
	DriveTimeBatches       *prometheus.CounterVec // labels: outcome={success,error}
	DriveTimeBatchDuration prometheus.Histogram

	ResultsPublished *prometheus.CounterVec // labels: outcome={success,error}
}

// NewMetrics creates and registers all service metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.QueriesTotal,
		m.QueryDuration,
		m.QueryInFlight,
		m.CandidatesScanned,
		m.EdgeCases,
		m.OverridesTotal,
		m.DriveTimeCache,
		m.DriveTimeBatches,
		m.DriveTimeBatchDuration,
		m.ResultsPublished,
	)
	return m
}

// NewUnregisteredMetrics creates Metrics that no registry collects. One-shot
// commands without a /metrics endpoint use it.
func NewUnregisteredMetrics() *Metrics {
	return newMetrics()
}

// NewMetricsForTesting creates Metrics without registering them, so multiple
// tests can build their own instances.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		QueriesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queries_total",
			Help:      "Radius queries by outcome.",
		}, []string{"outcome"}),
		QueryDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "query_duration_seconds",
			Help:      "Duration of a complete radius query including drive-time checks.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		QueryInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "query_in_flight",
			Help:      "1 while a query is running, 0 otherwise.",
		}),
		CandidatesScanned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "candidates_scanned_total",
			Help:      "Reference points measured against a source.",
		}),
		EdgeCases: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "edge_cases",
			Help:      "Edge-zone candidates per query.",
			Buckets:   []float64{0, 1, 5, 10, 25, 50, 100, 250, 500},
		}),
		OverridesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "overrides_total",
			Help:      "Manual override toggles applied.",
		}),
		DriveTimeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "drivetime_cache_total",
			Help:      "Drive-time cache lookups by result.",
		}, []string{"result"}),
		DriveTimeBatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "drivetime_batches_total",
			Help:      "Drive-time batches sent to the provider by outcome.",
		}, []string{"outcome"}),
		DriveTimeBatchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "drivetime_batch_duration_seconds",
			Help:      "Drive-time provider batch duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		ResultsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "results_published_total",
			Help:      "Completed queries published to Kafka by outcome.",
		}, []string{"outcome"}),
	}
}
