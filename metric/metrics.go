// Package metric holds the process-wide Prometheus metrics and the
// optional operations HTTP listener. The ops listener runs on its own
// port and is never mounted on the query endpoint.
package metric

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Metrics are the core WikiGraph metrics, registered once per process.
type Metrics struct {
	// Query endpoint
	RequestsTotal   *prometheus.CounterVec
	RequestDuration prometheus.Histogram
	ResponseBytes   prometheus.Counter

	// Synchronization loader
	SyncBatchesTotal  *prometheus.CounterVec
	SyncPagesTotal    prometheus.Counter
	SyncQuadsTotal    prometheus.Counter
	SyncLagSeconds    prometheus.Gauge
	SyncLastTimestamp prometheus.Gauge

	// Store
	StoreGraphs prometheus.Gauge
}

func newMetrics() *Metrics {
	return &Metrics{
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wikigraph",
			Subsystem: "server",
			Name:      "requests_total",
			Help:      "SPARQL protocol requests handled, by HTTP status code.",
		}, []string{"code"}),
		RequestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "wikigraph",
			Subsystem: "server",
			Name:      "request_duration_seconds",
			Help:      "Query request handling duration.",
			Buckets:   prometheus.DefBuckets,
		}),
		ResponseBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "wikigraph",
			Subsystem: "server",
			Name:      "response_bytes_total",
			Help:      "Bytes written in query responses.",
		}),
		SyncBatchesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wikigraph",
			Subsystem: "loader",
			Name:      "sync_batches_total",
			Help:      "Synchronization batches applied, by outcome.",
		}, []string{"outcome"}),
		SyncPagesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "wikigraph",
			Subsystem: "loader",
			Name:      "sync_pages_total",
			Help:      "Wiki pages loaded or reloaded into the store.",
		}),
		SyncQuadsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "wikigraph",
			Subsystem: "loader",
			Name:      "sync_quads_total",
			Help:      "Statements written by the loader.",
		}),
		SyncLagSeconds: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "wikigraph",
			Subsystem: "loader",
			Name:      "sync_lag_seconds",
			Help:      "Seconds between now and the persisted sync cursor.",
		}),
		SyncLastTimestamp: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "wikigraph",
			Subsystem: "loader",
			Name:      "sync_last_timestamp_seconds",
			Help:      "Unix time of the last applied upstream change.",
		}),
		StoreGraphs: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "wikigraph",
			Subsystem: "store",
			Name:      "graphs",
			Help:      "Named graphs currently present in the store.",
		}),
	}
}

// Registry bundles the Prometheus registry with the core metrics.
type Registry struct {
	prometheusRegistry *prometheus.Registry
	Metrics            *Metrics
}

// NewRegistry builds a registry carrying the core metrics plus the Go
// runtime and process collectors.
func NewRegistry() *Registry {
	r := &Registry{
		prometheusRegistry: prometheus.NewRegistry(),
		Metrics:            newMetrics(),
	}
	r.prometheusRegistry.MustRegister(
		r.Metrics.RequestsTotal,
		r.Metrics.RequestDuration,
		r.Metrics.ResponseBytes,
		r.Metrics.SyncBatchesTotal,
		r.Metrics.SyncPagesTotal,
		r.Metrics.SyncQuadsTotal,
		r.Metrics.SyncLagSeconds,
		r.Metrics.SyncLastTimestamp,
		r.Metrics.StoreGraphs,
	)
	r.prometheusRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// PrometheusRegistry returns the underlying Prometheus registry.
func (r *Registry) PrometheusRegistry() *prometheus.Registry {
	return r.prometheusRegistry
}
