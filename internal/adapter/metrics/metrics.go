package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "api_performance"

// PipelineMetrics holds the Prometheus collectors for the async log pipeline.
type PipelineMetrics struct {
	EntriesEnqueued   prometheus.Counter
	EntriesDispatched *prometheus.CounterVec
	EntriesFiltered   prometheus.Counter
	DispatchFailures  prometheus.Counter
	EntriesDropped    *prometheus.CounterVec
	QueueDepth        prometheus.Gauge
}

// NewPipelineMetrics creates the pipeline collectors and registers them with reg.
// A nil reg leaves them unregistered, which is what tests usually want.
func NewPipelineMetrics(reg prometheus.Registerer) *PipelineMetrics {
	f := promauto.With(reg)
	return &PipelineMetrics{
		EntriesEnqueued: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "asynclog",
			Name:      "entries_enqueued_total",
			Help:      "Total number of log entries accepted onto the queue.",
		}),
		EntriesDispatched: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "asynclog",
			Name:      "entries_dispatched_total",
			Help:      "Total number of log entries delivered to the sink by level.",
		}, []string{"level"}),
		EntriesFiltered: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "asynclog",
			Name:      "entries_filtered_total",
			Help:      "Total number of log entries below the configured minimum level.",
		}),
		DispatchFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "asynclog",
			Name:      "dispatch_failures_total",
			Help:      "Total number of log entries the sink failed to accept.",
		}),
		EntriesDropped: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "asynclog",
			Name:      "entries_dropped_total",
			Help:      "Total number of log entries dropped before reaching the sink by reason.",
		}, []string{"reason"}), // reason: closed, submission_fault, shutdown_timeout
		QueueDepth: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "asynclog",
			Name:      "queue_depth",
			Help:      "Number of log entries waiting for the worker.",
		}),
	}
}

// APIMetrics holds the Prometheus collectors for the HTTP API.
type APIMetrics struct {
	CacheHits        prometheus.Counter
	CacheMisses      prometheus.Counter
	RequestDuration  *prometheus.HistogramVec
	CompressedBytes  *prometheus.CounterVec
	UncompressedSize prometheus.Counter
}

// NewAPIMetrics creates the API collectors and registers them with reg.
func NewAPIMetrics(reg prometheus.Registerer) *APIMetrics {
	f := promauto.With(reg)
	return &APIMetrics{
		CacheHits: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "hits_total",
			Help:      "Total number of response cache hits.",
		}),
		CacheMisses: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "misses_total",
			Help:      "Total number of response cache misses.",
		}),
		RequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		CompressedBytes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "compressed_bytes_total",
			Help:      "Total number of response bytes written after compression by encoding.",
		}, []string{"encoding"}),
		UncompressedSize: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "uncompressed_bytes_total",
			Help:      "Total number of response bytes before compression.",
		}),
	}
}
