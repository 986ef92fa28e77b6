package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsRegistry holds all Prometheus metrics for the catalog sync engine
type MetricsRegistry struct {
	// HTTP Metrics
	HTTPRequestsTotal    prometheus.CounterVec
	HTTPRequestDuration  prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.GaugeVec

	// Sync Metrics
	SyncAttemptsTotal prometheus.CounterVec
	SyncDuration      prometheus.HistogramVec
	SyncRetriesTotal  prometheus.Counter
	RemoteErrorsTotal prometheus.CounterVec

	// Batch Metrics
	BatchRunsTotal prometheus.Counter
	BatchEntities  prometheus.Histogram

	// Outbox / queue Metrics
	OutboxPending       prometheus.Gauge
	QueueTasksProcessed prometheus.CounterVec
}

// NewMetricsRegistry initializes and returns a new MetricsRegistry with all metrics
func NewMetricsRegistry() *MetricsRegistry {
	return &MetricsRegistry{
		// HTTP Metrics
		HTTPRequestsTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gosplan_http_requests_total",
				Help: "Total HTTP requests processed by endpoint, method, and status code",
			},
			[]string{"endpoint", "method", "status_code"},
		),
		HTTPRequestDuration: *promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gosplan_http_request_duration_seconds",
				Help:    "HTTP request latency distribution in seconds",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"endpoint", "method"},
		),
		HTTPRequestsInFlight: *promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "gosplan_http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed",
			},
			[]string{"endpoint"},
		),

		// Sync Metrics
		SyncAttemptsTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gosplan_sync_attempts_total",
				Help: "Terminal sync outcomes by remote action and status",
			},
			[]string{"action", "status"},
		),
		SyncDuration: *promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gosplan_sync_duration_seconds",
				Help:    "End-to-end per-entity sync duration in seconds, retries included",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"action"},
		),
		SyncRetriesTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "gosplan_sync_retries_total",
				Help: "Individual remote-call attempts that failed and were retried",
			},
		),
		RemoteErrorsTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gosplan_remote_errors_total",
				Help: "Remote catalog errors by provider error code",
			},
			[]string{"code"},
		),

		// Batch Metrics
		BatchRunsTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "gosplan_batch_runs_total",
				Help: "Completed batch sync runs",
			},
		),
		BatchEntities: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "gosplan_batch_entities",
				Help:    "Population size per batch run",
				Buckets: []float64{1, 10, 50, 100, 500, 1000, 5000},
			},
		),

		// Outbox / queue Metrics
		OutboxPending: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "gosplan_outbox_pending",
				Help: "Outbox events waiting to be dispatched",
			},
		),
		QueueTasksProcessed: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gosplan_queue_tasks_processed_total",
				Help: "Auto-sync queue tasks processed by result",
			},
			[]string{"result"},
		),
	}
}
