package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// APICallsTotal tracks completed outbound calls per provider and method
	APICallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tbutils_api_calls_total",
			Help: "Total number of outbound API calls",
		},
		[]string{"provider", "method"},
	)

	// APIErrorsTotal tracks failed outbound calls per provider and error type
	APIErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tbutils_api_errors_total",
			Help: "Total number of failed outbound API calls",
		},
		[]string{"provider", "error_type"},
	)

	// APICallLatency tracks outbound call latency
	APICallLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tbutils_api_call_latency_seconds",
			Help:    "Outbound API call latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider", "method"},
	)

	// RetryAttemptsTotal counts physical retry attempts beyond the first
	RetryAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tbutils_retry_attempts_total",
			Help: "Total number of retry attempts",
		},
		[]string{"provider"},
	)

	// BreakerState exposes the circuit breaker state per provider
	// (0=open, 1=closed, 2=half-open)
	BreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "tbutils_breaker_state",
			Help: "Circuit breaker state per provider (0=open, 1=closed, 2=half-open)",
		},
		[]string{"provider"},
	)

	// TelemetryWriteFailures counts telemetry records dropped on storage errors
	TelemetryWriteFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tbutils_telemetry_write_failures_total",
			Help: "Total number of telemetry records that failed to persist",
		},
	)

	// ReconcileBatchSize tracks reconciliation batch sizes by action
	ReconcileBatchSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tbutils_reconcile_batch_size",
			Help:    "Number of records per reconciliation batch",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500},
		},
		[]string{"action"},
	)
)
