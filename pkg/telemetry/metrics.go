package telemetry

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics provides Prometheus metrics for the coffer host SDK.
type Metrics struct {
	config MetricsConfig

	// Lifecycle metrics
	validations        *prometheus.CounterVec
	recreations        *prometheus.CounterVec
	recreationDuration *prometheus.HistogramVec

	// Native call metrics
	nativeCalls        *prometheus.CounterVec
	nativeCallDuration *prometheus.HistogramVec
	nativeCallErrors   *prometheus.CounterVec

	// Store facade metrics
	storeRequests        *prometheus.CounterVec
	storeRequestDuration *prometheus.HistogramVec

	// Pool metrics
	poolRecords   prometheus.Gauge
	poolEvictions *prometheus.CounterVec

	// Engine binary metrics
	engineLoads     *prometheus.CounterVec
	bindingFailures prometheus.Counter
	binarySwaps     prometheus.Counter

	// Error metrics
	errorsByClass *prometheus.CounterVec

	registry *prometheus.Registry
}

// NewMetrics creates a new metrics collector with the given configuration.
func NewMetrics(cfg MetricsConfig) (*Metrics, error) {
	if !cfg.Enabled {
		// Return a no-op metrics instance
		return &Metrics{config: cfg}, nil
	}

	namespace := cfg.Namespace
	buckets := cfg.DefaultHistogramBuckets
	if len(buckets) == 0 {
		buckets = prometheus.DefBuckets
	}

	// Create a new registry
	registry := prometheus.NewRegistry()

	m := &Metrics{
		config:   cfg,
		registry: registry,

		// Lifecycle metrics
		validations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "lifecycle_validations_total",
				Help:      "Total number of connection validations by outcome",
			},
			[]string{"outcome"},
		),
		recreations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "lifecycle_recreations_total",
				Help:      "Total number of connection recreation attempts by outcome",
			},
			[]string{"outcome"},
		),
		recreationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "lifecycle_recreation_duration_seconds",
				Help:      "Duration of connection recreation in seconds",
				Buckets:   buckets,
			},
			[]string{"outcome"},
		),

		// Native call metrics
		nativeCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "native_calls_total",
				Help:      "Total number of engine entry point calls",
			},
			[]string{"op"},
		),
		nativeCallDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "native_call_duration_seconds",
				Help:      "Duration of engine entry point calls in seconds",
				Buckets:   buckets,
			},
			[]string{"op"},
		),
		nativeCallErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "native_call_errors_total",
				Help:      "Total number of failed engine entry point calls",
			},
			[]string{"op"},
		),

		// Store facade metrics
		storeRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "store_requests_total",
				Help:      "Total number of store operations by status",
			},
			[]string{"op", "status"},
		),
		storeRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "store_request_duration_seconds",
				Help:      "Duration of store operations in seconds",
				Buckets:   buckets,
			},
			[]string{"op"},
		),

		// Pool metrics
		poolRecords: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "pool_records",
				Help:      "Current number of pooled connection records",
			},
		),
		poolEvictions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "pool_evictions_total",
				Help:      "Total number of records evicted from the pool by reason",
			},
			[]string{"reason"},
		),

		// Engine binary metrics
		engineLoads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "engine_loads_total",
				Help:      "Total number of engine binary loads by source",
			},
			[]string{"source"},
		),
		bindingFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "binding_failures_total",
				Help:      "Total number of engine binding failures",
			},
		),
		binarySwaps: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "engine_binary_swaps_total",
				Help:      "Total number of engine binary swaps observed on disk",
			},
		),

		// Error metrics
		errorsByClass: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "errors_by_class_total",
				Help:      "Total number of errors by error class",
			},
			[]string{"class"},
		),
	}

	// Register all metrics
	registry.MustRegister(
		m.validations,
		m.recreations,
		m.recreationDuration,
		m.nativeCalls,
		m.nativeCallDuration,
		m.nativeCallErrors,
		m.storeRequests,
		m.storeRequestDuration,
		m.poolRecords,
		m.poolEvictions,
		m.engineLoads,
		m.bindingFailures,
		m.binarySwaps,
		m.errorsByClass,
	)

	return m, nil
}

// Lifecycle Metrics

// RecordValidation records the outcome of a connection validation
// (live, suspect, invalid, absent).
func (m *Metrics) RecordValidation(outcome string) {
	if m.validations == nil {
		return
	}
	m.validations.WithLabelValues(outcome).Inc()
}

// RecordRecreation records a connection recreation attempt with its outcome
// and duration.
func (m *Metrics) RecordRecreation(outcome string, duration time.Duration) {
	if m.recreations == nil {
		return
	}
	m.recreations.WithLabelValues(outcome).Inc()
	m.recreationDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}

// Native Call Metrics

// RecordNativeCall records an engine entry point call with its duration.
func (m *Metrics) RecordNativeCall(op string, duration time.Duration) {
	if m.nativeCalls == nil {
		return
	}
	m.nativeCalls.WithLabelValues(op).Inc()
	m.nativeCallDuration.WithLabelValues(op).Observe(duration.Seconds())
}

// RecordNativeCallError records a failed engine entry point call.
func (m *Metrics) RecordNativeCallError(op string) {
	if m.nativeCallErrors == nil {
		return
	}
	m.nativeCallErrors.WithLabelValues(op).Inc()
}

// Store Metrics

// RecordStoreRequest records a store operation with its status and duration.
func (m *Metrics) RecordStoreRequest(op, status string, duration time.Duration) {
	if m.storeRequests == nil {
		return
	}
	m.storeRequests.WithLabelValues(op, status).Inc()
	m.storeRequestDuration.WithLabelValues(op).Observe(duration.Seconds())
}

// Pool Metrics

// SetPoolRecords sets the current number of pooled connection records.
func (m *Metrics) SetPoolRecords(count float64) {
	if m.poolRecords == nil {
		return
	}
	m.poolRecords.Set(count)
}

// RecordEviction records a record evicted from the pool
// (stale, invalid, replaced, closed).
func (m *Metrics) RecordEviction(reason string) {
	if m.poolEvictions == nil {
		return
	}
	m.poolEvictions.WithLabelValues(reason).Inc()
}

// Engine Binary Metrics

// RecordEngineLoad records an engine binary load by source
// (explicit, search, resident).
func (m *Metrics) RecordEngineLoad(source string) {
	if m.engineLoads == nil {
		return
	}
	m.engineLoads.WithLabelValues(source).Inc()
}

// RecordBindingFailure records a failure to bind the engine entry table.
func (m *Metrics) RecordBindingFailure() {
	if m.bindingFailures == nil {
		return
	}
	m.bindingFailures.Inc()
}

// RecordBinarySwap records an on-disk engine binary swap.
func (m *Metrics) RecordBinarySwap() {
	if m.binarySwaps == nil {
		return
	}
	m.binarySwaps.Inc()
}

// Error Metrics

// RecordError records an error by class.
func (m *Metrics) RecordError(errorClass string) {
	if m.errorsByClass == nil {
		return
	}
	m.errorsByClass.WithLabelValues(errorClass).Inc()
}

// Timer provides a convenient way to time operations.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// Duration returns the elapsed time since the timer was created.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}

// ObserveDuration is a helper to time an operation and record it.
func (t *Timer) ObserveDuration(observer prometheus.Observer) {
	observer.Observe(t.Duration().Seconds())
}

// Handler returns an HTTP handler for the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m.registry == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// StartMetricsServer starts an HTTP server to expose metrics.
func (m *Metrics) StartMetricsServer() error {
	if !m.config.Enabled {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle(m.config.Path, m.Handler())

	server := &http.Server{
		Addr:              m.config.ListenAddress,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			// Log error but don't fail the application
			fmt.Printf("metrics server error: %v\n", err)
		}
	}()

	return nil
}
