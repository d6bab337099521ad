// Package telemetry provides observability instrumentation for the coffer host SDK.
//
// The telemetry package integrates structured logging (zerolog), distributed tracing
// (OpenTelemetry), metrics (Prometheus), and event publishing into a unified system
// for monitoring connection lifecycle behavior and engine calls.
//
// # Architecture
//
// The telemetry system is built on four pillars:
//
//  1. Structured Logging - Context-aware logging with zerolog
//  2. Distributed Tracing - OpenTelemetry traces with multiple exporters
//  3. Metrics Collection - Prometheus metrics for operational insights
//  4. Event Publishing - Async event system for audit and notifications
//
// # Usage
//
// Initialize telemetry at application startup:
//
//	cfg := telemetry.DefaultConfig()
//	cfg.ServiceVersion = "1.0.0"
//
//	tel, err := telemetry.NewTelemetry(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer tel.Shutdown(context.Background())
//
//	// Start metrics server
//	if err := tel.StartMetricsServer(); err != nil {
//	    log.Fatal(err)
//	}
//
// Add telemetry to context:
//
//	ctx = tel.WithContext(ctx)
//
// # Structured Logging
//
// The logger provides component-specific logging with automatic context propagation:
//
//	logger := tel.Logger.NewComponentLogger("lifecycle")
//	logger = logger.WithDatabase("orders").WithGeneration(4)
//	logger.Info("Connection validated")
//	logger.WithError(err).Error("Recreation failed")
//
// Log levels: trace, debug, info, warn, error, fatal
//
// Packages that take a plain zerolog.Logger can be wired with:
//
//	lib, err := native.Load(ctx, locator, cfg, tel.Logger.Zerolog())
//
// # Distributed Tracing
//
// Tracing provides visibility into validation passes and engine calls:
//
//	ctx, span := tel.Tracer.StartEnsureSpan(ctx, "orders")
//	defer span.End()
//
//	span.SetAttributes(
//	    telemetry.AttrState.String("suspect"),
//	    telemetry.AttrGeneration.Int64(4),
//	)
//
//	if err != nil {
//	    telemetry.RecordError(span, err)
//	}
//
// Supported exporters: OTLP (production), Stdout (development)
//
// # Metrics
//
// Prometheus metrics track lifecycle and engine behavior:
//
//	// Record validation outcomes
//	tel.Metrics.RecordValidation("live")
//
//	// Record recreation attempts
//	tel.Metrics.RecordRecreation("succeeded", duration)
//
//	// Record engine calls
//	tel.Metrics.RecordNativeCall("coffer_write", duration)
//
//	// Record errors
//	tel.Metrics.RecordError("connection")
//
// Metrics are exposed via HTTP at /metrics (default: :9464/metrics)
//
// # Event Publishing
//
// The event system provides async publishing with buffering and filtering:
//
//	// Publish events
//	tel.Events.PublishRecordRecreated("orders", 5, 2)
//	tel.Events.PublishRecordEvicted("stale-db", "stale")
//
//	// Subscribe to events
//	tel.Events.Subscribe(func(event telemetry.Event) {
//	    fmt.Printf("Event: %s - %s\n", event.Type, event.Message)
//	}, telemetry.FilterByLevel("warning"))
//
// Event filters: FilterByLevel, FilterByType, FilterByDatabase
//
// # Context Helpers
//
// High-level helpers simplify common instrumentation patterns:
//
//	// Instrument an operation
//	ic := telemetry.StartOperation(ctx, "catalog.migrate")
//	defer ic.End(err)
//
//	// Store facade operation
//	err := telemetry.InstrumentStoreOperation(ctx, "put", "orders", func(ctx context.Context) error {
//	    return db.Put(ctx, doc)
//	})
//
//	// Engine entry point call
//	err := telemetry.RecordNativeOperation(ctx, "coffer_write", func(ctx context.Context) error {
//	    return table.Write(ctx, handle, payload)
//	})
//
// # Configuration
//
// The package provides pre-configured setups for different environments:
//
//	// Development (verbose logging, stdout traces, full sampling)
//	cfg := telemetry.DevelopmentConfig()
//
//	// Production (JSON logs, OTLP traces, 10% sampling)
//	cfg := telemetry.ProductionConfig()
//
// # Common Metrics
//
// Key metrics exposed:
//
//   - coffer_lifecycle_validations_total{outcome}
//   - coffer_lifecycle_recreations_total{outcome}
//   - coffer_lifecycle_recreation_duration_seconds{outcome}
//   - coffer_native_calls_total{op}
//   - coffer_native_call_duration_seconds{op}
//   - coffer_native_call_errors_total{op}
//   - coffer_store_requests_total{op,status}
//   - coffer_store_request_duration_seconds{op}
//   - coffer_pool_records
//   - coffer_pool_evictions_total{reason}
//   - coffer_engine_loads_total{source}
//   - coffer_binding_failures_total
//   - coffer_engine_binary_swaps_total
//   - coffer_errors_by_class_total{class}
//
// # Graceful Shutdown
//
// Always shut down telemetry gracefully to flush pending data:
//
//	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
//	defer cancel()
//
//	if err := tel.Shutdown(ctx); err != nil {
//	    log.Printf("Telemetry shutdown error: %v", err)
//	}
//
// This ensures all buffered events are published and all pending traces are
// exported.
//
// # Performance Considerations
//
// The telemetry system is designed for minimal overhead:
//
//   - Structured logging uses zerolog's zero-allocation approach
//   - Tracing uses sampling to reduce data volume in production
//   - Metrics use Prometheus's efficient storage format
//   - Events are buffered and batched to reduce I/O
//
// Engine calls usually complete in microseconds, so per-call instrumentation
// is optional and gated on a telemetry instance being present in the context.
package telemetry
