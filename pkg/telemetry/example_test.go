package telemetry_test

import (
	"context"
	"fmt"
	"time"

	"github.com/cofferdb/coffer-go/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
)

// Example_basicSetup demonstrates basic telemetry setup.
func Example_basicSetup() {
	// Create configuration
	cfg := telemetry.DefaultConfig()
	cfg.ServiceVersion = "1.0.0"

	// Initialize telemetry
	tel, err := telemetry.NewTelemetry(cfg)
	if err != nil {
		panic(err)
	}
	defer tel.Shutdown(context.Background())

	// Start metrics server (non-blocking)
	if err := tel.StartMetricsServer(); err != nil {
		panic(err)
	}

	// Add telemetry to context
	ctx := tel.WithContext(context.Background())

	// Use telemetry
	logger := telemetry.FromContext(ctx)
	logger.Info("Host SDK started")

	// Output can vary, so we don't specify output for this example
}

// Example_structuredLogging demonstrates structured logging features.
func Example_structuredLogging() {
	cfg := telemetry.DevelopmentConfig()
	cfg.Logging.Output = "stdout"

	tel, _ := telemetry.NewTelemetry(cfg)
	defer tel.Shutdown(context.Background())

	// Component-specific logger
	logger := tel.Logger.NewComponentLogger("lifecycle")

	// Add context fields
	logger = logger.WithDatabase("orders").WithGeneration(4)

	// Log at different levels
	logger.Debug("Validating pooled connection")
	logger.Info("Connection validated")
	logger.Warn("Generation disagreement, marking suspect")

	// Log with error
	err := fmt.Errorf("ping failed")
	logger.WithError(err).Error("Connection invalid, recreating")

	// Output varies, no output specified
}

// Example_distributedTracing demonstrates distributed tracing usage.
func Example_distributedTracing() {
	cfg := telemetry.DevelopmentConfig()
	cfg.Tracing.Exporter = "stdout"

	tel, _ := telemetry.NewTelemetry(cfg)
	defer tel.Shutdown(context.Background())

	ctx := tel.WithContext(context.Background())

	// Start a validation span
	ctx, span := tel.Tracer.StartEnsureSpan(ctx, "orders")
	defer span.End()

	// Add attributes
	span.SetAttributes(
		telemetry.AttrState.String("suspect"),
		telemetry.AttrGeneration.Int64(4),
	)

	// Add event
	span.AddEvent("ping.complete")

	// Nested engine call span
	_, childSpan := tel.Tracer.StartNativeSpan(ctx, "coffer_ping")
	defer childSpan.End()

	// Simulate work
	time.Sleep(time.Millisecond)

	// Record success
	telemetry.RecordSuccess(childSpan)

	// Output varies, no output specified
}

// Example_metricsCollection demonstrates metrics collection.
func Example_metricsCollection() {
	cfg := telemetry.DefaultConfig()
	cfg.Metrics.Enabled = true

	tel, _ := telemetry.NewTelemetry(cfg)
	defer tel.Shutdown(context.Background())

	// Record validation outcomes
	tel.Metrics.RecordValidation("live")
	tel.Metrics.RecordValidation("suspect")

	// Record a recreation attempt
	tel.Metrics.RecordRecreation("succeeded", 120*time.Millisecond)

	// Record engine calls
	tel.Metrics.RecordNativeCall("coffer_write", 400*time.Microsecond)
	tel.Metrics.RecordNativeCall("coffer_read_by_id", 150*time.Microsecond)

	// Record store operations
	tel.Metrics.RecordStoreRequest("put", "ok", 700*time.Microsecond)

	// Record error metrics
	tel.Metrics.RecordError("connection")

	// Set pool size
	tel.Metrics.SetPoolRecords(3)

	fmt.Println("Metrics recorded successfully")
	// Output: Metrics recorded successfully
}

// Example_eventPublishing demonstrates event publishing and subscription.
func Example_eventPublishing() {
	cfg := telemetry.DefaultConfig()
	cfg.Events.Enabled = true
	cfg.Events.EnableAsync = false // Synchronous for example

	tel, _ := telemetry.NewTelemetry(cfg)
	defer tel.Shutdown(context.Background())

	// Subscribe to events
	tel.Events.Subscribe(func(event telemetry.Event) {
		fmt.Printf("Event: %s - %s\n", event.Type, event.Message)
	}, nil) // No filter, receive all events

	// Publish events
	tel.Events.PublishRecordCreated("orders", 1)
	tel.Events.PublishRecordSuspect("orders", "generation disagreement")
	tel.Events.PublishRecordRecreated("orders", 2, 1)

	// Output varies due to async nature, no output specified
}

// Example_lifecycleInstrumentation demonstrates instrumenting a validation pass.
func Example_lifecycleInstrumentation() {
	cfg := telemetry.DevelopmentConfig()
	tel, _ := telemetry.NewTelemetry(cfg)
	defer tel.Shutdown(context.Background())

	ctx := tel.WithContext(context.Background())

	// Carry the database through the context logger
	ctx = telemetry.WithDatabaseContext(ctx, "orders")

	logger := telemetry.FromContext(ctx)
	logger.Info("Ensuring live connection")

	// Record the validation outcome
	tel.Metrics.RecordValidation("live")

	fmt.Println("Lifecycle instrumentation complete")
	// Output: Lifecycle instrumentation complete
}

// Example_nativeInstrumentation demonstrates instrumenting engine calls.
func Example_nativeInstrumentation() {
	cfg := telemetry.DevelopmentConfig()
	tel, _ := telemetry.NewTelemetry(cfg)
	defer tel.Shutdown(context.Background())

	ctx := tel.WithContext(context.Background())

	// Record an engine entry point call
	err := telemetry.RecordNativeOperation(ctx, "coffer_write", func(ctx context.Context) error {
		// Simulate engine work
		time.Sleep(time.Millisecond)
		return nil
	})

	if err == nil {
		fmt.Println("Engine call completed successfully")
	}

	// Output: Engine call completed successfully
}

// Example_instrumentedOperation demonstrates using the InstrumentedContext helper.
func Example_instrumentedOperation() {
	cfg := telemetry.DevelopmentConfig()
	tel, _ := telemetry.NewTelemetry(cfg)
	defer tel.Shutdown(context.Background())

	ctx := tel.WithContext(context.Background())

	// Start instrumented operation
	ic := telemetry.StartOperation(ctx, "catalog.migrate",
		attribute.String("catalog.path", "/var/lib/coffer/catalog.db"),
	)
	defer ic.End(nil)

	// Use the instrumented context
	ic.Logger.Info("Applying catalog migrations")

	// Simulate migration
	time.Sleep(time.Millisecond)

	ic.Logger.Debug("Catalog migrations complete")

	fmt.Println("Operation instrumentation complete")
	// Output: Operation instrumentation complete
}

// Example_eventFiltering demonstrates event filtering.
func Example_eventFiltering() {
	cfg := telemetry.DefaultConfig()
	cfg.Events.Enabled = true
	cfg.Events.EnableAsync = false

	tel, _ := telemetry.NewTelemetry(cfg)
	defer tel.Shutdown(context.Background())

	// Subscribe with level filter (only warnings and errors)
	tel.Events.Subscribe(func(event telemetry.Event) {
		fmt.Printf("Important event: %s\n", event.Type)
	}, telemetry.FilterByLevel(telemetry.EventLevelWarning))

	// Subscribe with database filter (only one database)
	tel.Events.Subscribe(func(event telemetry.Event) {
		fmt.Printf("Orders event: %s\n", event.Message)
	}, telemetry.FilterByDatabase("orders"))

	// Publish various events
	tel.Events.PublishRecordCreated("orders", 1)                    // Info - filtered by level filter
	tel.Events.PublishRecordSuspect("orders", "is_open reported 0") // Warning - passes level filter
	tel.Events.PublishRecordInvalidated("users", "ping failed")     // Warning - passes level filter

	// Output varies, no output specified
}

// Example_productionConfiguration demonstrates production-ready configuration.
func Example_productionConfiguration() {
	cfg := telemetry.ProductionConfig()

	// Customize for your environment
	cfg.ServiceVersion = "1.2.3"
	cfg.Environment = "production"

	// Configure OTLP exporter
	cfg.Tracing.Exporter = "otlp"
	cfg.Tracing.Endpoint = "otel-collector.monitoring.svc.cluster.local:4317"
	cfg.Tracing.SamplingRate = 0.1 // 10% sampling
	cfg.Tracing.Insecure = false   // Use TLS in production

	// Configure metrics
	cfg.Metrics.ListenAddress = ":9464"
	cfg.Metrics.Namespace = "coffer"

	// Configure events
	cfg.Events.BufferSize = 10000
	cfg.Events.FlushInterval = 5 * time.Second

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		panic(err)
	}

	fmt.Println("Production configuration validated")
	// Output: Production configuration validated
}

// Example_errorRecording demonstrates error recording with proper classification.
func Example_errorRecording() {
	cfg := telemetry.DevelopmentConfig()
	tel, _ := telemetry.NewTelemetry(cfg)
	defer tel.Shutdown(context.Background())

	ctx := tel.WithContext(context.Background())

	// Start a span
	ctx, span := tel.Tracer.StartEnsureSpan(ctx, "orders")
	defer span.End()

	// Simulate an error
	err := fmt.Errorf("recreation attempts exhausted")

	if err != nil {
		// Record error on span
		telemetry.RecordError(span, err)

		// Record error metric with classification
		tel.Metrics.RecordError("connection")

		// Log error
		logger := telemetry.FromContext(ctx)
		logger.WithError(err).Error("Ensure failed")
	}

	fmt.Println("Error recording complete")
	// Output: Error recording complete
}

// Example_multipleComponents demonstrates telemetry in a multi-component system.
func Example_multipleComponents() {
	cfg := telemetry.DevelopmentConfig()
	tel, _ := telemetry.NewTelemetry(cfg)
	defer tel.Shutdown(context.Background())

	// Component-specific loggers
	nativeLogger := tel.Logger.NewComponentLogger("native")
	lifecycleLogger := tel.Logger.NewComponentLogger("lifecycle")
	storeLogger := tel.Logger.NewComponentLogger("store")

	nativeLogger.Info("Engine binary loaded")
	lifecycleLogger.Info("Connection pool initialized")
	storeLogger.Info("Store facade ready")

	fmt.Println("Multi-component logging complete")
	// Output: Multi-component logging complete
}
