// Package config loads and validates the host configuration for the
// coffer SDK and CLI.
//
// # Overview
//
// Configuration is one flat struct built in three layers: DefaultConfig
// seeds every field, an optional YAML file overrides what it names, and
// environment variables win last. The merged result is validated before
// anything uses it, so a misconfigured host fails at startup rather than
// on the first engine call.
//
// # Sections
//
// Config groups four concerns:
//
//   - Engine: where the engine binary lives (explicit path, search
//     directory) and the per-call timeout.
//   - Lifecycle: recovery tuning (attempt budget, backoff interval,
//     record staleness window).
//   - Catalog: the optional durable catalog of known databases.
//   - Telemetry: the host-facing slice of logging, metrics, and tracing;
//     Expand turns it into the full telemetry configuration.
//
// # Usage Example
//
//	cfg, err := config.Load("coffer.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	tel, err := telemetry.NewTelemetry(cfg.Telemetry.Expand())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// # YAML Structure
//
// Durations use the human form; unset fields keep their defaults:
//
//	data_dir: /var/lib/coffer
//	engine:
//	  library_dir: /usr/lib/coffer
//	  call_timeout: 30s
//	  watch: true
//	lifecycle:
//	  max_attempts: 3
//	  retry_interval: 100ms
//	  staleness_window: 30m
//	catalog:
//	  enabled: true
//	telemetry:
//	  log_level: info
//	  log_format: console
//	  metrics_enabled: true
//	  metrics_listen: ":9464"
//
// # Environment Overrides
//
// COFFER_ENGINE_PATH points directly at the engine binary and overrides
// both the default search and any configured path.
//
// # Validation
//
// Field constraints are declared as struct tags and enforced with
// go-playground/validator. Load and LoadFromBytes never return a
// configuration that fails them.
package config
