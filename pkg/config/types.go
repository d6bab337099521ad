package config

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/cofferdb/coffer-go/pkg/telemetry"
)

// Config is the complete host configuration. Zero values are filled by
// DefaultConfig; YAML files and the COFFER_ENGINE_PATH environment
// variable override it field by field.
type Config struct {
	// DataDir is where bare database names are materialized on disk.
	// Names carrying a path separator bypass it.
	DataDir string `json:"data_dir" yaml:"data_dir" validate:"required"`

	// Engine configures how the engine binary is located and called.
	Engine EngineConfig `json:"engine" yaml:"engine"`

	// Lifecycle configures connection validation and recovery.
	Lifecycle LifecycleConfig `json:"lifecycle" yaml:"lifecycle"`

	// Catalog configures the optional durable catalog.
	Catalog CatalogConfig `json:"catalog" yaml:"catalog"`

	// Telemetry configures logging, metrics, and tracing.
	Telemetry TelemetryConfig `json:"telemetry" yaml:"telemetry"`
}

// EngineConfig locates the engine binary and bounds its calls.
type EngineConfig struct {
	// Path points directly at the engine binary, bypassing the search
	// strategies. COFFER_ENGINE_PATH overrides it.
	Path string `json:"path,omitempty" yaml:"path,omitempty"`

	// LibraryDir is searched for the default and architecture-qualified
	// binary names when Path is unset.
	LibraryDir string `json:"library_dir,omitempty" yaml:"library_dir,omitempty"`

	// CallTimeout bounds a single foreign call into the engine.
	CallTimeout Duration `json:"call_timeout" yaml:"call_timeout" validate:"min=0"`

	// Watch rebinds the entry table when the binary on disk changes.
	Watch bool `json:"watch" yaml:"watch"`
}

// LifecycleConfig tunes the validation and recovery behavior.
type LifecycleConfig struct {
	// MaxAttempts bounds creation attempts per validation pass.
	MaxAttempts int `json:"max_attempts" yaml:"max_attempts" validate:"min=1,max=10"`

	// RetryInterval is the initial backoff delay between attempts.
	RetryInterval Duration `json:"retry_interval" yaml:"retry_interval" validate:"min=0"`

	// StalenessWindow is how long an unused connection record stays
	// eligible before the pool stops handing it out.
	StalenessWindow Duration `json:"staleness_window" yaml:"staleness_window" validate:"min=0"`
}

// CatalogConfig configures the durable catalog of known databases.
type CatalogConfig struct {
	// Enabled turns the catalog on.
	Enabled bool `json:"enabled" yaml:"enabled"`

	// Path is the sqlite file backing the catalog. Empty derives
	// <data_dir>/catalog.db.
	Path string `json:"path,omitempty" yaml:"path,omitempty"`
}

// TelemetryConfig is the host-facing slice of the telemetry stack; Expand
// turns it into the full telemetry configuration.
type TelemetryConfig struct {
	// LogLevel sets the minimum log level (trace, debug, info, warn, error).
	LogLevel string `json:"log_level" yaml:"log_level" validate:"oneof=trace debug info warn error"`

	// LogFormat selects console or json output.
	LogFormat string `json:"log_format" yaml:"log_format" validate:"oneof=console json"`

	// MetricsEnabled serves prometheus metrics on MetricsListen.
	MetricsEnabled bool   `json:"metrics_enabled" yaml:"metrics_enabled"`
	MetricsListen  string `json:"metrics_listen,omitempty" yaml:"metrics_listen,omitempty"`

	// TracingEnabled exports spans via TracingExporter to TracingEndpoint.
	TracingEnabled  bool   `json:"tracing_enabled" yaml:"tracing_enabled"`
	TracingExporter string `json:"tracing_exporter,omitempty" yaml:"tracing_exporter,omitempty" validate:"omitempty,oneof=otlp stdout none"`
	TracingEndpoint string `json:"tracing_endpoint,omitempty" yaml:"tracing_endpoint,omitempty"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		DataDir: "data",
		Engine: EngineConfig{
			LibraryDir:  ".",
			CallTimeout: Duration(30 * time.Second),
		},
		Lifecycle: LifecycleConfig{
			MaxAttempts:     3,
			RetryInterval:   Duration(100 * time.Millisecond),
			StalenessWindow: Duration(30 * time.Minute),
		},
		Telemetry: TelemetryConfig{
			LogLevel:  "info",
			LogFormat: "console",
		},
	}
}

var validate = validator.New()

// Validate checks the configuration against its field constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// CatalogPath returns the configured catalog file, deriving it from the
// data directory when unset.
func (c *Config) CatalogPath() string {
	if c.Catalog.Path != "" {
		return c.Catalog.Path
	}
	return filepath.Join(c.DataDir, "catalog.db")
}

// Expand maps the host-facing telemetry slice onto the full telemetry
// configuration, leaving everything it does not cover at defaults.
func (t TelemetryConfig) Expand() *telemetry.Config {
	cfg := telemetry.DefaultConfig()
	if t.LogLevel != "" {
		cfg.Logging.Level = t.LogLevel
	}
	if t.LogFormat != "" {
		cfg.Logging.Format = t.LogFormat
	}
	cfg.Metrics.Enabled = t.MetricsEnabled
	if t.MetricsListen != "" {
		cfg.Metrics.ListenAddress = t.MetricsListen
	}
	cfg.Tracing.Enabled = t.TracingEnabled
	if t.TracingExporter != "" {
		cfg.Tracing.Exporter = t.TracingExporter
	}
	if t.TracingEndpoint != "" {
		cfg.Tracing.Endpoint = t.TracingEndpoint
	}
	return cfg
}

// Duration is a time.Duration that round-trips through YAML and JSON in
// the human form ("100ms", "30s"). Bare integers are nanoseconds, which
// is how the stdlib encodes time.Duration.
type Duration time.Duration

// Std returns the standard library representation.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

func (d Duration) String() string {
	return time.Duration(d).String()
}

// UnmarshalYAML accepts "100ms"-style strings or integer nanoseconds.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return fmt.Errorf("invalid duration node: %w", err)
	}
	parsed, err := parseDuration(raw)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// MarshalYAML renders the human form.
func (d Duration) MarshalYAML() (interface{}, error) {
	return d.String(), nil
}

// UnmarshalJSON accepts "100ms"-style strings or integer nanoseconds.
func (d *Duration) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		var n int64
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("invalid duration %s", data)
		}
		*d = Duration(n)
		return nil
	}
	parsed, err := parseDuration(raw)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// parseDuration reads the human form first, then bare integers as
// nanoseconds, matching how the stdlib encodes time.Duration.
func parseDuration(raw string) (Duration, error) {
	if parsed, err := time.ParseDuration(raw); err == nil {
		return Duration(parsed), nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", raw)
	}
	return Duration(n), nil
}

// MarshalJSON renders the human form.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}
