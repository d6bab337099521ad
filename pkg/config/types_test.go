package config

import (
	"path/filepath"
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

func TestDefaultConfig_IsValid(t *testing.T) {
	cfg := DefaultConfig()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Expected default config to validate, got %v", err)
	}
	if cfg.Lifecycle.MaxAttempts != 3 {
		t.Errorf("Expected 3 attempts, got %d", cfg.Lifecycle.MaxAttempts)
	}
	if cfg.Lifecycle.RetryInterval.Std() != 100*time.Millisecond {
		t.Errorf("Expected 100ms retry interval, got %v", cfg.Lifecycle.RetryInterval.Std())
	}
	if cfg.Engine.CallTimeout.Std() != 30*time.Second {
		t.Errorf("Expected 30s call timeout, got %v", cfg.Engine.CallTimeout.Std())
	}
}

func TestConfig_Validate_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{
			name:   "empty data dir",
			mutate: func(c *Config) { c.DataDir = "" },
		},
		{
			name:   "zero attempts",
			mutate: func(c *Config) { c.Lifecycle.MaxAttempts = 0 },
		},
		{
			name:   "excessive attempts",
			mutate: func(c *Config) { c.Lifecycle.MaxAttempts = 50 },
		},
		{
			name:   "unknown log level",
			mutate: func(c *Config) { c.Telemetry.LogLevel = "loud" },
		},
		{
			name:   "unknown log format",
			mutate: func(c *Config) { c.Telemetry.LogFormat = "xml" },
		},
		{
			name:   "unknown trace exporter",
			mutate: func(c *Config) { c.Telemetry.TracingExporter = "jaeger" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Expected validation to fail")
			}
		})
	}
}

func TestConfig_CatalogPath(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DataDir = "/var/lib/coffer"

	want := filepath.Join("/var/lib/coffer", "catalog.db")
	if got := cfg.CatalogPath(); got != want {
		t.Errorf("Expected derived path %q, got %q", want, got)
	}

	cfg.Catalog.Path = "/tmp/other.db"
	if got := cfg.CatalogPath(); got != "/tmp/other.db" {
		t.Errorf("Expected explicit path, got %q", got)
	}
}

func TestTelemetryConfig_Expand(t *testing.T) {
	tc := TelemetryConfig{
		LogLevel:        "debug",
		LogFormat:       "json",
		MetricsEnabled:  true,
		MetricsListen:   ":9999",
		TracingEnabled:  true,
		TracingExporter: "stdout",
	}

	cfg := tc.Expand()
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Errorf("Expected logging overrides, got %s/%s", cfg.Logging.Level, cfg.Logging.Format)
	}
	if !cfg.Metrics.Enabled || cfg.Metrics.ListenAddress != ":9999" {
		t.Errorf("Expected metrics overrides, got %v/%s", cfg.Metrics.Enabled, cfg.Metrics.ListenAddress)
	}
	if !cfg.Tracing.Enabled || cfg.Tracing.Exporter != "stdout" {
		t.Errorf("Expected tracing overrides, got %v/%s", cfg.Tracing.Enabled, cfg.Tracing.Exporter)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Expected expanded config to validate, got %v", err)
	}
}

func TestDuration_Unmarshal(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		want    time.Duration
		wantErr bool
	}{
		{name: "human form", yaml: "value: 150ms", want: 150 * time.Millisecond},
		{name: "compound form", yaml: "value: 1m30s", want: 90 * time.Second},
		{name: "integer nanoseconds", yaml: "value: 1000000", want: time.Millisecond},
		{name: "garbage", yaml: "value: soon", wantErr: true},
		{name: "wrong shape", yaml: "value: [1, 2]", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out struct {
				Value Duration `yaml:"value"`
			}
			err := yaml.Unmarshal([]byte(tt.yaml), &out)
			if tt.wantErr {
				if err == nil {
					t.Error("Expected unmarshal to fail")
				}
				return
			}
			if err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			if out.Value.Std() != tt.want {
				t.Errorf("Expected %v, got %v", tt.want, out.Value.Std())
			}
		})
	}
}

func TestDuration_MarshalRoundTrip(t *testing.T) {
	in := struct {
		Value Duration `yaml:"value"`
	}{Value: Duration(250 * time.Millisecond)}

	data, err := yaml.Marshal(in)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	var out struct {
		Value Duration `yaml:"value"`
	}
	if err := yaml.Unmarshal(data, &out); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if out.Value != in.Value {
		t.Errorf("Expected %v back, got %v", in.Value, out.Value)
	}
}
