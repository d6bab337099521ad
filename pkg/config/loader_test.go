package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_EmptyPathUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if cfg.DataDir != "data" {
		t.Errorf("Expected default data dir, got %q", cfg.DataDir)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err == nil {
		t.Fatal("Expected an error for a missing file")
	}
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "coffer.yaml")
	content := `
data_dir: /var/lib/coffer
engine:
  library_dir: /usr/lib/coffer
  call_timeout: 5s
lifecycle:
  max_attempts: 5
  retry_interval: 250ms
telemetry:
  log_level: debug
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if cfg.DataDir != "/var/lib/coffer" {
		t.Errorf("Expected overridden data dir, got %q", cfg.DataDir)
	}
	if cfg.Engine.CallTimeout.Std() != 5*time.Second {
		t.Errorf("Expected 5s timeout, got %v", cfg.Engine.CallTimeout.Std())
	}
	if cfg.Lifecycle.MaxAttempts != 5 {
		t.Errorf("Expected 5 attempts, got %d", cfg.Lifecycle.MaxAttempts)
	}
	if cfg.Lifecycle.RetryInterval.Std() != 250*time.Millisecond {
		t.Errorf("Expected 250ms interval, got %v", cfg.Lifecycle.RetryInterval.Std())
	}
	if cfg.Telemetry.LogLevel != "debug" {
		t.Errorf("Expected debug level, got %q", cfg.Telemetry.LogLevel)
	}

	// Untouched fields keep their defaults.
	if cfg.Lifecycle.StalenessWindow.Std() != 30*time.Minute {
		t.Errorf("Expected default staleness window, got %v", cfg.Lifecycle.StalenessWindow.Std())
	}
	if cfg.Telemetry.LogFormat != "console" {
		t.Errorf("Expected default log format, got %q", cfg.Telemetry.LogFormat)
	}
}

func TestLoadFromBytes_InvalidYAML(t *testing.T) {
	_, err := LoadFromBytes([]byte("data_dir: [unclosed"))
	if err == nil {
		t.Fatal("Expected a parse error")
	}
}

func TestLoadFromBytes_InvalidValues(t *testing.T) {
	_, err := LoadFromBytes([]byte("lifecycle:\n  max_attempts: 0\n"))
	if err == nil {
		t.Fatal("Expected a validation error")
	}
}

func TestLoad_EnvOverridesEnginePath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "coffer.yaml")
	content := "engine:\n  path: /from/file.wasm\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	t.Setenv(EnvEnginePath, "/from/env.wasm")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if cfg.Engine.Path != "/from/env.wasm" {
		t.Errorf("Expected env to win, got %q", cfg.Engine.Path)
	}
}
