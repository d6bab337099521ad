package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// EnvEnginePath overrides the engine binary path when set, winning over
// both the default and any config file.
const EnvEnginePath = "COFFER_ENGINE_PATH"

// Load builds the configuration from defaults, an optional YAML file,
// and environment overrides, then validates it. An empty path skips the
// file step.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromBytes builds the configuration from defaults plus raw YAML,
// with the same environment overrides and validation as Load.
func LoadFromBytes(data []byte) (*Config, error) {
	cfg := DefaultConfig()

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config YAML: %w", err)
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv folds environment overrides into the configuration.
func applyEnv(cfg *Config) {
	if path := os.Getenv(EnvEnginePath); path != "" {
		cfg.Engine.Path = path
	}
}
