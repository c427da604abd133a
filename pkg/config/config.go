// Package config loads the Lockwarden engine configuration from YAML.
package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/lockwarden/lockwarden/pkg/telemetry"
)

// Config is the top-level engine configuration.
type Config struct {
	// Provider names the snapshot provider to evaluate.
	Provider string `yaml:"provider" validate:"required"`

	// ProviderConfig carries provider-specific settings, e.g. the snapshot
	// path for the file provider.
	ProviderConfig map[string]string `yaml:"provider_config,omitempty"`

	// PolicyPaths lists files and directories to load policy documents from.
	PolicyPaths []string `yaml:"policy_paths,omitempty"`

	// Store configures the evaluation history database. Empty path disables
	// persistence.
	Store StoreConfig `yaml:"store,omitempty"`

	// Telemetry configures logging, metrics, and tracing.
	Telemetry telemetry.Config `yaml:"telemetry,omitempty"`
}

// StoreConfig configures the audit store.
type StoreConfig struct {
	// Path is the SQLite database path.
	Path string `yaml:"path,omitempty"`
}

// Default returns a configuration with defaults applied.
func Default() *Config {
	return &Config{
		Provider:  "file",
		Telemetry: telemetry.DefaultConfig(),
	}
}

// Load reads and validates a configuration file. Missing optional sections
// fall back to defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if err := c.Telemetry.Validate(); err != nil {
		return fmt.Errorf("invalid telemetry config: %w", err)
	}
	return nil
}
