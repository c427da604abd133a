package telemetry

import (
	"fmt"
	"time"
)

// Config contains the telemetry configuration for the engine.
type Config struct {
	// ServiceName identifies the service in logs and traces.
	ServiceName string `yaml:"service_name"`

	// ServiceVersion is the running version.
	ServiceVersion string `yaml:"service_version"`

	// Environment is the deployment environment (dev, staging, prod).
	Environment string `yaml:"environment"`

	// Logging configures structured logging.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics configures Prometheus metrics.
	Metrics MetricsConfig `yaml:"metrics"`

	// Tracing configures distributed tracing.
	Tracing TracingConfig `yaml:"tracing"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	// Level sets the minimum log level (trace, debug, info, warn, error).
	Level string `yaml:"level"`

	// Format specifies the log format (console, json).
	Format string `yaml:"format"`

	// Output specifies where logs are written (stdout, stderr, file path).
	Output string `yaml:"output"`
}

// MetricsConfig configures Prometheus metrics collection.
type MetricsConfig struct {
	// Enabled turns metrics collection on.
	Enabled bool `yaml:"enabled"`

	// Namespace is the metric name prefix.
	Namespace string `yaml:"namespace"`

	// Listen is the address the /metrics endpoint binds to when serving.
	Listen string `yaml:"listen"`
}

// TracingConfig configures distributed tracing.
type TracingConfig struct {
	// Enabled turns tracing on.
	Enabled bool `yaml:"enabled"`

	// Exporter selects the span exporter (otlp, stdout, none).
	Exporter string `yaml:"exporter"`

	// Endpoint is the OTLP collector endpoint.
	Endpoint string `yaml:"endpoint"`

	// Insecure disables TLS on the OTLP connection.
	Insecure bool `yaml:"insecure"`

	// SamplingRate is the trace sampling ratio in [0, 1].
	SamplingRate float64 `yaml:"sampling_rate"`

	// ExportTimeout bounds a single batch export.
	ExportTimeout time.Duration `yaml:"export_timeout"`
}

// DefaultConfig returns a telemetry configuration with sane defaults.
func DefaultConfig() Config {
	return Config{
		ServiceName:    "lockwarden",
		ServiceVersion: "dev",
		Environment:    "dev",
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
			Output: "stderr",
		},
		Metrics: MetricsConfig{
			Enabled:   false,
			Namespace: "lockwarden",
			Listen:    ":9464",
		},
		Tracing: TracingConfig{
			Enabled:       false,
			Exporter:      "stdout",
			SamplingRate:  1.0,
			ExportTimeout: 30 * time.Second,
		},
	}
}

// Validate checks the configuration for inconsistencies.
func (c *Config) Validate() error {
	switch c.Logging.Format {
	case "", "console", "json":
	default:
		return fmt.Errorf("unsupported log format: %s", c.Logging.Format)
	}
	if c.Tracing.Enabled {
		switch c.Tracing.Exporter {
		case "otlp", "stdout", "none":
		default:
			return fmt.Errorf("unsupported trace exporter: %s", c.Tracing.Exporter)
		}
		if c.Tracing.SamplingRate < 0 || c.Tracing.SamplingRate > 1 {
			return fmt.Errorf("sampling rate must be within [0, 1], got %f", c.Tracing.SamplingRate)
		}
	}
	return nil
}
