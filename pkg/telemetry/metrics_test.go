package telemetry

import (
	"errors"
	"testing"
	"time"
)

func TestMetrics_DisabledIsNoop(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: false})
	if m.Enabled() {
		t.Fatal("Expected disabled metrics")
	}

	// None of these may panic on a disabled collector.
	m.RecordEvaluation("locked", 1, time.Millisecond, nil)
	m.RecordGraphBuild(2, 1, nil)
	m.RecordGraphBuild(0, 0, errors.New("bad graph"))
	m.RecordDecision("delete", false)
}

func TestMetrics_Enabled(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true, Namespace: "test"})
	if !m.Enabled() {
		t.Fatal("Expected enabled metrics")
	}

	m.RecordEvaluation("locked", 1, time.Millisecond, nil)
	m.RecordEvaluation("locked", 0, 0, errors.New("boom"))
	m.RecordGraphBuild(2, 1, nil)
	m.RecordDecision("delete", false)
	m.RecordDecision("read", true)

	if m.Handler() == nil {
		t.Error("Expected metrics handler")
	}
}

func TestLoggerConfig(t *testing.T) {
	logger, err := NewLogger(LoggingConfig{Level: "debug", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	logger.Debug().Msg("configured")

	if _, err := NewLogger(LoggingConfig{}); err != nil {
		t.Fatalf("Defaults must work, got: %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default config must validate: %v", err)
	}

	cfg.Logging.Format = "xml"
	if err := cfg.Validate(); err == nil {
		t.Error("Expected error for unsupported log format")
	}

	cfg = DefaultConfig()
	cfg.Tracing.Enabled = true
	cfg.Tracing.Exporter = "jaeger"
	if err := cfg.Validate(); err == nil {
		t.Error("Expected error for unsupported exporter")
	}

	cfg.Tracing.Exporter = "stdout"
	cfg.Tracing.SamplingRate = 2
	if err := cfg.Validate(); err == nil {
		t.Error("Expected error for out-of-range sampling rate")
	}
}
