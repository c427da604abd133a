// Package telemetry provides the observability surface for Lockwarden:
// structured logging via zerolog, Prometheus metrics for evaluation cycles
// and gate decisions, and OpenTelemetry tracing.
package telemetry
