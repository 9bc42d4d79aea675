// Package telemetry groups the gateway's observability packages.
//
//   - logging: slog setup with secret and PII redaction
//   - metrics: Prometheus collectors and the /metrics handler
//   - health: liveness, readiness and version endpoints
//
// Quota and usage metrics are defined next to the code that records them
// and register with the metrics collector's registry.
package telemetry
