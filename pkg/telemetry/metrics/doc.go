// Package metrics provides Prometheus metrics for the ListingForge gateway.
//
// # Metrics
//
//   - <ns>_http_requests_total{method,path,status}: every HTTP request
//   - <ns>_http_request_duration_seconds{method,path}: HTTP latency
//   - <ns>_generation_requests_total{provider,outcome}: generation attempts
//   - <ns>_generation_duration_seconds{provider}: upstream call latency
//   - <ns>_provider_health{provider}: 1 while the provider is healthy
//
// Quota and usage collectors live in their own packages and register with
// the collector's registry, so a single /metrics endpoint exposes all of
// them.
//
// # Usage
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	quotaMetrics := quota.NewMetrics(collector.Registry())
//	mux.Handle(cfg.Telemetry.Metrics.Path, collector.Handler())
//
// The collector satisfies middleware.RequestObserver and
// handlers.GenerationObserver.
//
// # Cardinality Management
//
// Paths are normally one of the fixed routes. Unknown paths (scanners,
// typos) are capped by a CardinalityLimiter and reported as "other".
package metrics
