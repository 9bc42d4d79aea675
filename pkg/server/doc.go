// Package server assembles the gateway's HTTP surface.
//
// Routes:
//
//	POST /generate   generate a listing (bearer token, quota metered)
//	GET  /usage      plan, counters and next reset (bearer token)
//	GET  /listings   recent generations of the account (bearer token)
//	GET  /health     liveness
//	GET  /ready      readiness with dependency checks
//	GET  /version    build information
//	GET  /metrics    Prometheus exposition, when metrics are enabled
//
// Every request passes RequestID, Logging, Recovery, CORS and Timeout, in
// that order. Authenticated routes add bearer verification and per-account
// rate limiting.
package server
