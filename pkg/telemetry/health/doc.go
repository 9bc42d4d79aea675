// Package health provides the liveness and readiness probes.
//
// # Probes
//
//   - /health: liveness. Always 200 while the process serves HTTP.
//   - /ready: readiness. Runs every registered check concurrently, each
//     under its own timeout, and answers 503 if any fails.
//
// Readiness also lists which configuration pieces are present, such as
// the JWT secret or the generation API key. Only booleans are reported;
// values and upstream error details never leave the process.
//
// # Usage
//
//	checker := health.New(2 * time.Second)
//	checker.RegisterCheck("quota_store", quotaStore.Ping)
//	checker.SetConfigured("jwt_secret", cfg.Auth.JWTSecret != "")
//
//	mux.Handle("/health", checker.LivenessHandler())
//	mux.Handle("/ready", checker.ReadinessHandler())
package health
