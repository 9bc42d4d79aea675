// Package middleware provides HTTP middleware for cross-cutting concerns:
// request IDs, access logging, CORS, panic recovery, request deadlines, and
// per-account pacing.
//
// # Middleware Chain
//
// The server wraps its mux in this order (outermost first):
//
//	Recovery(Logging(RequestID(CORS(Timeout(mux)))))
//
// RateLimit is applied per route, after authentication, because it keys on
// the authenticated account.
//
// # Context Values
//
//	requestID := middleware.GetRequestID(r.Context())
//	start := middleware.GetStartTime(r.Context())
package middleware
