package middleware

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

// Context keys for values stored by the middleware.
const (
	// RequestIDKey stores the request ID.
	RequestIDKey contextKey = "request_id"

	// StartTimeKey stores when the request entered the logging middleware.
	StartTimeKey contextKey = "start_time"
)
