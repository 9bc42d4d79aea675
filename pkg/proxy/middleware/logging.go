package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"listingforge/gateway/pkg/security/auth"
)

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    bool
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{
		ResponseWriter: w,
		statusCode:     http.StatusOK,
	}
}

// WriteHeader captures the status code before writing.
func (rw *responseWriter) WriteHeader(code int) {
	if !rw.written {
		rw.statusCode = code
		rw.written = true
		rw.ResponseWriter.WriteHeader(code)
	}
}

// Write ensures WriteHeader is called if not already done.
func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.written {
		rw.WriteHeader(http.StatusOK)
	}
	return rw.ResponseWriter.Write(b)
}

// StatusCode returns the captured status.
func (rw *responseWriter) StatusCode() int {
	return rw.statusCode
}

// RequestObserver receives the outcome of each request, typically for
// metrics.
type RequestObserver interface {
	ObserveRequest(method, path string, status int, latency time.Duration)
}

// LoggingMiddleware logs each request with method, path, status,
// latency_ms, request_id and, when authenticated, account_id. 5xx answers
// log at error level and 4xx at warn.
//
// Example usage:
//
//	handler = LoggingMiddleware(nil)(handler)
func LoggingMiddleware(observer RequestObserver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			startTime := time.Now()

			// The account is only known after authentication further down
			// the chain; NoteAccount fills it in.
			var accountID string
			ctx := context.WithValue(r.Context(), StartTimeKey, startTime)
			ctx = withAccountSink(ctx, &accountID)
			rw := newResponseWriter(w)

			requestID := GetRequestID(ctx)
			slog.DebugContext(ctx, "request started",
				"method", r.Method,
				"path", r.URL.Path,
				"request_id", requestID,
				"remote_addr", r.RemoteAddr,
			)

			next.ServeHTTP(rw, r.WithContext(ctx))

			latency := time.Since(startTime)
			if observer != nil {
				observer.ObserveRequest(r.Method, r.URL.Path, rw.statusCode, latency)
			}

			logLevel := slog.LevelInfo
			if rw.statusCode >= 500 {
				logLevel = slog.LevelError
			} else if rw.statusCode >= 400 {
				logLevel = slog.LevelWarn
			}

			slog.Log(ctx, logLevel, "request completed",
				"method", r.Method,
				"path", r.URL.Path,
				"status", rw.statusCode,
				"latency_ms", latency.Milliseconds(),
				"request_id", requestID,
				"account_id", accountID,
				"remote_addr", r.RemoteAddr,
				"user_agent", r.UserAgent(),
			)
		})
	}
}

type accountSinkKey struct{}

func withAccountSink(ctx context.Context, dst *string) context.Context {
	return context.WithValue(ctx, accountSinkKey{}, dst)
}

// NoteAccount records the authenticated account for the access log.
func NoteAccount(ctx context.Context) {
	if dst, ok := ctx.Value(accountSinkKey{}).(*string); ok {
		*dst = auth.AccountID(ctx)
	}
}

// AccountLoggingMiddleware calls NoteAccount. Place it directly inside the
// bearer authentication middleware.
func AccountLoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		NoteAccount(r.Context())
		next.ServeHTTP(w, r)
	})
}

// GetStartTime extracts the request start time from the context.
// Returns zero time if not found.
func GetStartTime(ctx context.Context) time.Time {
	if startTime, ok := ctx.Value(StartTimeKey).(time.Time); ok {
		return startTime
	}
	return time.Time{}
}
