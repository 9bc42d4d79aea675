package proxy

import (
	"net/http"
	"time"
)

// RequestMetadata is the request context logged alongside pipeline events.
type RequestMetadata struct {
	RequestID  string
	AccountID  string
	Method     string
	Path       string
	UserAgent  string
	RemoteAddr string
	Timestamp  time.Time
}

// ExtractRequestMetadata collects logging metadata from r.
func ExtractRequestMetadata(r *http.Request, requestID, accountID string) *RequestMetadata {
	return &RequestMetadata{
		RequestID:  requestID,
		AccountID:  accountID,
		Method:     r.Method,
		Path:       r.URL.Path,
		UserAgent:  r.UserAgent(),
		RemoteAddr: r.RemoteAddr,
		Timestamp:  time.Now(),
	}
}

// LogAttrs returns the metadata as slog key/value pairs.
func (m *RequestMetadata) LogAttrs() []any {
	return []any{
		"request_id", m.RequestID,
		"account_id", m.AccountID,
		"method", m.Method,
		"path", m.Path,
		"remote_addr", m.RemoteAddr,
	}
}
