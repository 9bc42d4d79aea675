package auth

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
)

// Spanish messages returned to clients.
const (
	MessageMissingToken = "No autorizado. Por favor inicia sesión."
	MessageInvalidToken = "Sesión inválida. Por favor inicia sesión de nuevo."
)

// ErrorWriter renders an authentication failure.
type ErrorWriter func(w http.ResponseWriter, r *http.Request, err error)

// BearerMiddleware authenticates requests with an Authorization: Bearer token.
type BearerMiddleware struct {
	verifier *Verifier
	onError  ErrorWriter
}

// NewBearerMiddleware creates the middleware. A nil onError writes the
// default JSON 401 body.
func NewBearerMiddleware(verifier *Verifier, onError ErrorWriter) *BearerMiddleware {
	if onError == nil {
		onError = WriteUnauthorized
	}
	return &BearerMiddleware{
		verifier: verifier,
		onError:  onError,
	}
}

// Handle wraps next with bearer authentication.
func (m *BearerMiddleware) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			slog.DebugContext(r.Context(), "missing bearer token",
				"remote_addr", r.RemoteAddr,
				"path", r.URL.Path,
			)
			m.onError(w, r, ErrMissingToken)
			return
		}

		claims, err := m.verifier.Verify(token)
		if err != nil {
			slog.WarnContext(r.Context(), "rejected bearer token",
				"error", err,
				"remote_addr", r.RemoteAddr,
				"path", r.URL.Path,
			)
			m.onError(w, r, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
	})
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(h, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// Message returns the client-facing text for an authentication error.
func Message(err error) string {
	if errors.Is(err, ErrMissingToken) {
		return MessageMissingToken
	}
	return MessageInvalidToken
}

// WriteUnauthorized writes a 401 with {"error": Message(err)}.
func WriteUnauthorized(w http.ResponseWriter, r *http.Request, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", `Bearer realm="listingforge"`)
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": Message(err)})
}

type contextKey string

const claimsKey contextKey = "auth_claims"

// WithClaims stores verified claims in ctx.
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

// GetClaims retrieves verified claims from ctx.
func GetClaims(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(*Claims)
	return claims, ok
}

// AccountID returns the authenticated account, or "" when the request was
// not authenticated.
func AccountID(ctx context.Context) string {
	if claims, ok := GetClaims(ctx); ok {
		return claims.AccountID()
	}
	return ""
}
