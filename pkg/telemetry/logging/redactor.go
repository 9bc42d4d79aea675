package logging

import (
	"log/slog"
	"regexp"
	"strings"
)

// Redactor masks secrets and PII in log attributes.
type Redactor struct {
	patterns []*redactPattern
}

// redactPattern contains a compiled regex and replacement string.
type redactPattern struct {
	name        string
	regex       *regexp.Regexp
	replacement string
}

// PII pattern names.
const (
	PatternBearerToken = "bearer_token"
	PatternJWT         = "jwt"
	PatternAPIKey      = "api_key"
	PatternEmail       = "email"
	PatternPhone       = "phone"
	PatternPassword    = "password"
)

// Applied in order; bearer tokens before bare JWTs.
var defaultPatterns = []struct {
	name        string
	regex       string
	replacement string
}{
	{PatternBearerToken, `(?i)bearer\s+[a-zA-Z0-9\-._~+/]+=*`, "Bearer ***"},
	{PatternJWT, `eyJ[a-zA-Z0-9_-]+\.[a-zA-Z0-9_-]+\.[a-zA-Z0-9_-]*`, "***.jwt"},
	{PatternAPIKey, `\b(gsk|sk)[-_][a-zA-Z0-9]{8,}`, "${1}_***"},
	{PatternEmail, `[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`, "***@***"},
	{PatternPhone, `\+?\b(?:52[-.\s]?)?\(?\d{2,3}\)?[-.\s]?\d{3,4}[-.\s]?\d{4}\b`, "***-***-****"},
	{PatternPassword, `(password|passwd|pwd)[:=]\s*[^\s]+`, "${1}: ***"},
}

// sensitiveKeys are attribute key fragments whose values are never logged.
var sensitiveKeys = []string{
	"password", "passwd", "secret", "token",
	"api_key", "apikey", "authorization", "dsn",
}

// NewRedactor creates a Redactor. Sensitive keys are always masked; scan
// additionally rewrites PII found inside string values.
func NewRedactor(scan bool) *Redactor {
	r := &Redactor{}
	if !scan {
		return r
	}
	for _, p := range defaultPatterns {
		r.patterns = append(r.patterns, &redactPattern{
			name:        p.name,
			regex:       regexp.MustCompile(p.regex),
			replacement: p.replacement,
		})
	}
	return r
}

// ReplaceAttr has the slog.HandlerOptions.ReplaceAttr signature.
func (r *Redactor) ReplaceAttr(_ []string, a slog.Attr) slog.Attr {
	if isSensitiveKey(a.Key) {
		return slog.String(a.Key, redactValue(a.Value))
	}

	if len(r.patterns) == 0 {
		return a
	}

	switch a.Value.Kind() {
	case slog.KindString:
		return slog.String(a.Key, r.RedactString(a.Value.String()))
	case slog.KindAny:
		if err, ok := a.Value.Any().(error); ok {
			return slog.String(a.Key, r.RedactString(err.Error()))
		}
	}
	return a
}

// RedactString applies every PII pattern to value.
func (r *Redactor) RedactString(value string) string {
	if value == "" {
		return value
	}
	for _, p := range r.patterns {
		value = p.regex.ReplaceAllString(value, p.replacement)
	}
	return value
}

// isSensitiveKey checks if a key name indicates secret material.
func isSensitiveKey(key string) bool {
	lowerKey := strings.ToLower(key)
	// Token counts such as total_tokens are not credentials.
	if strings.HasSuffix(lowerKey, "tokens") {
		return false
	}
	for _, sensitive := range sensitiveKeys {
		if strings.Contains(lowerKey, sensitive) {
			return true
		}
	}
	return false
}

// redactValue masks a sensitive value, keeping a short prefix of longer
// strings so keys remain distinguishable.
func redactValue(v slog.Value) string {
	if v.Kind() != slog.KindString {
		return "***"
	}
	return RedactAPIKey(v.String())
}

// RedactAPIKey redacts an API key, keeping only a prefix.
func RedactAPIKey(apiKey string) string {
	if apiKey == "" {
		return ""
	}
	if len(apiKey) <= 8 {
		return "***"
	}
	return apiKey[:4] + "***"
}
