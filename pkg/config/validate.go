package config

import (
	"fmt"
	"net/url"
	"slices"
	"strings"

	"github.com/robfig/cron/v3"

	"listingforge/gateway/pkg/plans"
)

// MinJWTSecretLength is the shortest accepted HS256 secret in bytes.
const MinJWTSecretLength = 32

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "server.listen_address").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// HasField reports whether field is among the errors.
func (e ValidationError) HasField(field string) bool {
	for _, fe := range e.Errors {
		if fe.Field == field {
			return true
		}
	}
	return false
}

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. All validation errors are collected and
// returned together.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateServer(&cfg.Server)...)
	errs = append(errs, validateAuth(&cfg.Auth)...)
	errs = append(errs, validateGeneration(&cfg.Generation)...)
	errs = append(errs, validateQuota(&cfg.Quota)...)
	errs = append(errs, validatePlans(cfg.Plans)...)
	errs = append(errs, validateUsage(&cfg.Usage)...)
	errs = append(errs, validateRateLimit(&cfg.RateLimit)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}

	return nil
}

func validateServer(cfg *ServerConfig) []FieldError {
	var errs []FieldError

	if cfg.ListenAddress == "" {
		errs = append(errs, FieldError{
			Field:   "server.listen_address",
			Message: "listen address is required",
		})
	}

	if cfg.ReadTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "server.read_timeout",
			Message: "read timeout must be positive",
		})
	}
	if cfg.WriteTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "server.write_timeout",
			Message: "write timeout must be positive",
		})
	}
	if cfg.RequestTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "server.request_timeout",
			Message: "request timeout must be positive",
		})
	}
	if cfg.WriteTimeout > 0 && cfg.RequestTimeout > cfg.WriteTimeout {
		errs = append(errs, FieldError{
			Field:   "server.request_timeout",
			Message: fmt.Sprintf("request timeout %s exceeds write timeout %s", cfg.RequestTimeout, cfg.WriteTimeout),
		})
	}

	if cfg.MaxHeaderBytes < 0 {
		errs = append(errs, FieldError{
			Field:   "server.max_header_bytes",
			Message: "max header bytes must be non-negative",
		})
	}

	if cfg.CORS.MaxAge < 0 {
		errs = append(errs, FieldError{
			Field:   "server.cors.max_age",
			Message: "max age must be non-negative",
		})
	}
	if cfg.TLS.Enabled {
		if cfg.TLS.CertFile == "" || cfg.TLS.KeyFile == "" {
			errs = append(errs, FieldError{
				Field:   "server.tls",
				Message: "cert_file and key_file are required when TLS is enabled",
			})
		}
		if cfg.TLS.MinVersion != "1.2" && cfg.TLS.MinVersion != "1.3" {
			errs = append(errs, FieldError{
				Field:   "server.tls.min_version",
				Message: fmt.Sprintf("unsupported TLS version %q (want 1.2 or 1.3)", cfg.TLS.MinVersion),
			})
		}
	}

	if cfg.CORS.AllowCredentials && slices.Contains(cfg.CORS.AllowedOrigins, "*") {
		errs = append(errs, FieldError{
			Field:   "server.cors.allow_credentials",
			Message: "credentials cannot be allowed for the wildcard origin",
		})
	}

	return errs
}

func validateAuth(cfg *AuthConfig) []FieldError {
	var errs []FieldError

	switch {
	case cfg.JWTSecret == "":
		errs = append(errs, FieldError{
			Field:   "auth.jwt_secret",
			Message: "JWT secret is required (set " + EnvPrefix + "AUTH_JWT_SECRET)",
		})
	case len(cfg.JWTSecret) < MinJWTSecretLength:
		errs = append(errs, FieldError{
			Field:   "auth.jwt_secret",
			Message: fmt.Sprintf("JWT secret must be at least %d bytes", MinJWTSecretLength),
		})
	}

	if cfg.Leeway < 0 {
		errs = append(errs, FieldError{
			Field:   "auth.leeway",
			Message: "leeway must be non-negative",
		})
	}

	return errs
}

func validateGeneration(cfg *GenerationConfig) []FieldError {
	var errs []FieldError

	if cfg.Provider != "groq" {
		errs = append(errs, FieldError{
			Field:   "generation.provider",
			Message: fmt.Sprintf("unsupported provider %q (supported: groq)", cfg.Provider),
		})
	}

	if cfg.APIKey == "" {
		errs = append(errs, FieldError{
			Field:   "generation.api_key",
			Message: "API key is required (set " + EnvPrefix + "GROQ_API_KEY)",
		})
	}

	if u, err := url.Parse(cfg.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, FieldError{
			Field:   "generation.base_url",
			Message: fmt.Sprintf("invalid URL %q", cfg.BaseURL),
		})
	}

	if cfg.Temperature < 0 || cfg.Temperature > 2 {
		errs = append(errs, FieldError{
			Field:   "generation.temperature",
			Message: "temperature must be between 0 and 2",
		})
	}
	if cfg.MaxTokens < 0 {
		errs = append(errs, FieldError{
			Field:   "generation.max_tokens",
			Message: "max tokens must be positive",
		})
	}
	if cfg.Timeout < 0 {
		errs = append(errs, FieldError{
			Field:   "generation.timeout",
			Message: "timeout must be positive",
		})
	}

	return errs
}

func validateQuota(cfg *QuotaConfig) []FieldError {
	var errs []FieldError

	validBackends := []string{"memory", "sqlite", "postgres", "redis"}
	if !slices.Contains(validBackends, cfg.Backend) {
		errs = append(errs, FieldError{
			Field:   "quota.backend",
			Message: fmt.Sprintf("invalid backend %q (must be one of: %s)", cfg.Backend, strings.Join(validBackends, ", ")),
		})
	}

	if cfg.Period <= 0 {
		errs = append(errs, FieldError{
			Field:   "quota.period",
			Message: "period must be positive",
		})
	}

	switch cfg.Backend {
	case "sqlite":
		if cfg.SQLite.Path == "" {
			errs = append(errs, FieldError{
				Field:   "quota.sqlite.path",
				Message: "path is required when backend is sqlite",
			})
		}
	case "postgres":
		if cfg.Postgres.DSN == "" {
			errs = append(errs, FieldError{
				Field:   "quota.postgres.dsn",
				Message: "DSN is required when backend is postgres (set " + EnvPrefix + "QUOTA_POSTGRES_DSN)",
			})
		}
		if cfg.Postgres.MaxIdleConns > cfg.Postgres.MaxOpenConns {
			errs = append(errs, FieldError{
				Field:   "quota.postgres.max_idle_conns",
				Message: "max idle connections cannot exceed max open connections",
			})
		}
	case "redis":
		if cfg.Redis.Addr == "" {
			errs = append(errs, FieldError{
				Field:   "quota.redis.addr",
				Message: "address is required when backend is redis",
			})
		}
		if cfg.Redis.DB < 0 {
			errs = append(errs, FieldError{
				Field:   "quota.redis.db",
				Message: "db must be non-negative",
			})
		}
	}

	return errs
}

func validatePlans(overrides map[string]PlanOverride) []FieldError {
	var errs []FieldError

	for name, o := range overrides {
		field := "plans." + name
		if !plans.Tier(name).Valid() {
			errs = append(errs, FieldError{
				Field:   field,
				Message: fmt.Sprintf("unknown plan %q", name),
			})
			continue
		}
		if o.Listings < 0 {
			errs = append(errs, FieldError{
				Field:   field + ".listings",
				Message: "listings limit must be non-negative",
			})
		}
		if o.Leads < 0 {
			errs = append(errs, FieldError{
				Field:   field + ".leads",
				Message: "leads limit must be non-negative",
			})
		}
	}

	return errs
}

func validateUsage(cfg *UsageConfig) []FieldError {
	var errs []FieldError

	validBackends := []string{"memory", "sqlite"}
	if !slices.Contains(validBackends, cfg.Backend) {
		errs = append(errs, FieldError{
			Field:   "usage.backend",
			Message: fmt.Sprintf("invalid backend %q (must be one of: %s)", cfg.Backend, strings.Join(validBackends, ", ")),
		})
	}

	if cfg.Backend == "sqlite" && cfg.SQLite.Path == "" {
		errs = append(errs, FieldError{
			Field:   "usage.sqlite.path",
			Message: "path is required when backend is sqlite",
		})
	}

	if cfg.HistoryLimit < 0 {
		errs = append(errs, FieldError{
			Field:   "usage.history_limit",
			Message: "history limit must be positive",
		})
	}

	if cfg.Retention.Enabled {
		if cfg.Retention.Days < 0 {
			errs = append(errs, FieldError{
				Field:   "usage.retention.days",
				Message: "retention days must be positive",
			})
		}
		if _, err := cron.ParseStandard(cfg.Retention.Schedule); err != nil {
			errs = append(errs, FieldError{
				Field:   "usage.retention.schedule",
				Message: fmt.Sprintf("invalid cron expression: %v", err),
			})
		}
	}

	return errs
}

func validateRateLimit(cfg *RateLimitConfig) []FieldError {
	var errs []FieldError

	if !cfg.Enabled {
		return errs
	}

	if cfg.RequestsPerSecond <= 0 {
		errs = append(errs, FieldError{
			Field:   "ratelimit.requests_per_second",
			Message: "requests per second must be positive",
		})
	}
	if cfg.Burst < 1 {
		errs = append(errs, FieldError{
			Field:   "ratelimit.burst",
			Message: "burst must be at least 1",
		})
	}

	return errs
}

func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	validLevels := []string{"debug", "info", "warn", "error"}
	if !slices.Contains(validLevels, strings.ToLower(cfg.Logging.Level)) {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("invalid log level %q (must be one of: %s)", cfg.Logging.Level, strings.Join(validLevels, ", ")),
		})
	}

	validFormats := []string{"json", "text"}
	if !slices.Contains(validFormats, strings.ToLower(cfg.Logging.Format)) {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("invalid log format %q (must be one of: %s)", cfg.Logging.Format, strings.Join(validFormats, ", ")),
		})
	}

	if cfg.Metrics.Enabled && !strings.HasPrefix(cfg.Metrics.Path, "/") {
		errs = append(errs, FieldError{
			Field:   "telemetry.metrics.path",
			Message: "metrics path must start with /",
		})
	}

	return errs
}
