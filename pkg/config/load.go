package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of every environment override.
const EnvPrefix = "LISTINGFORGE_"

// LoadConfig loads configuration from a YAML file at the specified path.
// It applies default values, validates the configuration, and returns any errors.
// The configuration is not modified by environment variables; use LoadConfigWithEnvOverrides
// for that functionality.
func LoadConfig(path string) (*Config, error) {
	cfg, err := readConfig(path)
	if err != nil {
		return nil, err
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. An empty path loads defaults only, which
// suits container deployments configured entirely through the environment.
//
// The loading sequence is:
// 1. Apply default values
// 2. Load YAML from file
// 3. Apply environment variable overrides
// 4. Validate final configuration
//
// Secrets usually arrive through the environment, so validation runs only
// once the overrides are in place.
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	cfg, err := readConfig(path)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// ReadConfig loads path with defaults and environment overrides but does
// not validate. Commands that need only part of the configuration, such as
// the plan table, use it so they run without secrets.
func ReadConfig(path string) (*Config, error) {
	cfg, err := readConfig(path)
	if err != nil {
		return nil, err
	}
	applyEnvOverrides(cfg)
	return cfg, nil
}

// readConfig decodes path on top of the defaults.
func readConfig(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	// Fields blanked out by the file fall back to their defaults again.
	ApplyDefaults(cfg)

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Malformed numeric, boolean or duration values are ignored.
func applyEnvOverrides(cfg *Config) {
	// Server overrides
	envString("SERVER_LISTEN_ADDRESS", &cfg.Server.ListenAddress)
	envDuration("SERVER_READ_TIMEOUT", &cfg.Server.ReadTimeout)
	envDuration("SERVER_WRITE_TIMEOUT", &cfg.Server.WriteTimeout)
	envDuration("SERVER_REQUEST_TIMEOUT", &cfg.Server.RequestTimeout)
	envBool("SERVER_CORS_ENABLED", &cfg.Server.CORS.Enabled)
	envBool("SERVER_TLS_ENABLED", &cfg.Server.TLS.Enabled)
	envString("SERVER_TLS_CERT_FILE", &cfg.Server.TLS.CertFile)
	envString("SERVER_TLS_KEY_FILE", &cfg.Server.TLS.KeyFile)

	// Auth overrides
	envString("AUTH_JWT_SECRET", &cfg.Auth.JWTSecret)
	envString("AUTH_ISSUER", &cfg.Auth.Issuer)
	envString("AUTH_AUDIENCE", &cfg.Auth.Audience)

	// Generation overrides. GROQ_API_KEY is the historical name.
	if val := os.Getenv("GROQ_API_KEY"); val != "" {
		cfg.Generation.APIKey = val
	}
	envString("GROQ_API_KEY", &cfg.Generation.APIKey)
	envString("GENERATION_BASE_URL", &cfg.Generation.BaseURL)
	envString("GENERATION_MODEL", &cfg.Generation.Model)
	envDuration("GENERATION_TIMEOUT", &cfg.Generation.Timeout)

	// Quota overrides
	envString("QUOTA_BACKEND", &cfg.Quota.Backend)
	envDuration("QUOTA_PERIOD", &cfg.Quota.Period)
	envBool("QUOTA_AUTO_PROVISION", &cfg.Quota.AutoProvision)
	envString("QUOTA_SQLITE_PATH", &cfg.Quota.SQLite.Path)
	envString("QUOTA_POSTGRES_DSN", &cfg.Quota.Postgres.DSN)
	envString("QUOTA_REDIS_ADDR", &cfg.Quota.Redis.Addr)
	envString("QUOTA_REDIS_PASSWORD", &cfg.Quota.Redis.Password)
	envInt("QUOTA_REDIS_DB", &cfg.Quota.Redis.DB)

	// Usage overrides
	envString("USAGE_BACKEND", &cfg.Usage.Backend)
	envString("USAGE_SQLITE_PATH", &cfg.Usage.SQLite.Path)
	envBool("USAGE_RETENTION_ENABLED", &cfg.Usage.Retention.Enabled)
	envInt("USAGE_RETENTION_DAYS", &cfg.Usage.Retention.Days)

	// Rate limit overrides
	envBool("RATELIMIT_ENABLED", &cfg.RateLimit.Enabled)
	envFloat("RATELIMIT_REQUESTS_PER_SECOND", &cfg.RateLimit.RequestsPerSecond)
	envInt("RATELIMIT_BURST", &cfg.RateLimit.Burst)

	// Telemetry overrides
	envString("TELEMETRY_LOGGING_LEVEL", &cfg.Telemetry.Logging.Level)
	envString("TELEMETRY_LOGGING_FORMAT", &cfg.Telemetry.Logging.Format)
	envBool("TELEMETRY_METRICS_ENABLED", &cfg.Telemetry.Metrics.Enabled)
	envString("TELEMETRY_METRICS_PATH", &cfg.Telemetry.Metrics.Path)
}

func envString(name string, dst *string) {
	if val := os.Getenv(EnvPrefix + name); val != "" {
		*dst = val
	}
}

func envDuration(name string, dst *time.Duration) {
	if val := os.Getenv(EnvPrefix + name); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			*dst = d
		}
	}
}

func envInt(name string, dst *int) {
	if val := os.Getenv(EnvPrefix + name); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			*dst = i
		}
	}
}

func envFloat(name string, dst *float64) {
	if val := os.Getenv(EnvPrefix + name); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			*dst = f
		}
	}
}

func envBool(name string, dst *bool) {
	if val := os.Getenv(EnvPrefix + name); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			*dst = b
		}
	}
}
