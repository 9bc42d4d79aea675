package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const testSecret = "0123456789abcdef0123456789abcdef"

// writeConfig writes content to a config.yaml in a temp dir.
func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

const minimalConfig = `
auth:
  jwt_secret: "` + testSecret + `"
generation:
  api_key: "gsk-test"
`

func TestLoadConfig_ValidFile(t *testing.T) {
	path := writeConfig(t, `
server:
  listen_address: "0.0.0.0:9090"
  read_timeout: "10s"
  cors:
    allowed_origins: ["https://app.listingforge.mx"]
auth:
  jwt_secret: "`+testSecret+`"
  issuer: "https://auth.listingforge.mx"
generation:
  api_key: "gsk-test"
  model: "llama-3.3-70b-versatile"
  timeout: "45s"
quota:
  backend: "postgres"
  postgres:
    dsn: "postgres://u:p@localhost/quota?sslmode=disable"
plans:
  basic:
    listings: 75
usage:
  backend: "memory"
  retention:
    days: 90
telemetry:
  logging:
    level: "debug"
    format: "text"
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Server.ListenAddress != "0.0.0.0:9090" {
		t.Errorf("listen address = %q", cfg.Server.ListenAddress)
	}
	if cfg.Server.ReadTimeout != 10*time.Second {
		t.Errorf("read timeout = %v", cfg.Server.ReadTimeout)
	}
	if got := cfg.Server.CORS.AllowedOrigins; len(got) != 1 || got[0] != "https://app.listingforge.mx" {
		t.Errorf("allowed origins = %v", got)
	}
	if cfg.Generation.Model != "llama-3.3-70b-versatile" || cfg.Generation.Timeout != 45*time.Second {
		t.Errorf("generation = %+v", cfg.Generation)
	}
	if cfg.Quota.Backend != "postgres" || cfg.Quota.Postgres.MaxOpenConns != DefaultPostgresMaxOpenConns {
		t.Errorf("quota = %+v", cfg.Quota)
	}
	if cfg.Plans["basic"].Listings != 75 {
		t.Errorf("plans = %+v", cfg.Plans)
	}
	if cfg.Usage.Retention.Days != 90 || cfg.Usage.Retention.Schedule != DefaultRetentionSchedule {
		t.Errorf("retention = %+v", cfg.Usage.Retention)
	}
	if cfg.Telemetry.Logging.Level != "debug" || cfg.Telemetry.Logging.Format != "text" {
		t.Errorf("logging = %+v", cfg.Telemetry.Logging)
	}

	// Untouched sections keep their defaults.
	if cfg.Generation.BaseURL != DefaultGenerationBaseURL {
		t.Errorf("base url = %q", cfg.Generation.BaseURL)
	}
	if !cfg.RateLimit.Enabled || cfg.RateLimit.Burst != DefaultRateLimitBurst {
		t.Errorf("ratelimit = %+v", cfg.RateLimit)
	}
}

func TestLoadConfig_ExplicitFalseSurvives(t *testing.T) {
	path := writeConfig(t, minimalConfig+`
ratelimit:
  enabled: false
usage:
  retention:
    enabled: false
telemetry:
  metrics:
    enabled: false
  logging:
    redact_pii: false
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.RateLimit.Enabled || cfg.Usage.Retention.Enabled || cfg.Telemetry.Metrics.Enabled || cfg.Telemetry.Logging.RedactPII {
		t.Errorf("explicit false overridden: ratelimit=%v retention=%v metrics=%v redact=%v",
			cfg.RateLimit.Enabled, cfg.Usage.Retention.Enabled, cfg.Telemetry.Metrics.Enabled, cfg.Telemetry.Logging.RedactPII)
	}
	if !cfg.Server.CORS.Enabled || !cfg.Usage.SQLite.WALMode {
		t.Error("unset booleans lost their true default")
	}
}

func TestLoadConfig_Errors(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		path      string
		wantField string
		wantMsg   string
	}{
		{
			name:    "missing file",
			path:    filepath.Join(t.TempDir(), "nope.yaml"),
			wantMsg: "failed to read configuration file",
		},
		{
			name:    "malformed yaml",
			content: "server: [unterminated",
			wantMsg: "failed to parse configuration file",
		},
		{
			name:      "no secret",
			content:   "generation:\n  api_key: gsk\n",
			wantField: "auth.jwt_secret",
		},
		{
			name:      "no api key",
			content:   "auth:\n  jwt_secret: " + testSecret + "\n",
			wantField: "generation.api_key",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := tt.path
			if path == "" {
				path = writeConfig(t, tt.content)
			}

			_, err := LoadConfig(path)
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.wantMsg != "" && !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error = %v, want %q", err, tt.wantMsg)
			}
			if tt.wantField != "" {
				var verr ValidationError
				if !errors.As(err, &verr) || !verr.HasField(tt.wantField) {
					t.Errorf("error = %v, want field %s", err, tt.wantField)
				}
			}
		})
	}
}

func TestLoadConfigWithEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
server:
  listen_address: "127.0.0.1:8080"
quota:
  backend: "sqlite"
`)

	t.Setenv("LISTINGFORGE_AUTH_JWT_SECRET", testSecret)
	t.Setenv("GROQ_API_KEY", "gsk-from-legacy")
	t.Setenv("LISTINGFORGE_SERVER_LISTEN_ADDRESS", "0.0.0.0:3000")
	t.Setenv("LISTINGFORGE_QUOTA_BACKEND", "redis")
	t.Setenv("LISTINGFORGE_QUOTA_REDIS_ADDR", "redis:6379")
	t.Setenv("LISTINGFORGE_RATELIMIT_BURST", "12")
	t.Setenv("LISTINGFORGE_RATELIMIT_REQUESTS_PER_SECOND", "not-a-number")
	t.Setenv("LISTINGFORGE_TELEMETRY_METRICS_ENABLED", "false")

	cfg, err := LoadConfigWithEnvOverrides(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Generation.APIKey != "gsk-from-legacy" {
		t.Errorf("api key = %q, want legacy fallback", cfg.Generation.APIKey)
	}
	if cfg.Server.ListenAddress != "0.0.0.0:3000" {
		t.Errorf("listen address = %q", cfg.Server.ListenAddress)
	}
	if cfg.Quota.Backend != "redis" || cfg.Quota.Redis.Addr != "redis:6379" {
		t.Errorf("quota = %+v", cfg.Quota)
	}
	if cfg.RateLimit.Burst != 12 || cfg.RateLimit.RequestsPerSecond != DefaultRateLimitRPS {
		t.Errorf("ratelimit = %+v", cfg.RateLimit)
	}
	if cfg.Telemetry.Metrics.Enabled {
		t.Error("metrics should be disabled by env")
	}

	t.Setenv("LISTINGFORGE_GROQ_API_KEY", "gsk-preferred")
	cfg, err = LoadConfigWithEnvOverrides(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Generation.APIKey != "gsk-preferred" {
		t.Errorf("api key = %q, want prefixed variable to win", cfg.Generation.APIKey)
	}
}

func TestLoadConfigWithEnvOverrides_NoFile(t *testing.T) {
	t.Setenv("LISTINGFORGE_AUTH_JWT_SECRET", testSecret)
	t.Setenv("LISTINGFORGE_GROQ_API_KEY", "gsk")

	cfg, err := LoadConfigWithEnvOverrides("")
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Server.ListenAddress != DefaultListenAddress || cfg.Quota.Backend != DefaultQuotaBackend {
		t.Errorf("cfg = %+v", cfg)
	}
}
