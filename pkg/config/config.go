package config

import "time"

// Config is the root configuration structure for the ListingForge gateway.
type Config struct {
	// Server contains the HTTP listener settings.
	Server ServerConfig `yaml:"server"`

	// Auth contains bearer token verification settings.
	Auth AuthConfig `yaml:"auth"`

	// Generation configures the upstream generation provider.
	Generation GenerationConfig `yaml:"generation"`

	// Quota selects and configures the usage profile store.
	Quota QuotaConfig `yaml:"quota"`

	// Plans overrides the built-in plan table. Keys are tier names.
	Plans map[string]PlanOverride `yaml:"plans"`

	// Usage configures the listing store and its retention.
	Usage UsageConfig `yaml:"usage"`

	// RateLimit configures per-account request pacing.
	RateLimit RateLimitConfig `yaml:"ratelimit"`

	// Telemetry contains logging and metrics configuration.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ServerConfig contains configuration for the HTTP server.
type ServerConfig struct {
	// ListenAddress is the address and port to listen on.
	// Default: "127.0.0.1:8080"
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout is the maximum duration for reading the entire request.
	// Default: 30s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout must exceed the generation timeout, or slow generations
	// are cut off mid-response.
	// Default: 90s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout is how long keep-alive connections wait for a request.
	// Default: 120s
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// RequestTimeout is the deadline placed on each request context.
	// Default: 75s
	RequestTimeout time.Duration `yaml:"request_timeout"`

	// ShutdownTimeout bounds graceful shutdown.
	// Default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// MaxHeaderBytes limits request header size.
	// Default: 1048576 (1MB)
	MaxHeaderBytes int `yaml:"max_header_bytes"`

	// CORS contains Cross-Origin Resource Sharing configuration.
	CORS CORSConfig `yaml:"cors"`

	// TLS terminates HTTPS on the listener. Most deployments terminate at
	// the load balancer and leave it off.
	TLS TLSConfig `yaml:"tls"`
}

// TLSConfig contains listener certificate settings.
type TLSConfig struct {
	// Enabled serves HTTPS instead of HTTP.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// CertFile is the PEM-encoded certificate chain.
	CertFile string `yaml:"cert_file"`

	// KeyFile is the PEM-encoded private key.
	KeyFile string `yaml:"key_file"`

	// MinVersion is the lowest accepted protocol version.
	// Options: "1.2", "1.3"
	// Default: "1.3"
	MinVersion string `yaml:"min_version"`

	// ReloadInterval is how often the files are checked for renewal.
	// Default: 5m
	ReloadInterval time.Duration `yaml:"reload_interval"`
}

// CORSConfig contains Cross-Origin Resource Sharing configuration.
type CORSConfig struct {
	// Enabled controls whether CORS headers are sent.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// AllowedOrigins lists the origins allowed to call the API.
	// Default: ["*"]
	AllowedOrigins []string `yaml:"allowed_origins"`

	// AllowedMethods lists the methods allowed cross-origin.
	// Default: ["GET", "POST", "OPTIONS"]
	AllowedMethods []string `yaml:"allowed_methods"`

	// AllowedHeaders lists the request headers allowed cross-origin.
	// Default: ["Authorization", "Content-Type", "X-Request-ID"]
	AllowedHeaders []string `yaml:"allowed_headers"`

	// ExposedHeaders lists response headers readable by the browser.
	// Default: ["X-Request-ID", "Retry-After"]
	ExposedHeaders []string `yaml:"exposed_headers"`

	// MaxAge is the preflight cache lifetime in seconds.
	// Default: 3600
	MaxAge int `yaml:"max_age"`

	// AllowCredentials allows cookies and auth headers cross-origin.
	// Default: false
	AllowCredentials bool `yaml:"allow_credentials"`
}

// AuthConfig contains bearer token verification settings.
type AuthConfig struct {
	// JWTSecret is the shared HS256 key of the identity provider.
	// Required, at least 32 bytes. Prefer LISTINGFORGE_AUTH_JWT_SECRET.
	JWTSecret string `yaml:"jwt_secret"`

	// Issuer, when set, must match the token iss claim.
	Issuer string `yaml:"issuer"`

	// Audience, when set, must appear in the token aud claim.
	Audience string `yaml:"audience"`

	// Leeway tolerates clock skew on exp and nbf.
	// Default: 30s
	Leeway time.Duration `yaml:"leeway"`
}

// GenerationConfig configures the generation provider.
type GenerationConfig struct {
	// Provider names the provider. Only "groq" is supported.
	// Default: "groq"
	Provider string `yaml:"provider"`

	// BaseURL is the OpenAI-compatible API root.
	// Default: "https://api.groq.com/openai/v1"
	BaseURL string `yaml:"base_url"`

	// APIKey is the provider key. Required. Prefer LISTINGFORGE_GROQ_API_KEY.
	APIKey string `yaml:"api_key"`

	// Model is the provider model identifier.
	// Default: "llama-3.1-8b-instant"
	Model string `yaml:"model"`

	// Temperature controls sampling randomness.
	// Default: 0.7
	Temperature float64 `yaml:"temperature"`

	// MaxTokens caps the completion length.
	// Default: 3000
	MaxTokens int `yaml:"max_tokens"`

	// Timeout bounds a single provider call.
	// Default: 60s
	Timeout time.Duration `yaml:"timeout"`
}

// QuotaConfig selects and configures the usage profile store.
type QuotaConfig struct {
	// Backend is the profile store.
	// Options: "memory", "sqlite", "postgres", "redis"
	// Default: "sqlite"
	Backend string `yaml:"backend"`

	// Period is the billing period length.
	// Default: 720h (30 days)
	Period time.Duration `yaml:"period"`

	// AutoProvision creates a free profile for unknown accounts instead of
	// answering 404.
	// Default: false
	AutoProvision bool `yaml:"auto_provision"`

	// SQLite configures the sqlite backend.
	SQLite QuotaSQLiteConfig `yaml:"sqlite"`

	// Postgres configures the postgres backend.
	Postgres PostgresConfig `yaml:"postgres"`

	// Redis configures the redis backend.
	Redis RedisConfig `yaml:"redis"`
}

// QuotaSQLiteConfig configures the sqlite profile store.
type QuotaSQLiteConfig struct {
	// Path is the database file.
	// Default: "data/quota.db"
	Path string `yaml:"path"`

	// BusyTimeout is how long to wait for locks.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`

	// CheckpointInterval is how often the WAL is checkpointed.
	// Default: 5m
	CheckpointInterval time.Duration `yaml:"checkpoint_interval"`
}

// PostgresConfig configures the postgres profile store.
type PostgresConfig struct {
	// DSN is a lib/pq connection string. Prefer LISTINGFORGE_QUOTA_POSTGRES_DSN.
	DSN string `yaml:"dsn"`

	// MaxOpenConns limits open connections.
	// Default: 10
	MaxOpenConns int `yaml:"max_open_conns"`

	// MaxIdleConns limits idle connections.
	// Default: 5
	MaxIdleConns int `yaml:"max_idle_conns"`

	// ConnMaxLifetime recycles connections.
	// Default: 30m
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`

	// Migrate creates the profiles table on startup.
	// Default: true
	Migrate bool `yaml:"migrate"`
}

// RedisConfig configures the redis profile store.
type RedisConfig struct {
	// Addr is host:port of the server.
	// Default: "localhost:6379"
	Addr string `yaml:"addr"`

	// Password authenticates the connection.
	Password string `yaml:"password"`

	// DB selects the logical database.
	// Default: 0
	DB int `yaml:"db"`

	// KeyPrefix namespaces the profile keys.
	// Default: "listingforge:quota"
	KeyPrefix string `yaml:"key_prefix"`

	// DialTimeout bounds connection setup.
	// Default: 5s
	DialTimeout time.Duration `yaml:"dial_timeout"`
}

// PlanOverride replaces the label or limits of one tier.
// Zero values keep the built-in value.
type PlanOverride struct {
	Label    string `yaml:"label"`
	Listings int    `yaml:"listings"`
	Leads    int    `yaml:"leads"`
}

// UsageConfig configures the listing store.
type UsageConfig struct {
	// Backend is the listing store.
	// Options: "memory", "sqlite"
	// Default: "sqlite"
	Backend string `yaml:"backend"`

	// WriteTimeout bounds a single listing write.
	// Default: 5s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// HistoryLimit is the maximum page size of GET /listings.
	// Default: 20
	HistoryLimit int `yaml:"history_limit"`

	// SQLite configures the sqlite listing store.
	SQLite UsageSQLiteConfig `yaml:"sqlite"`

	// Retention configures listing pruning.
	Retention RetentionConfig `yaml:"retention"`
}

// UsageSQLiteConfig configures the sqlite listing store.
type UsageSQLiteConfig struct {
	// Path is the database file.
	// Default: "data/listings.db"
	Path string `yaml:"path"`

	// MaxOpenConns limits open connections.
	// Default: 10
	MaxOpenConns int `yaml:"max_open_conns"`

	// MaxIdleConns limits idle connections.
	// Default: 5
	MaxIdleConns int `yaml:"max_idle_conns"`

	// WALMode enables write-ahead logging.
	// Default: true
	WALMode bool `yaml:"wal_mode"`

	// BusyTimeout is how long to wait for locks.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`
}

// RetentionConfig configures listing pruning.
type RetentionConfig struct {
	// Enabled starts the pruning scheduler.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Days is how long listings are kept.
	// Default: 365
	Days int `yaml:"days"`

	// Schedule is a cron expression for pruning runs.
	// Default: "0 3 * * *" (daily at 3am)
	Schedule string `yaml:"schedule"`
}

// RateLimitConfig configures per-account request pacing.
type RateLimitConfig struct {
	// Enabled turns pacing on.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// RequestsPerSecond is the sustained rate per account.
	// Default: 2
	RequestsPerSecond float64 `yaml:"requests_per_second"`

	// Burst is the number of requests allowed at once.
	// Default: 5
	Burst int `yaml:"burst"`

	// IdleTTL is how long an idle account bucket is kept.
	// Default: 15m
	IdleTTL time.Duration `yaml:"idle_ttl"`

	// CleanupInterval is how often idle buckets are dropped.
	// Default: 2m
	CleanupInterval time.Duration `yaml:"cleanup_interval"`
}

// TelemetryConfig contains configuration for observability.
type TelemetryConfig struct {
	// Logging contains structured logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains Prometheus metrics configuration.
	Metrics MetricsConfig `yaml:"metrics"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level to emit.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level"`

	// Format controls the log output format.
	// Options: "json", "text"
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource includes file and line number in log entries.
	// Default: false
	AddSource bool `yaml:"add_source"`

	// RedactPII masks emails and bearer tokens inside logged strings.
	// Default: true
	RedactPII bool `yaml:"redact_pii"`
}

// MetricsConfig contains metrics collection configuration.
type MetricsConfig struct {
	// Enabled controls whether metrics are collected and exposed.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Path is the HTTP path for the Prometheus endpoint.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// Namespace is the metric name prefix.
	// Default: "listingforge"
	Namespace string `yaml:"namespace"`

	// RequestDurationBuckets are histogram buckets for HTTP latency (seconds).
	// Default: [0.01, 0.05, 0.1, 0.5, 1, 5, 15, 30, 60]
	RequestDurationBuckets []float64 `yaml:"request_duration_buckets"`

	// GenerationDurationBuckets are histogram buckets for provider latency
	// (seconds).
	// Default: [0.5, 1, 2, 5, 10, 20, 30, 60]
	GenerationDurationBuckets []float64 `yaml:"generation_duration_buckets"`
}
