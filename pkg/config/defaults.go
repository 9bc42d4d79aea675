package config

import "time"

// Default values for configuration fields.
const (
	// Server defaults
	DefaultListenAddress   = "127.0.0.1:8080"
	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = 90 * time.Second
	DefaultIdleTimeout     = 120 * time.Second
	DefaultRequestTimeout  = 75 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
	DefaultMaxHeaderBytes  = 1048576 // 1MB

	// CORS defaults
	DefaultCORSEnabled = true
	DefaultCORSMaxAge  = 3600 // 1 hour

	DefaultTLSMinVersion     = "1.3"
	DefaultTLSReloadInterval = 5 * time.Minute

	// Auth defaults
	DefaultAuthLeeway = 30 * time.Second

	// Generation defaults
	DefaultGenerationProvider    = "groq"
	DefaultGenerationBaseURL     = "https://api.groq.com/openai/v1"
	DefaultGenerationModel       = "llama-3.1-8b-instant"
	DefaultGenerationTemperature = 0.7
	DefaultGenerationMaxTokens   = 3000
	DefaultGenerationTimeout     = 60 * time.Second

	// Quota defaults
	DefaultQuotaBackend            = "sqlite"
	DefaultQuotaPeriod             = 30 * 24 * time.Hour
	DefaultQuotaSQLitePath         = "data/quota.db"
	DefaultQuotaSQLiteBusyTimeout  = 5 * time.Second
	DefaultQuotaSQLiteCheckpoint   = 5 * time.Minute
	DefaultPostgresMaxOpenConns    = 10
	DefaultPostgresMaxIdleConns    = 5
	DefaultPostgresConnMaxLifetime = 30 * time.Minute
	DefaultPostgresMigrate         = true
	DefaultRedisAddr               = "localhost:6379"
	DefaultRedisKeyPrefix          = "listingforge:quota"
	DefaultRedisDialTimeout        = 5 * time.Second

	// Usage defaults
	DefaultUsageBackend           = "sqlite"
	DefaultUsageWriteTimeout      = 5 * time.Second
	DefaultUsageHistoryLimit      = 20
	DefaultUsageSQLitePath        = "data/listings.db"
	DefaultUsageSQLiteMaxOpen     = 10
	DefaultUsageSQLiteMaxIdle     = 5
	DefaultUsageSQLiteWALMode     = true
	DefaultUsageSQLiteBusyTimeout = 5 * time.Second
	DefaultRetentionEnabled       = true
	DefaultRetentionDays          = 365
	DefaultRetentionSchedule      = "0 3 * * *"

	// Rate limit defaults
	DefaultRateLimitEnabled         = true
	DefaultRateLimitRPS             = 2.0
	DefaultRateLimitBurst           = 5
	DefaultRateLimitIdleTTL         = 15 * time.Minute
	DefaultRateLimitCleanupInterval = 2 * time.Minute

	// Telemetry defaults
	DefaultLoggingLevel     = "info"
	DefaultLoggingFormat    = "json"
	DefaultLoggingRedactPII = true
	DefaultMetricsEnabled   = true
	DefaultMetricsPath      = "/metrics"
	DefaultMetricsNamespace = "listingforge"
)

// Default returns a configuration with every default applied. The loaders
// decode YAML on top of it so that explicit false values survive.
func Default() *Config {
	cfg := &Config{
		Server: ServerConfig{
			CORS: CORSConfig{Enabled: DefaultCORSEnabled},
		},
		Quota: QuotaConfig{
			Postgres: PostgresConfig{Migrate: DefaultPostgresMigrate},
		},
		Usage: UsageConfig{
			SQLite:    UsageSQLiteConfig{WALMode: DefaultUsageSQLiteWALMode},
			Retention: RetentionConfig{Enabled: DefaultRetentionEnabled},
		},
		RateLimit: RateLimitConfig{Enabled: DefaultRateLimitEnabled},
		Telemetry: TelemetryConfig{
			Logging: LoggingConfig{RedactPII: DefaultLoggingRedactPII},
			Metrics: MetricsConfig{Enabled: DefaultMetricsEnabled},
		},
	}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills zero-valued fields with their defaults. Booleans are
// left alone; Default sets those before decoding.
func ApplyDefaults(cfg *Config) {
	applyServerDefaults(&cfg.Server)

	if cfg.Auth.Leeway == 0 {
		cfg.Auth.Leeway = DefaultAuthLeeway
	}

	applyGenerationDefaults(&cfg.Generation)
	applyQuotaDefaults(&cfg.Quota)
	applyUsageDefaults(&cfg.Usage)

	// Rate limit defaults
	if cfg.RateLimit.RequestsPerSecond == 0 {
		cfg.RateLimit.RequestsPerSecond = DefaultRateLimitRPS
	}
	if cfg.RateLimit.Burst == 0 {
		cfg.RateLimit.Burst = DefaultRateLimitBurst
	}
	if cfg.RateLimit.IdleTTL == 0 {
		cfg.RateLimit.IdleTTL = DefaultRateLimitIdleTTL
	}
	if cfg.RateLimit.CleanupInterval == 0 {
		cfg.RateLimit.CleanupInterval = DefaultRateLimitCleanupInterval
	}

	applyTelemetryDefaults(&cfg.Telemetry)
}

func applyServerDefaults(s *ServerConfig) {
	if s.TLS.MinVersion == "" {
		s.TLS.MinVersion = DefaultTLSMinVersion
	}
	if s.TLS.ReloadInterval == 0 {
		s.TLS.ReloadInterval = DefaultTLSReloadInterval
	}
	if s.ListenAddress == "" {
		s.ListenAddress = DefaultListenAddress
	}
	if s.ReadTimeout == 0 {
		s.ReadTimeout = DefaultReadTimeout
	}
	if s.WriteTimeout == 0 {
		s.WriteTimeout = DefaultWriteTimeout
	}
	if s.IdleTimeout == 0 {
		s.IdleTimeout = DefaultIdleTimeout
	}
	if s.RequestTimeout == 0 {
		s.RequestTimeout = DefaultRequestTimeout
	}
	if s.ShutdownTimeout == 0 {
		s.ShutdownTimeout = DefaultShutdownTimeout
	}
	if s.MaxHeaderBytes == 0 {
		s.MaxHeaderBytes = DefaultMaxHeaderBytes
	}

	// CORS defaults
	if len(s.CORS.AllowedOrigins) == 0 {
		s.CORS.AllowedOrigins = []string{"*"}
	}
	if len(s.CORS.AllowedMethods) == 0 {
		s.CORS.AllowedMethods = []string{"GET", "POST", "OPTIONS"}
	}
	if len(s.CORS.AllowedHeaders) == 0 {
		s.CORS.AllowedHeaders = []string{"Authorization", "Content-Type", "X-Request-ID"}
	}
	if len(s.CORS.ExposedHeaders) == 0 {
		s.CORS.ExposedHeaders = []string{"X-Request-ID", "Retry-After"}
	}
	if s.CORS.MaxAge == 0 {
		s.CORS.MaxAge = DefaultCORSMaxAge
	}
}

func applyGenerationDefaults(g *GenerationConfig) {
	if g.Provider == "" {
		g.Provider = DefaultGenerationProvider
	}
	if g.BaseURL == "" {
		g.BaseURL = DefaultGenerationBaseURL
	}
	if g.Model == "" {
		g.Model = DefaultGenerationModel
	}
	if g.Temperature == 0 {
		g.Temperature = DefaultGenerationTemperature
	}
	if g.MaxTokens == 0 {
		g.MaxTokens = DefaultGenerationMaxTokens
	}
	if g.Timeout == 0 {
		g.Timeout = DefaultGenerationTimeout
	}
}

func applyQuotaDefaults(q *QuotaConfig) {
	if q.Backend == "" {
		q.Backend = DefaultQuotaBackend
	}
	if q.Period == 0 {
		q.Period = DefaultQuotaPeriod
	}

	// SQLite defaults
	if q.SQLite.Path == "" {
		q.SQLite.Path = DefaultQuotaSQLitePath
	}
	if q.SQLite.BusyTimeout == 0 {
		q.SQLite.BusyTimeout = DefaultQuotaSQLiteBusyTimeout
	}
	if q.SQLite.CheckpointInterval == 0 {
		q.SQLite.CheckpointInterval = DefaultQuotaSQLiteCheckpoint
	}

	// Postgres defaults
	if q.Postgres.MaxOpenConns == 0 {
		q.Postgres.MaxOpenConns = DefaultPostgresMaxOpenConns
	}
	if q.Postgres.MaxIdleConns == 0 {
		q.Postgres.MaxIdleConns = DefaultPostgresMaxIdleConns
	}
	if q.Postgres.ConnMaxLifetime == 0 {
		q.Postgres.ConnMaxLifetime = DefaultPostgresConnMaxLifetime
	}

	// Redis defaults
	if q.Redis.Addr == "" {
		q.Redis.Addr = DefaultRedisAddr
	}
	if q.Redis.KeyPrefix == "" {
		q.Redis.KeyPrefix = DefaultRedisKeyPrefix
	}
	if q.Redis.DialTimeout == 0 {
		q.Redis.DialTimeout = DefaultRedisDialTimeout
	}
}

func applyUsageDefaults(u *UsageConfig) {
	if u.Backend == "" {
		u.Backend = DefaultUsageBackend
	}
	if u.WriteTimeout == 0 {
		u.WriteTimeout = DefaultUsageWriteTimeout
	}
	if u.HistoryLimit == 0 {
		u.HistoryLimit = DefaultUsageHistoryLimit
	}

	// SQLite defaults
	if u.SQLite.Path == "" {
		u.SQLite.Path = DefaultUsageSQLitePath
	}
	if u.SQLite.MaxOpenConns == 0 {
		u.SQLite.MaxOpenConns = DefaultUsageSQLiteMaxOpen
	}
	if u.SQLite.MaxIdleConns == 0 {
		u.SQLite.MaxIdleConns = DefaultUsageSQLiteMaxIdle
	}
	if u.SQLite.BusyTimeout == 0 {
		u.SQLite.BusyTimeout = DefaultUsageSQLiteBusyTimeout
	}

	// Retention defaults
	if u.Retention.Days == 0 {
		u.Retention.Days = DefaultRetentionDays
	}
	if u.Retention.Schedule == "" {
		u.Retention.Schedule = DefaultRetentionSchedule
	}
}

func applyTelemetryDefaults(t *TelemetryConfig) {
	if t.Logging.Level == "" {
		t.Logging.Level = DefaultLoggingLevel
	}
	if t.Logging.Format == "" {
		t.Logging.Format = DefaultLoggingFormat
	}

	if t.Metrics.Path == "" {
		t.Metrics.Path = DefaultMetricsPath
	}
	if t.Metrics.Namespace == "" {
		t.Metrics.Namespace = DefaultMetricsNamespace
	}
	if len(t.Metrics.RequestDurationBuckets) == 0 {
		t.Metrics.RequestDurationBuckets = []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 30, 60}
	}
	if len(t.Metrics.GenerationDurationBuckets) == 0 {
		t.Metrics.GenerationDurationBuckets = []float64{0.5, 1, 2, 5, 10, 20, 30, 60}
	}
}
