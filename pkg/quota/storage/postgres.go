package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"listingforge/gateway/pkg/plans"
	"listingforge/gateway/pkg/quota"

	_ "github.com/lib/pq" // PostgreSQL driver
)

// PostgresBackend implements quota.Store on PostgreSQL.
// Reservations lock the profile row with SELECT ... FOR UPDATE, so
// concurrent requests for one account serialize on the row while other
// accounts proceed in parallel. Several gateway instances may share the
// same database.
type PostgresBackend struct {
	sqlStore
}

// PostgresBackendConfig configures the PostgreSQL backend.
type PostgresBackendConfig struct {
	// DSN is a lib/pq connection string.
	DSN string

	// MaxOpenConns limits open connections.
	// Default: 10
	MaxOpenConns int

	// MaxIdleConns limits idle connections.
	// Default: 5
	MaxIdleConns int

	// ConnMaxLifetime recycles connections.
	// Default: 30 minutes
	ConnMaxLifetime time.Duration

	// Migrate creates the profiles table on startup.
	Migrate bool
}

var postgresQueries = sqlQueries{
	selectProfile: `SELECT plan, listings_used, leads_used, period_start FROM profiles WHERE account_id = $1 FOR UPDATE`,
	resetProfile:  `UPDATE profiles SET listings_used = 0, leads_used = 0, period_start = $1, updated_at = $2 WHERE account_id = $3`,
	increment:     `UPDATE profiles SET listings_used = listings_used + 1, updated_at = $1 WHERE account_id = $2 AND listings_used < $3`,
	release:       `UPDATE profiles SET listings_used = listings_used - 1, updated_at = $1 WHERE account_id = $2 AND period_start = $3 AND listings_used > 0`,
	provision: `INSERT INTO profiles (account_id, plan, listings_used, leads_used, period_start, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (account_id) DO NOTHING`,
	setPlan: `UPDATE profiles SET plan = $1, updated_at = $2 WHERE account_id = $3`,
}

// PostgresSchema creates the profiles table.
const PostgresSchema = `
CREATE TABLE IF NOT EXISTS profiles (
	account_id TEXT PRIMARY KEY,
	plan TEXT NOT NULL DEFAULT 'free',
	listings_used INTEGER NOT NULL DEFAULT 0 CHECK (listings_used >= 0),
	leads_used INTEGER NOT NULL DEFAULT 0 CHECK (leads_used >= 0),
	period_start BIGINT NOT NULL,
	updated_at BIGINT NOT NULL
);
`

// NewPostgresBackend opens a connection pool and optionally migrates the schema.
func NewPostgresBackend(ctx context.Context, cfg PostgresBackendConfig) (*PostgresBackend, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("postgres dsn cannot be empty")
	}
	if cfg.MaxOpenConns == 0 {
		cfg.MaxOpenConns = 10
	}
	if cfg.MaxIdleConns == 0 {
		cfg.MaxIdleConns = 5
	}
	if cfg.ConnMaxLifetime == 0 {
		cfg.ConnMaxLifetime = 30 * time.Minute
	}

	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	if cfg.Migrate {
		if _, err := db.ExecContext(ctx, PostgresSchema); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to initialize schema: %w", err)
		}
	}

	return NewPostgresBackendWithDB(db), nil
}

// NewPostgresBackendWithDB wraps an existing pool.
func NewPostgresBackendWithDB(db *sql.DB) *PostgresBackend {
	return &PostgresBackend{
		sqlStore: sqlStore{
			db:     db,
			q:      postgresQueries,
			txOpts: &sql.TxOptions{Isolation: sql.LevelReadCommitted},
		},
	}
}

// Reserve implements quota.Store.
func (b *PostgresBackend) Reserve(ctx context.Context, req quota.ReserveRequest) (quota.ReserveResult, error) {
	return b.reserve(ctx, req)
}

// Release implements quota.Store.
func (b *PostgresBackend) Release(ctx context.Context, accountID string, periodStart time.Time) error {
	return b.release(ctx, accountID, periodStart)
}

// Snapshot implements quota.Store.
func (b *PostgresBackend) Snapshot(ctx context.Context, accountID string, now time.Time, period quota.PeriodManager) (quota.Profile, bool, error) {
	return b.snapshot(ctx, accountID, now, period)
}

// Provision implements quota.Store.
func (b *PostgresBackend) Provision(ctx context.Context, p quota.Profile) error {
	return b.provision(ctx, p)
}

// SetPlan changes an account's tier without touching its counters.
func (b *PostgresBackend) SetPlan(ctx context.Context, accountID string, plan plans.Tier) error {
	return b.setPlan(ctx, accountID, plan)
}

// Ping implements quota.Store.
func (b *PostgresBackend) Ping(ctx context.Context) error {
	return b.ping(ctx)
}

// Close closes the connection pool.
func (b *PostgresBackend) Close() error {
	return b.db.Close()
}
