package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"listingforge/gateway/pkg/plans"
	"listingforge/gateway/pkg/quota"

	_ "modernc.org/sqlite" // SQLite driver
)

// SQLiteBackend implements quota.Store using SQLite.
// It suits single-node deployments where usage must survive restarts.
//
// The pool is limited to one connection and transactions begin with
// BEGIN IMMEDIATE, so the reserve transaction holds the write lock from its
// first read to its commit.
type SQLiteBackend struct {
	sqlStore

	dbPath             string
	checkpointInterval time.Duration
	done               chan struct{}
	closeOnce          sync.Once
}

// SQLiteBackendConfig configures the SQLite backend.
type SQLiteBackendConfig struct {
	// DBPath is the path to the SQLite database file.
	DBPath string

	// CheckpointInterval is how often to checkpoint the WAL.
	// Default: 5 minutes
	CheckpointInterval time.Duration

	// BusyTimeout is how long to wait for locks before failing.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

var sqliteQueries = sqlQueries{
	selectProfile: `SELECT plan, listings_used, leads_used, period_start FROM profiles WHERE account_id = ?`,
	resetProfile:  `UPDATE profiles SET listings_used = 0, leads_used = 0, period_start = ?, updated_at = ? WHERE account_id = ?`,
	increment:     `UPDATE profiles SET listings_used = listings_used + 1, updated_at = ? WHERE account_id = ? AND listings_used < ?`,
	release:       `UPDATE profiles SET listings_used = listings_used - 1, updated_at = ? WHERE account_id = ? AND period_start = ? AND listings_used > 0`,
	provision: `INSERT INTO profiles (account_id, plan, listings_used, leads_used, period_start, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (account_id) DO NOTHING`,
	setPlan: `UPDATE profiles SET plan = ?, updated_at = ? WHERE account_id = ?`,
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS profiles (
	account_id TEXT PRIMARY KEY,
	plan TEXT NOT NULL DEFAULT 'free',
	listings_used INTEGER NOT NULL DEFAULT 0 CHECK (listings_used >= 0),
	leads_used INTEGER NOT NULL DEFAULT 0 CHECK (leads_used >= 0),
	period_start INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);
`

// NewSQLiteBackend creates a SQLite backend with default settings.
func NewSQLiteBackend(dbPath string) (*SQLiteBackend, error) {
	return NewSQLiteBackendWithConfig(SQLiteBackendConfig{DBPath: dbPath})
}

// NewSQLiteBackendWithConfig creates a SQLite backend with custom configuration.
func NewSQLiteBackendWithConfig(cfg SQLiteBackendConfig) (*SQLiteBackend, error) {
	if cfg.DBPath == "" {
		return nil, fmt.Errorf("db path cannot be empty")
	}
	if cfg.CheckpointInterval == 0 {
		cfg.CheckpointInterval = 5 * time.Minute
	}
	if cfg.BusyTimeout == 0 {
		cfg.BusyTimeout = 5 * time.Second
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(%d)&_pragma=synchronous(NORMAL)&_txlock=immediate",
		cfg.DBPath, cfg.BusyTimeout.Milliseconds())

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	b := &SQLiteBackend{
		sqlStore: sqlStore{
			db: db,
			q:  sqliteQueries,
		},
		dbPath:             cfg.DBPath,
		checkpointInterval: cfg.CheckpointInterval,
		done:               make(chan struct{}),
	}

	go b.checkpointLoop()

	return b, nil
}

// Reserve implements quota.Store.
func (b *SQLiteBackend) Reserve(ctx context.Context, req quota.ReserveRequest) (quota.ReserveResult, error) {
	return b.reserve(ctx, req)
}

// Release implements quota.Store.
func (b *SQLiteBackend) Release(ctx context.Context, accountID string, periodStart time.Time) error {
	return b.release(ctx, accountID, periodStart)
}

// Snapshot implements quota.Store.
func (b *SQLiteBackend) Snapshot(ctx context.Context, accountID string, now time.Time, period quota.PeriodManager) (quota.Profile, bool, error) {
	return b.snapshot(ctx, accountID, now, period)
}

// Provision implements quota.Store.
func (b *SQLiteBackend) Provision(ctx context.Context, p quota.Profile) error {
	return b.provision(ctx, p)
}

// SetPlan changes an account's tier. Plan changes come from the billing
// process; counters are left untouched.
func (b *SQLiteBackend) SetPlan(ctx context.Context, accountID string, plan plans.Tier) error {
	return b.setPlan(ctx, accountID, plan)
}

// Ping implements quota.Store.
func (b *SQLiteBackend) Ping(ctx context.Context) error {
	return b.ping(ctx)
}

// Close stops the checkpoint loop and closes the database.
func (b *SQLiteBackend) Close() error {
	var err error
	b.closeOnce.Do(func() {
		close(b.done)
		err = b.db.Close()
	})
	return err
}

// checkpointLoop periodically checkpoints the WAL file.
func (b *SQLiteBackend) checkpointLoop() {
	ticker := time.NewTicker(b.checkpointInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := b.db.Exec("PRAGMA wal_checkpoint(PASSIVE)"); err != nil {
				slog.Warn("quota wal checkpoint failed", "path", b.dbPath, "error", err)
			}
		case <-b.done:
			return
		}
	}
}
