package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"listingforge/gateway/pkg/usage"
)

// SQLiteConfig contains configuration for the SQLite listing store.
type SQLiteConfig struct {
	// Path is the database file path.
	Path string

	// MaxOpenConns is the maximum number of open connections.
	// Default: 10
	MaxOpenConns int

	// MaxIdleConns is the maximum number of idle connections.
	// Default: 5
	MaxIdleConns int

	// WALMode enables Write-Ahead Logging.
	// Default: true
	WALMode bool

	// BusyTimeout is how long to wait on a locked database.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// DefaultSQLiteConfig returns the default SQLite configuration.
func DefaultSQLiteConfig() *SQLiteConfig {
	return &SQLiteConfig{
		Path:         "data/listings.db",
		MaxOpenConns: 10,
		MaxIdleConns: 5,
		WALMode:      true,
		BusyTimeout:  5 * time.Second,
	}
}

// SQLiteStorage implements usage.ListingStore on SQLite.
type SQLiteStorage struct {
	db     *sql.DB
	config *SQLiteConfig
	logger *slog.Logger
}

// NewSQLiteStorage opens the database and applies the schema.
func NewSQLiteStorage(config *SQLiteConfig) (*SQLiteStorage, error) {
	if config == nil {
		config = DefaultSQLiteConfig()
	}
	if config.Path == "" {
		return nil, usage.NewStorageError("sqlite", "open", fmt.Errorf("database path is required"))
	}

	logger := slog.Default().With("component", "usage.storage.sqlite")

	db, err := sql.Open("sqlite3", config.Path)
	if err != nil {
		return nil, usage.NewStorageError("sqlite", "open", err)
	}
	if config.MaxOpenConns > 0 {
		db.SetMaxOpenConns(config.MaxOpenConns)
	}
	if config.MaxIdleConns > 0 {
		db.SetMaxIdleConns(config.MaxIdleConns)
	}

	s := &SQLiteStorage{
		db:     db,
		config: config,
		logger: logger,
	}

	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("SQLite listing store initialized",
		"path", config.Path,
		"wal_mode", config.WALMode,
		"max_open_conns", config.MaxOpenConns,
	)

	return s, nil
}

func (s *SQLiteStorage) initialize() error {
	if s.config.WALMode {
		if _, err := s.db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
			return usage.NewStorageError("sqlite", "enable_wal", err)
		}
	}

	if _, err := s.db.Exec(fmt.Sprintf("PRAGMA busy_timeout=%d;", s.config.BusyTimeout.Milliseconds())); err != nil {
		return usage.NewStorageError("sqlite", "set_busy_timeout", err)
	}

	if _, err := s.db.Exec(Schema); err != nil {
		return usage.NewStorageError("sqlite", "create_schema", err)
	}

	if _, err := s.db.Exec(InsertSchemaVersion, SchemaVersion); err != nil {
		return usage.NewStorageError("sqlite", "insert_schema_version", err)
	}

	var version int
	if err := s.db.QueryRow(GetSchemaVersion).Scan(&version); err != nil {
		return usage.NewStorageError("sqlite", "get_schema_version", err)
	}
	if version != SchemaVersion {
		return usage.NewStorageError("sqlite", "schema_version_mismatch",
			fmt.Errorf("expected schema version %d, got %d", SchemaVersion, version))
	}

	return nil
}

// Store inserts a listing.
func (s *SQLiteStorage) Store(ctx context.Context, l *usage.Listing) error {
	content, err := json.Marshal(l.Content)
	if err != nil {
		return usage.NewStorageError("sqlite", "marshal_content", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO listings (
			id, account_id, request_id,
			address, price, property_type, tone,
			content, content_hash, fallback,
			plan, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		l.ID, l.AccountID, nullable(l.RequestID),
		l.Address, l.Price, l.PropertyType, l.Tone,
		string(content), l.ContentHash, l.Fallback,
		l.Plan, l.CreatedAt.UnixNano(),
	)
	if err != nil {
		return usage.NewStorageError("sqlite", "store", err)
	}
	return nil
}

const listingColumns = `id, account_id, request_id, address, price, property_type, tone,
	content, content_hash, fallback, plan, created_at`

// List returns matching listings, newest first.
func (s *SQLiteStorage) List(ctx context.Context, query *usage.Query) ([]*usage.Listing, error) {
	where, args := buildWhereClause(query)

	q := "SELECT " + listingColumns + " FROM listings"
	if where != "" {
		q += " WHERE " + where
	}
	q += " ORDER BY created_at DESC, id DESC"
	if query != nil && query.Limit > 0 {
		q += " LIMIT ?"
		args = append(args, query.Limit)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, usage.NewStorageError("sqlite", "list", err)
	}
	defer rows.Close()

	results := make([]*usage.Listing, 0)
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, usage.NewStorageError("sqlite", "scan", err)
		}
		results = append(results, l)
	}
	if err := rows.Err(); err != nil {
		return nil, usage.NewStorageError("sqlite", "list", err)
	}
	return results, nil
}

// Delete removes matching listings. Limit is ignored.
func (s *SQLiteStorage) Delete(ctx context.Context, query *usage.Query) (int64, error) {
	where, args := buildWhereClause(query)

	q := "DELETE FROM listings"
	if where != "" {
		q += " WHERE " + where
	}

	res, err := s.db.ExecContext(ctx, q, args...)
	if err != nil {
		return 0, usage.NewStorageError("sqlite", "delete", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, usage.NewStorageError("sqlite", "delete", err)
	}
	return n, nil
}

// Count returns the number of matching listings.
func (s *SQLiteStorage) Count(ctx context.Context, query *usage.Query) (int64, error) {
	where, args := buildWhereClause(query)

	q := "SELECT COUNT(*) FROM listings"
	if where != "" {
		q += " WHERE " + where
	}

	var n int64
	if err := s.db.QueryRowContext(ctx, q, args...).Scan(&n); err != nil {
		return 0, usage.NewStorageError("sqlite", "count", err)
	}
	return n, nil
}

// Ping checks the database connection.
func (s *SQLiteStorage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

func buildWhereClause(q *usage.Query) (string, []interface{}) {
	if q == nil {
		return "", nil
	}

	var conds []string
	var args []interface{}
	if q.AccountID != "" {
		conds = append(conds, "account_id = ?")
		args = append(args, q.AccountID)
	}
	if q.Before != nil {
		conds = append(conds, "created_at < ?")
		args = append(args, q.Before.UnixNano())
	}
	return strings.Join(conds, " AND "), args
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanListing(row scanner) (*usage.Listing, error) {
	var (
		l         usage.Listing
		requestID sql.NullString
		propType  sql.NullString
		tone      sql.NullString
		content   string
		hash      sql.NullString
		plan      sql.NullString
		createdAt int64
	)

	err := row.Scan(
		&l.ID, &l.AccountID, &requestID,
		&l.Address, &l.Price, &propType, &tone,
		&content, &hash, &l.Fallback,
		&plan, &createdAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(content), &l.Content); err != nil {
		return nil, fmt.Errorf("decode content of listing %s: %w", l.ID, err)
	}

	l.RequestID = requestID.String
	l.PropertyType = propType.String
	l.Tone = tone.String
	l.ContentHash = hash.String
	l.Plan = plan.String
	l.CreatedAt = time.Unix(0, createdAt).UTC()

	return &l, nil
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

var _ usage.ListingStore = (*SQLiteStorage)(nil)
