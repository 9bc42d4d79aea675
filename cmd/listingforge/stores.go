package main

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"listingforge/gateway/pkg/cli"
	"listingforge/gateway/pkg/config"
	"listingforge/gateway/pkg/plans"
	"listingforge/gateway/pkg/quota"
	quotastore "listingforge/gateway/pkg/quota/storage"
	"listingforge/gateway/pkg/usage"
	usagestore "listingforge/gateway/pkg/usage/storage"
)

// planSetter is implemented by every quota backend.
type planSetter interface {
	SetPlan(ctx context.Context, accountID string, plan plans.Tier) error
}

// pinger is implemented by stores that can report connectivity.
type pinger interface {
	Ping(ctx context.Context) error
}

// openQuotaStore opens the profile store selected by cfg.Backend.
func openQuotaStore(ctx context.Context, cfg *config.QuotaConfig) (quota.Store, error) {
	switch cfg.Backend {
	case "memory":
		return quotastore.NewMemoryBackend(), nil

	case "sqlite":
		store, err := quotastore.NewSQLiteBackendWithConfig(quotastore.SQLiteBackendConfig{
			DBPath:             cfg.SQLite.Path,
			CheckpointInterval: cfg.SQLite.CheckpointInterval,
			BusyTimeout:        cfg.SQLite.BusyTimeout,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite quota store: %w", err)
		}
		return store, nil

	case "postgres":
		store, err := quotastore.NewPostgresBackend(ctx, quotastore.PostgresBackendConfig{
			DSN:             cfg.Postgres.DSN,
			MaxOpenConns:    cfg.Postgres.MaxOpenConns,
			MaxIdleConns:    cfg.Postgres.MaxIdleConns,
			ConnMaxLifetime: cfg.Postgres.ConnMaxLifetime,
			Migrate:         cfg.Postgres.Migrate,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to open postgres quota store: %w", err)
		}
		return store, nil

	case "redis":
		rdb := redis.NewClient(&redis.Options{
			Addr:        cfg.Redis.Addr,
			Password:    cfg.Redis.Password,
			DB:          cfg.Redis.DB,
			DialTimeout: cfg.Redis.DialTimeout,
		})
		store := quotastore.NewRedisBackend(rdb, quotastore.WithKeyPrefix(cfg.Redis.KeyPrefix))
		if err := store.Ping(ctx); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("failed to reach redis quota store at %s: %w", cfg.Redis.Addr, err)
		}
		return store, nil

	default:
		return nil, fmt.Errorf("unsupported quota backend: %s", cfg.Backend)
	}
}

// openListingStore opens the listing store selected by cfg.Backend.
func openListingStore(cfg *config.UsageConfig) (usage.ListingStore, error) {
	switch cfg.Backend {
	case "memory":
		return usagestore.NewMemoryStorage(), nil

	case "sqlite":
		store, err := usagestore.NewSQLiteStorage(&usagestore.SQLiteConfig{
			Path:         cfg.SQLite.Path,
			MaxOpenConns: cfg.SQLite.MaxOpenConns,
			MaxIdleConns: cfg.SQLite.MaxIdleConns,
			WALMode:      cfg.SQLite.WALMode,
			BusyTimeout:  cfg.SQLite.BusyTimeout,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite listing store: %w", err)
		}
		return store, nil

	default:
		return nil, fmt.Errorf("unsupported usage backend: %s", cfg.Backend)
	}
}

// planRegistry builds the plan table with the configured overrides.
func planRegistry(cfg *config.Config) (*plans.Registry, error) {
	overrides := make(map[string]plans.Override, len(cfg.Plans))
	for name, o := range cfg.Plans {
		overrides[name] = plans.Override{
			Label:    o.Label,
			Listings: o.Listings,
			Leads:    o.Leads,
		}
	}
	reg, err := plans.NewRegistry(overrides)
	if err != nil {
		return nil, cli.NewConfigError("plans", err.Error())
	}
	return reg, nil
}
