package usage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"listingforge/gateway/pkg/plans"
	"listingforge/gateway/pkg/providers"
	"listingforge/gateway/pkg/quota"
	"listingforge/gateway/pkg/sanitizer"
)

// Config contains configuration for the recorder.
type Config struct {
	// WriteTimeout bounds a single listing write. The write is detached
	// from the caller's cancellation because the unit is already charged.
	// Default: 5 seconds
	WriteTimeout time.Duration

	// HistoryLimit is the default and maximum page size for History.
	// Default: 20
	HistoryLimit int
}

// DefaultConfig returns the default recorder configuration.
func DefaultConfig() *Config {
	return &Config{
		WriteTimeout: 5 * time.Second,
		HistoryLimit: 20,
	}
}

// Recorder commits reservations and persists the listings they paid for.
type Recorder struct {
	store   ListingStore
	config  *Config
	metrics *Metrics
	logger  *slog.Logger

	now   func() time.Time
	newID func() string
}

// NewRecorder creates a recorder backed by store. metrics may be nil.
func NewRecorder(store ListingStore, config *Config, metrics *Metrics) *Recorder {
	if config == nil {
		config = DefaultConfig()
	}
	if config.WriteTimeout <= 0 {
		config.WriteTimeout = 5 * time.Second
	}
	if config.HistoryLimit <= 0 {
		config.HistoryLimit = 20
	}

	return &Recorder{
		store:   store,
		config:  config,
		metrics: metrics,
		logger:  slog.Default().With("component", "usage.recorder"),
		now:     time.Now,
		newID:   func() string { return uuid.New().String() },
	}
}

// CommitOption adjusts how a listing is recorded.
type CommitOption func(*Listing)

// WithRequestID tags the listing with the proxy request ID.
func WithRequestID(id string) CommitOption {
	return func(l *Listing) { l.RequestID = id }
}

// WithFallback marks the listing as carrying placeholder content.
func WithFallback(fallback bool) CommitOption {
	return func(l *Listing) { l.Fallback = fallback }
}

// Commit finalizes res and stores the listing generated for in.
//
// The reservation is committed before the write. A failed write returns a
// *PersistenceError together with the listing that could not be stored;
// the unit remains charged.
func (r *Recorder) Commit(ctx context.Context, res *quota.Reservation, in *providers.GenerationRequest, content sanitizer.Content, opts ...CommitOption) (*Listing, error) {
	if res == nil {
		return nil, errors.New("usage: nil reservation")
	}
	if err := res.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit reservation: %w", err)
	}

	tone := in.Tone
	if tone == "" {
		tone = plans.ToneProfessional
	}

	listing := &Listing{
		ID:           r.newID(),
		AccountID:    res.AccountID,
		Address:      in.Address,
		Price:        string(in.Price),
		PropertyType: in.PropertyType,
		Tone:         tone.String(),
		Content:      content,
		ContentHash:  HashContent(content),
		Plan:         res.Plan.String(),
		CreatedAt:    r.now().UTC(),
	}
	for _, opt := range opts {
		opt(listing)
	}

	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.config.WriteTimeout)
	defer cancel()

	if err := r.store.Store(writeCtx, listing); err != nil {
		r.metrics.recordPersistenceFailure()
		r.logger.ErrorContext(ctx, "listing charged but not persisted",
			"account_id", listing.AccountID,
			"request_id", listing.RequestID,
			"listing_id", listing.ID,
			"error", err,
		)
		return listing, &PersistenceError{
			ListingID: listing.ID,
			AccountID: listing.AccountID,
			Cause:     err,
		}
	}

	r.metrics.recordSuccess(listing.Fallback)
	r.logger.DebugContext(ctx, "listing recorded",
		"account_id", listing.AccountID,
		"listing_id", listing.ID,
		"fallback", listing.Fallback,
	)

	return listing, nil
}

// History returns the most recent listings of an account, newest first.
// limit is clamped to the configured HistoryLimit; zero or negative uses it.
func (r *Recorder) History(ctx context.Context, accountID string, limit int) ([]*Listing, error) {
	if accountID == "" {
		return nil, errors.New("usage: account id is required")
	}
	if limit <= 0 || limit > r.config.HistoryLimit {
		limit = r.config.HistoryLimit
	}

	listings, err := r.store.List(ctx, &Query{AccountID: accountID, Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("list listings: %w", err)
	}
	return listings, nil
}
