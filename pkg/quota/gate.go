package quota

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"listingforge/gateway/pkg/plans"
)

// GateConfig configures a Gate.
type GateConfig struct {
	// Period is the billing period length.
	// Default: 30 days
	Period time.Duration

	// AutoProvision creates a free-tier profile the first time an unknown
	// account is seen. When false, unknown accounts get ErrProfileNotFound.
	AutoProvision bool

	// Metrics receives reservation outcomes. Optional.
	Metrics *Metrics

	// Logger is used for reservation lifecycle logs.
	// Default: slog.Default()
	Logger *slog.Logger

	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Gate admits requests against an account's plan quota.
// It is safe for concurrent use.
type Gate struct {
	store         Store
	plans         *plans.Registry
	period        PeriodManager
	autoProvision bool
	metrics       *Metrics
	logger        *slog.Logger
	now           func() time.Time
}

// NewGate creates a Gate backed by store. If reg is nil the default plan
// table is used.
func NewGate(store Store, reg *plans.Registry, cfg GateConfig) *Gate {
	if reg == nil {
		reg = plans.MustRegistry()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Gate{
		store:         store,
		plans:         reg,
		period:        PeriodManager{Period: cfg.Period},
		autoProvision: cfg.AutoProvision,
		metrics:       cfg.Metrics,
		logger:        cfg.Logger.With("component", "quota.gate"),
		now:           cfg.Now,
	}
}

// Plans returns the registry used to resolve limits.
func (g *Gate) Plans() *plans.Registry {
	return g.plans
}

// Period returns the gate's billing period policy.
func (g *Gate) Period() PeriodManager {
	return g.period
}

// TryReserve atomically checks the account's remaining quota and reserves
// one unit. On success the returned Reservation must be resolved with
// Commit, Release, or Resolve. When the plan is exhausted the error is a
// *QuotaExceededError.
func (g *Gate) TryReserve(ctx context.Context, accountID string) (*Reservation, error) {
	if strings.TrimSpace(accountID) == "" {
		return nil, ErrInvalidAccount
	}

	req := ReserveRequest{
		AccountID: accountID,
		Now:       g.now(),
		Period:    g.period,
		Plans:     g.plans,
	}

	result, err := g.store.Reserve(ctx, req)
	if errors.Is(err, ErrProfileNotFound) && g.autoProvision {
		if err = g.provision(ctx, accountID, req.Now); err == nil {
			result, err = g.store.Reserve(ctx, req)
		}
	}
	if err != nil {
		if !errors.Is(err, ErrProfileNotFound) {
			g.metrics.recordStorageError("reserve")
		}
		return nil, err
	}

	if result.Reset {
		g.metrics.recordReset()
		g.logger.InfoContext(ctx, "billing period reset",
			"account_id", accountID,
			"period_start", result.Profile.PeriodStart,
		)
	}

	plan := result.Profile.Plan.String()
	if !result.Granted {
		g.metrics.recordOutcome(plan, OutcomeDenied)
		return nil, &QuotaExceededError{
			Plan:  result.Profile.Plan,
			Used:  result.Profile.ListingsUsed,
			Limit: result.Limit,
		}
	}

	g.metrics.recordOutcome(plan, OutcomeGranted)
	return &Reservation{
		AccountID:   accountID,
		Plan:        result.Profile.Plan,
		Used:        result.Profile.ListingsUsed,
		Limit:       result.Limit,
		PeriodStart: result.Profile.PeriodStart,
		gate:        g,
	}, nil
}

// Snapshot returns the account's current profile after applying any
// pending period reset.
func (g *Gate) Snapshot(ctx context.Context, accountID string) (Profile, error) {
	if strings.TrimSpace(accountID) == "" {
		return Profile{}, ErrInvalidAccount
	}

	now := g.now()
	p, reset, err := g.store.Snapshot(ctx, accountID, now, g.period)
	if errors.Is(err, ErrProfileNotFound) && g.autoProvision {
		if err = g.provision(ctx, accountID, now); err == nil {
			p, reset, err = g.store.Snapshot(ctx, accountID, now, g.period)
		}
	}
	if err != nil {
		if !errors.Is(err, ErrProfileNotFound) {
			g.metrics.recordStorageError("snapshot")
		}
		return Profile{}, err
	}

	if reset {
		g.metrics.recordReset()
		g.logger.InfoContext(ctx, "billing period reset",
			"account_id", accountID,
			"period_start", p.PeriodStart,
		)
	}
	return p, nil
}

func (g *Gate) provision(ctx context.Context, accountID string, now time.Time) error {
	err := g.store.Provision(ctx, Profile{
		AccountID:   accountID,
		Plan:        plans.TierFree,
		PeriodStart: now,
	})
	if err != nil {
		g.metrics.recordStorageError("provision")
		return fmt.Errorf("provision profile: %w", err)
	}
	g.logger.InfoContext(ctx, "provisioned usage profile", "account_id", accountID)
	return nil
}

const (
	reservationPending int32 = iota
	reservationCommitted
	reservationReleased
)

// Reservation is one granted unit of quota.
// Exactly one of Commit or Release takes effect; later calls are no-ops.
type Reservation struct {
	AccountID   string
	Plan        plans.Tier
	Used        int
	Limit       int
	PeriodStart time.Time

	gate  *Gate
	state atomic.Int32
}

// Remaining returns how many units are left in the period after this one.
func (r *Reservation) Remaining() int {
	if rem := r.Limit - r.Used; rem > 0 {
		return rem
	}
	return 0
}

// Commit finalizes the reservation. The unit was already counted by
// TryReserve, so committing only closes the lifecycle.
func (r *Reservation) Commit(ctx context.Context) error {
	if !r.state.CompareAndSwap(reservationPending, reservationCommitted) {
		return nil
	}
	r.gate.metrics.recordOutcome(r.Plan.String(), OutcomeCommitted)
	return nil
}

// Release returns the unit to the account. It runs even if ctx is already
// cancelled, so a disconnected caller cannot leak a reservation.
func (r *Reservation) Release(ctx context.Context) error {
	if !r.state.CompareAndSwap(reservationPending, reservationReleased) {
		return nil
	}

	ctx = context.WithoutCancel(ctx)
	if err := r.gate.store.Release(ctx, r.AccountID, r.PeriodStart); err != nil {
		r.gate.metrics.recordStorageError("release")
		r.gate.logger.ErrorContext(ctx, "failed to release reservation",
			"account_id", r.AccountID,
			"error", err,
		)
		return err
	}

	r.gate.metrics.recordOutcome(r.Plan.String(), OutcomeReleased)
	r.gate.logger.DebugContext(ctx, "reservation released", "account_id", r.AccountID)
	return nil
}

// Resolve commits when opErr is nil and releases otherwise.
func (r *Reservation) Resolve(ctx context.Context, opErr error) error {
	if opErr == nil {
		return r.Commit(ctx)
	}
	return r.Release(ctx)
}

// Pending reports whether the reservation is still unresolved.
func (r *Reservation) Pending() bool {
	return r.state.Load() == reservationPending
}
