package quota

import (
	"context"
	"errors"
	"fmt"
	"time"

	"listingforge/gateway/pkg/plans"
)

// Profile is the usage state of one account.
type Profile struct {
	// AccountID is the opaque, immutable account identifier.
	AccountID string

	// Plan is the account's subscription tier. It is changed by an external
	// billing process, never by this package.
	Plan plans.Tier

	// ListingsUsed counts generations admitted in the current period.
	ListingsUsed int

	// LeadsUsed counts leads captured in the current period.
	LeadsUsed int

	// PeriodStart marks the start of the current counting window.
	PeriodStart time.Time
}

// ReserveRequest is the input to Store.Reserve.
type ReserveRequest struct {
	AccountID string
	Now       time.Time
	Period    PeriodManager
	Plans     *plans.Registry
}

// ReserveResult is the outcome of Store.Reserve.
// Profile reflects the stored state after the operation.
type ReserveResult struct {
	Granted bool
	Limit   int
	Reset   bool
	Profile Profile
}

// Store persists profiles and implements the atomic reserve primitive.
type Store interface {
	// Reserve resets the period if it has elapsed and then increments
	// ListingsUsed by one if it is below the plan limit. Both steps happen
	// atomically with respect to other calls for the same account.
	Reserve(ctx context.Context, req ReserveRequest) (ReserveResult, error)

	// Release gives back one unit reserved in the period starting at
	// periodStart. It is a no-op if the period has since been reset or the
	// counter is already zero.
	Release(ctx context.Context, accountID string, periodStart time.Time) error

	// Snapshot applies a pending period reset, persists it, and returns the
	// resulting profile. The bool reports whether a reset occurred.
	Snapshot(ctx context.Context, accountID string, now time.Time, period PeriodManager) (Profile, bool, error)

	// Provision creates the profile if it does not exist yet.
	Provision(ctx context.Context, p Profile) error

	// Ping verifies the store is reachable.
	Ping(ctx context.Context) error

	// Close releases resources held by the store.
	Close() error
}

var (
	// ErrQuotaExceeded is returned when the account has used its whole
	// allowance for the current period.
	ErrQuotaExceeded = errors.New("quota exceeded")

	// ErrProfileNotFound is returned when no usage profile exists for the
	// account and auto-provisioning is disabled.
	ErrProfileNotFound = errors.New("profile not found")

	// ErrStorageFailure is returned when the store fails.
	ErrStorageFailure = errors.New("quota storage failure")

	// ErrInvalidAccount is returned for an empty account identifier.
	ErrInvalidAccount = errors.New("invalid account identifier")
)

// QuotaExceededError carries the data a caller needs to prompt an upgrade.
type QuotaExceededError struct {
	Plan  plans.Tier
	Used  int
	Limit int
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("quota exceeded: %d/%d listings used on plan %s", e.Used, e.Limit, e.Plan)
}

func (e *QuotaExceededError) Unwrap() error {
	return ErrQuotaExceeded
}

// StorageError wraps a failure from a Store with the failing operation.
type StorageError struct {
	Op        string
	AccountID string
	Err       error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("quota storage %s for %s: %v", e.Op, e.AccountID, e.Err)
}

func (e *StorageError) Unwrap() []error {
	return []error{ErrStorageFailure, e.Err}
}
