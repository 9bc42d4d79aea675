package storage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"listingforge/gateway/pkg/plans"
	"listingforge/gateway/pkg/quota"
)

// MemoryBackend implements quota.Store using in-memory storage.
// All data is lost when the process exits.
//
// Each account has its own mutex, held across reset, check, and increment,
// so reservations for one account are linearizable while different
// accounts never contend.
type MemoryBackend struct {
	mu       sync.RWMutex
	profiles map[string]*memoryEntry
}

type memoryEntry struct {
	mu      sync.Mutex
	profile quota.Profile
}

// NewMemoryBackend creates an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		profiles: make(map[string]*memoryEntry),
	}
}

func (m *MemoryBackend) entry(accountID string) (*memoryEntry, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.profiles[accountID]
	return e, ok
}

// Reserve implements quota.Store.
func (m *MemoryBackend) Reserve(ctx context.Context, req quota.ReserveRequest) (quota.ReserveResult, error) {
	if err := ctx.Err(); err != nil {
		return quota.ReserveResult{}, err
	}

	e, ok := m.entry(req.AccountID)
	if !ok {
		return quota.ReserveResult{}, quota.ErrProfileNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	p, reset := req.Period.MaybeReset(e.profile, req.Now)
	limit := req.Plans.LimitFor(p.Plan)

	result := quota.ReserveResult{Limit: limit, Reset: reset}
	if p.ListingsUsed < limit {
		p.ListingsUsed++
		result.Granted = true
	}

	e.profile = p
	result.Profile = p
	return result, nil
}

// Release implements quota.Store.
func (m *MemoryBackend) Release(ctx context.Context, accountID string, periodStart time.Time) error {
	e, ok := m.entry(accountID)
	if !ok {
		return quota.ErrProfileNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.profile.PeriodStart.Equal(periodStart) && e.profile.ListingsUsed > 0 {
		e.profile.ListingsUsed--
	}
	return nil
}

// Snapshot implements quota.Store.
func (m *MemoryBackend) Snapshot(ctx context.Context, accountID string, now time.Time, period quota.PeriodManager) (quota.Profile, bool, error) {
	e, ok := m.entry(accountID)
	if !ok {
		return quota.Profile{}, false, quota.ErrProfileNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	p, reset := period.MaybeReset(e.profile, now)
	e.profile = p
	return p, reset, nil
}

// Provision implements quota.Store.
func (m *MemoryBackend) Provision(ctx context.Context, p quota.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.profiles[p.AccountID]; !exists {
		m.profiles[p.AccountID] = &memoryEntry{profile: p}
	}
	return nil
}

// Put stores p, replacing any existing profile. It is meant for seeding and
// for the external billing process that changes plans.
func (m *MemoryBackend) Put(p quota.Profile) {
	m.mu.Lock()
	e, exists := m.profiles[p.AccountID]
	if !exists {
		m.profiles[p.AccountID] = &memoryEntry{profile: p}
		m.mu.Unlock()
		return
	}
	m.mu.Unlock()

	e.mu.Lock()
	e.profile = p
	e.mu.Unlock()
}

// SetPlan changes an account's tier without touching its counters.
func (m *MemoryBackend) SetPlan(ctx context.Context, accountID string, plan plans.Tier) error {
	if !plan.Valid() {
		return fmt.Errorf("unknown plan %q", plan)
	}
	e, ok := m.entry(accountID)
	if !ok {
		return quota.ErrProfileNotFound
	}
	e.mu.Lock()
	e.profile.Plan = plan
	e.mu.Unlock()
	return nil
}

// Get returns a copy of the stored profile without applying resets.
func (m *MemoryBackend) Get(accountID string) (quota.Profile, bool) {
	e, ok := m.entry(accountID)
	if !ok {
		return quota.Profile{}, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.profile, true
}

// Ping implements quota.Store.
func (m *MemoryBackend) Ping(ctx context.Context) error {
	return nil
}

// Close implements quota.Store.
func (m *MemoryBackend) Close() error {
	return nil
}
