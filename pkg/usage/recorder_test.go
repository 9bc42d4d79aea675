package usage

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"listingforge/gateway/pkg/plans"
	"listingforge/gateway/pkg/providers"
	"listingforge/gateway/pkg/quota"
	quotastore "listingforge/gateway/pkg/quota/storage"
	"listingforge/gateway/pkg/sanitizer"
)

// fakeStore records listings in order and can be told to fail.
type fakeStore struct {
	mu       sync.Mutex
	listings []*Listing
	err      error
	ctxErr   error
}

func (f *fakeStore) Store(ctx context.Context, l *Listing) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ctxErr = ctx.Err()
	if f.err != nil {
		return f.err
	}
	f.listings = append(f.listings, l)
	return nil
}

func (f *fakeStore) List(ctx context.Context, q *Query) ([]*Listing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	var out []*Listing
	for i := len(f.listings) - 1; i >= 0; i-- {
		if q.AccountID != "" && f.listings[i].AccountID != q.AccountID {
			continue
		}
		out = append(out, f.listings[i])
		if q.Limit > 0 && len(out) == q.Limit {
			break
		}
	}
	return out, nil
}

func (f *fakeStore) Delete(ctx context.Context, q *Query) (int64, error) { return 0, nil }
func (f *fakeStore) Count(ctx context.Context, q *Query) (int64, error) {
	return int64(len(f.listings)), nil
}
func (f *fakeStore) Close() error { return nil }

var testNow = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

func reserve(t *testing.T, used int) (*quota.Reservation, *quotastore.MemoryBackend) {
	t.Helper()
	backend := quotastore.NewMemoryBackend()
	backend.Put(quota.Profile{
		AccountID:    "acct-1",
		Plan:         plans.TierBasic,
		ListingsUsed: used,
		PeriodStart:  testNow.Add(-24 * time.Hour),
	})

	gate := quota.NewGate(backend, plans.MustRegistry(), quota.GateConfig{
		Now: func() time.Time { return testNow },
	})
	res, err := gate.TryReserve(context.Background(), "acct-1")
	if err != nil {
		t.Fatalf("TryReserve() error = %v", err)
	}
	return res, backend
}

func testContent() sanitizer.Content {
	return sanitizer.Content{
		MLS:   "Casa luminosa",
		Posts: []string{"a", "b", "c"},
		Email: "Hola",
		Video: "Toma 1",
	}
}

func newTestRecorder(store ListingStore, metrics *Metrics) *Recorder {
	r := NewRecorder(store, nil, metrics)
	r.now = func() time.Time { return testNow }
	r.newID = func() string { return "listing-1" }
	return r
}

func TestRecorder_Commit(t *testing.T) {
	store := &fakeStore{}
	metrics := NewMetrics(prometheus.NewRegistry())
	rec := newTestRecorder(store, metrics)
	res, backend := reserve(t, 10)

	in := &providers.GenerationRequest{Address: "Calle 1", Price: "100", PropertyType: "loft", Tone: plans.ToneLuxury}
	listing, err := rec.Commit(context.Background(), res, in, testContent(), WithRequestID("req-9"), WithFallback(true))
	if err != nil {
		t.Fatalf("Commit() error = %v", err)
	}

	if res.Pending() {
		t.Error("reservation still pending after Commit")
	}
	if p, _ := backend.Get("acct-1"); p.ListingsUsed != 11 {
		t.Errorf("ListingsUsed = %d, want 11", p.ListingsUsed)
	}

	want := Listing{
		ID:           "listing-1",
		AccountID:    "acct-1",
		RequestID:    "req-9",
		Address:      "Calle 1",
		Price:        "100",
		PropertyType: "loft",
		Tone:         "lujoso",
		Plan:         "basic",
		Fallback:     true,
		CreatedAt:    testNow,
	}
	got := *listing
	got.Content = sanitizer.Content{}
	got.ContentHash = ""
	if got.ID != want.ID || got.AccountID != want.AccountID || got.RequestID != want.RequestID ||
		got.Tone != want.Tone || got.Plan != want.Plan || !got.Fallback || !got.CreatedAt.Equal(testNow) {
		t.Errorf("listing = %+v, want %+v", got, want)
	}
	if listing.ContentHash != HashContent(testContent()) || len(listing.ContentHash) != 64 {
		t.Errorf("ContentHash = %q", listing.ContentHash)
	}
	if len(store.listings) != 1 {
		t.Fatalf("stored %d listings, want 1", len(store.listings))
	}

	if v := testutil.ToFloat64(metrics.recorded); v != 1 {
		t.Errorf("recorded = %v, want 1", v)
	}
	if v := testutil.ToFloat64(metrics.fallbacks); v != 1 {
		t.Errorf("fallbacks = %v, want 1", v)
	}
}

func TestRecorder_CommitDefaultsTone(t *testing.T) {
	store := &fakeStore{}
	rec := newTestRecorder(store, nil)
	res, _ := reserve(t, 0)

	listing, err := rec.Commit(context.Background(), res, &providers.GenerationRequest{Address: "a", Price: "1"}, testContent())
	if err != nil {
		t.Fatalf("Commit() error = %v", err)
	}
	if listing.Tone != "profesional" {
		t.Errorf("Tone = %q", listing.Tone)
	}
}

func TestRecorder_PersistenceFailureKeepsCharge(t *testing.T) {
	store := &fakeStore{err: errors.New("disk full")}
	metrics := NewMetrics(prometheus.NewRegistry())
	rec := newTestRecorder(store, metrics)
	res, backend := reserve(t, 49)

	listing, err := rec.Commit(context.Background(), res, &providers.GenerationRequest{Address: "a", Price: "1"}, testContent())

	var pe *PersistenceError
	if !errors.As(err, &pe) {
		t.Fatalf("error = %v, want *PersistenceError", err)
	}
	if !errors.Is(err, ErrPersistence) {
		t.Error("error does not wrap ErrPersistence")
	}
	if pe.AccountID != "acct-1" || pe.ListingID != "listing-1" {
		t.Errorf("PersistenceError = %+v", pe)
	}
	if listing == nil || listing.Content.MLS != "Casa luminosa" {
		t.Error("listing content should be returned on persistence failure")
	}

	// The unit stays charged and a later Release is a no-op.
	if err := res.Release(context.Background()); err != nil {
		t.Fatalf("Release() error = %v", err)
	}
	if p, _ := backend.Get("acct-1"); p.ListingsUsed != 50 {
		t.Errorf("ListingsUsed = %d, want 50", p.ListingsUsed)
	}

	if v := testutil.ToFloat64(metrics.persistenceFailures); v != 1 {
		t.Errorf("persistence failures = %v, want 1", v)
	}
}

func TestRecorder_WriteSurvivesCallerCancel(t *testing.T) {
	store := &fakeStore{}
	rec := newTestRecorder(store, nil)
	res, _ := reserve(t, 0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := rec.Commit(ctx, res, &providers.GenerationRequest{Address: "a", Price: "1"}, testContent()); err != nil {
		t.Fatalf("Commit() error = %v", err)
	}
	if store.ctxErr != nil {
		t.Errorf("store saw cancelled context: %v", store.ctxErr)
	}
}

func TestRecorder_CommitNilReservation(t *testing.T) {
	rec := newTestRecorder(&fakeStore{}, nil)
	if _, err := rec.Commit(context.Background(), nil, &providers.GenerationRequest{}, testContent()); err == nil {
		t.Error("expected error for nil reservation")
	}
}

func TestRecorder_History(t *testing.T) {
	store := &fakeStore{}
	for i, acct := range []string{"a", "b", "a", "a"} {
		store.listings = append(store.listings, &Listing{ID: string(rune('0' + i)), AccountID: acct})
	}
	rec := NewRecorder(store, &Config{HistoryLimit: 2}, nil)

	tests := []struct {
		name    string
		limit   int
		wantIDs []string
	}{
		{"default limit", 0, []string{"3", "2"}},
		{"clamped", 50, []string{"3", "2"}},
		{"explicit", 1, []string{"3"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := rec.History(context.Background(), "a", tt.limit)
			if err != nil {
				t.Fatalf("History() error = %v", err)
			}
			if len(got) != len(tt.wantIDs) {
				t.Fatalf("History() returned %d listings, want %d", len(got), len(tt.wantIDs))
			}
			for i, id := range tt.wantIDs {
				if got[i].ID != id {
					t.Errorf("listing[%d].ID = %q, want %q", i, got[i].ID, id)
				}
			}
		})
	}

	if _, err := rec.History(context.Background(), "", 1); err == nil {
		t.Error("expected error for empty account id")
	}
}
