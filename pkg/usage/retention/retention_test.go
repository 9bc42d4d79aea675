package retention

import (
	"context"
	"errors"
	"testing"
	"time"

	"listingforge/gateway/pkg/usage"
	"listingforge/gateway/pkg/usage/storage"
)

var now = time.Date(2026, 6, 1, 3, 0, 0, 0, time.UTC)

func seed(t *testing.T, s usage.ListingStore, ages ...time.Duration) {
	t.Helper()
	for i, age := range ages {
		l := &usage.Listing{
			ID:        string(rune('a' + i)),
			AccountID: "acct",
			CreatedAt: now.Add(-age),
		}
		if err := s.Store(context.Background(), l); err != nil {
			t.Fatalf("Store() error = %v", err)
		}
	}
}

func TestPruner_Prune(t *testing.T) {
	day := 24 * time.Hour
	tests := []struct {
		name          string
		retentionDays int
		wantDeleted   int64
		wantRemaining int64
	}{
		{"keeps forever", 0, 0, 4},
		{"30 days", 30, 2, 2},
		{"7 days", 7, 3, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := storage.NewMemoryStorage()
			seed(t, s, time.Hour, 10*day, 31*day, 400*day)

			p := NewPruner(s, &Config{RetentionDays: tt.retentionDays})
			p.now = func() time.Time { return now }

			deleted, err := p.Prune(context.Background())
			if err != nil {
				t.Fatalf("Prune() error = %v", err)
			}
			if deleted != tt.wantDeleted {
				t.Errorf("deleted = %d, want %d", deleted, tt.wantDeleted)
			}
			if n, _ := s.Count(context.Background(), nil); n != tt.wantRemaining {
				t.Errorf("remaining = %d, want %d", n, tt.wantRemaining)
			}
		})
	}
}

type failingStore struct{ usage.ListingStore }

func (failingStore) Delete(context.Context, *usage.Query) (int64, error) {
	return 0, errors.New("locked")
}

func TestPruner_PruneError(t *testing.T) {
	p := NewPruner(failingStore{storage.NewMemoryStorage()}, &Config{RetentionDays: 1})

	_, err := p.Prune(context.Background())
	var re *usage.RetentionError
	if !errors.As(err, &re) || re.RetentionDays != 1 {
		t.Errorf("Prune() error = %v, want *RetentionError", err)
	}
}

func TestScheduler_Start(t *testing.T) {
	tests := []struct {
		name        string
		schedule    string
		wantRunning bool
		wantError   bool
	}{
		{"daily", "0 3 * * *", true, false},
		{"hourly", "0 * * * *", true, false},
		{"empty", "", false, false},
		{"invalid", "invalid cron", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPruner(storage.NewMemoryStorage(), &Config{
				RetentionDays: 90,
				PruneSchedule: tt.schedule,
			})

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			err := p.Start(ctx)
			if (err != nil) != tt.wantError {
				t.Errorf("Start() error = %v, wantError %v", err, tt.wantError)
			}
			if p.scheduler.IsRunning() != tt.wantRunning {
				t.Errorf("IsRunning() = %v, want %v", p.scheduler.IsRunning(), tt.wantRunning)
			}
			if tt.wantRunning && p.NextPruning() == nil {
				t.Error("NextPruning() returned nil for running scheduler")
			}

			p.Stop()
			if p.scheduler.IsRunning() {
				t.Error("scheduler still running after Stop()")
			}
		})
	}
}

func TestScheduler_StopsOnContextDone(t *testing.T) {
	p := NewPruner(storage.NewMemoryStorage(), &Config{RetentionDays: 1, PruneSchedule: "0 3 * * *"})

	ctx, cancel := context.WithCancel(context.Background())
	if err := p.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	cancel()

	deadline := time.Now().Add(2 * time.Second)
	for p.scheduler.IsRunning() {
		if time.Now().After(deadline) {
			t.Fatal("scheduler did not stop after context cancellation")
		}
		time.Sleep(10 * time.Millisecond)
	}
}
