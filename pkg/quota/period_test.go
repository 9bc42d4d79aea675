package quota

import (
	"testing"
	"time"
)

func TestPeriodManager_MaybeReset(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	pm := PeriodManager{}

	tests := []struct {
		name      string
		now       time.Time
		wantReset bool
	}{
		{"same instant", start, false},
		{"one day later", start.Add(24 * time.Hour), false},
		{"one second before window", start.Add(DefaultPeriod - time.Second), false},
		{"exactly 30 days", start.Add(DefaultPeriod), true},
		{"45 days later", start.Add(45 * 24 * time.Hour), true},
		{"clock behind start", start.Add(-time.Hour), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Profile{AccountID: "a1", ListingsUsed: 4, LeadsUsed: 7, PeriodStart: start}
			got, reset := pm.MaybeReset(p, tt.now)

			if reset != tt.wantReset {
				t.Fatalf("reset = %v, want %v", reset, tt.wantReset)
			}
			if !reset {
				if got != p {
					t.Errorf("profile changed without reset: %+v", got)
				}
				return
			}
			if got.ListingsUsed != 0 || got.LeadsUsed != 0 {
				t.Errorf("counters not zeroed: %+v", got)
			}
			if !got.PeriodStart.Equal(tt.now) {
				t.Errorf("PeriodStart = %v, want %v", got.PeriodStart, tt.now)
			}
		})
	}
}

func TestPeriodManager_IdempotentWithinWindow(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	pm := PeriodManager{}
	now := start.Add(31 * 24 * time.Hour)

	p := Profile{ListingsUsed: 5, PeriodStart: start}
	first, reset := pm.MaybeReset(p, now)
	if !reset {
		t.Fatal("expected first call to reset")
	}

	first.ListingsUsed = 2
	second, reset := pm.MaybeReset(first, now.Add(time.Minute))
	if reset {
		t.Fatal("second call within the new window must not reset")
	}
	if second.ListingsUsed != 2 {
		t.Errorf("ListingsUsed = %d, want 2", second.ListingsUsed)
	}
}

func TestPeriodManager_ResetsOncePerElapsedWindow(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	pm := PeriodManager{Period: 24 * time.Hour}
	p := Profile{PeriodStart: start}

	resets := 0
	for h := 0; h <= 72; h++ {
		var reset bool
		p, reset = pm.MaybeReset(p, start.Add(time.Duration(h)*time.Hour))
		if reset {
			resets++
		}
	}
	if resets != 3 {
		t.Errorf("resets = %d, want 3", resets)
	}
}

func TestPeriodManager_ZeroStartIsExpired(t *testing.T) {
	now := time.Now()
	got, reset := PeriodManager{}.MaybeReset(Profile{ListingsUsed: 3}, now)
	if !reset {
		t.Fatal("expected reset for zero period start")
	}
	if !got.PeriodStart.Equal(now) || got.ListingsUsed != 0 {
		t.Errorf("unexpected profile %+v", got)
	}
}

func TestPeriodManager_NextReset(t *testing.T) {
	start := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	want := start.Add(30 * 24 * time.Hour)
	if got := (PeriodManager{}).NextReset(Profile{PeriodStart: start}); !got.Equal(want) {
		t.Errorf("NextReset = %v, want %v", got, want)
	}
}
