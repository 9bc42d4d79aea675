package quota

import "time"

// DefaultPeriod is the length of a billing period.
const DefaultPeriod = 30 * 24 * time.Hour

// PeriodManager decides whether a profile's counting window has expired.
// The zero value uses DefaultPeriod.
type PeriodManager struct {
	Period time.Duration
}

// Length returns the configured period, defaulting to DefaultPeriod.
func (m PeriodManager) Length() time.Duration {
	if m.Period <= 0 {
		return DefaultPeriod
	}
	return m.Period
}

// Expired reports whether the window starting at p.PeriodStart has elapsed.
// A profile that never had a period start is treated as expired.
func (m PeriodManager) Expired(p Profile, now time.Time) bool {
	if p.PeriodStart.IsZero() {
		return true
	}
	return now.Sub(p.PeriodStart) >= m.Length()
}

// MaybeReset returns the profile with its counters zeroed and its period
// restarted at now when the window has elapsed. Otherwise p is returned
// unchanged. A clock reading earlier than PeriodStart is never expired, so
// PeriodStart only moves forward.
func (m PeriodManager) MaybeReset(p Profile, now time.Time) (Profile, bool) {
	if !m.Expired(p, now) {
		return p, false
	}

	p.ListingsUsed = 0
	p.LeadsUsed = 0
	p.PeriodStart = now
	return p, true
}

// NextReset returns when the current window of p ends.
func (m PeriodManager) NextReset(p Profile) time.Time {
	return p.PeriodStart.Add(m.Length())
}
