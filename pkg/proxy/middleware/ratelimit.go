package middleware

import (
	"context"
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"listingforge/gateway/pkg/proxy/types"
	"listingforge/gateway/pkg/security/auth"
)

// LimiterStore keeps one token bucket per key and forgets idle keys.
// It paces bursts of requests; monthly quota is enforced separately.
type LimiterStore struct {
	mu           sync.Mutex
	entries      map[string]*limiterEntry
	rps          rate.Limit
	burst        int
	idleTTL      time.Duration
	cleanupEvery time.Duration
	now          func() time.Time
}

type limiterEntry struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// LimiterOption configures a LimiterStore.
type LimiterOption func(*LimiterStore)

// WithIdleTTL sets how long an unused key is kept. Default: 15 minutes.
func WithIdleTTL(d time.Duration) LimiterOption {
	return func(s *LimiterStore) { s.idleTTL = d }
}

// WithCleanupEvery sets the janitor interval. Default: 2 minutes.
func WithCleanupEvery(d time.Duration) LimiterOption {
	return func(s *LimiterStore) { s.cleanupEvery = d }
}

// NewLimiterStore creates a store allowing rps requests per second with
// the given burst for each key.
func NewLimiterStore(rps float64, burst int, opts ...LimiterOption) *LimiterStore {
	s := &LimiterStore{
		entries:      make(map[string]*limiterEntry),
		rps:          rate.Limit(rps),
		burst:        burst,
		idleTTL:      15 * time.Minute,
		cleanupEvery: 2 * time.Minute,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the limiter for key, creating it on first use.
func (s *LimiterStore) Get(key string) *rate.Limiter {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if ent, ok := s.entries[key]; ok {
		ent.lastSeen = now
		return ent.lim
	}

	lim := rate.NewLimiter(s.rps, s.burst)
	s.entries[key] = &limiterEntry{lim: lim, lastSeen: now}
	return lim
}

// SetRate changes the rate and burst of every current and future limiter.
// It is used on configuration reload.
func (s *LimiterStore) SetRate(rps float64, burst int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rps = rate.Limit(rps)
	s.burst = burst
	now := s.now()
	for _, ent := range s.entries {
		ent.lim.SetLimitAt(now, s.rps)
		ent.lim.SetBurstAt(now, burst)
	}
}

// Len returns the number of tracked keys.
func (s *LimiterStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Cleanup drops keys idle for longer than the idle TTL.
func (s *LimiterStore) Cleanup() {
	cutoff := s.now().Add(-s.idleTTL)

	s.mu.Lock()
	defer s.mu.Unlock()

	for k, ent := range s.entries {
		if ent.lastSeen.Before(cutoff) {
			delete(s.entries, k)
		}
	}
}

// StartJanitor runs Cleanup periodically until ctx is done.
func (s *LimiterStore) StartJanitor(ctx context.Context) {
	if s.cleanupEvery <= 0 {
		return
	}

	t := time.NewTicker(s.cleanupEvery)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				s.Cleanup()
			}
		}
	}()
}

// RateLimitMiddleware answers 429 with Retry-After when the caller's
// bucket is empty. Callers are keyed by authenticated account, or by
// client IP on unauthenticated routes.
//
// Example usage:
//
//	store := NewLimiterStore(1, 5)
//	handler = RateLimitMiddleware(store)(handler)
func RateLimitMiddleware(store *LimiterStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if store == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			now := store.now()
			res := store.Get(rateLimitKey(r)).ReserveN(now, 1)

			if delay := res.DelayFrom(now); !res.OK() || delay > 0 {
				res.CancelAt(now)

				retryAfter := 1
				if res.OK() {
					retryAfter = int(math.Ceil(delay.Seconds()))
				}
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_ = writeJSON(w, types.NewTooManyRequestsError())
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func rateLimitKey(r *http.Request) string {
	if id := auth.AccountID(r.Context()); id != "" {
		return "account:" + id
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil || host == "" {
		host = r.RemoteAddr
	}
	return "ip:" + host
}
