package health

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// Probe status values.
const (
	StatusOK        = "ok"
	StatusReady     = "ready"
	StatusNotReady  = "not_ready"
	StatusUnhealthy = "unhealthy"
)

// CheckFunc performs a health check for a component.
// It returns nil if the component is healthy.
type CheckFunc func(ctx context.Context) error

// CheckResult is the outcome of a single check.
type CheckResult struct {
	// Status is "ok" or "unhealthy".
	Status string `json:"status"`

	// Message is a generic description of the failure.
	Message string `json:"message,omitempty"`

	// DurationMS is how long the check took in milliseconds.
	DurationMS float64 `json:"duration_ms"`
}

// HealthStatus is the body of a probe response.
type HealthStatus struct {
	// Status is "ok" for liveness, "ready" or "not_ready" for readiness.
	Status string `json:"status"`

	// Checks holds the result of each registered check.
	Checks map[string]CheckResult `json:"checks,omitempty"`

	// Configured reports which configuration pieces are present.
	Configured map[string]bool `json:"configured,omitempty"`

	// Timestamp is when the probe ran.
	Timestamp time.Time `json:"timestamp"`
}

// Checker runs the readiness checks of the process components.
type Checker struct {
	mu         sync.RWMutex
	checks     map[string]CheckFunc
	configured map[string]bool

	checkTimeout time.Duration
	logger       *slog.Logger
	now          func() time.Time
}

var (
	// ErrCheckTimeout is reported when a check does not finish in time.
	ErrCheckTimeout = errors.New("health check timeout")
)

// New creates a checker with the given per-check timeout.
// If timeout is 0, defaults to 5 seconds per check.
func New(checkTimeout time.Duration) *Checker {
	if checkTimeout <= 0 {
		checkTimeout = 5 * time.Second
	}

	return &Checker{
		checks:       make(map[string]CheckFunc),
		configured:   make(map[string]bool),
		checkTimeout: checkTimeout,
		logger:       slog.Default().With("component", "health"),
		now:          time.Now,
	}
}

// RegisterCheck registers check under name, replacing any previous one.
func (c *Checker) RegisterCheck(name string, check CheckFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.checks[name] = check
}

// SetConfigured records whether the named configuration piece is present.
// A missing piece makes the process not ready.
func (c *Checker) SetConfigured(name string, present bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.configured[name] = present
}

// CheckLiveness reports that the process is alive.
func (c *Checker) CheckLiveness(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    StatusOK,
		Timestamp: c.now().UTC(),
	}
}

// CheckReadiness runs all registered checks concurrently and aggregates
// them with the configuration report.
func (c *Checker) CheckReadiness(ctx context.Context) HealthStatus {
	c.mu.RLock()
	checks := make(map[string]CheckFunc, len(c.checks))
	for name, check := range c.checks {
		checks[name] = check
	}
	configured := make(map[string]bool, len(c.configured))
	for name, present := range c.configured {
		configured[name] = present
	}
	c.mu.RUnlock()

	results := make(map[string]CheckResult, len(checks))
	var resultMu sync.Mutex
	var wg sync.WaitGroup

	for name, check := range checks {
		wg.Add(1)
		go func(name string, check CheckFunc) {
			defer wg.Done()

			result := c.runCheck(ctx, name, check)

			resultMu.Lock()
			results[name] = result
			resultMu.Unlock()
		}(name, check)
	}
	wg.Wait()

	status := StatusReady
	for _, result := range results {
		if result.Status != StatusOK {
			status = StatusNotReady
		}
	}
	for _, present := range configured {
		if !present {
			status = StatusNotReady
		}
	}

	return HealthStatus{
		Status:     status,
		Checks:     results,
		Configured: configured,
		Timestamp:  c.now().UTC(),
	}
}

// runCheck executes one check under the checker timeout. Failure details
// are logged, not returned, since they may carry hosts or credentials.
func (c *Checker) runCheck(ctx context.Context, name string, check CheckFunc) CheckResult {
	checkCtx, cancel := context.WithTimeout(ctx, c.checkTimeout)
	defer cancel()

	start := time.Now()

	errChan := make(chan error, 1)
	go func() {
		errChan <- check(checkCtx)
	}()

	var err error
	select {
	case err = <-errChan:
	case <-checkCtx.Done():
		err = ErrCheckTimeout
	}
	elapsed := float64(time.Since(start).Microseconds()) / 1000

	if err != nil {
		c.logger.WarnContext(ctx, "readiness check failed", "check", name, "error", err)
		message := "unavailable"
		if errors.Is(err, ErrCheckTimeout) {
			message = "timeout"
		}
		return CheckResult{Status: StatusUnhealthy, Message: message, DurationMS: elapsed}
	}
	return CheckResult{Status: StatusOK, DurationMS: elapsed}
}

// ListChecks returns the names of all registered checks.
func (c *Checker) ListChecks() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.checks))
	for name := range c.checks {
		names = append(names, name)
	}
	return names
}
