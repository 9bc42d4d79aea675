package storage

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"listingforge/gateway/pkg/plans"
	"listingforge/gateway/pkg/quota"
)

// RedisBackend implements quota.Store on Redis.
// Each profile is a hash. Reserve, Release, and Snapshot are Lua scripts,
// which Redis executes atomically, so the period reset and the conditional
// increment are a single server-side step.
type RedisBackend struct {
	rdb    redis.UniversalClient
	prefix string
}

// RedisOption configures a RedisBackend.
type RedisOption func(*RedisBackend)

// WithKeyPrefix sets the key namespace. Default: "listingforge:quota".
func WithKeyPrefix(prefix string) RedisOption {
	return func(b *RedisBackend) {
		b.prefix = strings.Trim(prefix, ":")
	}
}

// NewRedisBackend wraps an existing client.
func NewRedisBackend(rdb redis.UniversalClient, opts ...RedisOption) *RedisBackend {
	b := &RedisBackend{
		rdb:    rdb,
		prefix: "listingforge:quota",
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *RedisBackend) key(accountID string) string {
	return b.prefix + ":profile:" + accountID
}

// Profile hash fields: plan, listings_used, leads_used, period_start (unix ms).
//
// ARGV: now, period, then plan/limit pairs with the free plan first.
// Returns {granted, listings_used, limit, period_start, reset, leads_used, plan}
// or {-1} when the profile does not exist.
var reserveScript = redis.NewScript(`
local key = KEYS[1]
if redis.call('EXISTS', key) == 0 then
  return {-1}
end
local now = tonumber(ARGV[1])
local period = tonumber(ARGV[2])
local plan = redis.call('HGET', key, 'plan') or 'free'
local used = tonumber(redis.call('HGET', key, 'listings_used') or '0')
local leads = tonumber(redis.call('HGET', key, 'leads_used') or '0')
local start = tonumber(redis.call('HGET', key, 'period_start') or '0')
local reset = 0
if start == 0 or now - start >= period then
  used = 0
  leads = 0
  start = now
  reset = 1
  redis.call('HSET', key, 'listings_used', 0, 'leads_used', 0, 'period_start', now)
end
local limit = tonumber(ARGV[4])
for i = 3, #ARGV, 2 do
  if ARGV[i] == plan then
    limit = tonumber(ARGV[i + 1])
  end
end
local granted = 0
if used < limit then
  used = redis.call('HINCRBY', key, 'listings_used', 1)
  granted = 1
end
return {granted, used, limit, start, reset, leads, plan}
`)

var releaseScript = redis.NewScript(`
local key = KEYS[1]
local start = redis.call('HGET', key, 'period_start')
if not start or start ~= ARGV[1] then
  return 0
end
local used = tonumber(redis.call('HGET', key, 'listings_used') or '0')
if used <= 0 then
  return 0
end
redis.call('HINCRBY', key, 'listings_used', -1)
return 1
`)

// Returns {listings_used, leads_used, period_start, reset, plan} or {-1}.
var snapshotScript = redis.NewScript(`
local key = KEYS[1]
if redis.call('EXISTS', key) == 0 then
  return {-1}
end
local now = tonumber(ARGV[1])
local period = tonumber(ARGV[2])
local plan = redis.call('HGET', key, 'plan') or 'free'
local used = tonumber(redis.call('HGET', key, 'listings_used') or '0')
local leads = tonumber(redis.call('HGET', key, 'leads_used') or '0')
local start = tonumber(redis.call('HGET', key, 'period_start') or '0')
local reset = 0
if start == 0 or now - start >= period then
  used = 0
  leads = 0
  start = now
  reset = 1
  redis.call('HSET', key, 'listings_used', 0, 'leads_used', 0, 'period_start', now)
end
return {used, leads, start, reset, plan}
`)

var provisionScript = redis.NewScript(`
local key = KEYS[1]
if redis.call('EXISTS', key) == 1 then
  return 0
end
redis.call('HSET', key, 'plan', ARGV[1], 'listings_used', ARGV[2], 'leads_used', ARGV[3], 'period_start', ARGV[4])
return 1
`)

// reserveArgs builds the script arguments. Redis timestamps use
// milliseconds, and the period start read back is exactly the one stored.
func reserveArgs(now time.Time, period quota.PeriodManager, reg *plans.Registry) []interface{} {
	args := []interface{}{now.UnixMilli(), period.Length().Milliseconds()}
	for _, p := range reg.All() {
		args = append(args, string(p.Tier), p.Limits.Listings)
	}
	return args
}

// Reserve implements quota.Store.
func (b *RedisBackend) Reserve(ctx context.Context, req quota.ReserveRequest) (quota.ReserveResult, error) {
	vals, err := reserveScript.Run(ctx, b.rdb, []string{b.key(req.AccountID)},
		reserveArgs(req.Now, req.Period, req.Plans)...).Slice()
	if err != nil {
		return quota.ReserveResult{}, &quota.StorageError{Op: "reserve", AccountID: req.AccountID, Err: err}
	}
	if len(vals) == 1 {
		return quota.ReserveResult{}, quota.ErrProfileNotFound
	}
	if len(vals) != 7 {
		return quota.ReserveResult{}, &quota.StorageError{
			Op: "reserve", AccountID: req.AccountID,
			Err: fmt.Errorf("unexpected script result length %d", len(vals)),
		}
	}

	ints, err := scriptInts(vals[:6])
	if err != nil {
		return quota.ReserveResult{}, &quota.StorageError{Op: "reserve", AccountID: req.AccountID, Err: err}
	}
	plan, _ := vals[6].(string)

	return quota.ReserveResult{
		Granted: ints[0] == 1,
		Limit:   int(ints[2]),
		Reset:   ints[4] == 1,
		Profile: quota.Profile{
			AccountID:    req.AccountID,
			Plan:         plans.ParseTier(plan),
			ListingsUsed: int(ints[1]),
			LeadsUsed:    int(ints[5]),
			PeriodStart:  time.UnixMilli(ints[3]).UTC(),
		},
	}, nil
}

// Release implements quota.Store.
func (b *RedisBackend) Release(ctx context.Context, accountID string, periodStart time.Time) error {
	start := strconv.FormatInt(periodStart.UnixMilli(), 10)
	if err := releaseScript.Run(ctx, b.rdb, []string{b.key(accountID)}, start).Err(); err != nil {
		return &quota.StorageError{Op: "release", AccountID: accountID, Err: err}
	}
	return nil
}

// Snapshot implements quota.Store.
func (b *RedisBackend) Snapshot(ctx context.Context, accountID string, now time.Time, period quota.PeriodManager) (quota.Profile, bool, error) {
	vals, err := snapshotScript.Run(ctx, b.rdb, []string{b.key(accountID)},
		now.UnixMilli(), period.Length().Milliseconds()).Slice()
	if err != nil {
		return quota.Profile{}, false, &quota.StorageError{Op: "snapshot", AccountID: accountID, Err: err}
	}
	if len(vals) == 1 {
		return quota.Profile{}, false, quota.ErrProfileNotFound
	}
	if len(vals) != 5 {
		return quota.Profile{}, false, &quota.StorageError{
			Op: "snapshot", AccountID: accountID,
			Err: fmt.Errorf("unexpected script result length %d", len(vals)),
		}
	}

	ints, err := scriptInts(vals[:4])
	if err != nil {
		return quota.Profile{}, false, &quota.StorageError{Op: "snapshot", AccountID: accountID, Err: err}
	}
	plan, _ := vals[4].(string)

	return quota.Profile{
		AccountID:    accountID,
		Plan:         plans.ParseTier(plan),
		ListingsUsed: int(ints[0]),
		LeadsUsed:    int(ints[1]),
		PeriodStart:  time.UnixMilli(ints[2]).UTC(),
	}, ints[3] == 1, nil
}

// Provision implements quota.Store.
func (b *RedisBackend) Provision(ctx context.Context, p quota.Profile) error {
	if p.AccountID == "" {
		return quota.ErrInvalidAccount
	}
	plan := p.Plan
	if !plan.Valid() {
		plan = plans.TierFree
	}
	start := p.PeriodStart
	if start.IsZero() {
		start = time.Now()
	}

	err := provisionScript.Run(ctx, b.rdb, []string{b.key(p.AccountID)},
		string(plan), p.ListingsUsed, p.LeadsUsed, start.UnixMilli()).Err()
	if err != nil && !errors.Is(err, redis.Nil) {
		return &quota.StorageError{Op: "provision", AccountID: p.AccountID, Err: err}
	}
	return nil
}

// SetPlan changes an account's tier without touching its counters.
func (b *RedisBackend) SetPlan(ctx context.Context, accountID string, plan plans.Tier) error {
	if !plan.Valid() {
		return fmt.Errorf("unknown plan %q", plan)
	}
	n, err := b.rdb.Exists(ctx, b.key(accountID)).Result()
	if err != nil {
		return &quota.StorageError{Op: "set_plan", AccountID: accountID, Err: err}
	}
	if n == 0 {
		return quota.ErrProfileNotFound
	}
	return b.rdb.HSet(ctx, b.key(accountID), "plan", string(plan)).Err()
}

// Ping implements quota.Store.
func (b *RedisBackend) Ping(ctx context.Context) error {
	if err := b.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", quota.ErrStorageFailure, err)
	}
	return nil
}

// Close closes the underlying client.
func (b *RedisBackend) Close() error {
	return b.rdb.Close()
}

func scriptInts(vals []interface{}) ([]int64, error) {
	out := make([]int64, len(vals))
	for i, v := range vals {
		n, ok := v.(int64)
		if !ok {
			return nil, fmt.Errorf("script result %d: unexpected type %T", i, v)
		}
		out[i] = n
	}
	return out, nil
}
