package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"listingforge/gateway/pkg/plans"
	"listingforge/gateway/pkg/quota"
)

// sqlQueries holds the dialect-specific statements shared by the SQL
// backends. Timestamps are stored as Unix nanoseconds in BIGINT columns so
// that the period start read back is exactly the one written.
type sqlQueries struct {
	selectProfile string
	resetProfile  string
	increment     string
	release       string
	provision     string
	setPlan       string
}

// sqlStore implements the quota.Store operations common to SQLite and
// PostgreSQL on top of database/sql.
type sqlStore struct {
	db *sql.DB
	q  sqlQueries

	// txOpts is passed to BeginTx for reserve and snapshot.
	txOpts *sql.TxOptions
}

type profileRow struct {
	plan         string
	listingsUsed int64
	leadsUsed    int64
	periodStart  int64
}

func (r profileRow) toProfile(accountID string) quota.Profile {
	p := quota.Profile{
		AccountID:    accountID,
		Plan:         plans.ParseTier(r.plan),
		ListingsUsed: int(r.listingsUsed),
		LeadsUsed:    int(r.leadsUsed),
	}
	if r.periodStart > 0 {
		p.PeriodStart = time.Unix(0, r.periodStart).UTC()
	}
	return p
}

func encodeTime(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

func (s *sqlStore) loadForUpdate(ctx context.Context, tx *sql.Tx, accountID string) (quota.Profile, error) {
	var row profileRow
	err := tx.QueryRowContext(ctx, s.q.selectProfile, accountID).
		Scan(&row.plan, &row.listingsUsed, &row.leadsUsed, &row.periodStart)
	if errors.Is(err, sql.ErrNoRows) {
		return quota.Profile{}, quota.ErrProfileNotFound
	}
	if err != nil {
		return quota.Profile{}, &quota.StorageError{Op: "load", AccountID: accountID, Err: err}
	}
	return row.toProfile(accountID), nil
}

// applyReset persists a period reset inside tx when one is due.
func (s *sqlStore) applyReset(ctx context.Context, tx *sql.Tx, p quota.Profile, now time.Time, period quota.PeriodManager) (quota.Profile, bool, error) {
	next, reset := period.MaybeReset(p, now)
	if !reset {
		return p, false, nil
	}

	ts := encodeTime(next.PeriodStart)
	if _, err := tx.ExecContext(ctx, s.q.resetProfile, ts, ts, p.AccountID); err != nil {
		return p, false, &quota.StorageError{Op: "reset", AccountID: p.AccountID, Err: err}
	}
	return next, true, nil
}

func (s *sqlStore) reserve(ctx context.Context, req quota.ReserveRequest) (result quota.ReserveResult, err error) {
	tx, err := s.db.BeginTx(ctx, s.txOpts)
	if err != nil {
		return result, &quota.StorageError{Op: "begin", AccountID: req.AccountID, Err: err}
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	p, err := s.loadForUpdate(ctx, tx, req.AccountID)
	if err != nil {
		return result, err
	}

	p, reset, err := s.applyReset(ctx, tx, p, req.Now, req.Period)
	if err != nil {
		return result, err
	}

	limit := req.Plans.LimitFor(p.Plan)
	result = quota.ReserveResult{Limit: limit, Reset: reset}

	if p.ListingsUsed < limit {
		res, execErr := tx.ExecContext(ctx, s.q.increment, encodeTime(req.Now), req.AccountID, limit)
		if execErr != nil {
			return result, &quota.StorageError{Op: "increment", AccountID: req.AccountID, Err: execErr}
		}
		n, execErr := res.RowsAffected()
		if execErr != nil {
			return result, &quota.StorageError{Op: "increment", AccountID: req.AccountID, Err: execErr}
		}
		if n == 1 {
			p.ListingsUsed++
			result.Granted = true
		} else {
			// Another writer filled the quota between our read and update.
			p.ListingsUsed = limit
		}
	}

	if err = tx.Commit(); err != nil {
		return result, &quota.StorageError{Op: "commit", AccountID: req.AccountID, Err: err}
	}

	result.Profile = p
	return result, nil
}

func (s *sqlStore) release(ctx context.Context, accountID string, periodStart time.Time) error {
	_, err := s.db.ExecContext(ctx, s.q.release, encodeTime(time.Now()), accountID, encodeTime(periodStart))
	if err != nil {
		return &quota.StorageError{Op: "release", AccountID: accountID, Err: err}
	}
	return nil
}

func (s *sqlStore) snapshot(ctx context.Context, accountID string, now time.Time, period quota.PeriodManager) (p quota.Profile, reset bool, err error) {
	tx, err := s.db.BeginTx(ctx, s.txOpts)
	if err != nil {
		return p, false, &quota.StorageError{Op: "begin", AccountID: accountID, Err: err}
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	p, err = s.loadForUpdate(ctx, tx, accountID)
	if err != nil {
		return p, false, err
	}

	p, reset, err = s.applyReset(ctx, tx, p, now, period)
	if err != nil {
		return p, false, err
	}

	if err = tx.Commit(); err != nil {
		return p, false, &quota.StorageError{Op: "commit", AccountID: accountID, Err: err}
	}
	return p, reset, nil
}

func (s *sqlStore) provision(ctx context.Context, p quota.Profile) error {
	if p.AccountID == "" {
		return quota.ErrInvalidAccount
	}
	plan := p.Plan
	if !plan.Valid() {
		plan = plans.TierFree
	}

	now := encodeTime(time.Now())
	start := encodeTime(p.PeriodStart)
	if start == 0 {
		start = now
	}

	_, err := s.db.ExecContext(ctx, s.q.provision,
		p.AccountID, string(plan), p.ListingsUsed, p.LeadsUsed, start, now)
	if err != nil {
		return &quota.StorageError{Op: "provision", AccountID: p.AccountID, Err: err}
	}
	return nil
}

func (s *sqlStore) setPlan(ctx context.Context, accountID string, plan plans.Tier) error {
	if !plan.Valid() {
		return fmt.Errorf("unknown plan %q", plan)
	}
	res, err := s.db.ExecContext(ctx, s.q.setPlan, string(plan), encodeTime(time.Now()), accountID)
	if err != nil {
		return &quota.StorageError{Op: "set_plan", AccountID: accountID, Err: err}
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return quota.ErrProfileNotFound
	}
	return nil
}

func (s *sqlStore) ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", quota.ErrStorageFailure, err)
	}
	return nil
}
