// Package quota enforces per-plan listing quotas.
//
// The package has three parts:
//
//   - PeriodManager decides when an account's 30-day billing window has
//     elapsed and its counters must be reset.
//   - Gate atomically checks the remaining quota and reserves one unit of
//     usage. The check and the increment are a single storage operation, so
//     concurrent requests for the same account can never be admitted past the
//     plan limit.
//   - Reservation tracks a granted unit until it is committed (the
//     generation succeeded) or released (the generation failed).
//
// Storage is pluggable through the Store interface. Implementations live in
// the storage subpackage and must apply the period reset and the conditional
// increment inside one critical section, transaction, or script.
//
// Basic usage:
//
//	gate := quota.NewGate(store, registry, quota.GateConfig{})
//	res, err := gate.TryReserve(ctx, accountID)
//	if err != nil {
//	    return err // *QuotaExceededError when the plan is exhausted
//	}
//	defer res.Resolve(ctx, genErr)
package quota
