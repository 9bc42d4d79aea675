// Package usage finalizes metered generations.
//
// A Recorder takes a granted quota reservation together with the content
// produced for it, commits the reservation, and persists the generated
// listing through a ListingStore. Committing happens first so that a
// listing the user already received is always counted, even when the
// listing itself cannot be stored.
//
// # Persistence failures
//
// When the store rejects a listing, Commit returns a *PersistenceError that
// wraps ErrPersistence. The unit stays charged. Handlers answer 500 and
// still include the generated content, and the failure is counted in
// listingforge_usage_persistence_failures_total so operators can reconcile.
//
// # Storage backends
//
// Listing stores live in the storage subpackage (memory and SQLite).
// The retention subpackage prunes old listings on a cron schedule.
package usage
