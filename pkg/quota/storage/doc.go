// Package storage provides quota.Store implementations.
//
// Available backends:
//
//   - MemoryBackend: in-process map with a mutex per account. Fast, not
//     persistent, single instance only.
//   - SQLiteBackend: durable single-node storage using modernc.org/sqlite.
//   - PostgresBackend: shared storage using lib/pq. Reservations lock the
//     profile row with SELECT ... FOR UPDATE.
//   - RedisBackend: shared storage using a Lua script so that reset, check,
//     and increment run as one atomic server-side step.
//
// Every backend applies the billing-period reset in the same atomic step as
// the reservation, so a stale counter is never evaluated.
package storage
