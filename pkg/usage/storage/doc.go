// Package storage provides ListingStore backends.
//
// MemoryStorage keeps listings in a map and suits tests and single-process
// development. SQLiteStorage persists listings with mattn/go-sqlite3 in WAL
// mode.
//
// Both backends return listings newest first and copy records on the way
// in and out so callers cannot mutate stored state.
package storage
