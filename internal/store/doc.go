// Package store provides SQLite-backed durable storage for finalized history.
//
// The store is an append-only log of two tables:
//   - history_entries: one row per changed entity and pass
//   - history_attributes: the attribute changes of an entry, in order
//
// # Idempotency
//
// Entries are keyed by their generated id. Writing the same entry twice is a
// no-op, so a caller can retry a failed batch without duplicating rows.
//
// # Deterministic Query Results
//
// Reads order entries by seq, the insertion order, and attributes by their
// position within the entry. Wall-clock timestamps are stored but never used
// for ordering.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
