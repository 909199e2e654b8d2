// Package store provides SQLite-backed persistence for mob timer state.
//
// The store keeps the latest State only; it is not an event log. Every
// Write replaces the roster and upserts each setting in one transaction,
// so a crash mid-write leaves the previous state intact.
//
// # Tables
//
//   - settings: key/value, value is JSON so nullable and list settings
//     round-trip without extra columns
//   - mobbers: one row per mobber, ordered by position (rotation order)
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Store implements state.Persister.
package store
