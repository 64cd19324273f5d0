// Package store provides the SQLite run ledger.
//
// Every sync run records:
//   - Runs: one row per (country, run type) execution with start, finish
//     and final status
//   - Operations: one row per classified record, carrying the action taken,
//     the canonical payload, its hash and the submission outcome
//
// Reports are derived from the ledger rather than from console output, so a
// past run can be re-read with `hrsync report`.
//
// # Ordering
//
// Operations are ordered by seq (insertion order within the ledger). Reads
// always include ORDER BY so reports render identically on every read.
//
// # Idempotency
//
// An operation is identified by (run_id, kind, action, employee_id,
// target_id, payload_hash). Re-writing the same operation is a no-op via
// ON CONFLICT DO NOTHING.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
