// Package journal records bootstrap runs in a local SQLite database so an
// operator can see what each start did.
//
// The journal is an append-only log with:
//   - Runs: one row per bootstrap, keyed by a UUIDv7 run ID
//   - Entries: the steps of a run (connect attempts, repairs, seeds, errors)
//
// # Ordering
//
// Entries are ordered by seq, assigned by the writer. Wall-clock time is
// stored for display only. Runs list newest first by insertion order.
//
// # Idempotency
//
// BeginRun and Record use ON CONFLICT DO NOTHING. Writing the same run or the
// same (run_id, seq) twice leaves the first row in place.
//
// Journal failures never fail a bootstrap. Callers log them and move on.
package journal
