// Package store provides a SQLite journal of sync runs.
//
// A run is one execution of a scenario (or of any engine session the CLI
// records). Each run stores the ordered SyncSteps the engine produced and
// the trace digest computed over them, so a stored run can be re-verified
// later.
//
// # Patterns
//
// Logical ordering:
//   - Steps are ordered by their seq column, never by wall time
//   - Runs are ordered by a journal-wide seq assigned on insert
//
// Idempotent writes:
//   - UNIQUE(run_id, seq) with ON CONFLICT DO NOTHING
//   - Writing the same run twice leaves one copy
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability and speed
//   - busy_timeout=5000: wait on lock contention
//   - foreign_keys=ON: steps reference their run
//   - single open connection: one writer at a time
package store
