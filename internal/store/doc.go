// Package store provides a SQLite-backed journal of edit log events.
//
// The journal is append-only and records what happened to the edit log,
// not the application state itself:
//   - Sessions: one per run of the application or a script
//   - Edit events: committed, undone, redone, discarded, cleared
//
// Closures and task data are never persisted. Undo history does not
// survive a restart; the journal exists for audit and for the history
// command.
//
// # Ordering
//
// All queries order by seq ASC, id ASC. seq is the edit log's logical
// clock, so results are identical across runs regardless of wall time.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
