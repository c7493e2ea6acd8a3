// Package edit implements the undo/redo transaction core of the scheduler.
//
// Every mutation of application state that should be undoable is wrapped in
// a Record: a forward Action plus a reverse Action attached while the
// mutation runs. Records are committed to a Log, which keeps an undo stack
// and a redo stack and replays the stored actions on Undo and Redo.
//
// ARCHITECTURE:
//
// Explicit Log Context:
// There is no process-wide log. Each document (or test) creates its own *Log
// with New() and passes it to the managers that mutate its state.
//
// Registration Protocol:
// Three equivalent ways to produce a record, all built on the same
// BeginRegistration/EndRegistration pair:
//   - Tx: explicit builder. log.Begin(name, forward) → tx.Run() →
//     tx.Commit(inverse) or tx.Discard().
//   - Op: decorator. log.Register(name, fn) wraps fn so that every Call
//     becomes one record; fn receives the *Tx and attaches the inverse.
//   - Apply: log.Apply(edit, args) runs an Edit (Simple, Composite, or a
//     container edit) and commits it with the inverse the edit derived.
//
// Re-entrancy:
// The log is locked while a registration scope is open and while an undo or
// redo is being played back. Registrations attempted while locked are
// absorbed: the mutation runs immediately and no new record is produced, so
// a manager method that calls other manager methods yields exactly one undo
// entry. The lock is a depth counter plus a playback flag, not a mutex.
//
// Concurrency:
// A Log is NOT safe for concurrent use. It assumes the single logical
// sequence of user operations of a UI event loop.
//
// INVARIANTS:
//   - At most one record is under construction at a time.
//   - Committing a record clears the redo stack.
//   - A record without a reverse action is never committed.
//   - Composite children run in order and are undone in exact reverse order.
package edit
