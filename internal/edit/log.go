package edit

import (
	"log/slog"
)

// Log is the ordered history of committed records with an undo stack and a
// redo stack.
//
// CRITICAL: A Log is not safe for concurrent use. All calls must come from
// the single goroutine driving user operations.
//
// INVARIANTS:
//   - current != nil only while depth > 0 and the outermost scope opened it
//   - every record on undo is Defined and not Undone
//   - every record on redo is Defined and Undone
//   - redo is emptied whenever a record is committed
type Log struct {
	undo []*Record
	redo []*Record

	// depth counts open registration scopes, including absorbed nested ones.
	depth int
	// playing is true while an undo or redo is being played back.
	playing bool
	// current is the record under construction by the outermost scope.
	current *Record

	maxDepth    int
	clock       Sequencer
	ids         IDGenerator
	logger      *slog.Logger
	subscribers []subscriber
}

// Option configures a Log.
type Option func(*Log)

// WithMaxDepth bounds the undo stack to n records; the oldest records are
// evicted first. n <= 0 means unbounded (the default).
func WithMaxDepth(n int) Option {
	return func(l *Log) {
		l.maxDepth = n
	}
}

// WithLogger sets the structured logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(l *Log) {
		l.logger = logger
	}
}

// WithIDGenerator sets the record ID generator. Defaults to UUIDv7Generator.
func WithIDGenerator(gen IDGenerator) Option {
	return func(l *Log) {
		l.ids = gen
	}
}

// WithClock sets the logical clock used to stamp events.
func WithClock(clock Sequencer) Option {
	return func(l *Log) {
		l.clock = clock
	}
}

// New creates an empty, unlocked Log.
func New(opts ...Option) *Log {
	l := &Log{
		clock:  NewClock(),
		ids:    UUIDv7Generator{},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// IsRegistrationLocked reports whether new top-level records are refused:
// true while an undo/redo is being played back or a scope is already open.
func (l *Log) IsRegistrationLocked() bool {
	return l.playing || l.depth > 0
}

// Depth returns the number of open registration scopes.
func (l *Log) Depth() int {
	return l.depth
}

// BeginRegistration opens a registration scope for rec.
//
// Returns true if rec is now the record under construction. Returns false
// if the log is locked: the scope is still counted (and must be closed with
// EndRegistration) but rec will never be committed; the caller's mutation
// is absorbed into whatever outer edit is in progress.
func (l *Log) BeginRegistration(rec *Record) bool {
	l.depth++
	if l.depth > 1 || l.playing {
		return false
	}
	if rec.id == "" {
		rec.id = l.ids.Generate()
	}
	rec.state = StatePending
	l.current = rec
	return true
}

// EndRegistration closes the innermost registration scope.
//
// When the outermost scope closes, a fully defined record is committed to
// the undo stack (clearing the redo stack); an undefined one is discarded.
// Returns the closed record (nil for nested scopes) and whether it was
// committed.
func (l *Log) EndRegistration() (*Record, bool) {
	return l.endRegistration(true)
}

func (l *Log) endRegistration(commit bool) (*Record, bool) {
	if l.depth == 0 {
		l.logger.Warn("unbalanced end of edit registration")
		return nil, false
	}
	l.depth--
	if l.depth > 0 || l.current == nil {
		return nil, false
	}

	rec := l.current
	l.current = nil

	if !commit {
		l.discard(rec, "edit discarded")
		return rec, false
	}
	if !rec.ran {
		l.discard(rec, "edit discarded: forward action never ran")
		return rec, false
	}
	if !rec.Defined() {
		// Programming error at the call site: the mutation forgot to attach
		// its inverse. Never committed, but loud enough to find.
		l.discard(rec, "edit discarded: no inverse attached")
		return rec, false
	}
	l.commit(rec)
	return rec, true
}

func (l *Log) discard(rec *Record, msg string) {
	rec.state = StateDiscarded
	l.logger.Warn(msg, "edit", rec.name, "id", rec.id)
	l.publish(EventDiscarded, rec, 0)
}

func (l *Log) commit(rec *Record) {
	seq := l.clock.Next()
	rec.seq = seq
	rec.state = StateCommitted

	if len(l.redo) > 0 {
		l.logger.Debug("redo history invalidated", "dropped", len(l.redo))
		l.redo = nil
	}

	if latest := l.Latest(); latest != nil && rec.stackKey != "" && latest.stackKey == rec.stackKey {
		rec.prev = latest
		latest.next = rec
	}

	l.undo = append(l.undo, rec)
	l.trim()

	l.logger.Debug("edit committed", "edit", rec.name, "id", rec.id, "seq", seq)
	l.publish(EventCommitted, rec, seq)
}

// trim evicts the oldest records beyond maxDepth.
func (l *Log) trim() {
	if l.maxDepth <= 0 || len(l.undo) <= l.maxDepth {
		return
	}
	n := len(l.undo) - l.maxDepth
	for _, evicted := range l.undo[:n] {
		if evicted.next != nil {
			evicted.next.prev = nil
			evicted.next = nil
		}
	}
	l.undo = append([]*Record(nil), l.undo[n:]...)
	l.logger.Debug("edit history trimmed", "evicted", n, "max_depth", l.maxDepth)
}

// Undo undoes the most recent record (or stack of records).
//
// An empty undo stack is a no-op, not an error. Undo requested while the log
// is locked (from inside a registered mutation or another playback) is
// ignored.
func (l *Log) Undo() error {
	if l.IsRegistrationLocked() {
		l.logger.Warn("undo ignored: edit log is locked")
		return nil
	}
	for len(l.undo) > 0 {
		rec := l.undo[len(l.undo)-1]
		l.publish(EventUndoing, rec, 0)
		l.undo = l.undo[:len(l.undo)-1]

		if err := l.playback(rec.Undo); err != nil {
			l.undo = append(l.undo, rec)
			return err
		}
		l.redo = append(l.redo, rec)
		l.logger.Debug("edit undone", "edit", rec.name, "id", rec.id)
		l.publish(EventUndone, rec, 0)

		if rec.prev == nil || len(l.undo) == 0 || l.undo[len(l.undo)-1] != rec.prev {
			break
		}
	}
	return nil
}

// Redo redoes the most recently undone record (or stack of records).
//
// An empty redo stack is a no-op, not an error.
func (l *Log) Redo() error {
	if l.IsRegistrationLocked() {
		l.logger.Warn("redo ignored: edit log is locked")
		return nil
	}
	for len(l.redo) > 0 {
		rec := l.redo[len(l.redo)-1]
		l.publish(EventRedoing, rec, 0)
		l.redo = l.redo[:len(l.redo)-1]

		if err := l.playback(rec.Redo); err != nil {
			l.redo = append(l.redo, rec)
			return err
		}
		l.undo = append(l.undo, rec)
		l.logger.Debug("edit redone", "edit", rec.name, "id", rec.id)
		l.publish(EventRedone, rec, 0)

		if rec.next == nil || len(l.redo) == 0 || l.redo[len(l.redo)-1] != rec.next {
			break
		}
	}
	return nil
}

// playback runs fn with registrations locked, restoring the previous lock
// state even if fn panics.
func (l *Log) playback(fn func() error) error {
	prev := l.playing
	l.playing = true
	defer func() { l.playing = prev }()
	return fn()
}

// Clear drops both stacks, e.g. when a new project is loaded.
// A scope that is currently open is left untouched.
func (l *Log) Clear() {
	l.undo = nil
	l.redo = nil
	l.publish(EventCleared, nil, 0)
}

// Latest returns the most recent committed record, or nil.
func (l *Log) Latest() *Record {
	if len(l.undo) == 0 {
		return nil
	}
	return l.undo[len(l.undo)-1]
}

// CanUndo reports whether Undo would do anything.
func (l *Log) CanUndo() bool {
	return len(l.undo) > 0 && !l.IsRegistrationLocked()
}

// CanRedo reports whether Redo would do anything.
func (l *Log) CanRedo() bool {
	return len(l.redo) > 0 && !l.IsRegistrationLocked()
}

// UndoLen returns the number of records on the undo stack.
func (l *Log) UndoLen() int {
	return len(l.undo)
}

// RedoLen returns the number of records on the redo stack.
func (l *Log) RedoLen() int {
	return len(l.redo)
}

// Records returns a copy of the undo stack, oldest first.
func (l *Log) Records() []*Record {
	out := make([]*Record, len(l.undo))
	copy(out, l.undo)
	return out
}

// UndoneRecords returns a copy of the redo stack, next-to-redo last.
func (l *Log) UndoneRecords() []*Record {
	out := make([]*Record, len(l.redo))
	copy(out, l.redo)
	return out
}
