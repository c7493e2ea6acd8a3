package edit

import "fmt"

// Edit is a self-describing reversible operation: it knows how to run, and
// after running, how to build its own inverse.
//
// Edits are the building blocks of Composite. A single Edit is applied to a
// log with Log.Apply; once applied (or handed to a composite) it is
// registered and must not be applied again.
type Edit interface {
	// Name identifies the edit in the log.
	Name() string
	// Run performs the forward mutation.
	Run(args Args) error
	// Inverse returns the edit and arguments that reverse the last Run.
	// Only valid after Run.
	Inverse() (Edit, Args, error)

	base() *Base
}

// Validator is implemented by edits that can detect they would be a no-op
// or are inconsistent with the current state. Log.Apply skips invalid edits.
type Validator interface {
	Valid() bool
}

// Base carries the bookkeeping shared by all Edit implementations. Embed it
// by value and construct with NewBase.
type Base struct {
	name       string
	registered bool
	hasRun     bool
}

// NewBase creates the shared state for an edit named name.
func NewBase(name string) Base {
	return Base{name: name}
}

// Name returns the edit name.
func (b *Base) Name() string { return b.name }

// Registered reports whether the edit has been committed to a log or
// adopted by a composite.
func (b *Base) Registered() bool { return b.registered }

// HasRun reports whether the edit has been run at least once.
func (b *Base) HasRun() bool { return b.hasRun }

// MarkRun records that the edit has been run.
func (b *Base) MarkRun() { b.hasRun = true }

// MarkRegistered records that the edit is owned by a log or composite.
// Inverse edits call it at construction: they only ever run during undo.
func (b *Base) MarkRegistered() { b.registered = true }

func (b *Base) base() *Base { return b }

// Simple is an edit built from a run function and an inverse function that
// takes the same arguments.
type Simple struct {
	Base
	run      Func
	inverse  Func
	lastArgs Args
}

// NewSimple creates an edit whose inverse calls inverse with the arguments
// of the last Run.
func NewSimple(name string, run, inverse Func) *Simple {
	return &Simple{Base: NewBase(name), run: run, inverse: inverse}
}

// Run performs the forward mutation and remembers args for the inverse.
func (s *Simple) Run(args Args) error {
	if err := s.run(args); err != nil {
		return err
	}
	s.lastArgs = args
	s.MarkRun()
	return nil
}

// Inverse returns an edit with run and inverse swapped, called with the
// same arguments. The inverse is born registered: it only ever runs as
// part of undo.
func (s *Simple) Inverse() (Edit, Args, error) {
	if !s.hasRun {
		return nil, Args{}, newUndefinedError(s.name)
	}
	inv := &Simple{
		Base:    Base{name: s.name, registered: true},
		run:     s.inverse,
		inverse: s.run,
	}
	return inv, s.lastArgs, nil
}

// NewSelfInverse creates an edit whose forward and inverse are the same
// function, distinguished by the inverse flag (e.g. toggles, swaps).
func NewSelfInverse(name string, fn func(args Args, inverse bool) error) *Simple {
	return NewSimple(
		name,
		func(args Args) error { return fn(args, false) },
		func(args Args) error { return fn(args, true) },
	)
}

// Apply runs e and, at top level, commits it as one record.
//
// Returns ErrCodeRegistered if e was already applied or adopted by a
// composite. An edit implementing Validator that reports itself invalid is
// skipped without error. Inside another edit, e runs but nothing is
// committed.
func (l *Log) Apply(e Edit, args Args, opts ...RecordOption) error {
	b := e.base()
	if b.registered {
		return &Error{
			Code:    ErrCodeRegistered,
			Message: "edit already registered",
			Edit:    e.Name(),
		}
	}
	if v, ok := e.(Validator); ok && !v.Valid() {
		l.logger.Debug("invalid edit skipped", "edit", e.Name())
		return nil
	}

	tx := l.Begin(e.Name(), Action{Name: e.Name(), Fn: e.Run, Args: args}, opts...)
	if err := tx.Run(); err != nil {
		tx.Discard()
		return err
	}
	if tx.Nested() {
		tx.End()
		return nil
	}

	inv, invArgs, err := e.Inverse()
	if err != nil {
		tx.Discard()
		return fmt.Errorf("build inverse of %s: %w", e.Name(), err)
	}
	if err := tx.Commit(Action{Name: inv.Name(), Fn: inv.Run, Args: invArgs}); err != nil {
		return err
	}
	b.registered = true
	return nil
}
