package edit

import "fmt"

// State is the lifecycle state of a Record.
//
//	Unregistered → Pending → Committed ⇄ Undone
//	                  ↓
//	              Discarded
type State int

const (
	// StateUnregistered is a record not yet handed to a log.
	StateUnregistered State = iota
	// StatePending is a record whose registration scope is open.
	StatePending
	// StateCommitted is a record on the undo stack.
	StateCommitted
	// StateUndone is a record that has been undone (on the redo stack, or
	// invalidated by a later commit).
	StateUndone
	// StateDiscarded is a record whose scope closed before it was defined.
	StateDiscarded
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateUnregistered:
		return "unregistered"
	case StatePending:
		return "pending"
	case StateCommitted:
		return "committed"
	case StateUndone:
		return "undone"
	case StateDiscarded:
		return "discarded"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Record is a single reversible operation.
//
// The forward action is known when the record is created; the reverse
// action is attached later, by the same logical operation that performed
// the forward mutation. A record is eligible for undo/redo only once both
// exist (Defined).
type Record struct {
	id          string
	name        string
	description string
	stackKey    string
	seq         int64

	forward Action
	reverse *Action
	ran     bool
	undone  bool
	state   State

	// Stack links between consecutive records sharing a stack key.
	prev *Record
	next *Record
}

// RecordOption configures a Record at creation.
type RecordOption func(*Record)

// WithDescription sets the long description shown by Log.Text.
func WithDescription(desc string) RecordOption {
	return func(r *Record) {
		r.description = desc
	}
}

// WithStackKey groups consecutive records with the same non-empty key so
// that one Undo (or Redo) plays back the whole group. Used for continuous
// edits such as dragging an item.
func WithStackKey(key string) RecordOption {
	return func(r *Record) {
		r.stackKey = key
	}
}

// NewRecord creates an unregistered record with the given forward action.
func NewRecord(name string, forward Action, opts ...RecordOption) *Record {
	r := &Record{
		name:    name,
		forward: forward,
		state:   StateUnregistered,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ID returns the identifier assigned when registration began.
func (r *Record) ID() string { return r.id }

// Name returns the record name.
func (r *Record) Name() string { return r.name }

// Description returns the long description, if any.
func (r *Record) Description() string { return r.description }

// StackKey returns the stack key, if any.
func (r *Record) StackKey() string { return r.stackKey }

// Seq returns the logical sequence number stamped at commit (0 before).
func (r *Record) Seq() int64 { return r.seq }

// State returns the lifecycle state.
func (r *Record) State() State { return r.state }

// Forward returns the forward action.
func (r *Record) Forward() Action { return r.forward }

// Reverse returns the reverse action and whether one was attached.
func (r *Record) Reverse() (Action, bool) {
	if r.reverse == nil {
		return Action{}, false
	}
	return *r.reverse, true
}

// Defined reports whether both forward and reverse actions exist.
func (r *Record) Defined() bool {
	return r.forward.Fn != nil && r.reverse != nil && r.reverse.Fn != nil
}

// Undone reports whether the record is currently undone.
func (r *Record) Undone() bool { return r.undone }

// Ran reports whether the forward action has executed at least once.
func (r *Record) Ran() bool { return r.ran }

// Run executes the forward action. It does not guard against double runs;
// that is the caller's responsibility.
func (r *Record) Run() error {
	if err := r.forward.Invoke(); err != nil {
		return err
	}
	r.ran = true
	return nil
}

// AttachInverse stores the reverse action. The forward action must have
// run first, and the registration scope must still be open.
func (r *Record) AttachInverse(inverse Action) error {
	if r.state == StateCommitted || r.state == StateUndone || r.state == StateDiscarded {
		return newSealedError(r.label())
	}
	if !r.ran {
		return newNotRunError(r.label())
	}
	r.reverse = &inverse
	return nil
}

// Undo invokes the reverse action and marks the record undone.
func (r *Record) Undo() error {
	if !r.Defined() {
		return newUndefinedError(r.label())
	}
	if r.undone {
		return newAlreadyUndoneError(r.label())
	}
	if err := r.reverse.Invoke(); err != nil {
		return fmt.Errorf("undo %s: %w", r.label(), err)
	}
	r.undone = true
	r.state = StateUndone
	return nil
}

// Redo invokes the forward action again and clears the undone flag.
func (r *Record) Redo() error {
	if !r.Defined() {
		return newUndefinedError(r.label())
	}
	if !r.undone {
		return newNotUndoneError(r.label())
	}
	if err := r.forward.Invoke(); err != nil {
		return fmt.Errorf("redo %s: %w", r.label(), err)
	}
	r.undone = false
	r.state = StateCommitted
	return nil
}

// String renders the record for logs and debugging.
func (r *Record) String() string {
	return fmt.Sprintf("[Edit %s %s]", r.label(), r.forward.Args.String())
}

// label names the record in errors: name plus id when known.
func (r *Record) label() string {
	if r.id == "" {
		return r.name
	}
	return fmt.Sprintf("%s#%s", r.name, r.id)
}
