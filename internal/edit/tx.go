package edit

// Tx is an explicit edit transaction: the handle for one registration scope.
//
// Usage:
//
//	tx := log.Begin("set counter", edit.Action{Name: "set", Fn: set, Args: edit.NewArgs(5)})
//	if err := tx.Run(); err != nil {
//	    tx.Discard()
//	    return err
//	}
//	return tx.Commit(edit.Action{Name: "set", Fn: set, Args: edit.NewArgs(0)})
//
// A Tx begun while the log is locked is Nested: Run still executes the
// forward action, but inverses are ignored and nothing is committed; the
// mutation belongs to the outer edit.
type Tx struct {
	log     *Log
	rec     *Record
	forward Action
	nested  bool
	// detached transactions never opened a scope (bypassed calls, replays).
	detached bool
	done     bool
}

// Begin opens a registration scope for a new record with the given forward
// action. The returned Tx must be finished with Commit, End or Discard.
func (l *Log) Begin(name string, forward Action, opts ...RecordOption) *Tx {
	rec := NewRecord(name, forward, opts...)
	tx := &Tx{log: l, forward: forward}
	if l.BeginRegistration(rec) {
		tx.rec = rec
	} else {
		tx.nested = true
	}
	return tx
}

// Nested reports whether this transaction was absorbed into an outer one.
func (tx *Tx) Nested() bool {
	return tx.nested
}

// Record returns the record under construction, or nil when nested.
func (tx *Tx) Record() *Record {
	return tx.rec
}

// Run executes the forward action.
func (tx *Tx) Run() error {
	if tx.rec != nil {
		if !tx.rec.ran {
			tx.log.publish(EventRunning, tx.rec, 0)
		}
		return tx.rec.Run()
	}
	return tx.forward.Invoke()
}

// AttachInverse declares how to reverse this transaction. Ignored when
// nested: the outer edit's inverse covers the nested mutation.
func (tx *Tx) AttachInverse(inverse Action) error {
	if tx.rec == nil {
		return nil
	}
	if tx.done {
		return newSealedError(tx.rec.label())
	}
	return tx.rec.AttachInverse(inverse)
}

// Commit attaches the inverse and closes the scope.
//
// Returns an undefined-edit error if the forward action never ran or the
// inverse has no function, in which case the record is discarded. Nested
// transactions always return nil.
func (tx *Tx) Commit(inverse Action) error {
	if tx.done {
		if tx.rec != nil {
			return newSealedError(tx.rec.label())
		}
		return nil
	}
	if err := tx.AttachInverse(inverse); err != nil {
		tx.Discard()
		return err
	}
	if !tx.End() && tx.rec != nil {
		return newUndefinedError(tx.rec.label())
	}
	return nil
}

// End closes the scope, committing the record if an inverse was attached
// and discarding it otherwise. Returns whether a record was committed.
func (tx *Tx) End() bool {
	return tx.finish(true)
}

// Discard closes the scope without committing, e.g. after the forward
// mutation failed.
func (tx *Tx) Discard() {
	tx.finish(false)
}

func (tx *Tx) finish(commit bool) bool {
	if tx.done || tx.detached {
		tx.done = true
		return false
	}
	tx.done = true
	_, committed := tx.log.endRegistration(commit)
	return committed
}

// OpFunc is a mutating function wrapped by Register. It receives the
// transaction handle and must call tx.AttachInverse before returning.
type OpFunc func(tx *Tx, args Args) error

// Op is a registered mutating function: every Call becomes one undoable
// record, unless the call is nested inside another edit or bypassed.
type Op struct {
	log  *Log
	name string
	fn   OpFunc
	opts []RecordOption
}

// Register wraps fn as an undoable operation on this log.
func (l *Log) Register(name string, fn OpFunc, opts ...RecordOption) *Op {
	return &Op{log: l, name: name, fn: fn, opts: opts}
}

// Name returns the operation name.
func (o *Op) Name() string {
	return o.name
}

// CallOption configures a single Op call.
type CallOption func(*callConfig)

type callConfig struct {
	bypass bool
	opts   []RecordOption
}

// Bypass runs the call without adding it to the edit log. Registrations
// made inside the call are absorbed as well.
func Bypass() CallOption {
	return func(c *callConfig) {
		c.bypass = true
	}
}

// Describe sets the description of the record produced by this call.
func Describe(desc string) CallOption {
	return func(c *callConfig) {
		c.opts = append(c.opts, WithDescription(desc))
	}
}

// Stack sets the stack key of the record produced by this call.
func Stack(key string) CallOption {
	return func(c *callConfig) {
		c.opts = append(c.opts, WithStackKey(key))
	}
}

// Call runs the operation and, at top level, commits it as one record whose
// forward action replays the operation with the same arguments.
//
// If the operation returns an error the record is discarded and the error
// returned unchanged.
func (o *Op) Call(args Args, opts ...CallOption) error {
	cfg := callConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.bypass {
		return o.log.absorb(func() error {
			return o.fn(o.log.detached(), args)
		})
	}

	forward := Action{Name: o.name, Fn: o.replay, Args: args}
	recOpts := append(append([]RecordOption(nil), o.opts...), cfg.opts...)
	tx := o.log.Begin(o.name, forward, recOpts...)
	// The operation body is the first run of the forward action.
	if tx.rec != nil {
		o.log.publish(EventRunning, tx.rec, 0)
		tx.rec.ran = true
	}
	if err := o.fn(tx, args); err != nil {
		tx.Discard()
		return err
	}
	tx.End()
	return nil
}

// replay re-runs the operation during redo. The log is locked by playback,
// so the detached handle and any nested registrations are inert.
func (o *Op) replay(args Args) error {
	return o.fn(o.log.detached(), args)
}

// detached returns a transaction handle that ignores inverses and commits.
func (l *Log) detached() *Tx {
	return &Tx{log: l, nested: true, detached: true}
}

// absorb runs fn with registrations locked so that nothing it does is
// logged.
func (l *Log) absorb(fn func() error) error {
	l.depth++
	defer func() { l.depth-- }()
	return fn()
}
