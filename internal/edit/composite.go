package edit

import (
	"errors"
	"fmt"
	"strconv"
)

// Composite is an edit built from an ordered list of child edits.
//
// Children run in list order; the inverse runs the child inverses in reverse
// order, so a child that depends on an earlier child's effect is always
// undone first.
//
// By default a child failure leaves earlier children applied. WithRollback
// opts in to compensating them.
type Composite struct {
	Base
	children []Edit
	// inverses holds child inverses, most recently run child first.
	inverses    []Edit
	inverseArgs []Args
	isInverse   bool
	rollback    bool
	inverse     *Composite
}

// CompositeOption configures a Composite.
type CompositeOption func(*Composite)

// WithRollback makes a failed Run undo the children that already ran, in
// reverse order, before returning the child's error.
func WithRollback() CompositeOption {
	return func(c *Composite) {
		c.rollback = true
	}
}

// NewComposite creates a composite over children.
//
// Every child must be unregistered and not yet run: the composite owns
// running and logging them.
func NewComposite(name string, children []Edit, opts ...CompositeOption) (*Composite, error) {
	for i, child := range children {
		b := child.base()
		if b.registered || b.hasRun {
			return nil, &Error{
				Code:    ErrCodeRegistered,
				Message: "children must not be registered individually",
				Edit:    name,
				Details: map[string]string{
					"child":       child.Name(),
					"child_index": strconv.Itoa(i),
				},
			}
		}
	}
	c := &Composite{
		Base:     NewBase(name),
		children: append([]Edit(nil), children...),
	}
	for _, opt := range opts {
		opt(c)
	}
	for _, child := range c.children {
		child.base().registered = true
	}
	return c, nil
}

// Bundle packs one Args per child into the single Args a composite runs
// with.
func Bundle(bundles ...Args) Args {
	pos := make([]any, len(bundles))
	for i, b := range bundles {
		pos[i] = b
	}
	return Args{Positional: pos}
}

// Children returns the child edits in run order.
func (c *Composite) Children() []Edit {
	return append([]Edit(nil), c.children...)
}

// IsInverse reports whether c was synthesized as another composite's
// inverse.
func (c *Composite) IsInverse() bool {
	return c.isInverse
}

// Run executes every child with its argument bundle.
//
// The bundle count is checked before any child runs.
func (c *Composite) Run(args Args) error {
	if args.Len() != len(c.children) {
		return &Error{
			Code:    ErrCodeArgumentCount,
			Message: "argument bundle count does not match children",
			Edit:    c.name,
			Details: map[string]string{
				"children": strconv.Itoa(len(c.children)),
				"bundles":  strconv.Itoa(args.Len()),
			},
		}
	}
	bundles := make([]Args, len(c.children))
	for i := range c.children {
		b, ok := args.At(i).(Args)
		if !ok {
			return &Error{
				Code:    ErrCodeArgumentCount,
				Message: fmt.Sprintf("bundle %d is %T, want edit.Args", i, args.At(i)),
				Edit:    c.name,
			}
		}
		bundles[i] = b
	}

	var inverses []Edit
	var inverseArgs []Args
	for i, child := range c.children {
		if err := child.Run(bundles[i]); err != nil {
			return c.fail(i, child, err, inverses, inverseArgs)
		}
		child.base().MarkRun()
		if c.isInverse {
			continue
		}
		inv, invArgs, err := child.Inverse()
		if err != nil {
			return c.fail(i, child, err, inverses, inverseArgs)
		}
		inverses = append([]Edit{inv}, inverses...)
		inverseArgs = append([]Args{invArgs}, inverseArgs...)
	}

	c.MarkRun()
	if !c.isInverse {
		c.inverses = inverses
		c.inverseArgs = inverseArgs
		c.inverse = nil
	}
	return nil
}

// fail wraps a child error and, with rollback enabled, runs the inverses
// collected so far.
func (c *Composite) fail(i int, child Edit, cause error, inverses []Edit, inverseArgs []Args) error {
	err := &Error{
		Code:    ErrCodeChildFailed,
		Message: fmt.Sprintf("child %q failed", child.Name()),
		Edit:    c.name,
		Details: map[string]string{
			"child_index": strconv.Itoa(i),
			"applied":     strconv.Itoa(i),
		},
		Err: cause,
	}
	if !c.rollback || c.isInverse {
		return err
	}
	errs := []error{err}
	for j, inv := range inverses {
		if rbErr := inv.Run(inverseArgs[j]); rbErr != nil {
			errs = append(errs, fmt.Errorf("rollback %s: %w", inv.Name(), rbErr))
		}
	}
	err.Details["rolled_back"] = strconv.FormatBool(len(errs) == 1)
	return errors.Join(errs...)
}

// Inverse returns a composite over the reversed child inverses, built on
// first use after Run. The inverse of an inverse is not derived.
func (c *Composite) Inverse() (Edit, Args, error) {
	if c.isInverse {
		return nil, Args{}, &Error{
			Code:    ErrCodeUndefined,
			Message: "inverse composite has no inverse",
			Edit:    c.name,
		}
	}
	if !c.hasRun {
		return nil, Args{}, newUndefinedError(c.name)
	}
	if c.inverse == nil {
		c.inverse = &Composite{
			Base:      Base{name: c.name, registered: true},
			children:  c.inverses,
			isInverse: true,
		}
	}
	return c.inverse, Bundle(c.inverseArgs...), nil
}
