package container

import (
	"fmt"

	"github.com/huandu/go-clone"

	"github.com/roach88/scheduler/internal/edit"
)

// Snapshot is an edit for mutations whose inverse is hard to express as a
// diff (sorting, bulk rewrites). It deep-copies the target before and after
// the mutation; undo restores the earlier copy.
type Snapshot[T any] struct {
	edit.Base
	target *T
	mutate func(*T) error

	before T
	after  T
	// restore marks an inverse: Run copies before into target.
	restore bool
}

// NewSnapshot creates a snapshot edit that runs mutate on target.
func NewSnapshot[T any](name string, target *T, mutate func(*T) error) *Snapshot[T] {
	return &Snapshot[T]{
		Base:   edit.NewBase(name),
		target: target,
		mutate: mutate,
	}
}

// Run applies the mutation, or restores the saved state for an inverse.
func (s *Snapshot[T]) Run(edit.Args) error {
	if s.restore {
		*s.target = deepCopy(s.before)
		s.MarkRun()
		return nil
	}
	before := deepCopy(*s.target)
	if err := s.mutate(s.target); err != nil {
		*s.target = before
		return fmt.Errorf("snapshot %s: %w", s.Name(), err)
	}
	s.before = before
	s.after = deepCopy(*s.target)
	s.MarkRun()
	return nil
}

// Inverse returns an edit restoring the state saved before Run.
func (s *Snapshot[T]) Inverse() (edit.Edit, edit.Args, error) {
	if !s.HasRun() {
		return nil, edit.Args{}, fmt.Errorf("snapshot %s: inverse requested before run", s.Name())
	}
	inv := &Snapshot[T]{
		Base:    edit.NewBase(s.Name()),
		target:  s.target,
		before:  s.before,
		after:   s.after,
		restore: true,
	}
	if s.restore {
		inv.before, inv.after = s.after, s.before
	}
	inv.MarkRegistered()
	return inv, edit.Args{}, nil
}

func deepCopy[T any](v T) T {
	return clone.Clone(v).(T)
}
