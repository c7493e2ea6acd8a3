package edit

import (
	"fmt"
	"sort"
	"strings"
)

// Args holds the positional and named arguments an Action is invoked with.
//
// Arguments are captured when a record is created so the same call can be
// replayed on redo, and the reverse call on undo.
type Args struct {
	Positional []any
	Named      map[string]any
}

// NewArgs creates Args from positional values.
func NewArgs(positional ...any) Args {
	return Args{Positional: positional}
}

// With returns a copy of a with the named argument set.
// The receiver is never modified, so captured Args stay stable.
func (a Args) With(name string, value any) Args {
	named := make(map[string]any, len(a.Named)+1)
	for k, v := range a.Named {
		named[k] = v
	}
	named[name] = value
	return Args{Positional: a.Positional, Named: named}
}

// Len returns the number of positional arguments.
func (a Args) Len() int {
	return len(a.Positional)
}

// At returns the positional argument at i, or nil if out of range.
func (a Args) At(i int) any {
	if i < 0 || i >= len(a.Positional) {
		return nil
	}
	return a.Positional[i]
}

// Get returns the named argument and whether it was set.
func (a Args) Get(name string) (any, bool) {
	v, ok := a.Named[name]
	return v, ok
}

// String renders the arguments for logs and error messages.
// Named arguments are sorted for deterministic output.
func (a Args) String() string {
	parts := make([]string, 0, len(a.Positional)+len(a.Named))
	for _, p := range a.Positional {
		parts = append(parts, fmt.Sprintf("%v", p))
	}
	keys := make([]string, 0, len(a.Named))
	for k := range a.Named {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, a.Named[k]))
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// Func is the signature of every stored forward or reverse action.
type Func func(args Args) error

// Action is a function reference plus the arguments to call it with.
type Action struct {
	Name string
	Fn   Func
	Args Args
}

// Invoke calls the action's function with its stored arguments.
func (a Action) Invoke() error {
	if a.Fn == nil {
		return fmt.Errorf("action %q has no function", a.Name)
	}
	return a.Fn(a.Args)
}

// String renders the action as name(args).
func (a Action) String() string {
	return a.Name + a.Args.String()
}
