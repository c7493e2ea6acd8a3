// Package tasks holds the task tree and the Manager through which every
// undoable change to it is made.
package tasks

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/scheduler/internal/container"
)

// PathSeparator joins task names into a path.
const PathSeparator = "/"

var (
	// ErrNotFound is returned when a path names no task.
	ErrNotFound = errors.New("task not found")
	// ErrDuplicate is returned when a sibling already has the name.
	ErrDuplicate = errors.New("task name already used by a sibling")
	// ErrInvalidName is returned for empty names or names containing the
	// path separator.
	ErrInvalidName = errors.New("invalid task name")
	// ErrCycle is returned when moving a task under its own subtree.
	ErrCycle = errors.New("cannot move a task under itself")
)

// Status is the completion state of a task.
type Status string

const (
	StatusUnstarted  Status = "Unstarted"
	StatusInProgress Status = "In Progress"
	StatusComplete   Status = "Complete"
)

// ParseStatus accepts the display form or a snake_case form
// ("in_progress").
func ParseStatus(s string) (Status, error) {
	switch strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), "_", " ")) {
	case "unstarted":
		return StatusUnstarted, nil
	case "in progress":
		return StatusInProgress, nil
	case "complete":
		return StatusComplete, nil
	}
	return "", fmt.Errorf("unknown task status %q", s)
}

// Importance ranks a task. The zero value means unset.
type Importance string

const (
	ImportanceNone     Importance = ""
	ImportanceMinor    Importance = "minor"
	ImportanceModerate Importance = "moderate"
	ImportanceMajor    Importance = "major"
	ImportanceCritical Importance = "critical"
)

// ParseImportance validates an importance string.
func ParseImportance(s string) (Importance, error) {
	switch imp := Importance(strings.ToLower(strings.TrimSpace(s))); imp {
	case ImportanceNone, ImportanceMinor, ImportanceModerate, ImportanceMajor, ImportanceCritical:
		return imp, nil
	}
	return "", fmt.Errorf("unknown importance %q", s)
}

// Info is the editable metadata of a task.
type Info struct {
	Importance Importance
	Notes      string
}

// Task is a node in the tree.
type Task struct {
	name     string
	status   Status
	info     Info
	parent   *Task
	children *container.OrderedMap[string, *Task]
}

func newTask(name string) *Task {
	return &Task{
		name:     name,
		status:   StatusUnstarted,
		children: container.NewOrderedMap[string, *Task](),
	}
}

// Name returns the task name.
func (t *Task) Name() string { return t.name }

// Status returns the task status.
func (t *Task) Status() Status { return t.status }

// Info returns the task metadata.
func (t *Task) Info() Info { return t.info }

// Parent returns the parent task, or nil for a root task.
func (t *Task) Parent() *Task { return t.parent }

// Children returns the child tasks in order.
func (t *Task) Children() []*Task {
	out := make([]*Task, 0, t.children.Len())
	for _, c := range t.children.All() {
		out = append(out, c)
	}
	return out
}

// Path returns the slash-separated path from the root.
func (t *Task) Path() string {
	if t.parent == nil {
		return t.name
	}
	return t.parent.Path() + PathSeparator + t.name
}

// isAncestorOf reports whether t is other or one of its ancestors.
func (t *Task) isAncestorOf(other *Task) bool {
	for n := other; n != nil; n = n.parent {
		if n == t {
			return true
		}
	}
	return false
}

// walk visits t and its descendants depth-first.
func (t *Task) walk(fn func(*Task)) {
	fn(t)
	for _, c := range t.children.All() {
		c.walk(fn)
	}
}

// Tree is the root container of tasks. Root tasks act as categories.
type Tree struct {
	roots *container.OrderedMap[string, *Task]
}

// NewTree creates an empty tree.
func NewTree() *Tree {
	return &Tree{roots: container.NewOrderedMap[string, *Task]()}
}

// Roots returns the root tasks in order.
func (tr *Tree) Roots() []*Task {
	out := make([]*Task, 0, tr.roots.Len())
	for _, r := range tr.roots.All() {
		out = append(out, r)
	}
	return out
}

// Get resolves a path such as "Work/Reports/Q3".
func (tr *Tree) Get(path string) (*Task, error) {
	parts := strings.Split(path, PathSeparator)
	siblings := tr.roots
	var t *Task
	for _, p := range parts {
		next, ok := siblings.Get(norm.NFC.String(strings.TrimSpace(p)))
		if !ok {
			return nil, fmt.Errorf("get %q: %w", path, ErrNotFound)
		}
		t = next
		siblings = t.children
	}
	return t, nil
}

// siblingsOf returns the map a task with the given parent lives in.
func (tr *Tree) siblingsOf(parent *Task) *container.OrderedMap[string, *Task] {
	if parent == nil {
		return tr.roots
	}
	return parent.children
}

// Render prints the tree as an indented outline, one task per line.
func (tr *Tree) Render() string {
	var b strings.Builder
	for _, r := range tr.roots.All() {
		r.walk(func(t *Task) {
			depth := strings.Count(t.Path(), PathSeparator)
			fmt.Fprintf(&b, "%s- %s [%s]", strings.Repeat("  ", depth), t.name, t.status)
			if t.info.Importance != ImportanceNone {
				fmt.Fprintf(&b, " (%s)", t.info.Importance)
			}
			b.WriteString("\n")
		})
	}
	return b.String()
}

// NormalizeName trims name and converts it to Unicode NFC so that visually
// identical names compare equal.
func NormalizeName(name string) (string, error) {
	n := norm.NFC.String(strings.TrimSpace(name))
	if n == "" || strings.Contains(n, PathSeparator) {
		return "", fmt.Errorf("%q: %w", name, ErrInvalidName)
	}
	return n, nil
}
