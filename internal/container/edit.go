package container

import (
	"fmt"

	"github.com/roach88/scheduler/internal/edit"
)

// Op is the kind of change a container edit makes.
type Op string

const (
	// OpAdd appends new keys. Existing keys are skipped.
	OpAdd Op = "add"
	// OpInsert inserts new keys at an index. Existing keys are skipped.
	OpInsert Op = "insert"
	// OpRemove removes keys. Missing keys are skipped.
	OpRemove Op = "remove"
	// OpRename renames keys in place.
	OpRename Op = "rename"
	// OpModify replaces values at existing keys.
	OpModify Op = "modify"
	// OpMove moves existing keys to an index.
	OpMove Op = "move"
)

// inverseOp maps each op to the op that reverses it.
var inverseOp = map[Op]Op{
	OpAdd:    OpRemove,
	OpInsert: OpRemove,
	OpRemove: OpInsert,
	OpRename: OpRename,
	OpModify: OpModify,
	OpMove:   OpMove,
}

// Entry is one line of a container diff. Which fields matter depends on
// the op: Value for add/insert/modify, Index for insert/move, NewKey for
// rename.
type Entry[K comparable, V any] struct {
	Key    K
	NewKey K
	Index  int
	Value  V
}

// Edit applies a diff to an OrderedMap and records the inverse diff.
type Edit[K comparable, V any] struct {
	edit.Base
	target  *OrderedMap[K, V]
	op      Op
	diff    []Entry[K, V]
	inverse []Entry[K, V]
}

// New creates an edit applying op with the given diff to m.
func New[K comparable, V any](m *OrderedMap[K, V], op Op, diff ...Entry[K, V]) *Edit[K, V] {
	return &Edit[K, V]{
		Base:   edit.NewBase("container." + string(op)),
		target: m,
		op:     op,
		diff:   diff,
	}
}

// Add appends key with value.
func Add[K comparable, V any](m *OrderedMap[K, V], key K, value V) *Edit[K, V] {
	return New(m, OpAdd, Entry[K, V]{Key: key, Value: value})
}

// Insert inserts key with value at index.
func Insert[K comparable, V any](m *OrderedMap[K, V], key K, index int, value V) *Edit[K, V] {
	return New(m, OpInsert, Entry[K, V]{Key: key, Index: index, Value: value})
}

// Remove removes keys.
func Remove[K comparable, V any](m *OrderedMap[K, V], keys ...K) *Edit[K, V] {
	diff := make([]Entry[K, V], len(keys))
	for i, k := range keys {
		diff[i] = Entry[K, V]{Key: k}
	}
	return New(m, OpRemove, diff...)
}

// Rename renames oldKey to newKey, keeping its position.
func Rename[K comparable, V any](m *OrderedMap[K, V], oldKey, newKey K) *Edit[K, V] {
	return New(m, OpRename, Entry[K, V]{Key: oldKey, NewKey: newKey})
}

// Modify replaces the value at key.
func Modify[K comparable, V any](m *OrderedMap[K, V], key K, value V) *Edit[K, V] {
	return New(m, OpModify, Entry[K, V]{Key: key, Value: value})
}

// Move moves key to index.
func Move[K comparable, V any](m *OrderedMap[K, V], key K, index int) *Edit[K, V] {
	return New(m, OpMove, Entry[K, V]{Key: key, Index: index})
}

// Op returns the edit's operation.
func (e *Edit[K, V]) Op() Op {
	return e.op
}

// Valid reports whether at least one diff entry would change the map.
func (e *Edit[K, V]) Valid() bool {
	for _, ent := range e.diff {
		if e.applies(ent) {
			return true
		}
	}
	return false
}

func (e *Edit[K, V]) applies(ent Entry[K, V]) bool {
	m := e.target
	switch e.op {
	case OpAdd, OpInsert:
		return !m.Has(ent.Key)
	case OpRemove, OpModify:
		return m.Has(ent.Key)
	case OpRename:
		return m.Has(ent.Key) && !m.Has(ent.NewKey)
	case OpMove:
		i := m.Index(ent.Key)
		return i >= 0 && i != clamp(ent.Index, m.Len()-1)
	}
	return false
}

// Run applies the diff. Arguments are ignored: the diff is fixed at
// construction. Entries that would not change the map are skipped and left
// out of the inverse.
func (e *Edit[K, V]) Run(edit.Args) error {
	if _, ok := inverseOp[e.op]; !ok {
		return fmt.Errorf("container edit: unknown op %q", e.op)
	}
	m := e.target
	inverse := make([]Entry[K, V], 0, len(e.diff))
	for _, ent := range e.diff {
		if !e.applies(ent) {
			continue
		}
		var inv Entry[K, V]
		switch e.op {
		case OpAdd:
			m.Set(ent.Key, ent.Value)
			inv = Entry[K, V]{Key: ent.Key}
		case OpInsert:
			m.Insert(ent.Index, ent.Key, ent.Value)
			inv = Entry[K, V]{Key: ent.Key}
		case OpRemove:
			i, v, _ := m.Delete(ent.Key)
			inv = Entry[K, V]{Key: ent.Key, Index: i, Value: v}
		case OpRename:
			m.Rename(ent.Key, ent.NewKey)
			inv = Entry[K, V]{Key: ent.NewKey, NewKey: ent.Key}
		case OpModify:
			old, _ := m.Get(ent.Key)
			m.Set(ent.Key, ent.Value)
			inv = Entry[K, V]{Key: ent.Key, Value: old}
		case OpMove:
			from := m.Move(ent.Key, ent.Index)
			inv = Entry[K, V]{Key: ent.Key, Index: from}
		}
		inverse = append([]Entry[K, V]{inv}, inverse...)
	}
	e.inverse = inverse
	e.MarkRun()
	return nil
}

// Inverse returns the edit that restores the map to its state before Run.
func (e *Edit[K, V]) Inverse() (edit.Edit, edit.Args, error) {
	if !e.HasRun() {
		return nil, edit.Args{}, fmt.Errorf("container edit %s: inverse requested before run", e.Name())
	}
	inv := New(e.target, inverseOp[e.op], e.inverse...)
	inv.MarkRegistered()
	return inv, edit.Args{}, nil
}

// Diff returns the entries this edit applies.
func (e *Edit[K, V]) Diff() []Entry[K, V] {
	return append([]Entry[K, V](nil), e.diff...)
}
