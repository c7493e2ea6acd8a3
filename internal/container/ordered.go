// Package container provides an insertion-ordered map and reversible edits
// over it.
//
// Every edit computes its inverse diff while it runs, so a container edit
// can be handed to edit.Log.Apply or bundled into an edit.Composite like any
// other edit.
package container

import (
	"iter"
	"slices"
)

// OrderedMap is a map that remembers key order.
//
// The zero value is not usable; construct with NewOrderedMap.
type OrderedMap[K comparable, V any] struct {
	keys   []K
	values map[K]V
}

// NewOrderedMap creates an empty map.
func NewOrderedMap[K comparable, V any]() *OrderedMap[K, V] {
	return &OrderedMap[K, V]{values: make(map[K]V)}
}

// Len returns the number of entries.
func (m *OrderedMap[K, V]) Len() int {
	return len(m.keys)
}

// Has reports whether key is present.
func (m *OrderedMap[K, V]) Has(key K) bool {
	_, ok := m.values[key]
	return ok
}

// Get returns the value at key.
func (m *OrderedMap[K, V]) Get(key K) (V, bool) {
	v, ok := m.values[key]
	return v, ok
}

// Index returns the position of key, or -1.
func (m *OrderedMap[K, V]) Index(key K) int {
	for i, k := range m.keys {
		if k == key {
			return i
		}
	}
	return -1
}

// KeyAt returns the key at position i.
func (m *OrderedMap[K, V]) KeyAt(i int) (K, bool) {
	if i < 0 || i >= len(m.keys) {
		var zero K
		return zero, false
	}
	return m.keys[i], true
}

// Keys returns a copy of the keys in order.
func (m *OrderedMap[K, V]) Keys() []K {
	return append([]K(nil), m.keys...)
}

// All iterates over entries in order.
func (m *OrderedMap[K, V]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for _, k := range m.keys {
			if !yield(k, m.values[k]) {
				return
			}
		}
	}
}

// Set replaces the value at key, or appends key if absent.
func (m *OrderedMap[K, V]) Set(key K, value V) {
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
}

// Insert places key at index, clamped to [0, Len()]. If key is already
// present it is moved there and its value replaced.
func (m *OrderedMap[K, V]) Insert(index int, key K, value V) {
	if i := m.Index(key); i >= 0 {
		m.keys = append(m.keys[:i], m.keys[i+1:]...)
	}
	index = clamp(index, len(m.keys))
	m.keys = append(m.keys, key)
	copy(m.keys[index+1:], m.keys[index:])
	m.keys[index] = key
	m.values[key] = value
}

// Delete removes key and returns its former index and value.
func (m *OrderedMap[K, V]) Delete(key K) (int, V, bool) {
	v, ok := m.values[key]
	if !ok {
		return -1, v, false
	}
	i := m.Index(key)
	m.keys = append(m.keys[:i], m.keys[i+1:]...)
	delete(m.values, key)
	return i, v, true
}

// Rename changes oldKey to newKey in place. Fails if oldKey is absent or
// newKey is taken.
func (m *OrderedMap[K, V]) Rename(oldKey, newKey K) bool {
	v, ok := m.values[oldKey]
	if !ok || m.Has(newKey) {
		return false
	}
	m.keys[m.Index(oldKey)] = newKey
	delete(m.values, oldKey)
	m.values[newKey] = v
	return true
}

// Move repositions key to index, clamped to the valid range. Returns the
// previous index, or -1 if key is absent.
func (m *OrderedMap[K, V]) Move(key K, index int) int {
	from := m.Index(key)
	if from < 0 {
		return -1
	}
	m.keys = append(m.keys[:from], m.keys[from+1:]...)
	index = clamp(index, len(m.keys))
	m.keys = append(m.keys, key)
	copy(m.keys[index+1:], m.keys[index:])
	m.keys[index] = key
	return from
}

// SortByValue reorders keys by their values. The sort is stable.
func (m *OrderedMap[K, V]) SortByValue(cmp func(a, b V) int) {
	slices.SortStableFunc(m.keys, func(a, b K) int {
		return cmp(m.values[a], m.values[b])
	})
}

func clamp(i, n int) int {
	if i < 0 {
		return 0
	}
	if i > n {
		return n
	}
	return i
}
