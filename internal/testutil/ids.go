package testutil

import (
	"fmt"
	"sync"
)

// SequentialGenerator returns "<prefix>-1", "<prefix>-2", ... and never runs
// out. It satisfies edit.IDGenerator.
//
// Unlike edit.FixedGenerator, which panics once its list is consumed, this
// generator suits scripts whose record count is not known up front.
//
// Thread-safety: SequentialGenerator is safe for concurrent use.
type SequentialGenerator struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSequentialGenerator creates a generator for prefix. An empty prefix
// defaults to "id".
func NewSequentialGenerator(prefix string) *SequentialGenerator {
	if prefix == "" {
		prefix = "id"
	}
	return &SequentialGenerator{prefix: prefix}
}

// Generate returns the next id.
func (g *SequentialGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%d", g.prefix, g.n)
}
