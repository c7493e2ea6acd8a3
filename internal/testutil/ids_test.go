package testutil

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/scheduler/internal/edit"
)

var _ edit.IDGenerator = (*SequentialGenerator)(nil)

func TestSequentialGenerator_Counts(t *testing.T) {
	gen := NewSequentialGenerator("edit")

	assert.Equal(t, "edit-1", gen.Generate())
	assert.Equal(t, "edit-2", gen.Generate())
	assert.Equal(t, "edit-3", gen.Generate())
}

func TestSequentialGenerator_EmptyPrefixDefault(t *testing.T) {
	gen := NewSequentialGenerator("")
	assert.Equal(t, "id-1", gen.Generate())
}

func TestSequentialGenerator_Concurrent(t *testing.T) {
	gen := NewSequentialGenerator("x")

	var mu sync.Mutex
	seen := make(map[string]bool)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := gen.Generate()
			mu.Lock()
			seen[id] = true
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Len(t, seen, 50, "every id is unique")
}
