package testutil

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFixedIDs_ReturnsSequence(t *testing.T) {
	gen := NewFixedIDs("a", "b")

	assert.Equal(t, "a", gen.Generate())
	assert.Equal(t, "b", gen.Generate())
}

func TestFixedIDs_FallsBackWhenExhausted(t *testing.T) {
	gen := NewFixedIDs("a")

	assert.Equal(t, "a", gen.Generate())
	assert.Equal(t, "mobber-2", gen.Generate())
	assert.Equal(t, "mobber-3", gen.Generate())
}

func TestFixedIDs_Empty(t *testing.T) {
	gen := NewFixedIDs()
	assert.Equal(t, "mobber-1", gen.Generate())
}

func TestFixedIDs_ThreadSafe(t *testing.T) {
	gen := NewFixedIDs()
	const goroutines = 20
	const calls = 50

	var mu sync.Mutex
	seen := make(map[string]bool)
	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < calls; j++ {
				id := gen.Generate()
				mu.Lock()
				seen[id] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	require.Len(t, seen, goroutines*calls, "every id must be unique")
}
