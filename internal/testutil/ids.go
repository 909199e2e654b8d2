package testutil

import (
	"fmt"
	"sync"
)

// FixedIDs hands out a predetermined sequence of mobber ids.
//
// Once the sequence is exhausted it falls back to "mobber-N", where N counts
// from 1 across all calls. The same FixedIDs setup always yields the same ids,
// which keeps golden traces stable.
//
// Thread-safety: Generate is safe for concurrent use.
type FixedIDs struct {
	mu  sync.Mutex
	ids []string
	n   int
}

// NewFixedIDs creates a generator that returns ids in order.
func NewFixedIDs(ids ...string) *FixedIDs {
	return &FixedIDs{ids: ids}
}

// Generate returns the next id. Implements roster.IDGenerator.
func (g *FixedIDs) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	if g.n <= len(g.ids) {
		return g.ids[g.n-1]
	}
	return fmt.Sprintf("mobber-%d", g.n)
}
