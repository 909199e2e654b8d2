package state

import (
	"context"
	"sync"
)

// Persister stores engine state between runs.
//
// Read returns an empty Partial when nothing has been persisted. Write
// receives the full state after every change. Errors from either are
// returned to the engine's caller unchanged.
//
// Implemented by store.Store (SQLite), statefile.File (JSON file),
// Memory and Discard.
type Persister interface {
	Read(ctx context.Context) (Partial, error)
	Write(ctx context.Context, s State) error
}

// Memory keeps the last written state in memory.
//
// Thread-safety: all methods are safe for concurrent use.
type Memory struct {
	mu     sync.Mutex
	state  *State
	writes int
}

// NewMemory creates a Memory persister, optionally seeded with a state.
func NewMemory(seed ...State) *Memory {
	m := &Memory{}
	if len(seed) > 0 {
		s := seed[0].Clone()
		m.state = &s
	}
	return m
}

// Read returns the last written state, or an empty Partial.
func (m *Memory) Read(ctx context.Context) (Partial, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == nil {
		return Partial{}, nil
	}
	return Full(*m.state), nil
}

// Write stores a copy of s.
func (m *Memory) Write(ctx context.Context, s State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s = s.Clone()
	m.state = &s
	m.writes++
	return nil
}

// Last returns the last written state and whether one exists.
func (m *Memory) Last() (State, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == nil {
		return State{}, false
	}
	return m.state.Clone(), true
}

// Writes returns how many times Write has been called.
func (m *Memory) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

// Discard is a Persister that stores nothing.
type Discard struct{}

// Read always returns an empty Partial.
func (Discard) Read(context.Context) (Partial, error) { return Partial{}, nil }

// Write drops s.
func (Discard) Write(context.Context, State) error { return nil }
