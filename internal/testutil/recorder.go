package testutil

import "sync"

// Recorder collects values passed to Record, typically engine events from a
// subscription.
//
// Thread-safety: all methods are safe for concurrent use.
type Recorder[E any] struct {
	mu     sync.Mutex
	events []E
}

// NewRecorder creates an empty recorder.
func NewRecorder[E any]() *Recorder[E] {
	return &Recorder[E]{}
}

// Record appends e. Its signature matches engine.Subscribe callbacks.
func (r *Recorder[E]) Record(e E) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

// Events returns a copy of everything recorded so far.
func (r *Recorder[E]) Events() []E {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]E, len(r.events))
	copy(out, r.events)
	return out
}

// Len returns the number of recorded values.
func (r *Recorder[E]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

// Reset discards everything recorded so far.
func (r *Recorder[E]) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}
