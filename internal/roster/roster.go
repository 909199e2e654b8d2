// Package roster maintains the ordered list of mobbers and the rotation
// cursor.
//
// Rotation order is insertion order restricted to the active subset
// (mobbers that are not disabled). The cursor indexes that subset, never
// the raw list, and is re-derived by identity after every membership
// change (see DeriveCursor).
//
// INVARIANTS:
//   - mobber ids are unique
//   - 0 <= cursor < len(active) when active is non-empty, else cursor == 0
//   - CurrentAndNext never returns a disabled mobber
package roster

import (
	"math/rand/v2"
	"slices"
)

// Option configures a Roster.
type Option func(*Roster)

// WithIDGenerator sets the generator used for mobbers added without an id.
func WithIDGenerator(g IDGenerator) Option {
	return func(r *Roster) {
		r.ids = g
	}
}

// WithPlaceholderImage sets the image given to mobbers added without one.
// Empty (the default) leaves the image unset.
func WithPlaceholderImage(uri string) Option {
	return func(r *Roster) {
		r.placeholder = uri
	}
}

// WithRand sets the random source used by Shuffle.
func WithRand(rnd *rand.Rand) Option {
	return func(r *Roster) {
		r.rand = rnd
	}
}

// Roster is an ordered, mutable collection of mobbers with a rotation cursor.
//
// Thread-safety: none. The engine that owns a Roster is its only writer.
type Roster struct {
	mobbers     []Mobber
	cursor      int
	ids         IDGenerator
	placeholder string
	rand        *rand.Rand
}

// New creates an empty Roster.
func New(opts ...Option) *Roster {
	r := &Roster{
		ids: UUIDGenerator{},
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.rand == nil {
		r.rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return r
}

// Add appends a mobber and returns it with defaults applied.
//
// A missing id is generated. Adding an id that already exists replaces that
// mobber in place (see Update), which keeps ids unique and makes replaying
// a persisted roster idempotent.
func (r *Roster) Add(m Mobber) Mobber {
	if m.ID == "" {
		m.ID = r.ids.Generate()
	}
	m = r.withDefaults(m)

	if r.indexOf(m.ID) >= 0 {
		r.Update(m)
		return m
	}

	r.mutate(func() {
		r.mobbers = append(r.mobbers, m)
	})
	return m
}

func (r *Roster) withDefaults(m Mobber) Mobber {
	if m.Image == "" {
		m.Image = r.placeholder
	}
	return normalize(m)
}

// Remove deletes the mobber with the given id.
// Returns false (and changes nothing) if no such mobber exists.
func (r *Roster) Remove(id string) bool {
	i := r.indexOf(id)
	if i < 0 {
		return false
	}
	r.mutate(func() {
		r.mobbers = slices.Delete(r.mobbers, i, i+1)
	})
	return true
}

// Update replaces the mobber with the same id. A missing image falls back
// to the placeholder, as in Add.
// Returns false (and changes nothing) if no such mobber exists.
func (r *Roster) Update(m Mobber) bool {
	i := r.indexOf(m.ID)
	if i < 0 {
		return false
	}
	m = r.withDefaults(m)
	r.mutate(func() {
		r.mobbers[i] = m
	})
	return true
}

// Rotate advances the cursor to the next active mobber, wrapping.
func (r *Roster) Rotate() {
	n := len(r.Active())
	if n == 0 {
		r.cursor = 0
		return
	}
	r.cursor = (r.cursor + 1) % n
}

// CurrentAndNext returns the current and next active mobbers.
func (r *Roster) CurrentAndNext() Pair {
	active := r.Active()
	if len(active) == 0 {
		return Pair{}
	}
	current := active[r.cursor]
	next := active[(r.cursor+1)%len(active)]
	return Pair{Current: &current, Next: &next}
}

// Shuffle randomly permutes the raw order (Fisher-Yates). It does not try
// to keep the current mobber; the cursor keeps its index.
func (r *Roster) Shuffle() {
	r.rand.Shuffle(len(r.mobbers), func(i, j int) {
		r.mobbers[i], r.mobbers[j] = r.mobbers[j], r.mobbers[i]
	})
}

// All returns a copy of every mobber in rotation order.
func (r *Roster) All() []Mobber {
	return slices.Clone(r.mobbers)
}

// Active returns the mobbers that are not disabled, in rotation order.
func (r *Roster) Active() []Mobber {
	active := make([]Mobber, 0, len(r.mobbers))
	for _, m := range r.mobbers {
		if !m.Disabled {
			active = append(active, m)
		}
	}
	return active
}

// Get returns the mobber with the given id.
func (r *Roster) Get(id string) (Mobber, bool) {
	i := r.indexOf(id)
	if i < 0 {
		return Mobber{}, false
	}
	return r.mobbers[i], true
}

// Cursor returns the index of the current mobber within Active().
func (r *Roster) Cursor() int {
	return r.cursor
}

// Len returns the number of mobbers, active or not.
func (r *Roster) Len() int {
	return len(r.mobbers)
}

// mutate applies fn and re-derives the cursor by identity.
func (r *Roster) mutate(fn func()) {
	before := r.Active()
	fn()
	r.cursor = DeriveCursor(before, r.cursor, r.Active())
}

func (r *Roster) indexOf(id string) int {
	return slices.IndexFunc(r.mobbers, func(m Mobber) bool {
		return m.ID == id
	})
}
