package roster

import (
	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"
)

// Mobber is one rotation participant. Identity is ID; Name is not unique.
type Mobber struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Image    string `json:"image,omitempty"`
	Disabled bool   `json:"disabled"`
}

// Pair is the current and next active mobber. Both are nil when no mobber
// is active, and both point at the same mobber when exactly one is.
type Pair struct {
	Current *Mobber `json:"current"`
	Next    *Mobber `json:"next"`
}

// IDGenerator produces ids for mobbers added without one.
// Implemented by UUIDGenerator (production) and testutil.FixedIDs (tests).
type IDGenerator interface {
	Generate() string
}

// UUIDGenerator generates random (version 4) UUIDs.
type UUIDGenerator struct{}

// Generate returns a new hyphenated UUID string.
func (UUIDGenerator) Generate() string {
	return uuid.NewString()
}

// normalize applies NFC to the display name so visually identical names
// entered on different platforms compare equal.
func normalize(m Mobber) Mobber {
	m.Name = norm.NFC.String(m.Name)
	return m
}
