// Package state defines the engine's persisted configuration snapshot and
// the contract for storing it.
package state

import (
	"slices"

	"github.com/roach88/mobtimer/internal/roster"
)

// Default scalar values for a fresh engine.
const (
	DefaultSecondsPerTurn         = 600
	DefaultSecondsUntilFullscreen = 30
	DefaultSnapThreshold          = 25
)

// State is the full configuration snapshot: the roster plus every scalar
// setting. It is a projection computed on demand, never stored by the
// engine itself.
type State struct {
	Mobbers                 []roster.Mobber `json:"mobbers"`
	SecondsPerTurn          int             `json:"secondsPerTurn"`
	SecondsUntilFullscreen  int             `json:"secondsUntilFullscreen"`
	SnapThreshold           int             `json:"snapThreshold"`
	AlertSound              *string         `json:"alertSound"`
	AlertSoundTimes         []int           `json:"alertSoundTimes"`
	TimerAlwaysOnTop        bool            `json:"timerAlwaysOnTop"`
	ShuffleMobbersOnStartup bool            `json:"shuffleMobbersOnStartup"`
}

// Default returns the state of a newly constructed engine.
func Default() State {
	return State{
		Mobbers:                []roster.Mobber{},
		SecondsPerTurn:         DefaultSecondsPerTurn,
		SecondsUntilFullscreen: DefaultSecondsUntilFullscreen,
		SnapThreshold:          DefaultSnapThreshold,
		AlertSoundTimes:        []int{},
		TimerAlwaysOnTop:       true,
	}
}

// Clone returns a deep copy of s.
func (s State) Clone() State {
	out := s
	out.Mobbers = slices.Clone(s.Mobbers)
	if out.Mobbers == nil {
		out.Mobbers = []roster.Mobber{}
	}
	out.AlertSoundTimes = slices.Clone(s.AlertSoundTimes)
	if out.AlertSoundTimes == nil {
		out.AlertSoundTimes = []int{}
	}
	if s.AlertSound != nil {
		sound := *s.AlertSound
		out.AlertSound = &sound
	}
	return out
}

// Partial is a persisted snapshot that may be missing fields. An empty
// Partial means nothing was persisted.
//
// Absent fields are handled by Apply:
//   - Mobbers nil: no mobbers are added
//   - SecondsPerTurn 0: keeps the current value
//   - SecondsUntilFullscreen, SnapThreshold, TimerAlwaysOnTop nil: keep the current value
//   - AlertSound nil: no alert sound
//   - AlertSoundTimes nil: no alert times
//   - ShuffleMobbersOnStartup absent: false
type Partial struct {
	Mobbers                 []roster.Mobber `json:"mobbers,omitempty"`
	SecondsPerTurn          int             `json:"secondsPerTurn,omitempty"`
	SecondsUntilFullscreen  *int            `json:"secondsUntilFullscreen,omitempty"`
	SnapThreshold           *int            `json:"snapThreshold,omitempty"`
	AlertSound              *string         `json:"alertSound,omitempty"`
	AlertSoundTimes         []int           `json:"alertSoundTimes,omitempty"`
	TimerAlwaysOnTop        *bool           `json:"timerAlwaysOnTop,omitempty"`
	ShuffleMobbersOnStartup bool            `json:"shuffleMobbersOnStartup,omitempty"`
}

// Full converts a complete State into a Partial with every field present.
func Full(s State) Partial {
	s = s.Clone()
	return Partial{
		Mobbers:                 s.Mobbers,
		SecondsPerTurn:          s.SecondsPerTurn,
		SecondsUntilFullscreen:  &s.SecondsUntilFullscreen,
		SnapThreshold:           &s.SnapThreshold,
		AlertSound:              s.AlertSound,
		AlertSoundTimes:         s.AlertSoundTimes,
		TimerAlwaysOnTop:        &s.TimerAlwaysOnTop,
		ShuffleMobbersOnStartup: s.ShuffleMobbersOnStartup,
	}
}

// IsEmpty reports whether p carries no persisted data.
func (p Partial) IsEmpty() bool {
	return p.Mobbers == nil &&
		p.SecondsPerTurn == 0 &&
		p.SecondsUntilFullscreen == nil &&
		p.SnapThreshold == nil &&
		p.AlertSound == nil &&
		p.AlertSoundTimes == nil &&
		p.TimerAlwaysOnTop == nil &&
		!p.ShuffleMobbersOnStartup
}

// Apply overlays the scalar fields of p onto s and returns the result.
// Mobbers are not touched; the engine replays them through its roster.
func (p Partial) Apply(s State) State {
	s = s.Clone()
	if p.SecondsPerTurn != 0 {
		s.SecondsPerTurn = p.SecondsPerTurn
	}
	if p.SecondsUntilFullscreen != nil {
		s.SecondsUntilFullscreen = *p.SecondsUntilFullscreen
	}
	if p.SnapThreshold != nil {
		s.SnapThreshold = *p.SnapThreshold
	}
	s.AlertSound = nil
	if p.AlertSound != nil && *p.AlertSound != "" {
		sound := *p.AlertSound
		s.AlertSound = &sound
	}
	s.AlertSoundTimes = slices.Clone(p.AlertSoundTimes)
	if s.AlertSoundTimes == nil {
		s.AlertSoundTimes = []int{}
	}
	if p.TimerAlwaysOnTop != nil {
		s.TimerAlwaysOnTop = *p.TimerAlwaysOnTop
	}
	s.ShuffleMobbersOnStartup = p.ShuffleMobbersOnStartup
	return s
}
