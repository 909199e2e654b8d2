package engine

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/mobtimer/internal/roster"
	"github.com/roach88/mobtimer/internal/state"
)

// Event names as they appear on the wire.
const (
	EventTimerChange   = "timerChange"
	EventRotated       = "rotated"
	EventStarted       = "started"
	EventPaused        = "paused"
	EventTurnEnded     = "turnEnded"
	EventStopAlerts    = "stopAlerts"
	EventAlert         = "alert"
	EventConfigUpdated = "configUpdated"
)

// Event is one observable state change. The concrete types below are the
// only implementations.
type Event interface {
	EventName() string
}

// TimerChange reports the seconds left in the current turn. SecondsRemaining
// is never negative.
type TimerChange struct {
	SecondsRemaining int `json:"secondsRemaining"`
	SecondsPerTurn   int `json:"secondsPerTurn"`
}

// Rotated reports the current and next mobber after any change that may
// have moved the cursor.
type Rotated roster.Pair

// Started reports that the turn clock started.
type Started struct{}

// Paused reports that the turn clock paused.
type Paused struct{}

// TurnEnded reports that the current turn is over.
type TurnEnded struct{}

// StopAlerts reports that the alert clock stopped.
type StopAlerts struct{}

// Alert reports the seconds elapsed since the turn ended.
type Alert struct {
	Seconds int
}

// ConfigUpdated carries the full state after a configuration change.
type ConfigUpdated struct {
	State state.State
}

func (TimerChange) EventName() string   { return EventTimerChange }
func (Rotated) EventName() string       { return EventRotated }
func (Started) EventName() string       { return EventStarted }
func (Paused) EventName() string        { return EventPaused }
func (TurnEnded) EventName() string     { return EventTurnEnded }
func (StopAlerts) EventName() string    { return EventStopAlerts }
func (Alert) EventName() string         { return EventAlert }
func (ConfigUpdated) EventName() string { return EventConfigUpdated }

// EventEnvelope is the wire form of an Event. Data is absent for events
// without a payload.
type EventEnvelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// EventData returns the payload of e in its wire shape, or nil for events
// without one.
func EventData(e Event) any {
	switch ev := e.(type) {
	case TimerChange:
		return ev
	case Rotated:
		return roster.Pair(ev)
	case Alert:
		return ev.Seconds
	case ConfigUpdated:
		return ev.State
	default:
		return nil
	}
}

// EncodeEvent converts e to its envelope.
func EncodeEvent(e Event) (EventEnvelope, error) {
	env := EventEnvelope{Event: e.EventName()}
	data := EventData(e)
	if data == nil {
		return env, nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return EventEnvelope{}, fmt.Errorf("marshal %s event: %w", env.Event, err)
	}
	env.Data = raw
	return env, nil
}

// MarshalEvent returns the JSON envelope {"event": name, "data": payload}.
func MarshalEvent(e Event) ([]byte, error) {
	env, err := EncodeEvent(e)
	if err != nil {
		return nil, err
	}
	return json.Marshal(env)
}
