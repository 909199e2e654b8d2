package engine

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/roach88/mobtimer/internal/roster"
	"github.com/roach88/mobtimer/internal/state"
)

// CommandEnvelope is the wire form of a Command.
type CommandEnvelope struct {
	Command string          `json:"command" validate:"required,max=64"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// DecodeCommand parses a JSON envelope {"command": name, "data": payload}.
func DecodeCommand(raw []byte) (Command, error) {
	var env CommandEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decode command envelope: %w", err)
	}
	return env.Decode()
}

// Decode converts the envelope into a typed Command.
//
// Names used by older timer windows are accepted as aliases:
// timerWindowReady (initialize), configWindowReady and fullscreenWindowReady
// (publishConfig), unpause and startTurn (start), skip (rotate).
func (env CommandEnvelope) Decode() (Command, error) {
	switch env.Command {
	case CommandInitialize, "timerWindowReady":
		return Initialize{}, nil
	case CommandReset:
		return Reset{}, nil
	case CommandStart, "unpause", "startTurn":
		return Start{}, nil
	case CommandPause:
		return Pause{}, nil
	case CommandRotate, "skip":
		return Rotate{}, nil
	case CommandPublishConfig, CommandGetState, "configWindowReady", "fullscreenWindowReady":
		return PublishConfig{}, nil
	case CommandShuffleMobbers:
		return ShuffleMobbers{}, nil

	case CommandAddMobber:
		var m roster.Mobber
		if err := env.data(&m); err != nil {
			return nil, err
		}
		return AddMobber{Mobber: m}, nil

	case CommandRemoveMobber:
		id, err := env.mobberID()
		if err != nil {
			return nil, err
		}
		return RemoveMobber{ID: id}, nil

	case CommandUpdateMobber:
		var m roster.Mobber
		if err := env.data(&m); err != nil {
			return nil, err
		}
		return UpdateMobber{Mobber: m}, nil

	case CommandSetSecondsPerTurn:
		return decodeAs(env, func(v int) Command { return SetSecondsPerTurn{Seconds: v} })

	case CommandSetSecondsUntilFullscreen:
		return decodeAs(env, func(v int) Command { return SetSecondsUntilFullscreen{Seconds: v} })

	case CommandSetSnapThreshold:
		return decodeAs(env, func(v int) Command { return SetSnapThreshold{Threshold: v} })

	case CommandSetAlertSound:
		// null clears the sound.
		var path *string
		if len(env.Data) > 0 {
			if err := json.Unmarshal(env.Data, &path); err != nil {
				return nil, fmt.Errorf("decode %s data: %w", env.Command, err)
			}
		}
		return SetAlertSound{Path: path}, nil

	case CommandSetAlertSoundTimes:
		return decodeAs(env, func(v []int) Command { return SetAlertSoundTimes{Times: v} })

	case CommandSetTimerAlwaysOnTop:
		return decodeAs(env, func(v bool) Command { return SetTimerAlwaysOnTop{Value: v} })

	case CommandSetShuffleMobbersOnStartup:
		return decodeAs(env, func(v bool) Command { return SetShuffleMobbersOnStartup{Value: v} })

	case CommandLoadState:
		return decodeAs(env, func(v state.Partial) Command { return LoadState{State: v} })

	case CommandSetTestingSpeed:
		// Milliseconds per timer second.
		var ms int
		if err := env.data(&ms); err != nil {
			return nil, err
		}
		if ms <= 0 {
			return nil, fmt.Errorf("%s: milliseconds per second must be positive, got %d", env.Command, ms)
		}
		return SetSecondLength{Length: time.Duration(ms) * time.Millisecond}, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCommand, env.Command)
	}
}

// decodeAs decodes a required payload of type T and wraps it with build.
func decodeAs[T any](env CommandEnvelope, build func(T) Command) (Command, error) {
	var v T
	if err := env.data(&v); err != nil {
		return nil, err
	}
	return build(v), nil
}

// data decodes a required payload into v.
func (env CommandEnvelope) data(v any) error {
	if isAbsent(env.Data) {
		return fmt.Errorf("%s: %w", env.Command, ErrMissingData)
	}
	if err := json.Unmarshal(env.Data, v); err != nil {
		return fmt.Errorf("decode %s data: %w", env.Command, err)
	}
	return nil
}

// mobberID accepts either a bare id string or a mobber object.
func (env CommandEnvelope) mobberID() (string, error) {
	if isAbsent(env.Data) {
		return "", fmt.Errorf("%s: %w", env.Command, ErrMissingData)
	}
	var id string
	if err := json.Unmarshal(env.Data, &id); err == nil {
		return id, nil
	}
	var m roster.Mobber
	if err := json.Unmarshal(env.Data, &m); err != nil {
		return "", fmt.Errorf("decode %s data: %w", env.Command, err)
	}
	return m.ID, nil
}

func isAbsent(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
