package engine

import (
	"context"
	"time"

	"github.com/roach88/mobtimer/internal/roster"
	"github.com/roach88/mobtimer/internal/state"
)

// Command is a request to change engine state, submitted through Enqueue
// and applied on the Run goroutine. The concrete types below are the only
// implementations.
type Command interface {
	CommandName() string
	apply(ctx context.Context, e *Engine) error
}

// Command names as they appear on the wire.
const (
	CommandInitialize                 = "initialize"
	CommandReset                      = "reset"
	CommandStart                      = "start"
	CommandPause                      = "pause"
	CommandRotate                     = "rotate"
	CommandPublishConfig              = "publishConfig"
	CommandAddMobber                  = "addMobber"
	CommandRemoveMobber               = "removeMobber"
	CommandUpdateMobber               = "updateMobber"
	CommandShuffleMobbers             = "shuffleMobbers"
	CommandSetSecondsPerTurn          = "setSecondsPerTurn"
	CommandSetSecondsUntilFullscreen  = "setSecondsUntilFullscreen"
	CommandSetSnapThreshold           = "setSnapThreshold"
	CommandSetAlertSound              = "setAlertSound"
	CommandSetAlertSoundTimes         = "setAlertSoundTimes"
	CommandSetTimerAlwaysOnTop        = "setTimerAlwaysOnTop"
	CommandSetShuffleMobbersOnStartup = "setShuffleMobbersOnStartup"
	CommandLoadState                  = "loadState"
	CommandGetState                   = "getState"
	CommandSetTestingSpeed            = "setTestingSpeed"
)

type (
	Initialize    struct{}
	Reset         struct{}
	Start         struct{}
	Pause         struct{}
	Rotate        struct{}
	PublishConfig struct{}

	AddMobber struct {
		Mobber roster.Mobber
	}
	RemoveMobber struct {
		ID string
	}
	UpdateMobber struct {
		Mobber roster.Mobber
	}
	ShuffleMobbers struct{}

	SetSecondsPerTurn struct {
		Seconds int
	}
	SetSecondsUntilFullscreen struct {
		Seconds int
	}
	SetSnapThreshold struct {
		Threshold int
	}
	SetAlertSound struct {
		Path *string
	}
	SetAlertSoundTimes struct {
		Times []int
	}
	SetTimerAlwaysOnTop struct {
		Value bool
	}
	SetShuffleMobbersOnStartup struct {
		Value bool
	}

	LoadState struct {
		State state.Partial
	}

	// SetSecondLength changes how long one timer second lasts.
	SetSecondLength struct {
		Length time.Duration
	}
)

func (Initialize) CommandName() string                 { return CommandInitialize }
func (Reset) CommandName() string                      { return CommandReset }
func (Start) CommandName() string                      { return CommandStart }
func (Pause) CommandName() string                      { return CommandPause }
func (Rotate) CommandName() string                     { return CommandRotate }
func (PublishConfig) CommandName() string              { return CommandPublishConfig }
func (AddMobber) CommandName() string                  { return CommandAddMobber }
func (RemoveMobber) CommandName() string               { return CommandRemoveMobber }
func (UpdateMobber) CommandName() string               { return CommandUpdateMobber }
func (ShuffleMobbers) CommandName() string             { return CommandShuffleMobbers }
func (SetSecondsPerTurn) CommandName() string          { return CommandSetSecondsPerTurn }
func (SetSecondsUntilFullscreen) CommandName() string  { return CommandSetSecondsUntilFullscreen }
func (SetSnapThreshold) CommandName() string           { return CommandSetSnapThreshold }
func (SetAlertSound) CommandName() string              { return CommandSetAlertSound }
func (SetAlertSoundTimes) CommandName() string         { return CommandSetAlertSoundTimes }
func (SetTimerAlwaysOnTop) CommandName() string        { return CommandSetTimerAlwaysOnTop }
func (SetShuffleMobbersOnStartup) CommandName() string { return CommandSetShuffleMobbersOnStartup }
func (LoadState) CommandName() string                  { return CommandLoadState }
func (SetSecondLength) CommandName() string            { return CommandSetTestingSpeed }

func (Initialize) apply(_ context.Context, e *Engine) error    { e.Initialize(); return nil }
func (Reset) apply(_ context.Context, e *Engine) error         { e.Reset(); return nil }
func (Start) apply(_ context.Context, e *Engine) error         { e.Start(); return nil }
func (Pause) apply(_ context.Context, e *Engine) error         { e.Pause(); return nil }
func (Rotate) apply(_ context.Context, e *Engine) error        { e.Rotate(); return nil }
func (PublishConfig) apply(_ context.Context, e *Engine) error { e.PublishConfig(); return nil }

func (c AddMobber) apply(ctx context.Context, e *Engine) error {
	_, err := e.AddMobber(ctx, c.Mobber)
	return err
}

func (c RemoveMobber) apply(ctx context.Context, e *Engine) error {
	return e.RemoveMobber(ctx, c.ID)
}

func (c UpdateMobber) apply(ctx context.Context, e *Engine) error {
	return e.UpdateMobber(ctx, c.Mobber)
}

func (ShuffleMobbers) apply(ctx context.Context, e *Engine) error {
	return e.ShuffleMobbers(ctx)
}

func (c SetSecondsPerTurn) apply(ctx context.Context, e *Engine) error {
	return e.SetSecondsPerTurn(ctx, c.Seconds)
}

func (c SetSecondsUntilFullscreen) apply(ctx context.Context, e *Engine) error {
	return e.SetSecondsUntilFullscreen(ctx, c.Seconds)
}

func (c SetSnapThreshold) apply(ctx context.Context, e *Engine) error {
	return e.SetSnapThreshold(ctx, c.Threshold)
}

func (c SetAlertSound) apply(ctx context.Context, e *Engine) error {
	return e.SetAlertSound(ctx, c.Path)
}

func (c SetAlertSoundTimes) apply(ctx context.Context, e *Engine) error {
	return e.SetAlertSoundTimes(ctx, c.Times)
}

func (c SetTimerAlwaysOnTop) apply(ctx context.Context, e *Engine) error {
	return e.SetTimerAlwaysOnTop(ctx, c.Value)
}

func (c SetShuffleMobbersOnStartup) apply(ctx context.Context, e *Engine) error {
	return e.SetShuffleMobbersOnStartup(ctx, c.Value)
}

func (c LoadState) apply(ctx context.Context, e *Engine) error {
	return e.LoadState(ctx, c.State)
}

func (c SetSecondLength) apply(_ context.Context, e *Engine) error {
	e.SetSecondLength(c.Length)
	return nil
}

// funcCommand runs an arbitrary function on the engine goroutine. Used by Do.
type funcCommand struct {
	fn   func(*Engine)
	done chan struct{}
}

func (funcCommand) CommandName() string { return "do" }

func (c funcCommand) apply(_ context.Context, e *Engine) error {
	defer close(c.done)
	c.fn(e)
	return nil
}
