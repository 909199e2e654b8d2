package engine

import "errors"

var (
	// ErrUnknownCommand is returned when a command name is not recognized.
	ErrUnknownCommand = errors.New("unknown command")

	// ErrMissingData is returned when a command that needs a payload has none.
	ErrMissingData = errors.New("missing command data")

	// ErrStopped is returned by Do when the engine no longer accepts commands.
	ErrStopped = errors.New("engine stopped")
)
