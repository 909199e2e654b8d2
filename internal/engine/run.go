package engine

import (
	"context"
	"log/slog"
)

// Enqueue submits a command for the Run loop.
// Thread-safe: may be called from any goroutine.
//
// Returns false if the engine has been stopped.
func (e *Engine) Enqueue(c Command) bool {
	return e.queue.Enqueue(c)
}

// Do runs fn on the Run goroutine and waits for it to finish. Use it to
// read engine state from other goroutines.
//
// Returns ErrStopped if the engine no longer accepts commands, or the
// context error if ctx ends first.
func (e *Engine) Do(ctx context.Context, fn func(*Engine)) error {
	cmd := funcCommand{fn: fn, done: make(chan struct{})}
	if !e.queue.Enqueue(cmd) {
		return ErrStopped
	}
	select {
	case <-cmd.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run starts the single-writer loop.
// Blocks until the context is cancelled or Stop() is called.
//
// CRITICAL: Must be called from exactly ONE goroutine, and once it is
// running no other goroutine may call the engine's operations directly.
//
// ERROR HANDLING: a failed command is logged with its name and the loop
// continues. Failed persistence is not retried; the next change writes the
// full state again.
//
// Both clocks are stopped when Run returns; the engine is not meant to be
// reused afterwards.
func (e *Engine) Run(ctx context.Context) error {
	slog.Info("engine starting",
		"phase", e.phase.String(),
		"seconds_per_turn", e.settings.SecondsPerTurn,
	)
	defer e.stopClocks()

	for {
		if cmd, ok := e.queue.TryDequeue(); ok {
			e.process(ctx, cmd)
			continue
		}

		// Nil channels (paused clocks) never fire.
		select {
		case <-ctx.Done():
			slog.Info("engine stopping: context cancelled")
			e.queue.Close()
			return ctx.Err()

		case <-e.queue.Wait():
			// The signal channel is closed by Stop; a stale signal with an
			// empty open queue just loops back.
			if e.queue.Closed() && e.queue.Len() == 0 {
				slog.Info("engine stopping: queue closed")
				return nil
			}

		case <-e.main.C():
			e.main.Tick()

		case <-e.alerts.C():
			e.alerts.Tick()
		}
	}
}

// Stop closes the command queue, which makes Run return once the queued
// commands have been processed.
func (e *Engine) Stop() {
	e.queue.Close()
}

// Apply runs cmd synchronously. Like the other operations it must only be
// called from the goroutine that owns the engine; use Enqueue once Run has
// started.
func (e *Engine) Apply(ctx context.Context, cmd Command) error {
	return cmd.apply(ctx, e)
}

// process applies one command.
// CRITICAL: Called only from the Run goroutine.
func (e *Engine) process(ctx context.Context, cmd Command) {
	slog.Debug("processing command", "command", cmd.CommandName())

	if err := e.Apply(ctx, cmd); err != nil {
		slog.Error("command failed",
			"command", cmd.CommandName(),
			"phase", e.phase.String(),
			"error", err,
		)
	}
}

// stopClocks releases both tickers without emitting events.
func (e *Engine) stopClocks() {
	e.main.Pause()
	e.alerts.Pause()
}
