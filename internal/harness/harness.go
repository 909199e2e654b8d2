package harness

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/roach88/mobtimer/internal/engine"
	"github.com/roach88/mobtimer/internal/roster"
	"github.com/roach88/mobtimer/internal/state"
	"github.com/roach88/mobtimer/internal/testutil"
)

// TickRate is how far the fake clock moves between engine ticks during an
// advance step.
const TickRate = 100 * time.Millisecond

// Harness drives one engine through a scenario.
type Harness struct {
	engine *engine.Engine
	clock  *clockwork.FakeClock
	events *testutil.Recorder[engine.Event]
	logger *slog.Logger
}

// Run executes a scenario and returns the result.
//
// Each scenario gets a fresh engine with an in-memory persister, a fake
// clock and fixed id generation, so repeated runs produce identical traces.
//
// Execution flow:
// 1. Seed seconds_per_turn and mobbers (not traced)
// 2. Execute steps, recording every event
// 3. Snapshot the final state
// 4. Evaluate assertions
//
// A step that cannot be decoded or fails is returned as an error; failed
// assertions are reported in the Result.
func Run(scenario *Scenario) (*Result, error) {
	clock := clockwork.NewFakeClock()
	eng := engine.New(
		engine.WithClock(clock),
		engine.WithPersister(state.NewMemory()),
		engine.WithTickRate(TickRate),
		engine.WithRosterOptions(roster.WithIDGenerator(testutil.NewFixedIDs())),
	)

	h := &Harness{
		engine: eng,
		clock:  clock,
		events: testutil.NewRecorder[engine.Event](),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	ctx := context.Background()
	if err := h.setup(ctx, scenario); err != nil {
		return nil, fmt.Errorf("failed to execute setup: %w", err)
	}

	unsubscribe := eng.Subscribe(h.events.Record)
	for i, step := range scenario.Steps {
		if err := h.executeStep(ctx, step); err != nil {
			unsubscribe()
			return nil, fmt.Errorf("steps[%d]: %w", i, err)
		}
	}
	unsubscribe()

	result := NewResult()
	for _, ev := range h.events.Events() {
		env, err := engine.EncodeEvent(ev)
		if err != nil {
			return nil, fmt.Errorf("encode trace: %w", err)
		}
		result.AddTrace(env.Event, env.Data)
	}
	result.Final = h.snapshot()

	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}

	h.logger.Debug("scenario finished",
		"scenario", scenario.Name,
		"events", len(result.Trace),
		"pass", result.Pass,
	)
	return result, nil
}

// setup seeds the engine before recording starts.
func (h *Harness) setup(ctx context.Context, s *Scenario) error {
	if s.SecondsPerTurn > 0 {
		if err := h.engine.SetSecondsPerTurn(ctx, s.SecondsPerTurn); err != nil {
			return err
		}
	}
	for i, m := range s.Mobbers {
		_, err := h.engine.AddMobber(ctx, roster.Mobber{
			ID:       m.ID,
			Name:     m.Name,
			Image:    m.Image,
			Disabled: m.Disabled,
		})
		if err != nil {
			return fmt.Errorf("mobbers[%d]: %w", i, err)
		}
	}
	return nil
}

func (h *Harness) executeStep(ctx context.Context, step Step) error {
	if step.Advance != "" {
		d, err := time.ParseDuration(step.Advance)
		if err != nil {
			return fmt.Errorf("advance: %w", err)
		}
		h.advance(d)
		return nil
	}

	env := engine.CommandEnvelope{Command: step.Command}
	if step.Data != nil {
		raw, err := json.Marshal(step.Data)
		if err != nil {
			return fmt.Errorf("encode %s data: %w", step.Command, err)
		}
		env.Data = raw
	}
	cmd, err := env.Decode()
	if err != nil {
		return err
	}
	h.logger.Debug("applying command", "command", cmd.CommandName())
	return h.engine.Apply(ctx, cmd)
}

// advance moves the fake clock forward in TickRate steps, sampling the
// engine's clocks after each one the way their tickers would.
func (h *Harness) advance(d time.Duration) {
	for d > 0 {
		step := min(TickRate, d)
		h.clock.Advance(step)
		h.engine.Tick()
		d -= step
	}
}

func (h *Harness) snapshot() Final {
	pair := h.engine.CurrentAndNext()
	return Final{
		State:            h.engine.State(),
		Current:          pair.Current,
		Next:             pair.Next,
		Phase:            h.engine.Phase().String(),
		SecondsRemaining: h.engine.SecondsRemaining(),
	}
}
