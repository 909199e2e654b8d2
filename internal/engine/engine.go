package engine

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/roach88/mobtimer/internal/roster"
	"github.com/roach88/mobtimer/internal/state"
	"github.com/roach88/mobtimer/internal/timer"
)

// DefaultTickRate is how often the clocks are sampled. Faster than one
// second so a displayed second never lags by a full tick; repeated values
// are not re-emitted.
const DefaultTickRate = 100 * time.Millisecond

// Phase is the coarse engine state.
type Phase int

const (
	// PhaseTurnEnded: the turn clock is stopped at the start of a turn and
	// the alert clock may be counting.
	PhaseTurnEnded Phase = iota
	// PhaseRunning: the turn clock is counting down.
	PhaseRunning
	// PhasePaused: the turn clock is stopped mid-turn.
	PhasePaused
)

func (p Phase) String() string {
	switch p {
	case PhaseTurnEnded:
		return "turnEnded"
	case PhaseRunning:
		return "running"
	case PhasePaused:
		return "paused"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// Engine is the rotation engine.
//
// Thread-safety model:
//   - Enqueue(), Do(), Stop(), Subscribe(): safe from any goroutine
//   - Run(): must be called from exactly one goroutine
//   - every other method: only from the goroutine that owns the engine
//     (the Run goroutine once Run has started)
//
// INVARIANTS:
//   - the roster is mutated only through Engine methods
//   - every change to State() is written to the Persister before
//     configUpdated is emitted
//   - the turn clock runs iff Phase() == PhaseRunning
type Engine struct {
	clock        clockwork.Clock
	tickRate     time.Duration
	secondLength time.Duration
	persister    state.Persister
	rosterOpts   []roster.Option

	main   *timer.Clock
	alerts *timer.Clock
	roster *roster.Roster

	// Scalar settings. settings.Mobbers is unused; the roster owns them.
	settings state.State
	phase    Phase

	// Last values emitted, so ticks that do not change the displayed
	// second stay silent.
	lastRemaining int
	lastAlert     int

	observersMu sync.Mutex
	observers   []observer
	nextObsID   int

	queue *commandQueue
}

type observer struct {
	id int
	fn func(Event)
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock sets the time source. Default: the real clock.
func WithClock(c clockwork.Clock) Option {
	return func(e *Engine) {
		e.clock = c
	}
}

// WithPersister sets where state is read from and written to.
// Default: state.Discard.
func WithPersister(p state.Persister) Option {
	return func(e *Engine) {
		e.persister = p
	}
}

// WithTickRate sets how often the clocks are sampled.
func WithTickRate(d time.Duration) Option {
	return func(e *Engine) {
		e.tickRate = d
	}
}

// WithSecondLength sets how long one timer second lasts.
// Default: time.Second. Shorter values speed the timer up for testing.
func WithSecondLength(d time.Duration) Option {
	return func(e *Engine) {
		e.secondLength = d
	}
}

// WithRosterOptions passes options to the engine's roster.
func WithRosterOptions(opts ...roster.Option) Option {
	return func(e *Engine) {
		e.rosterOpts = append(e.rosterOpts, opts...)
	}
}

// New creates an Engine with default settings, an empty roster and both
// clocks paused.
func New(opts ...Option) *Engine {
	e := &Engine{
		clock:        clockwork.NewRealClock(),
		tickRate:     DefaultTickRate,
		secondLength: time.Second,
		persister:    state.Discard{},
		settings:     state.Default(),
		phase:        PhaseTurnEnded,
		queue:        newCommandQueue(),
	}

	for _, opt := range opts {
		opt(e)
	}

	e.roster = roster.New(e.rosterOpts...)
	e.lastRemaining = e.settings.SecondsPerTurn
	e.main, e.alerts = e.newClocks(e.settings.SecondsPerTurn, 0)

	return e
}

// newClocks builds the turn and alert clocks with the current rate and
// second length, starting from the given values.
func (e *Engine) newClocks(remaining, alert int) (*timer.Clock, *timer.Clock) {
	rate := min(e.tickRate, e.secondLength)
	main := timer.New(e.clock, timer.Options{
		Rate:      rate,
		Unit:      e.secondLength,
		Direction: timer.Down,
		Time:      remaining,
	}, e.onMainTick)
	alerts := timer.New(e.clock, timer.Options{
		Rate:      rate,
		Unit:      e.secondLength,
		Direction: timer.Up,
		Time:      alert,
	}, e.onAlertTick)
	return main, alerts
}

// Subscribe registers fn to receive every event. The returned function
// removes the subscription.
func (e *Engine) Subscribe(fn func(Event)) (unsubscribe func()) {
	e.observersMu.Lock()
	defer e.observersMu.Unlock()

	e.nextObsID++
	id := e.nextObsID
	e.observers = append(e.observers, observer{id: id, fn: fn})

	return func() {
		e.observersMu.Lock()
		defer e.observersMu.Unlock()
		e.observers = slices.DeleteFunc(e.observers, func(o observer) bool {
			return o.id == id
		})
	}
}

func (e *Engine) emit(ev Event) {
	e.observersMu.Lock()
	obs := slices.Clone(e.observers)
	e.observersMu.Unlock()

	for _, o := range obs {
		o.fn(ev)
	}
}

// State returns the current state snapshot.
func (e *Engine) State() state.State {
	s := e.settings.Clone()
	s.Mobbers = e.roster.All()
	if s.Mobbers == nil {
		s.Mobbers = []roster.Mobber{}
	}
	return s
}

// CurrentAndNext returns the current and next active mobber.
func (e *Engine) CurrentAndNext() roster.Pair {
	return e.roster.CurrentAndNext()
}

// Phase returns the coarse engine state.
func (e *Engine) Phase() Phase {
	return e.phase
}

// SecondsRemaining returns the raw value of the turn clock.
func (e *Engine) SecondsRemaining() int {
	return e.main.Time()
}

// Initialize stops everything, resets the turn clock, marks the turn as
// ended and publishes the full configuration. Presentation layers call it
// once they are ready to receive events.
func (e *Engine) Initialize() {
	e.halt()
	e.reset()
	e.phase = PhaseTurnEnded
	e.emit(TurnEnded{})
	e.PublishConfig()
}

// Reset sets the turn clock back to a full turn without changing phase.
func (e *Engine) Reset() {
	e.reset()
}

// Start starts the turn clock and stops any alerts. No-op while running.
func (e *Engine) Start() {
	if e.phase == PhaseRunning {
		return
	}
	e.main.Start()
	e.phase = PhaseRunning
	e.emit(Started{})
	e.stopAlerts()
}

// Pause pauses the turn clock and stops any alerts. No-op unless running.
func (e *Engine) Pause() {
	if e.phase != PhaseRunning {
		return
	}
	e.halt()
	e.phase = PhasePaused
}

// Rotate resets the turn clock and advances to the next mobber. The phase
// is unchanged: a running turn keeps running for the next mobber.
func (e *Engine) Rotate() {
	e.rotate()
}

// PublishConfig emits configUpdated and rotated without changing anything.
func (e *Engine) PublishConfig() {
	e.emit(ConfigUpdated{State: e.State()})
	e.emit(Rotated(e.roster.CurrentAndNext()))
}

// AddMobber adds a mobber (see roster.Roster.Add) and returns it with
// defaults applied.
func (e *Engine) AddMobber(ctx context.Context, m roster.Mobber) (roster.Mobber, error) {
	added := e.roster.Add(m)
	slog.Debug("mobber added", "id", added.ID, "name", added.Name)
	return added, e.persist(ctx)
}

// RemoveMobber removes a mobber by id. Removing the current mobber during a
// turn ends that turn. Unknown ids are ignored.
func (e *Engine) RemoveMobber(ctx context.Context, id string) error {
	wasCurrent := e.isCurrent(id)
	if !e.roster.Remove(id) {
		slog.Debug("remove of unknown mobber ignored", "id", id)
		return nil
	}
	slog.Debug("mobber removed", "id", id, "was_current", wasCurrent)

	if wasCurrent {
		e.endTurnEarly()
	}
	return e.persist(ctx)
}

// UpdateMobber replaces the mobber with the same id. Disabling the current
// mobber during a turn ends that turn. Unknown ids are ignored.
func (e *Engine) UpdateMobber(ctx context.Context, m roster.Mobber) error {
	wasCurrent := e.isCurrent(m.ID)
	if !e.roster.Update(m) {
		slog.Debug("update of unknown mobber ignored", "id", m.ID)
		return nil
	}
	slog.Debug("mobber updated", "id", m.ID, "disabled", m.Disabled)

	if wasCurrent && m.Disabled {
		e.endTurnEarly()
	}
	return e.persist(ctx)
}

// ShuffleMobbers randomly reorders the roster.
func (e *Engine) ShuffleMobbers(ctx context.Context) error {
	e.roster.Shuffle()
	return e.persist(ctx)
}

// SetSecondsPerTurn changes the turn length and resets the turn clock.
func (e *Engine) SetSecondsPerTurn(ctx context.Context, seconds int) error {
	e.settings.SecondsPerTurn = seconds
	err := e.persist(ctx)
	e.reset()
	return err
}

// SetSecondsUntilFullscreen changes the fullscreen delay.
func (e *Engine) SetSecondsUntilFullscreen(ctx context.Context, seconds int) error {
	e.settings.SecondsUntilFullscreen = seconds
	return e.persist(ctx)
}

// SetSnapThreshold changes the window snapping distance.
func (e *Engine) SetSnapThreshold(ctx context.Context, threshold int) error {
	e.settings.SnapThreshold = threshold
	return e.persist(ctx)
}

// SetAlertSound changes the alert sound. nil means no sound.
func (e *Engine) SetAlertSound(ctx context.Context, path *string) error {
	e.settings.AlertSound = nil
	if path != nil {
		p := *path
		e.settings.AlertSound = &p
	}
	return e.persist(ctx)
}

// SetAlertSoundTimes changes the alert seconds at which a sound plays.
func (e *Engine) SetAlertSoundTimes(ctx context.Context, times []int) error {
	e.settings.AlertSoundTimes = slices.Clone(times)
	if e.settings.AlertSoundTimes == nil {
		e.settings.AlertSoundTimes = []int{}
	}
	return e.persist(ctx)
}

// SetTimerAlwaysOnTop changes whether the timer window stays on top.
func (e *Engine) SetTimerAlwaysOnTop(ctx context.Context, v bool) error {
	e.settings.TimerAlwaysOnTop = v
	return e.persist(ctx)
}

// SetShuffleMobbersOnStartup changes whether the roster is shuffled at
// startup.
func (e *Engine) SetShuffleMobbersOnStartup(ctx context.Context, v bool) error {
	e.settings.ShuffleMobbersOnStartup = v
	return e.persist(ctx)
}

// LoadState overlays a persisted snapshot. Mobbers are replayed through
// AddMobber semantics (existing ids are replaced); absent scalars keep
// their defaults (see state.Partial). The result is persisted and
// published once, then the turn clock is reset.
func (e *Engine) LoadState(ctx context.Context, p state.Partial) error {
	for _, m := range p.Mobbers {
		e.roster.Add(m)
	}
	e.settings = p.Apply(e.settings)

	err := e.persist(ctx)
	e.reset()
	return err
}

// Load reads the persisted state once and applies it with LoadState.
func (e *Engine) Load(ctx context.Context) error {
	p, err := e.persister.Read(ctx)
	if err != nil {
		return fmt.Errorf("read state: %w", err)
	}
	slog.Info("state loaded",
		"mobbers", len(p.Mobbers),
		"empty", p.IsEmpty(),
	)
	return e.LoadState(ctx, p)
}

// SetSecondLength replaces both clocks with ones whose second lasts d,
// keeping their current values and running state.
func (e *Engine) SetSecondLength(d time.Duration) {
	if d <= 0 {
		return
	}

	remaining, mainRunning := e.main.Time(), e.main.Running()
	alert, alertsRunning := e.alerts.Time(), e.alerts.Running()
	e.main.Pause()
	e.alerts.Pause()

	e.secondLength = d
	e.main, e.alerts = e.newClocks(remaining, alert)
	if mainRunning {
		e.main.Start()
	}
	if alertsRunning {
		e.alerts.Start()
	}
	slog.Info("second length changed", "second_length", d)
}

// Tick samples both clocks once, as their tickers would. Callers that
// drive the engine without Run (tests, the scenario harness) use it after
// advancing a fake clock.
func (e *Engine) Tick() {
	if e.main.Running() {
		e.main.Tick()
	}
	if e.alerts.Running() {
		e.alerts.Tick()
	}
}

func (e *Engine) onMainTick(remaining int) {
	if remaining == e.lastRemaining {
		return
	}
	e.lastRemaining = remaining
	e.emit(TimerChange{
		SecondsRemaining: max(remaining, 0),
		SecondsPerTurn:   e.settings.SecondsPerTurn,
	})

	if remaining < 0 {
		e.halt()
		e.rotate()
		e.phase = PhaseTurnEnded
		e.emit(TurnEnded{})
		e.startAlerts()
	}
}

func (e *Engine) onAlertTick(seconds int) {
	if seconds == e.lastAlert {
		return
	}
	e.lastAlert = seconds
	e.emit(Alert{Seconds: seconds})
}

// halt pauses the turn clock and stops alerts, emitting both events
// regardless of the current phase. Callers set the phase.
func (e *Engine) halt() {
	e.main.Pause()
	e.emit(Paused{})
	e.stopAlerts()
}

// endTurnEarly ends an in-progress turn whose mobber went away.
func (e *Engine) endTurnEarly() {
	if e.phase == PhaseTurnEnded {
		return
	}
	e.halt()
	e.reset()
	e.phase = PhaseTurnEnded
	e.emit(TurnEnded{})
}

func (e *Engine) reset() {
	e.main.Reset(e.settings.SecondsPerTurn)
	e.lastRemaining = e.settings.SecondsPerTurn
	e.emit(TimerChange{
		SecondsRemaining: e.settings.SecondsPerTurn,
		SecondsPerTurn:   e.settings.SecondsPerTurn,
	})
}

func (e *Engine) rotate() {
	e.reset()
	e.roster.Rotate()
	e.emit(Rotated(e.roster.CurrentAndNext()))
}

func (e *Engine) startAlerts() {
	e.alerts.Reset(0)
	e.alerts.Start()
	e.lastAlert = 0
	e.emit(Alert{Seconds: 0})
}

func (e *Engine) stopAlerts() {
	e.alerts.Pause()
	e.emit(StopAlerts{})
}

func (e *Engine) isCurrent(id string) bool {
	cur := e.roster.CurrentAndNext().Current
	return cur != nil && cur.ID == id
}

// persist writes the current state, then publishes it.
func (e *Engine) persist(ctx context.Context) error {
	s := e.State()
	if err := e.persister.Write(ctx, s); err != nil {
		return fmt.Errorf("write state: %w", err)
	}
	slog.Debug("state written", "mobbers", len(s.Mobbers))
	e.PublishConfig()
	return nil
}
