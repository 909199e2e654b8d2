// Package timer implements the drift-corrected turn clock.
//
// A Clock reports an integer time value that moves one step per elapsed
// Unit of wall time, counting up or down from a base value. The value is
// always recomputed from the wall clock rather than incremented per tick, so
// scheduler jitter and pause/resume cycles never accumulate error.
//
// Clocks are passive: they own a ticker but never run goroutines of their
// own. The owner selects on C() and calls Tick() from its single event loop.
package timer

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// Direction is the sign applied to elapsed steps.
type Direction int

const (
	// Up counts from the base value upwards.
	Up Direction = 1
	// Down counts from the base value downwards.
	Down Direction = -1
)

// DefaultRate is the default tick cadence.
const DefaultRate = time.Second

// TickFunc receives the clock value on every tick.
type TickFunc func(value int)

// Options configures a Clock.
type Options struct {
	// Rate is how often the ticker fires. Defaults to DefaultRate.
	Rate time.Duration

	// Unit is the wall-time length of one reported step. Defaults to one
	// second; shorter values speed the clock up for demos and tests.
	Unit time.Duration

	// Direction defaults to Up.
	Direction Direction

	// Time is the initial base value.
	Time int
}

// Clock is a drift-corrected counter driven by a clockwork.Clock.
//
// Thread-safety: none. A Clock belongs to exactly one goroutine.
type Clock struct {
	clock     clockwork.Clock
	rate      time.Duration
	unit      time.Duration
	direction Direction
	onTick    TickFunc

	base      int
	elapsed   time.Duration // folded in by Pause
	startedAt time.Time
	ticker    clockwork.Ticker
}

// New creates a paused Clock.
//
// Panics if onTick is nil: a clock nobody observes is a wiring bug.
func New(clock clockwork.Clock, opts Options, onTick TickFunc) *Clock {
	if onTick == nil {
		panic("timer: onTick is required")
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if opts.Rate <= 0 {
		opts.Rate = DefaultRate
	}
	if opts.Unit <= 0 {
		opts.Unit = time.Second
	}
	if opts.Direction == 0 {
		opts.Direction = Up
	}

	return &Clock{
		clock:     clock,
		rate:      opts.Rate,
		unit:      opts.Unit,
		direction: opts.Direction,
		onTick:    onTick,
		base:      opts.Time,
	}
}

// Start anchors the clock to now and begins ticking.
// No-op if already running.
func (c *Clock) Start() {
	if c.ticker != nil {
		return
	}
	c.startedAt = c.clock.Now()
	c.ticker = c.clock.NewTicker(c.rate)
}

// Pause stops ticking and folds the time elapsed since Start into the
// clock, so a later Start continues from the same value.
// No-op if not running.
func (c *Clock) Pause() {
	if c.ticker == nil {
		return
	}
	c.elapsed += c.clock.Since(c.startedAt)
	c.ticker.Stop()
	c.ticker = nil
}

// Reset sets the base value and discards all elapsed time. The running
// state is unchanged and no tick is emitted.
func (c *Clock) Reset(value int) {
	c.base = value
	c.elapsed = 0
	c.startedAt = c.clock.Now()
}

// Time returns the current value derived from elapsed wall time.
func (c *Clock) Time() int {
	elapsed := c.elapsed
	if c.ticker != nil {
		elapsed += c.clock.Since(c.startedAt)
	}
	steps := int(elapsed / c.unit)
	return c.base + int(c.direction)*steps
}

// Tick reports the current value to the tick func.
func (c *Clock) Tick() {
	c.onTick(c.Time())
}

// Running reports whether the clock is ticking.
func (c *Clock) Running() bool {
	return c.ticker != nil
}

// C returns the ticker channel, or nil while paused. A nil channel blocks
// forever in a select, which is what a paused clock should do.
func (c *Clock) C() <-chan time.Time {
	if c.ticker == nil {
		return nil
	}
	return c.ticker.Chan()
}

// Rate returns the tick cadence.
func (c *Clock) Rate() time.Duration {
	return c.rate
}

// Unit returns the wall-time length of one step.
func (c *Clock) Unit() time.Duration {
	return c.unit
}

// Direction returns the counting direction.
func (c *Clock) Direction() Direction {
	return c.direction
}
