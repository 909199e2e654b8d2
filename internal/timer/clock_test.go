package timer

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClock(opts Options) (*Clock, *clockwork.FakeClock, *[]int) {
	fc := clockwork.NewFakeClock()
	var ticks []int
	c := New(fc, opts, func(v int) { ticks = append(ticks, v) })
	return c, fc, &ticks
}

func TestNew_PanicsWithoutTickFunc(t *testing.T) {
	assert.PanicsWithValue(t, "timer: onTick is required", func() {
		New(clockwork.NewFakeClock(), Options{}, nil)
	})
}

func TestNew_Defaults(t *testing.T) {
	c, _, _ := newTestClock(Options{})

	assert.Equal(t, DefaultRate, c.Rate())
	assert.Equal(t, time.Second, c.Unit())
	assert.Equal(t, Up, c.Direction())
	assert.Equal(t, 0, c.Time())
	assert.False(t, c.Running())
	assert.Nil(t, c.C(), "paused clock must expose a nil channel")
}

func TestClock_CountsDown(t *testing.T) {
	c, fc, ticks := newTestClock(Options{Direction: Down, Time: 10})

	c.Start()
	fc.Advance(3 * time.Second)
	c.Tick()

	assert.Equal(t, []int{7}, *ticks)
}

func TestClock_CountsUp(t *testing.T) {
	c, fc, ticks := newTestClock(Options{Direction: Up})

	c.Start()
	fc.Advance(1500 * time.Millisecond)
	c.Tick()
	fc.Advance(500 * time.Millisecond)
	c.Tick()

	assert.Equal(t, []int{1, 2}, *ticks)
}

func TestClock_DriftCorrectedAcrossPause(t *testing.T) {
	paused, pfc, _ := newTestClock(Options{Rate: 20 * time.Millisecond, Direction: Down, Time: 50})
	continuous, cfc, _ := newTestClock(Options{Rate: 20 * time.Millisecond, Direction: Down, Time: 50})

	paused.Start()
	pfc.Advance(1000 * time.Millisecond)
	paused.Pause()
	paused.Start()
	pfc.Advance(500 * time.Millisecond)

	continuous.Start()
	cfc.Advance(1500 * time.Millisecond)

	assert.InDelta(t, continuous.Time(), paused.Time(), 1)
	assert.Equal(t, 49, paused.Time())
}

func TestClock_PauseDoesNotCountPausedInterval(t *testing.T) {
	c, fc, _ := newTestClock(Options{Direction: Down, Time: 10})

	c.Start()
	fc.Advance(2 * time.Second)
	c.Pause()
	fc.Advance(time.Hour)
	assert.Equal(t, 8, c.Time())

	c.Start()
	fc.Advance(time.Second)
	assert.Equal(t, 7, c.Time())
}

func TestClock_PauseThenImmediateStart(t *testing.T) {
	c, fc, _ := newTestClock(Options{Direction: Down, Time: 10})

	c.Start()
	fc.Advance(1200 * time.Millisecond)
	c.Pause()
	c.Start()
	fc.Advance(800 * time.Millisecond)

	assert.Equal(t, 8, c.Time(), "sub-second remainders must survive pause")
}

func TestClock_StartAndPauseAreIdempotent(t *testing.T) {
	c, fc, _ := newTestClock(Options{Direction: Up})

	c.Pause()
	assert.False(t, c.Running())

	c.Start()
	fc.Advance(time.Second)
	c.Start() // must not re-anchor
	fc.Advance(time.Second)
	assert.Equal(t, 2, c.Time())

	c.Pause()
	c.Pause()
	assert.Equal(t, 2, c.Time())
}

func TestClock_ResetWhileRunning(t *testing.T) {
	c, fc, ticks := newTestClock(Options{Direction: Down, Time: 600})

	c.Start()
	fc.Advance(5 * time.Second)
	c.Reset(600)
	assert.Equal(t, 600, c.Time(), "reset must not show stale elapsed time")
	assert.Empty(t, *ticks, "reset must not tick")
	assert.True(t, c.Running())

	fc.Advance(time.Second)
	c.Tick()
	assert.Equal(t, []int{599}, *ticks)
}

func TestClock_ResetWhilePaused(t *testing.T) {
	c, fc, _ := newTestClock(Options{Direction: Up})

	c.Start()
	fc.Advance(4 * time.Second)
	c.Pause()
	c.Reset(0)
	assert.Equal(t, 0, c.Time())

	c.Start()
	fc.Advance(time.Second)
	assert.Equal(t, 1, c.Time())
}

func TestClock_Unit(t *testing.T) {
	c, fc, _ := newTestClock(Options{Direction: Down, Time: 60, Unit: 10 * time.Millisecond})

	c.Start()
	fc.Advance(100 * time.Millisecond)

	assert.Equal(t, 50, c.Time())
}

func TestClock_TickerChannel(t *testing.T) {
	c, _, _ := newTestClock(Options{})

	c.Start()
	require.NotNil(t, c.C())

	c.Pause()
	assert.Nil(t, c.C())
}
