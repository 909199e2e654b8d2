package state

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/mobtimer/internal/roster"
)

func ptr[T any](v T) *T { return &v }

func TestDefault(t *testing.T) {
	s := Default()

	assert.Equal(t, 600, s.SecondsPerTurn)
	assert.Equal(t, 30, s.SecondsUntilFullscreen)
	assert.Equal(t, 25, s.SnapThreshold)
	assert.Nil(t, s.AlertSound)
	assert.Equal(t, []int{}, s.AlertSoundTimes)
	assert.True(t, s.TimerAlwaysOnTop)
	assert.False(t, s.ShuffleMobbersOnStartup)
	assert.Equal(t, []roster.Mobber{}, s.Mobbers)
}

func TestState_JSONShape(t *testing.T) {
	data, err := json.Marshal(Default())
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"mobbers": [],
		"secondsPerTurn": 600,
		"secondsUntilFullscreen": 30,
		"snapThreshold": 25,
		"alertSound": null,
		"alertSoundTimes": [],
		"timerAlwaysOnTop": true,
		"shuffleMobbersOnStartup": false
	}`, string(data))
}

func TestState_CloneIsDeep(t *testing.T) {
	s := Default()
	s.Mobbers = []roster.Mobber{{ID: "a"}}
	s.AlertSound = ptr("ding.mp3")
	s.AlertSoundTimes = []int{1, 2}

	c := s.Clone()
	c.Mobbers[0].ID = "changed"
	*c.AlertSound = "changed"
	c.AlertSoundTimes[0] = 99

	assert.Equal(t, "a", s.Mobbers[0].ID)
	assert.Equal(t, "ding.mp3", *s.AlertSound)
	assert.Equal(t, []int{1, 2}, s.AlertSoundTimes)
}

func TestPartial_EmptyKeepsDefaults(t *testing.T) {
	var p Partial
	require.True(t, p.IsEmpty())

	assert.Equal(t, Default(), p.Apply(Default()))
}

func TestPartial_ZeroSecondsPerTurnKeepsCurrent(t *testing.T) {
	s := Default()
	s.SecondsPerTurn = 300

	got := Partial{SecondsPerTurn: 0}.Apply(s)

	assert.Equal(t, 300, got.SecondsPerTurn)
}

func TestPartial_ExplicitZeroScalars(t *testing.T) {
	got := Partial{
		SecondsUntilFullscreen: ptr(0),
		SnapThreshold:          ptr(0),
		TimerAlwaysOnTop:       ptr(false),
	}.Apply(Default())

	assert.Equal(t, 0, got.SecondsUntilFullscreen)
	assert.Equal(t, 0, got.SnapThreshold)
	assert.False(t, got.TimerAlwaysOnTop)
}

func TestPartial_AbsentSoundClearsCurrent(t *testing.T) {
	s := Default()
	s.AlertSound = ptr("ding.mp3")
	s.AlertSoundTimes = []int{0, 30}
	s.ShuffleMobbersOnStartup = true

	got := Partial{}.Apply(s)

	assert.Nil(t, got.AlertSound)
	assert.Equal(t, []int{}, got.AlertSoundTimes)
	assert.False(t, got.ShuffleMobbersOnStartup)
}

func TestPartial_EmptySoundIsNull(t *testing.T) {
	got := Partial{AlertSound: ptr("")}.Apply(Default())
	assert.Nil(t, got.AlertSound)
}

func TestPartial_DecodesMissingFields(t *testing.T) {
	var p Partial
	require.NoError(t, json.Unmarshal([]byte(`{"secondsPerTurn": 120, "timerAlwaysOnTop": false}`), &p))

	assert.Equal(t, 120, p.SecondsPerTurn)
	assert.Nil(t, p.SecondsUntilFullscreen)
	require.NotNil(t, p.TimerAlwaysOnTop)
	assert.False(t, *p.TimerAlwaysOnTop)
	assert.Nil(t, p.Mobbers)
}

func TestFull_RoundTrip(t *testing.T) {
	s := Default()
	s.Mobbers = []roster.Mobber{{ID: "a", Name: "Ann"}}
	s.SecondsPerTurn = 420
	s.SnapThreshold = 0
	s.AlertSound = ptr("ding.mp3")
	s.AlertSoundTimes = []int{0, 60}
	s.TimerAlwaysOnTop = false
	s.ShuffleMobbersOnStartup = true

	p := Full(s)
	got := p.Apply(Default())
	got.Mobbers = p.Mobbers

	assert.Equal(t, s, got)
}

func TestMemory(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	p, err := m.Read(ctx)
	require.NoError(t, err)
	assert.True(t, p.IsEmpty())
	_, ok := m.Last()
	assert.False(t, ok)

	s := Default()
	s.SecondsPerTurn = 90
	require.NoError(t, m.Write(ctx, s))

	p, err = m.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, 90, p.SecondsPerTurn)
	last, ok := m.Last()
	require.True(t, ok)
	assert.Equal(t, s, last)
	assert.Equal(t, 1, m.Writes())
}

func TestMemory_Seeded(t *testing.T) {
	s := Default()
	s.Mobbers = []roster.Mobber{{ID: "a"}}

	p, err := NewMemory(s).Read(context.Background())
	require.NoError(t, err)

	assert.Equal(t, s.Mobbers, p.Mobbers)
}

func TestDiscard(t *testing.T) {
	var d Discard
	require.NoError(t, d.Write(context.Background(), Default()))

	p, err := d.Read(context.Background())
	require.NoError(t, err)
	assert.True(t, p.IsEmpty())
}
