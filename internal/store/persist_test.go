package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/mobtimer/internal/roster"
	"github.com/roach88/mobtimer/internal/state"
)

var _ state.Persister = (*Store)(nil)

func TestRead_EmptyDatabase(t *testing.T) {
	s := createTestStore(t)

	p, err := s.Read(context.Background())
	require.NoError(t, err)

	assert.True(t, p.IsEmpty())
	assert.Nil(t, p.Mobbers)
}

func TestWriteRead_RoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	want := createTestState()

	require.NoError(t, s.Write(ctx, want))
	p, err := s.Read(ctx)
	require.NoError(t, err)

	got := p.Apply(state.Default())
	got.Mobbers = p.Mobbers
	assert.Equal(t, want, got)
}

func TestWriteRead_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mobtimer.db")
	ctx := context.Background()

	s1, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s1.Write(ctx, createTestState()))
	require.NoError(t, s1.Close())

	s2, err := Open(path)
	require.NoError(t, err)
	defer s2.Close()

	p, err := s2.Read(ctx)
	require.NoError(t, err)
	assert.Len(t, p.Mobbers, 3)
	assert.Equal(t, 420, p.SecondsPerTurn)
}

func TestWrite_ReplacesRoster(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	first := createTestState()
	require.NoError(t, s.Write(ctx, first))

	second := state.Default()
	second.Mobbers = []roster.Mobber{{ID: "c", Name: "Cat"}, {ID: "z", Name: "Zed"}}
	require.NoError(t, s.Write(ctx, second))

	p, err := s.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, second.Mobbers, p.Mobbers)
	assert.Equal(t, 600, p.SecondsPerTurn)
	require.NotNil(t, p.TimerAlwaysOnTop)
	assert.True(t, *p.TimerAlwaysOnTop)
	assert.Nil(t, p.AlertSound, "null sound must overwrite the previous one")
}

func TestWrite_EmptyRosterReadsAsNoMobbers(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Write(ctx, state.Default()))
	p, err := s.Read(ctx)
	require.NoError(t, err)

	assert.Nil(t, p.Mobbers)
	assert.False(t, p.IsEmpty(), "settings were written")
	assert.Equal(t, state.Default(), p.Apply(state.Default()))
}

func TestWrite_KeepsRotationOrder(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	st := state.Default()
	for _, id := range []string{"m", "c", "x", "a"} {
		st.Mobbers = append(st.Mobbers, roster.Mobber{ID: id, Name: id})
	}
	require.NoError(t, s.Write(ctx, st))

	p, err := s.Read(ctx)
	require.NoError(t, err)
	ids := make([]string, len(p.Mobbers))
	for i, m := range p.Mobbers {
		ids[i] = m.ID
	}
	assert.Equal(t, []string{"m", "c", "x", "a"}, ids)
}

func TestWrite_DuplicateIDRollsBack(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Write(ctx, createTestState()))

	bad := state.Default()
	bad.Mobbers = []roster.Mobber{{ID: "dup"}, {ID: "dup"}}
	err := s.Write(ctx, bad)
	require.Error(t, err)

	p, err := s.Read(ctx)
	require.NoError(t, err)
	assert.Len(t, p.Mobbers, 3, "failed write must leave previous state")
	assert.Equal(t, 420, p.SecondsPerTurn)
}

func TestWrite_CancelledContext(t *testing.T) {
	s := createTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.Write(ctx, createTestState())

	assert.ErrorIs(t, err, context.Canceled)
}
