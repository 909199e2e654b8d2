package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/mobtimer/internal/roster"
	"github.com/roach88/mobtimer/internal/state"
)

// createTestStore creates a new store in a temp directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestState returns a state with every field set to a non-default value.
func createTestState() state.State {
	sound := "horn.mp3"
	return state.State{
		Mobbers: []roster.Mobber{
			{ID: "a", Name: "Ann", Image: "ann.png"},
			{ID: "b", Name: "Bob", Disabled: true},
			{ID: "c", Name: "Cat"},
		},
		SecondsPerTurn:          420,
		SecondsUntilFullscreen:  0,
		SnapThreshold:           12,
		AlertSound:              &sound,
		AlertSoundTimes:         []int{0, 30, 90},
		TimerAlwaysOnTop:        false,
		ShuffleMobbersOnStartup: true,
	}
}

func getTableColumns(t *testing.T, s *Store, table string) map[string]bool {
	t.Helper()
	columns, err := tableColumns(s.db, table)
	if err != nil {
		t.Fatalf("tableColumns(%s) failed: %v", table, err)
	}
	return columns
}
