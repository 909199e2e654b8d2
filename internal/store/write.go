package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/roach88/mobtimer/internal/state"
)

// Write replaces the stored state with s in a single transaction.
//
// The roster is rewritten in full (rotation order is the row position);
// settings are upserted with ON CONFLICT(key) DO UPDATE.
func (s *Store) Write(ctx context.Context, st state.State) error {
	settings, err := marshalSettings(st)
	if err != nil {
		return fmt.Errorf("write state: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write state: begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM mobbers`); err != nil {
		return fmt.Errorf("write state: clear mobbers: %w", err)
	}

	for i, m := range st.Mobbers {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO mobbers (id, position, name, image, disabled)
			VALUES (?, ?, ?, ?, ?)
		`, m.ID, i, m.Name, m.Image, m.Disabled)
		if err != nil {
			return fmt.Errorf("write state: mobber %s: %w", m.ID, err)
		}
	}

	for _, kv := range settings {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO settings (key, value)
			VALUES (?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value
		`, kv.key, kv.value)
		if err != nil {
			return fmt.Errorf("write state: setting %s: %w", kv.key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write state: commit: %w", err)
	}
	return nil
}

type setting struct {
	key   string
	value string
}

// marshalSettings encodes every scalar field of st as a JSON value keyed by
// its wire name. Order is fixed so writes are deterministic.
func marshalSettings(st state.State) ([]setting, error) {
	values := []struct {
		key   string
		value any
	}{
		{"secondsPerTurn", st.SecondsPerTurn},
		{"secondsUntilFullscreen", st.SecondsUntilFullscreen},
		{"snapThreshold", st.SnapThreshold},
		{"alertSound", st.AlertSound},
		{"alertSoundTimes", nonNil(st.AlertSoundTimes)},
		{"timerAlwaysOnTop", st.TimerAlwaysOnTop},
		{"shuffleMobbersOnStartup", st.ShuffleMobbersOnStartup},
	}

	out := make([]setting, 0, len(values))
	for _, v := range values {
		data, err := json.Marshal(v.value)
		if err != nil {
			return nil, fmt.Errorf("marshal setting %s: %w", v.key, err)
		}
		out = append(out, setting{key: v.key, value: string(data)})
	}
	return out, nil
}

func nonNil(times []int) []int {
	if times == nil {
		return []int{}
	}
	return times
}
