package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/roach88/mobtimer/internal/roster"
	"github.com/roach88/mobtimer/internal/state"
)

// Read returns the stored state. Settings that were never written are
// absent from the result; an empty database yields an empty Partial.
func (s *Store) Read(ctx context.Context) (state.Partial, error) {
	mobbers, err := s.readMobbers(ctx)
	if err != nil {
		return state.Partial{}, err
	}

	settings, err := s.readSettings(ctx)
	if err != nil {
		return state.Partial{}, err
	}

	// Settings are stored under their JSON names, so the Partial decodes
	// straight from them.
	var p state.Partial
	if len(settings) > 0 {
		data, err := json.Marshal(settings)
		if err != nil {
			return state.Partial{}, fmt.Errorf("read settings: %w", err)
		}
		if err := json.Unmarshal(data, &p); err != nil {
			return state.Partial{}, fmt.Errorf("decode settings: %w", err)
		}
	}
	p.Mobbers = mobbers

	return p, nil
}

// readMobbers returns mobbers in rotation order, or nil if there are none.
func (s *Store) readMobbers(ctx context.Context) ([]roster.Mobber, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, image, disabled
		FROM mobbers
		ORDER BY position ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query mobbers: %w", err)
	}
	defer rows.Close()

	var mobbers []roster.Mobber
	for rows.Next() {
		var m roster.Mobber
		if err := rows.Scan(&m.ID, &m.Name, &m.Image, &m.Disabled); err != nil {
			return nil, fmt.Errorf("scan mobber: %w", err)
		}
		mobbers = append(mobbers, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate mobbers: %w", err)
	}

	return mobbers, nil
}

func (s *Store) readSettings(ctx context.Context) (map[string]json.RawMessage, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM settings ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("query settings: %w", err)
	}
	defer rows.Close()

	settings := make(map[string]json.RawMessage)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("scan setting: %w", err)
		}
		settings[key] = json.RawMessage(value)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate settings: %w", err)
	}

	return settings, nil
}
