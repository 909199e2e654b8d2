package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mobtimer.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, BackendSQLite, cfg.Backend)
	assert.Empty(t, cfg.Database)
	assert.Empty(t, cfg.Listen)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
	assert.Empty(t, cfg.NATSURL)
	assert.Equal(t, "mobtimer", cfg.NATSSubject)
	assert.Equal(t, 100*time.Millisecond, cfg.TickRate)
	assert.Equal(t, time.Second, cfg.SecondLength)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
}

func TestLoad_EmptyPath(t *testing.T) {
	cfg, err := Load("")

	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_EmptyFile(t *testing.T) {
	cfg, err := Load(writeConfig(t, ""))

	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_FullFile(t *testing.T) {
	path := writeConfig(t, `
backend: file
state_file: /tmp/mob/state.json
listen: 127.0.0.1:7331
allowed_origins:
  - http://localhost:3000
nats_url: nats://127.0.0.1:4222
nats_subject: team.mob
tick_rate: 50ms
second_length: 10ms
placeholder_image: /img/blank.png
log_level: debug
`)

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, Config{
		Backend:          BackendFile,
		StateFile:        "/tmp/mob/state.json",
		Listen:           "127.0.0.1:7331",
		AllowedOrigins:   []string{"http://localhost:3000"},
		NATSURL:          "nats://127.0.0.1:4222",
		NATSSubject:      "team.mob",
		TickRate:         50 * time.Millisecond,
		SecondLength:     10 * time.Millisecond,
		PlaceholderImage: "/img/blank.png",
		LogLevel:         slog.LevelDebug,
	}, cfg)
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "listen: :8080\n"))

	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Listen)
	assert.Equal(t, BackendSQLite, cfg.Backend)
	assert.Equal(t, 100*time.Millisecond, cfg.TickRate)
}

func TestParse_Rejects(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"unknown key", "colour: blue\n"},
		{"unknown backend", "backend: postgres\n"},
		{"wrong type", "listen: [a, b]\n"},
		{"bad duration", "tick_rate: fast\n"},
		{"zero duration", "second_length: 0s\n"},
		{"bad log level", "log_level: loud\n"},
		{"bad subject", "nats_subject: \"a..b\"\n"},
		{"invalid yaml", "backend: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.body))
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))

	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoad_ErrorNamesFile(t *testing.T) {
	path := writeConfig(t, "backend: postgres\n")

	_, err := Load(path)

	require.Error(t, err)
	assert.Contains(t, err.Error(), path)
}

func TestDefaultPaths(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	db, err := Config{}.DatabasePath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".mob-timer", "mobtimer.db"), db)

	sf, err := Config{}.StateFilePath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".mob-timer", "state.json"), sf)

	db, err = Config{Database: "/x/y.db"}.DatabasePath()
	require.NoError(t, err)
	assert.Equal(t, "/x/y.db", db)
}
