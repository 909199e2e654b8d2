// Package statefile persists mob timer state as a JSON file.
//
// The default location is ~/.mob-timer/state.json. Older releases wrote
// <tmpdir>/state.json; that file is read when the default one does not
// exist, and the next write moves the state to the default location.
package statefile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/roach88/mobtimer/internal/state"
)

const (
	dirName  = ".mob-timer"
	fileName = "state.json"
)

// File is a state.Persister backed by a JSON file.
type File struct {
	path   string
	legacy string
}

// Option configures a File.
type Option func(*File)

// WithLegacyPath sets the file read when the primary file does not exist.
// Empty disables the fallback.
func WithLegacyPath(path string) Option {
	return func(f *File) {
		f.legacy = path
	}
}

// New creates a File persister writing to path. The legacy fallback
// defaults to LegacyPath().
func New(path string, opts ...Option) *File {
	f := &File{path: path, legacy: LegacyPath()}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// DefaultPath returns ~/.mob-timer/state.json.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, dirName, fileName), nil
}

// LegacyPath returns the location used by older releases.
func LegacyPath() string {
	return filepath.Join(os.TempDir(), fileName)
}

// Path returns the primary file path.
func (f *File) Path() string {
	return f.path
}

// Read decodes the primary file, falling back to the legacy file. Returns
// an empty Partial if neither exists.
func (f *File) Read(ctx context.Context) (state.Partial, error) {
	for _, path := range []string{f.path, f.legacy} {
		if path == "" {
			continue
		}
		p, err := readFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		return p, err
	}
	return state.Partial{}, nil
}

func readFile(path string) (state.Partial, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return state.Partial{}, err
	}

	var p state.Partial
	if err := json.Unmarshal(data, &p); err != nil {
		return state.Partial{}, fmt.Errorf("decode %s: %w", path, err)
	}
	return p, nil
}

// Write stores s as indented JSON. The file is replaced atomically so a
// crash never leaves a truncated state file.
func (f *File) Write(ctx context.Context, s state.State) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, fileName+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp state file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp state file: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("replace state file: %w", err)
	}
	return nil
}
