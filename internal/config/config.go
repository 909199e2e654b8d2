// Package config loads the mobtimer configuration file.
//
// The file is YAML. It is unified with the embedded CUE definition
// #Config (schema.cue), which supplies defaults and rejects unknown keys,
// wrong types and out-of-range values before anything is decoded.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"
)

//go:embed schema.cue
var schemaCUE string

// EnvConfigPath names the environment variable holding the config path.
const EnvConfigPath = "MOBTIMER_CONFIG"

// Storage backends.
const (
	BackendSQLite = "sqlite"
	BackendFile   = "file"
)

// Config is the validated configuration.
type Config struct {
	Backend          string
	Database         string
	StateFile        string
	Listen           string
	AllowedOrigins   []string
	NATSURL          string
	NATSSubject      string
	TickRate         time.Duration
	SecondLength     time.Duration
	PlaceholderImage string
	LogLevel         slog.Level
}

// fileConfig mirrors #Config field for field.
type fileConfig struct {
	Backend          string   `json:"backend"`
	Database         string   `json:"database"`
	StateFile        string   `json:"state_file"`
	Listen           string   `json:"listen"`
	AllowedOrigins   []string `json:"allowed_origins"`
	NATSURL          string   `json:"nats_url"`
	NATSSubject      string   `json:"nats_subject"`
	TickRate         string   `json:"tick_rate"`
	SecondLength     string   `json:"second_length"`
	PlaceholderImage string   `json:"placeholder_image"`
	LogLevel         string   `json:"log_level"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	cfg, err := Parse(nil)
	if err != nil {
		panic(fmt.Sprintf("config: embedded defaults invalid: %v", err))
	}
	return cfg
}

// Load reads and validates the file at path. An empty path yields Default().
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse validates YAML config data against #Config and decodes it.
func Parse(data []byte) (Config, error) {
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Config{}, fmt.Errorf("parse yaml: %w", err)
	}
	if doc == nil {
		doc = map[string]any{}
	}

	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return Config{}, fmt.Errorf("compile schema: %w", err)
	}

	value := schema.LookupPath(cue.ParsePath("#Config")).Unify(ctx.Encode(doc))
	if err := value.Validate(cue.Concrete(true)); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	var fc fileConfig
	if err := value.Decode(&fc); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	return fc.resolve()
}

func (fc fileConfig) resolve() (Config, error) {
	tickRate, err := positiveDuration("tick_rate", fc.TickRate)
	if err != nil {
		return Config{}, err
	}
	secondLength, err := positiveDuration("second_length", fc.SecondLength)
	if err != nil {
		return Config{}, err
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(fc.LogLevel)); err != nil {
		return Config{}, fmt.Errorf("log_level: %w", err)
	}

	return Config{
		Backend:          fc.Backend,
		Database:         fc.Database,
		StateFile:        fc.StateFile,
		Listen:           fc.Listen,
		AllowedOrigins:   fc.AllowedOrigins,
		NATSURL:          fc.NATSURL,
		NATSSubject:      fc.NATSSubject,
		TickRate:         tickRate,
		SecondLength:     secondLength,
		PlaceholderImage: fc.PlaceholderImage,
		LogLevel:         level,
	}, nil
}

func positiveDuration(field, s string) (time.Duration, error) {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", field, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s: must be positive, got %s", field, s)
	}
	return d, nil
}

// ErrNoHome is returned when a default path is needed but the home
// directory cannot be determined.
var ErrNoHome = errors.New("home directory unavailable")

// DatabasePath returns Database, or ~/.mob-timer/mobtimer.db when empty.
func (c Config) DatabasePath() (string, error) {
	return defaultUnderHome(c.Database, "mobtimer.db")
}

// StateFilePath returns StateFile, or ~/.mob-timer/state.json when empty.
func (c Config) StateFilePath() (string, error) {
	return defaultUnderHome(c.StateFile, "state.json")
}

func defaultUnderHome(path, name string) (string, error) {
	if path != "" {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNoHome, err)
	}
	return filepath.Join(home, ".mob-timer", name), nil
}
