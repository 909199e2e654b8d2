package harness

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Scenario defines a deterministic engine run and what it must produce.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// SecondsPerTurn is applied before the first step. Zero keeps the default.
	SecondsPerTurn int `yaml:"seconds_per_turn,omitempty"`

	// Mobbers seed the roster before the first step, in order.
	Mobbers []MobberSeed `yaml:"mobbers,omitempty"`

	// Steps run in order. Events they cause form the trace.
	Steps []Step `yaml:"steps"`

	// Assertions validate the trace and final state.
	// Supported types: trace_contains, trace_order, trace_count, final_state
	Assertions []Assertion `yaml:"assertions"`
}

// MobberSeed is a roster entry added during setup.
type MobberSeed struct {
	ID       string `yaml:"id,omitempty"`
	Name     string `yaml:"name"`
	Image    string `yaml:"image,omitempty"`
	Disabled bool   `yaml:"disabled,omitempty"`
}

// Step is either a command or a clock advance, never both.
type Step struct {
	// Command is a wire command name, aliases included.
	Command string `yaml:"command,omitempty"`

	// Data is the command payload, converted to JSON as-is.
	Data any `yaml:"data,omitempty"`

	// Advance moves the fake clock forward by a Go duration ("3s", "250ms").
	Advance string `yaml:"advance,omitempty"`
}

// Assertion validates the trace or final state.
type Assertion struct {
	// Type specifies the assertion type:
	// - "trace_contains": an event with this name (and data subset) occurs
	// - "trace_order": the events occur in this order, not necessarily adjacent
	// - "trace_count": the event occurs exactly Count times
	// - "final_state": the final snapshot contains Expect (subset match)
	Type string `yaml:"type"`

	// Event is the event name (trace_contains, trace_count).
	Event string `yaml:"event,omitempty"`

	// Data is matched as a subset of the event data (trace_contains).
	Data any `yaml:"data,omitempty"`

	// Events is the expected order (trace_order).
	Events []string `yaml:"events,omitempty"`

	// Count is the expected number of occurrences (trace_count).
	Count int `yaml:"count,omitempty"`

	// Expect is matched as a subset of the final snapshot (final_state).
	// Keys: state, current, next, phase, secondsRemaining.
	Expect map[string]any `yaml:"expect,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
	AssertFinalState    = "final_state"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "assertion:" vs "assertions:".
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.SecondsPerTurn < 0 {
		return fmt.Errorf("seconds_per_turn must be non-negative")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, m := range s.Mobbers {
		if m.Name == "" {
			return fmt.Errorf("mobbers[%d]: name is required", i)
		}
	}

	for i, step := range s.Steps {
		if err := validateStep(i, step); err != nil {
			return err
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(i, &a); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(index int, step Step) error {
	switch {
	case step.Command != "" && step.Advance != "":
		return fmt.Errorf("steps[%d]: command and advance are mutually exclusive", index)
	case step.Command == "" && step.Advance == "":
		return fmt.Errorf("steps[%d]: command or advance is required", index)
	case step.Advance != "":
		if step.Data != nil {
			return fmt.Errorf("steps[%d]: data is only valid with command", index)
		}
		d, err := time.ParseDuration(step.Advance)
		if err != nil {
			return fmt.Errorf("steps[%d]: advance: %w", index, err)
		}
		if d <= 0 {
			return fmt.Errorf("steps[%d]: advance must be positive", index)
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertTraceContains:
		if a.Event == "" {
			return fmt.Errorf("assertions[%d]: event is required for trace_contains", index)
		}
	case AssertTraceOrder:
		if len(a.Events) == 0 {
			return fmt.Errorf("assertions[%d]: events list is required for trace_order", index)
		}
	case AssertTraceCount:
		if a.Event == "" {
			return fmt.Errorf("assertions[%d]: event is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	case AssertFinalState:
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for final_state", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
