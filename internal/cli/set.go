package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/mobtimer/internal/engine"
)

// settingParsers turn a command-line value into the JSON payload of the
// matching set<Key> wire command.
var settingParsers = map[string]func(string) (any, error){
	"secondsPerTurn":          parseNonNegativeInt,
	"secondsUntilFullscreen":  parseNonNegativeInt,
	"snapThreshold":           parseNonNegativeInt,
	"alertSound":              parseAlertSound,
	"alertSoundTimes":         parseIntList,
	"timerAlwaysOnTop":        parseBool,
	"shuffleMobbersOnStartup": parseBool,
}

func settingKeys() []string {
	keys := make([]string, 0, len(settingParsers))
	for k := range settingParsers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func parseNonNegativeInt(s string) (any, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("%q is not an integer", s)
	}
	if n < 0 {
		return nil, fmt.Errorf("%d must not be negative", n)
	}
	return n, nil
}

// parseAlertSound maps "" and "none" to no sound.
func parseAlertSound(s string) (any, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "none") {
		return nil, nil
	}
	return s, nil
}

// parseIntList accepts "0,30,60"; "" and "none" give an empty list.
func parseIntList(s string) (any, error) {
	s = strings.TrimSpace(s)
	out := []int{}
	if s == "" || strings.EqualFold(s, "none") {
		return out, nil
	}
	for _, part := range strings.Split(s, ",") {
		n, err := parseNonNegativeInt(part)
		if err != nil {
			return nil, err
		}
		out = append(out, n.(int))
	}
	return out, nil
}

func parseBool(s string) (any, error) {
	b, err := strconv.ParseBool(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("%q is not a boolean", s)
	}
	return b, nil
}

// settingCommand builds the engine command for key=value through the wire
// codec, so the CLI and remote clients share one decoding path.
func settingCommand(key, value string) (engine.Command, error) {
	parse, ok := settingParsers[key]
	if !ok {
		return nil, fmt.Errorf("unknown setting %q (valid: %s)", key, strings.Join(settingKeys(), ", "))
	}
	v, err := parse(value)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	env := engine.CommandEnvelope{
		Command: "set" + strings.ToUpper(key[:1]) + key[1:],
		Data:    raw,
	}
	return env.Decode()
}

// NewSetCommand creates the set command.
func NewSetCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Change a stored setting",
		Long: `Change a stored setting.

Keys:
  secondsPerTurn           turn length in seconds
  secondsUntilFullscreen   seconds of alerts before going fullscreen
  snapThreshold            window snapping distance in pixels
  alertSound               sound file path, or "none"
  alertSoundTimes          comma-separated alert seconds, e.g. 0,30,60
  timerAlwaysOnTop         true|false
  shuffleMobbersOnStartup  true|false

Examples:
  mobtimer set secondsPerTurn 300
  mobtimer set alertSoundTimes 0,30
  mobtimer set alertSound none`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := settingCommand(args[0], args[1])
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid setting", err)
			}
			return rootOpts.withEngine(cmd, func(ctx context.Context, eng *engine.Engine) error {
				if err := eng.Apply(ctx, c); err != nil {
					return WrapExitError(ExitFailure, "failed to save setting", err)
				}
				return rootOpts.formatter(cmd).Success(newStateView(eng))
			})
		},
	}
}
