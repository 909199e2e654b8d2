package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/mobtimer/internal/engine"
	"github.com/roach88/mobtimer/internal/roster"
	"github.com/roach88/mobtimer/internal/state"
)

// StateView is the stored state plus whose turn it is.
type StateView struct {
	State   state.State    `json:"state"`
	Current *roster.Mobber `json:"current"`
	Next    *roster.Mobber `json:"next"`
}

func newStateView(eng *engine.Engine) StateView {
	pair := eng.CurrentAndNext()
	return StateView{State: eng.State(), Current: pair.Current, Next: pair.Next}
}

// Text renders the settings followed by the roster.
func (v StateView) Text() string {
	var b strings.Builder
	s := v.State

	alertSound := "(none)"
	if s.AlertSound != nil {
		alertSound = *s.AlertSound
	}

	fmt.Fprintf(&b, "Seconds per turn:         %d\n", s.SecondsPerTurn)
	fmt.Fprintf(&b, "Seconds until fullscreen: %d\n", s.SecondsUntilFullscreen)
	fmt.Fprintf(&b, "Snap threshold:           %d\n", s.SnapThreshold)
	fmt.Fprintf(&b, "Alert sound:              %s\n", alertSound)
	fmt.Fprintf(&b, "Alert sound times:        %s\n", formatTimes(s.AlertSoundTimes))
	fmt.Fprintf(&b, "Timer always on top:      %t\n", s.TimerAlwaysOnTop)
	fmt.Fprintf(&b, "Shuffle on startup:       %t\n", s.ShuffleMobbersOnStartup)
	b.WriteString("\n")
	b.WriteString(MobberList{Mobbers: s.Mobbers, Current: v.Current, Next: v.Next}.Text())
	return b.String()
}

func formatTimes(times []int) string {
	if len(times) == 0 {
		return "(none)"
	}
	parts := make([]string, len(times))
	for i, t := range times {
		parts[i] = fmt.Sprint(t)
	}
	return strings.Join(parts, ", ")
}

// NewStateCommand creates the state command.
func NewStateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "state",
		Short: "Show the stored settings and roster",
		Long: `Show the stored settings and roster.

The current mobber is marked with ">"; the next one is labelled "next".

Examples:
  mobtimer state
  mobtimer state --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withEngine(cmd, func(_ context.Context, eng *engine.Engine) error {
				return rootOpts.formatter(cmd).Success(newStateView(eng))
			})
		},
	}
}
