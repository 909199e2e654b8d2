package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/mobtimer/internal/engine"
	"github.com/roach88/mobtimer/internal/roster"
)

// MobberList is the roster in rotation order with the current pair marked.
type MobberList struct {
	Mobbers []roster.Mobber `json:"mobbers"`
	Current *roster.Mobber  `json:"current"`
	Next    *roster.Mobber  `json:"next"`
}

// Text renders one mobber per line.
func (l MobberList) Text() string {
	if len(l.Mobbers) == 0 {
		return "No mobbers.\n"
	}

	var b strings.Builder
	b.WriteString("Mobbers:\n")
	for _, m := range l.Mobbers {
		marker := " "
		if l.Current != nil && l.Current.ID == m.ID {
			marker = ">"
		}
		line := fmt.Sprintf("  %s %s (%s)", marker, m.Name, m.ID)
		switch {
		case m.Disabled:
			line += "  disabled"
		case l.Next != nil && l.Next.ID == m.ID && l.Current != nil && l.Current.ID != m.ID:
			line += "  next"
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}

// MobberResult reports a single changed mobber.
type MobberResult struct {
	Action string        `json:"action"`
	Mobber roster.Mobber `json:"mobber"`
}

// Text renders e.g. "Added Ann (a)".
func (r MobberResult) Text() string {
	return fmt.Sprintf("%s %s (%s)\n", r.Action, r.Mobber.Name, r.Mobber.ID)
}

func newMobberList(eng *engine.Engine) MobberList {
	pair := eng.CurrentAndNext()
	return MobberList{Mobbers: eng.State().Mobbers, Current: pair.Current, Next: pair.Next}
}

// findMobber looks id up in the roster or returns a command error.
func findMobber(eng *engine.Engine, id string) (roster.Mobber, error) {
	for _, m := range eng.State().Mobbers {
		if m.ID == id {
			return m, nil
		}
	}
	return roster.Mobber{}, NewExitError(ExitCommandError, fmt.Sprintf("mobber not found: %s", id))
}

// NewMobberCommand creates the mobber command group.
func NewMobberCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mobber",
		Short: "Manage the roster",
	}

	cmd.AddCommand(newMobberAddCommand(rootOpts))
	cmd.AddCommand(newMobberRemoveCommand(rootOpts))
	cmd.AddCommand(newMobberListCommand(rootOpts))
	cmd.AddCommand(newMobberRenameCommand(rootOpts))
	cmd.AddCommand(newMobberToggleCommand(rootOpts, "enable", "Let a disabled mobber take turns again", false))
	cmd.AddCommand(newMobberToggleCommand(rootOpts, "disable", "Skip a mobber without removing them", true))

	return cmd
}

func newMobberAddCommand(rootOpts *RootOptions) *cobra.Command {
	var id, image string

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a mobber at the end of the rotation",
		Long: `Add a mobber at the end of the rotation.

An id is generated unless --id is given. Adding an existing id replaces
that mobber in place.

Examples:
  mobtimer mobber add Ann
  mobtimer mobber add "Bob Smith" --image https://example.com/bob.png
  mobtimer mobber add Cat --id cat`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.TrimSpace(strings.Join(args, " "))
			if name == "" {
				return NewExitError(ExitCommandError, "name must not be empty")
			}
			return rootOpts.withEngine(cmd, func(ctx context.Context, eng *engine.Engine) error {
				added, err := eng.AddMobber(ctx, roster.Mobber{ID: id, Name: name, Image: image})
				if err != nil {
					return WrapExitError(ExitFailure, "failed to add mobber", err)
				}
				return rootOpts.formatter(cmd).Success(MobberResult{Action: "Added", Mobber: added})
			})
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "mobber id (generated when empty)")
	cmd.Flags().StringVar(&image, "image", "", "image URI")

	return cmd
}

func newMobberRemoveCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "remove <id>",
		Aliases: []string{"rm"},
		Short:   "Remove a mobber",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withEngine(cmd, func(ctx context.Context, eng *engine.Engine) error {
				m, err := findMobber(eng, args[0])
				if err != nil {
					return err
				}
				if err := eng.RemoveMobber(ctx, m.ID); err != nil {
					return WrapExitError(ExitFailure, "failed to remove mobber", err)
				}
				return rootOpts.formatter(cmd).Success(MobberResult{Action: "Removed", Mobber: m})
			})
		},
	}
}

func newMobberListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List mobbers in rotation order",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withEngine(cmd, func(_ context.Context, eng *engine.Engine) error {
				return rootOpts.formatter(cmd).Success(newMobberList(eng))
			})
		},
	}
}

func newMobberRenameCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <id> <name>",
		Short: "Rename a mobber",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.TrimSpace(strings.Join(args[1:], " "))
			if name == "" {
				return NewExitError(ExitCommandError, "name must not be empty")
			}
			return rootOpts.withEngine(cmd, func(ctx context.Context, eng *engine.Engine) error {
				m, err := findMobber(eng, args[0])
				if err != nil {
					return err
				}
				m.Name = name
				if err := eng.UpdateMobber(ctx, m); err != nil {
					return WrapExitError(ExitFailure, "failed to rename mobber", err)
				}
				updated, _ := findMobber(eng, m.ID)
				return rootOpts.formatter(cmd).Success(MobberResult{Action: "Renamed", Mobber: updated})
			})
		},
	}
}

func newMobberToggleCommand(rootOpts *RootOptions, verb, short string, disabled bool) *cobra.Command {
	past := strings.ToUpper(verb[:1]) + verb[1:] + "d"

	return &cobra.Command{
		Use:   verb + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withEngine(cmd, func(ctx context.Context, eng *engine.Engine) error {
				m, err := findMobber(eng, args[0])
				if err != nil {
					return err
				}
				m.Disabled = disabled
				if err := eng.UpdateMobber(ctx, m); err != nil {
					return WrapExitError(ExitFailure, fmt.Sprintf("failed to %s mobber", verb), err)
				}
				return rootOpts.formatter(cmd).Success(MobberResult{Action: past, Mobber: m})
			})
		},
	}
}

// NewShuffleCommand creates the shuffle command.
func NewShuffleCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "shuffle",
		Short: "Randomly reorder the roster",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withEngine(cmd, func(ctx context.Context, eng *engine.Engine) error {
				if err := eng.ShuffleMobbers(ctx); err != nil {
					return WrapExitError(ExitFailure, "failed to shuffle mobbers", err)
				}
				return rootOpts.formatter(cmd).Success(newMobberList(eng))
			})
		},
	}
}
