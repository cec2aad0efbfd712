package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/raptorfx/bridge/internal/bridge"
)

func newWindowCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "window",
		Short: "Control the application window",
		Long: `Control the application window. Through the daemon this is the daemon's
window (see window.target in the config); in-process it is the active window.`,
	}
	cmd.PersistentFlags().String("target", "", "window to control: ID, title, or app name on macOS")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "maximize",
			Short: "Maximize the window",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return c.withCapabilities(cmd.Context(), func(caps capabilities) error {
					return caps.Maximize(cmd.Context())
				})
			},
		},
		&cobra.Command{
			Use:   "minimize",
			Short: "Minimize the window",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return c.withCapabilities(cmd.Context(), func(caps capabilities) error {
					return caps.Minimize(cmd.Context())
				})
			},
		},
		&cobra.Command{
			Use:   "exit CODE",
			Short: "Terminate the window's process with an exit code",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				code, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid exit code %q", args[0])
				}
				return c.withCapabilities(cmd.Context(), func(caps capabilities) error {
					return caps.Exit(cmd.Context(), code)
				})
			},
		},
		newPositionCmd(c),
		newColorCmd(c),
	)
	return cmd
}

func newPositionCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "position",
		Short: "Print or change the window geometry",
		Long: `Print the window geometry. Any of --x, --y, --width and --height moves or
resizes the window; unspecified values keep their current setting.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withCapabilities(cmd.Context(), func(caps capabilities) error {
				pos, err := caps.Position(cmd.Context(), nil)
				if err != nil {
					return err
				}
				if next, changed := positionFromFlags(pos, cmd.Flags()); changed {
					if pos, err = caps.Position(cmd.Context(), &next); err != nil {
						return err
					}
				}
				return c.emit(cmd.OutOrStdout(), pos, func(w io.Writer) {
					fmt.Fprintf(w, "x=%d y=%d width=%d height=%d\n", pos.X, pos.Y, pos.Width, pos.Height)
				})
			})
		},
	}
	f := cmd.Flags()
	f.Int("x", 0, "left edge")
	f.Int("y", 0, "top edge")
	f.Int("width", 0, "width")
	f.Int("height", 0, "height")
	return cmd
}

// positionFromFlags overlays the flags that were set on cur.
func positionFromFlags(cur bridge.PositionData, flags *pflag.FlagSet) (bridge.PositionData, bool) {
	changed := false
	for name, field := range map[string]*int{
		"x":      &cur.X,
		"y":      &cur.Y,
		"width":  &cur.Width,
		"height": &cur.Height,
	} {
		if !flags.Changed(name) {
			continue
		}
		v, err := flags.GetInt(name)
		if err != nil {
			continue
		}
		*field = v
		changed = true
	}
	return cur, changed
}

func newColorCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:     "color [HEX]",
		Aliases: []string{"status-bar-color"},
		Short:   "Print or set the status bar colour",
		Long: `Print the status bar colour, or set it to HEX (#RGB, #RRGGBB or #RRGGBBAA).
Desktops map the colour to the title bar where supported.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, hex := bridge.BarGet, ""
			if len(args) == 1 {
				mode, hex = bridge.BarSet, args[0]
			}
			return c.withCapabilities(cmd.Context(), func(caps capabilities) error {
				applied, err := caps.StatusBarColor(cmd.Context(), mode, hex)
				if err != nil {
					return err
				}
				return c.emit(cmd.OutOrStdout(), map[string]string{"hex": applied}, func(w io.Writer) {
					fmt.Fprintln(w, applied)
				})
			})
		},
	}
}
