package main

import (
	"fmt"
	"io"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/raptorfx/bridge/internal/bridge"
)

func newNotifyCmd(c *cli) *cobra.Command {
	var (
		icon   string
		group  bool
		noWait bool
	)
	cmd := &cobra.Command{
		Use:   "notify TITLE [DESCRIPTION...]",
		Short: "Show a desktop notification",
		Long: `Show a desktop notification.

By default the command returns once the OS accepted the notification.
With --no-wait it returns as soon as the notification is queued.
--group collapses notifications under the configured group key.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := notificationData(args, icon)
			if err != nil {
				return err
			}
			mode := bridge.ModeSingle
			if group {
				mode = bridge.ModeGroup
			}
			return c.withCapabilities(cmd.Context(), func(caps capabilities) error {
				res, err := caps.Notify(cmd.Context(), data, mode, !noWait)
				if err != nil {
					return err
				}
				return c.emit(cmd.OutOrStdout(), res, func(w io.Writer) {
					fmt.Fprintln(w, res.ID)
				})
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&icon, "icon", "", "icon file path or absolute URL")
	f.BoolVar(&group, "group", false, "group with other notifications of this app")
	f.BoolVar(&noWait, "no-wait", false, "return once queued instead of once accepted")
	return cmd
}

// notificationData builds the payload from positional args and an icon
// given as a file path or URL.
func notificationData(args []string, icon string) (bridge.NotificationData, error) {
	data := bridge.NotificationData{Title: args[0]}
	if len(args) > 1 {
		data.Description = strings.Join(args[1:], " ")
	}
	if icon == "" {
		return data, nil
	}

	u, err := url.Parse(icon)
	if err != nil || u.Scheme == "" || len(u.Scheme) == 1 {
		// A bare path, or a Windows drive letter parsed as a scheme.
		abs, err := filepath.Abs(icon)
		if err != nil {
			return data, fmt.Errorf("icon path: %w", err)
		}
		u = &url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}
	}
	data.Icon = u
	return data, nil
}

func newToastCmd(c *cli) *cobra.Command {
	var long bool
	cmd := &cobra.Command{
		Use:   "toast TEXT...",
		Short: "Show a short transient message",
		Long: `Show a short transient message. Backends without toasts (most desktops)
accept the call and do nothing.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			length := bridge.ToastShort
			if long {
				length = bridge.ToastLong
			}
			return c.withCapabilities(cmd.Context(), func(caps capabilities) error {
				return caps.Toast(cmd.Context(), strings.Join(args, " "), length)
			})
		},
	}
	cmd.Flags().BoolVar(&long, "long", false, "keep the toast on screen longer")
	return cmd
}
