// raptorfx: clipboard, notifications, window control and system facts behind
// one command line and a per-user daemon.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// Version is set at build time via -ldflags "-X main.Version=x.y.z".
var Version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	c := newCLI()

	root := &cobra.Command{
		Use:   "raptorfx",
		Short: "Native clipboard, notifications and window control",
		Long: `raptorfx exposes the host's clipboard, notifications, window and system
facts through one uniform set of commands.

Commands talk to a running "raptorfx daemon" over its Unix socket when one
is available and fall back to in-process backends otherwise (--local forces
in-process, --spawn starts the daemon on demand).

Config file search order (first found wins):
  /etc/raptorfx/raptorfx.{yaml,toml,json}
  $HOME/.config/raptorfx/raptorfx.{yaml,toml,json}
  path supplied via --config

Every config key can be set via RAPTORFX_<SECTION>_<KEY> env vars,
e.g. RAPTORFX_LOG_LEVEL=debug.`,
		SilenceUsage:      true,
		PersistentPreRunE: c.setup,
	}

	addConfigFlag(root)
	addLoggingFlags(root)
	pf := root.PersistentFlags()
	pf.String("socket", "", "daemon socket path (default: per-user runtime dir)")
	pf.BoolVar(&c.jsonOut, "json", false, "print machine-readable JSON")
	pf.BoolVar(&c.local, "local", false, "never use the daemon, run backends in-process")
	pf.BoolVar(&c.spawn, "spawn", false, "start the daemon if it is not running")

	root.AddCommand(
		newServeCmd(c),
		newDaemonCmd(c),
		newClipboardCmd(c),
		newNotifyCmd(c),
		newToastCmd(c),
		newWindowCmd(c),
		newSystemCmd(c),
		newSoundsCmd(c),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "raptorfx %s\n", Version)
		},
	}
}
