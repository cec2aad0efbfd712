package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
	"time"

	"github.com/spf13/cobra"

	"github.com/raptorfx/bridge/internal/backends"
	"github.com/raptorfx/bridge/internal/daemon"
	"github.com/raptorfx/bridge/internal/logging"
)

func newDaemonCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Run or manage the per-user bridge daemon",
	}
	cmd.AddCommand(
		newServeCmd(c),
		&cobra.Command{
			Use:   "start",
			Short: "Start the daemon in the background if it is not running",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				socket := daemon.GetSocketPath(c.cfg.Daemon.SocketPath)
				if !daemon.StartDaemonOnDemand(socket, c.serveArgs(socket)...) {
					return errors.New("daemon did not start; run \"raptorfx daemon serve --no-background\" to see why")
				}
				fmt.Fprintf(cmd.OutOrStdout(), "daemon running (pid %d)\n", daemon.GetDaemonPID(socket))
				return nil
			},
		},
		&cobra.Command{
			Use:   "stop",
			Short: "Stop the running daemon",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return daemon.StopDaemon(daemon.GetSocketPath(c.cfg.Daemon.SocketPath))
			},
		},
		newStatusCmd(c),
	)
	return cmd
}

func newServeCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the daemon in the foreground",
		Long: `Run the daemon in the foreground, serving the bridge on a Unix socket and,
with --websocket, on a loopback WebSocket at ` + daemon.WebsocketPath + `.

The daemon exits on SIGINT/SIGTERM, on "raptorfx daemon stop", or after
--idle-timeout without requests (0 disables it).`,
		Args:        cobra.NoArgs,
		Annotations: map[string]string{annotationService: "true"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.serve(cmd.Context())
		},
	}
	f := cmd.Flags()
	f.String("idle-timeout", "", "shut down after this long without requests (default 5m)")
	f.String("websocket", "", "loopback host:port for the WebSocket endpoint")
	return cmd
}

func (c *cli) serve(ctx context.Context) error {
	logger := logging.Component("daemon")

	rt, err := backends.Open(c.cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		if err := rt.Close(closeCtx); err != nil {
			logger.Warn("bridge close", "error", err)
		}
	}()

	server, err := daemon.NewServer(rt.Bridge, daemon.ServerConfig{
		SocketPath:    daemon.GetSocketPath(c.cfg.Daemon.SocketPath),
		IdleTimeout:   c.cfg.IdleTimeout(),
		WebsocketAddr: c.cfg.Daemon.WebsocketAddr,
	}, logger)
	if err != nil {
		return err
	}
	return server.Run(ctx)
}

func newStatusCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show whether the daemon is running",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			socket := daemon.GetSocketPath(c.cfg.Daemon.SocketPath)
			client, err := daemon.NewClient(socket)
			if err != nil {
				return err
			}
			ping, err := client.Ping(cmd.Context())
			if err != nil {
				return fmt.Errorf("%w: %v", daemon.ErrDaemonNotRunning, err)
			}
			return c.emit(cmd.OutOrStdout(), ping, func(w io.Writer) {
				fmt.Fprintf(w, "socket:   %s\n", socket)
				fmt.Fprintf(w, "pid:      %d\n", ping.PID)
				fmt.Fprintf(w, "version:  %s\n", ping.Version)
				fmt.Fprintf(w, "uptime:   %s\n", time.Duration(ping.Uptime)*time.Second)
				for _, capability := range slices.Sorted(maps.Keys(ping.Backends)) {
					fmt.Fprintf(w, "backend:  %-14s %s\n", capability, ping.Backends[capability])
				}
			})
		},
	}
}
