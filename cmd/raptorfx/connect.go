package main

import (
	"context"
	"time"

	"github.com/raptorfx/bridge/internal/backends"
	"github.com/raptorfx/bridge/internal/bridge"
	"github.com/raptorfx/bridge/internal/daemon"
	"github.com/raptorfx/bridge/internal/platform"
)

// capabilities is what commands need from either the daemon or an
// in-process bridge.
type capabilities interface {
	Copy(ctx context.Context) (bridge.ClipboardContent, error)
	Cut(ctx context.Context) (bridge.ClipboardContent, error)
	Push(ctx context.Context, content bridge.ClipboardContent) error
	Notify(ctx context.Context, data bridge.NotificationData, mode bridge.NotificationMode, wait bool) (*daemon.NotifyResult, error)
	Toast(ctx context.Context, text string, length bridge.ToastLength) error
	Maximize(ctx context.Context) error
	Minimize(ctx context.Context) error
	Exit(ctx context.Context, code int) error
	Position(ctx context.Context, newPosition *bridge.PositionData) (bridge.PositionData, error)
	StatusBarColor(ctx context.Context, mode bridge.WindowBarMode, hex string) (string, error)
	Arch(ctx context.Context) (string, error)
	OS(ctx context.Context) (string, error)
	Locale(ctx context.Context) (string, error)
	Info(ctx context.Context) (platform.Info, error)
	Variables(ctx context.Context) (bridge.Variables, error)
	Close(ctx context.Context) error
}

// connect returns the daemon when it answers, in-process backends
// otherwise.
func (c *cli) connect(ctx context.Context) (capabilities, error) {
	socket := daemon.GetSocketPath(c.cfg.Daemon.SocketPath)

	if !c.local {
		if c.spawn && !daemon.StartDaemonOnDemand(socket, c.serveArgs(socket)...) {
			c.logger.Warn("could not start daemon, running in-process", "socket", socket)
		}
		if daemon.IsDaemonRunning(socket) {
			client, err := daemon.NewClient(socket)
			if err == nil {
				c.logger.Debug("using daemon", "socket", socket)
				return remote{client}, nil
			}
			c.logger.Debug("daemon unavailable", "error", err)
		}
	}

	rt, err := backends.Open(c.cfg, c.logger)
	if err != nil {
		return nil, err
	}
	return &local{rt: rt}, nil
}

// serveArgs are the arguments a spawned daemon is started with.
func (c *cli) serveArgs(socket string) []string {
	args := []string{"daemon", "serve", "--socket", socket}
	if path := c.v.ConfigFileUsed(); path != "" {
		args = append(args, "--config", path)
	}
	return args
}

// remote forwards to the daemon.
type remote struct {
	*daemon.Client
}

func (remote) Close(context.Context) error { return nil }

// local runs the bridge in this process.
type local struct {
	rt *backends.Runtime
}

func (l *local) Copy(ctx context.Context) (bridge.ClipboardContent, error) {
	return l.rt.Bridge.Clipboard().Copy(ctx)
}

func (l *local) Cut(ctx context.Context) (bridge.ClipboardContent, error) {
	return l.rt.Bridge.Clipboard().Cut(ctx)
}

func (l *local) Push(ctx context.Context, content bridge.ClipboardContent) error {
	return l.rt.Bridge.Clipboard().Push(ctx, content)
}

func (l *local) Notify(ctx context.Context, data bridge.NotificationData, mode bridge.NotificationMode, wait bool) (*daemon.NotifyResult, error) {
	p, err := l.rt.Bridge.Notifications().Enqueue(ctx, data, mode)
	if err != nil {
		return nil, err
	}
	res := &daemon.NotifyResult{ID: p.Delivery.ID, Seq: p.Delivery.Seq}
	if wait {
		if err := p.Wait(ctx); err != nil {
			return nil, err
		}
		res.Accepted = true
	}
	return res, nil
}

func (l *local) Toast(ctx context.Context, text string, length bridge.ToastLength) error {
	return l.rt.Bridge.Notifications().CreateToast(ctx, text, length)
}

func (l *local) Maximize(ctx context.Context) error {
	return l.rt.Bridge.Window().Maximize(ctx)
}

func (l *local) Minimize(ctx context.Context) error {
	return l.rt.Bridge.Window().Minimize(ctx)
}

// exitGrace bounds how long an in-process exit waits for the backend to
// terminate the process.
const exitGrace = 2 * time.Second

func (l *local) Exit(ctx context.Context, code int) error {
	if err := l.rt.Bridge.Window().Exit(code); err != nil {
		return err
	}
	select {
	case <-time.After(exitGrace):
	case <-ctx.Done():
	}
	return nil
}

func (l *local) Position(ctx context.Context, newPosition *bridge.PositionData) (bridge.PositionData, error) {
	return l.rt.Bridge.Window().Position(ctx, newPosition)
}

func (l *local) StatusBarColor(ctx context.Context, mode bridge.WindowBarMode, hex string) (string, error) {
	return l.rt.Bridge.Window().StatusBarColor(ctx, mode, hex)
}

func (l *local) Arch(context.Context) (string, error) { return l.rt.Bridge.System().Arch() }

func (l *local) OS(context.Context) (string, error) { return l.rt.Bridge.System().OS() }

func (l *local) Locale(context.Context) (string, error) { return l.rt.Bridge.System().Locale() }

func (l *local) Info(context.Context) (platform.Info, error) { return l.rt.Bridge.Info() }

func (l *local) Variables(context.Context) (bridge.Variables, error) {
	return l.rt.Bridge.Variables()
}

func (l *local) Close(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	return l.rt.Close(ctx)
}

// withCapabilities connects, runs fn and closes the connection.
func (c *cli) withCapabilities(ctx context.Context, fn func(capabilities) error) error {
	caps, err := c.connect(ctx)
	if err != nil {
		return err
	}
	err = fn(caps)
	if cerr := caps.Close(ctx); cerr != nil && err == nil {
		err = cerr
	}
	return err
}
