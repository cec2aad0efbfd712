// Package notifier delivers bridge notifications to the desktop through a
// per-OS fallback chain (terminal-notifier and osascript on macOS, D-Bus on
// Linux, beeep everywhere).
package notifier

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"sync"

	"github.com/gen2brain/beeep"

	"github.com/raptorfx/bridge/internal/bridge"
	"github.com/raptorfx/bridge/internal/logging"
	"github.com/raptorfx/bridge/internal/platform"
)

// ErrDenied marks a refusal by the host OS (permissions, policy). It stops
// the fallback chain.
var ErrDenied = errors.New("notification denied by host")

// Options configures a Notifier.
type Options struct {
	// AppName is shown as the notification source.
	AppName string
	// AppIcon is a local image used when a push carries no file icon.
	AppIcon string
	// TerminalNotifierPath overrides the terminal-notifier lookup on macOS.
	TerminalNotifierPath string
}

// sender is one link of the fallback chain.
type sender interface {
	name() string
	send(ctx context.Context, d bridge.Delivery, icon string) error
	close() error
}

// Notifier is the desktop notification backend.
type Notifier struct {
	opts  Options
	chain []sender
}

var _ bridge.NotificationBackend = (*Notifier)(nil)

// New builds the notifier for the running OS.
func New(opts Options) *Notifier {
	if opts.AppName == "" {
		opts.AppName = platform.DefaultAppName
	}
	return &Notifier{opts: opts, chain: platformChain(opts)}
}

func (n *Notifier) Name() string {
	names := make([]string, len(n.chain))
	for i, s := range n.chain {
		names[i] = s.name()
	}
	return strings.Join(names, "+")
}

// Deliver hands d to the first sender in the chain that accepts it.
func (n *Notifier) Deliver(ctx context.Context, d bridge.Delivery) error {
	icon := n.icon(d)
	var errs []error
	for i, s := range n.chain {
		err := s.send(ctx, d, icon)
		if err == nil {
			logging.Debug("Notification sent via %s: id=%s mode=%s", s.name(), d.ID, d.Mode)
			return nil
		}
		if errors.Is(err, ErrDenied) || ctx.Err() != nil {
			return err
		}
		errs = append(errs, fmt.Errorf("%s: %w", s.name(), err))
		if i < len(n.chain)-1 {
			logging.Warn("%s failed, falling back to %s: %v", s.name(), n.chain[i+1].name(), err)
		}
	}
	return errors.Join(errs...)
}

// Close releases sender resources such as the D-Bus connection.
func (n *Notifier) Close() error {
	var errs []error
	for _, s := range n.chain {
		if err := s.close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (n *Notifier) icon(d bridge.Delivery) string {
	if p := d.Data.IconPath(); p != "" && platform.FileExists(p) {
		return p
	}
	if n.opts.AppIcon != "" {
		if platform.FileExists(n.opts.AppIcon) {
			return n.opts.AppIcon
		}
		logging.Warn("App icon not found: %s, using default", n.opts.AppIcon)
	}
	return ""
}

// message returns the body text, falling back to the title because some
// notification services refuse an empty body.
func message(d bridge.Delivery) string {
	if d.Data.Description != "" {
		return d.Data.Description
	}
	return d.Data.Title
}

// beeepMu guards beeep.AppName, which is package state.
var beeepMu sync.Mutex

type beeepSender struct {
	appName string
	goos    string
}

func (b *beeepSender) name() string { return "beeep" }
func (b *beeepSender) close() error { return nil }

func (b *beeepSender) send(_ context.Context, d bridge.Delivery, icon string) error {
	beeepMu.Lock()
	defer beeepMu.Unlock()

	original := beeep.AppName
	beeep.AppName = beeepAppName(b.appName, d, b.goos)
	defer func() { beeep.AppName = original }()

	return beeep.Notify(d.Data.Title, message(d), icon)
}

// beeepAppName picks the AppName under which beeep posts d. The OS stacks
// notifications by application, so GROUP pushes share a name derived from
// the grouping key and SINGLE pushes get a unique one. Windows always uses
// the fixed name: each new AppName leaves a permanent entry under
// HKCU\...\Notifications\Settings.
func beeepAppName(base string, d bridge.Delivery, goos string) string {
	if goos == "windows" {
		return base
	}
	if d.Mode == bridge.ModeGroup && d.GroupKey != "" {
		return base + " - " + d.GroupKey
	}
	return fmt.Sprintf("%s-%s", base, d.ID)
}

func newBeeep(opts Options) *beeepSender {
	return &beeepSender{appName: opts.AppName, goos: runtime.GOOS}
}

// terminalNotifierArgs builds the terminal-notifier command line. GROUP
// pushes share a -threadID so Notification Center collapses them; every push
// gets a unique -group so none replaces another.
func terminalNotifierArgs(d bridge.Delivery, icon string) []string {
	args := []string{
		"-title", d.Data.Title,
		"-message", message(d),
	}
	if icon != "" {
		args = append(args, "-appIcon", icon)
	}
	if d.Mode == bridge.ModeGroup && d.GroupKey != "" {
		args = append(args, "-threadID", d.GroupKey)
	}
	args = append(args, "-group", "raptorfx-"+d.ID)
	// Sound is played by the bridge itself.
	args = append(args, "-nosound")
	return args
}

// osascriptArgs builds a display-notification call. It has no grouping
// support.
func osascriptArgs(d bridge.Delivery) []string {
	script := fmt.Sprintf(`display notification %q with title %q`, message(d), d.Data.Title)
	return []string{"-e", script}
}
