// Package backends selects the capability backends for a resolved platform
// and wires a ready-to-use bridge from configuration.
package backends

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/raptorfx/bridge/internal/bridge"
	"github.com/raptorfx/bridge/internal/clipboard"
	"github.com/raptorfx/bridge/internal/config"
	"github.com/raptorfx/bridge/internal/host"
	"github.com/raptorfx/bridge/internal/notifier"
	"github.com/raptorfx/bridge/internal/platform"
	"github.com/raptorfx/bridge/internal/sounds"
	"github.com/raptorfx/bridge/internal/window"
)

// factory builds the concrete backends. Tests replace it.
type factory struct {
	clipboard func(*slog.Logger) bridge.ClipboardBackend
	notifier  func(notifier.Options) bridge.NotificationBackend
	window    func(window.Options, *slog.Logger) bridge.WindowBackend
	host      func() (host.Host, bool)
	chime     func(sound, device string, volume float64) *notifier.Chime
}

var defaultFactory = factory{
	clipboard: clipboard.New,
	notifier:  func(o notifier.Options) bridge.NotificationBackend { return notifier.New(o) },
	window:    window.New,
	host:      host.Attached,
	chime:     notifier.NewChime,
}

// Installed describes what Install registered and owns the resources that
// must be released on shutdown.
type Installed struct {
	// Kind is "desktop", "host" or "minimal".
	Kind  string
	Chime *notifier.Chime

	closers []io.Closer
}

// Close releases notifier connections and the audio device.
func (in *Installed) Close() error {
	var errs []error
	for _, c := range in.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Install registers the backends for info.Family and seals reg.
func Install(reg *bridge.Registry, info platform.Info, cfg *config.Config, logger *slog.Logger) (*Installed, error) {
	return install(reg, info, cfg, logger, defaultFactory)
}

func install(reg *bridge.Registry, info platform.Info, cfg *config.Config, logger *slog.Logger, f factory) (*Installed, error) {
	if logger == nil {
		logger = slog.Default()
	}
	defer reg.Seal()

	in := &Installed{Kind: "minimal"}
	register := func(c bridge.Capability, be any) error {
		if err := reg.Register(c, be); err != nil {
			return err
		}
		if cl, ok := be.(io.Closer); ok {
			in.closers = append(in.closers, cl)
		}
		return nil
	}

	if err := register(bridge.CapSystem, platform.NewSystem(info)); err != nil {
		return nil, err
	}

	winOpts := window.Options{Target: cfg.Window.Target}

	switch info.Family {
	case "darwin", "linux", "freebsd", "openbsd", "netbsd", "windows":
		in.Kind = "desktop"
		nb := f.notifier(notifier.Options{
			AppName:              cfg.App.Name,
			AppIcon:              cfg.Notifications.AppIcon,
			TerminalNotifierPath: cfg.Notifications.TerminalNotifierPath,
		})
		err := errors.Join(
			register(bridge.CapClipboard, f.clipboard(logger)),
			register(bridge.CapNotifications, nb),
			register(bridge.CapWindow, f.window(winOpts, logger)),
		)
		if err != nil {
			return nil, err
		}
		in.Chime = newChime(info, cfg, logger, f)
		if in.Chime != nil {
			in.closers = append(in.closers, in.Chime)
		}

	case "android", "ios":
		h, ok := f.host()
		if !ok {
			logger.Warn("no host attached, only system capabilities are available", "family", info.Family)
			break
		}
		in.Kind = "host"
		hb := host.New(h, winOpts.Exit)
		err := errors.Join(
			register(bridge.CapClipboard, hb.Clipboard),
			register(bridge.CapNotifications, hb.Notifications),
			register(bridge.CapWindow, hb.Window),
		)
		if err != nil {
			return nil, err
		}

	default:
		logger.Info("no native backends for platform, only system capabilities are available", "family", info.Family)
	}

	logger.Debug("backends installed", "kind", in.Kind, "backends", reg.Describe())
	return in, nil
}

func newChime(info platform.Info, cfg *config.Config, logger *slog.Logger, f factory) *notifier.Chime {
	if !cfg.IsSoundEnabled() {
		return nil
	}
	path, ok := sounds.Resolve(cfg.Notifications.Sound, SoundSources(info))
	if !ok {
		logger.Warn("notification sound not found, playing none", "sound", cfg.Notifications.Sound)
		return nil
	}
	return f.chime(path, cfg.Notifications.AudioDevice, cfg.Notifications.Volume)
}

// SoundSources returns where notification sounds are looked up.
func SoundSources(info platform.Info) sounds.DiscoverOptions {
	return sounds.DiscoverOptions{
		UserDir:       filepath.Join(info.LocalStorage, "sounds"),
		IncludeUser:   info.LocalStorage != "",
		IncludeSystem: true,
	}
}

// Options translates cfg into bridge options.
func (in *Installed) Options(cfg *config.Config, logger *slog.Logger) []bridge.Option {
	opts := []bridge.Option{
		bridge.WithCallTimeout(cfg.CallTimeout()),
		bridge.WithStatusBarColor(cfg.Window.StatusBarColor),
		bridge.WithGroupKey(cfg.Notifications.GroupKey),
		bridge.WithQueueSize(cfg.Notifications.QueueSize),
		bridge.WithDeliveryTimeout(cfg.DeliveryTimeout()),
	}
	if logger != nil {
		opts = append(opts, bridge.WithLogger(logger))
	}
	if in.Chime != nil {
		opts = append(opts, bridge.WithOnAccepted(in.Chime.OnAccepted))
	}
	return opts
}

// Runtime is a started bridge together with the resources behind it.
type Runtime struct {
	Bridge    *bridge.Bridge
	Info      platform.Info
	Installed *Installed
}

// Open resolves the process platform, installs its backends and starts a
// bridge configured by cfg.
func Open(cfg *config.Config, logger *slog.Logger) (*Runtime, error) {
	if logger == nil {
		logger = slog.Default()
	}
	desc := platform.NewDescriptor(
		platform.WithAppName(cfg.App.Name),
		platform.WithPackageID(cfg.App.PackageID),
	)
	if !platform.SetProcess(desc) {
		desc = platform.Process()
	}
	info, err := desc.Resolve()
	if err != nil {
		return nil, fmt.Errorf("resolve platform: %w", err)
	}

	reg := bridge.NewRegistry()
	in, err := Install(reg, info, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("install backends: %w", err)
	}

	b := bridge.New(desc, reg, in.Options(cfg, logger)...)
	if err := b.Start(); err != nil {
		in.Close()
		return nil, err
	}
	logger.Info("bridge started",
		"arch", info.Arch,
		"os", info.OS,
		"locale", info.Locale,
		"backends", reg.Describe(),
	)
	return &Runtime{Bridge: b, Info: info, Installed: in}, nil
}

// Close drains pending notifications and releases backend resources.
func (r *Runtime) Close(ctx context.Context) error {
	return errors.Join(r.Bridge.Close(ctx), r.Installed.Close())
}
