// Package bridge routes uniform capability calls (clipboard, notifications,
// window, system) to the platform backends held in a Registry.
package bridge

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/raptorfx/bridge/internal/platform"
)

// PlatformSource reports the resolved platform. *platform.Descriptor
// satisfies it.
type PlatformSource interface {
	Resolved() (platform.Info, bool)
}

// Bridge is the capability dispatcher. It validates arguments, enforces the
// resolved-platform precondition and forwards to the registered backends.
type Bridge struct {
	platform PlatformSource
	registry *Registry
	opts     options
	logger   *slog.Logger

	once    sync.Once
	clipMu  sync.Mutex
	channel *NotificationChannel
	window  *WindowController
	closed  atomic.Bool
}

// New creates a dispatcher over reg. Backends are looked up lazily, on the
// first call made after src has been resolved.
func New(src PlatformSource, reg *Registry, opts ...Option) *Bridge {
	o := buildOptions(opts)
	return &Bridge{
		platform: src,
		registry: reg,
		opts:     o,
		logger:   o.logger.With("component", "bridge"),
	}
}

// setup binds the notification channel and window controller. It runs once,
// after the platform is known.
func (b *Bridge) setup() {
	b.once.Do(func() {
		if nb, err := resolveAs[NotificationBackend](b.registry, CapNotifications); err == nil {
			b.channel = NewNotificationChannel(nb, b.opts.channel)
			b.channel.Start()
		}
		if wb, err := resolveAs[WindowBackend](b.registry, CapWindow); err == nil {
			b.window = NewWindowController(wb, b.opts.statusBarColor, b.opts.callTimeout, b.opts.logger)
		}
		b.logger.Debug("bridge ready", "backends", b.registry.Describe())
	})
}

// Start binds the backends and launches the notification delivery
// goroutine. It fails with ErrPlatformUnknown when the platform has not been
// resolved. Capability calls start the bridge implicitly.
func (b *Bridge) Start() error {
	return b.check(CapSystem, "start")
}

// Close refuses further calls and drains queued notifications.
func (b *Bridge) Close(ctx context.Context) error {
	if !b.closed.CompareAndSwap(false, true) {
		return nil
	}
	// Waits for a concurrent setup, or prevents a later one.
	b.once.Do(func() {})
	if b.channel != nil {
		return b.channel.Close(ctx)
	}
	return nil
}

// Registry returns the backend registry.
func (b *Bridge) Registry() *Registry { return b.registry }

// Clipboard returns the clipboard capability.
func (b *Bridge) Clipboard() *Clipboard { return &Clipboard{b: b} }

// Notifications returns the notification capability.
func (b *Bridge) Notifications() *Notifications { return &Notifications{b: b} }

// Window returns the window capability.
func (b *Bridge) Window() *Window { return &Window{b: b} }

// System returns the system capability.
func (b *Bridge) System() *System { return &System{b: b} }

// Variables returns the platform storage paths.
func (b *Bridge) Variables() (Variables, error) {
	info, ok := b.platform.Resolved()
	if !ok {
		return Variables{}, &Error{Capability: CapSystem, Op: "variables", Kind: ErrPlatformUnknown}
	}
	return Variables{LocalStorage: info.LocalStorage, ExternalStorage: info.ExternalStorage}, nil
}

// Info returns the resolved platform.
func (b *Bridge) Info() (platform.Info, error) {
	info, ok := b.platform.Resolved()
	if !ok {
		return platform.Info{}, &Error{Capability: CapSystem, Op: "info", Kind: ErrPlatformUnknown}
	}
	return info, nil
}

// check guards every capability call.
func (b *Bridge) check(c Capability, op string) error {
	if b.closed.Load() {
		return &Error{Capability: c, Op: op, Kind: ErrBridgeClosed}
	}
	if _, ok := b.platform.Resolved(); !ok {
		return &Error{Capability: c, Op: op, Kind: ErrPlatformUnknown}
	}
	b.setup()
	// Close may have won the setup race and left the backends unbound.
	if b.closed.Load() {
		return &Error{Capability: c, Op: op, Kind: ErrBridgeClosed}
	}
	return nil
}

func unsupported(c Capability, op string, err error) error {
	return &Error{Capability: c, Op: op, Kind: ErrUnsupportedCapability, Err: err}
}

// Clipboard is the clipboard capability. Copy, Cut and Push are atomic with
// respect to each other.
type Clipboard struct{ b *Bridge }

func (c *Clipboard) backend(op string) (ClipboardBackend, error) {
	if err := c.b.check(CapClipboard, op); err != nil {
		return nil, err
	}
	return c.bound(op)
}

// bound resolves the clipboard backend once check has passed.
func (c *Clipboard) bound(op string) (ClipboardBackend, error) {
	be, err := resolveAs[ClipboardBackend](c.b.registry, CapClipboard)
	if err != nil {
		return nil, unsupported(CapClipboard, op, err)
	}
	return be, nil
}

// Copy returns the current clipboard contents. An empty clipboard reads as
// empty text.
func (c *Clipboard) Copy(ctx context.Context) (ClipboardContent, error) {
	be, err := c.backend("copy")
	if err != nil {
		return ClipboardContent{}, err
	}
	lock := acquire(&c.b.clipMu)
	defer lock.release()

	content, err := callHeld(ctx, lock, c.b.opts.callTimeout, be.Read)
	if err != nil {
		return ClipboardContent{}, wrap(CapClipboard, "copy", ErrBackendFailed, err)
	}
	return normalizeClipboard(content), nil
}

// Cut returns the current contents and clears the clipboard.
func (c *Clipboard) Cut(ctx context.Context) (ClipboardContent, error) {
	be, err := c.backend("cut")
	if err != nil {
		return ClipboardContent{}, err
	}
	lock := acquire(&c.b.clipMu)
	defer lock.release()

	content, err := callHeld(ctx, lock, c.b.opts.callTimeout, be.Read)
	if err != nil {
		return ClipboardContent{}, wrap(CapClipboard, "cut", ErrBackendFailed, err)
	}
	if err := callErrHeld(ctx, lock, c.b.opts.callTimeout, be.Clear); err != nil {
		return ClipboardContent{}, wrap(CapClipboard, "cut", ErrBackendFailed, err)
	}
	return normalizeClipboard(content), nil
}

// Push replaces the clipboard contents.
func (c *Clipboard) Push(ctx context.Context, content ClipboardContent) error {
	if err := c.b.check(CapClipboard, "push"); err != nil {
		return err
	}
	if err := validateClipboard(content); err != nil {
		return err
	}
	be, err := c.bound("push")
	if err != nil {
		return err
	}
	lock := acquire(&c.b.clipMu)
	defer lock.release()

	// The backend gets its own copy of the image bytes.
	if content.Kind == KindImage {
		content = ImageContent(content.Image.PNG)
	}
	err = callErrHeld(ctx, lock, c.b.opts.callTimeout, func(ctx context.Context) error {
		return be.Write(ctx, content)
	})
	return wrap(CapClipboard, "push", ErrBackendFailed, err)
}

// Notifications is the notification capability.
type Notifications struct{ b *Bridge }

// Enqueue validates and queues a push, returning its future.
func (n *Notifications) Enqueue(ctx context.Context, data NotificationData, mode NotificationMode) (*Pending, error) {
	if err := n.b.check(CapNotifications, "push"); err != nil {
		return nil, err
	}
	if err := validateNotification(data); err != nil {
		return nil, err
	}
	if err := validateMode(mode); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if n.b.channel == nil {
		_, err := n.b.registry.Resolve(CapNotifications)
		return nil, unsupported(CapNotifications, "push", err)
	}
	return n.b.channel.Enqueue(data, mode)
}

// Push queues data and waits until the backend accepted it.
func (n *Notifications) Push(ctx context.Context, data NotificationData, mode NotificationMode) error {
	p, err := n.Enqueue(ctx, data, mode)
	if err != nil {
		return err
	}
	return p.Wait(ctx)
}

// CreateToast shows a short on-screen message. Backends without toast
// support make it a no-op.
func (n *Notifications) CreateToast(ctx context.Context, text string, length ToastLength) error {
	if err := n.b.check(CapNotifications, "createToast"); err != nil {
		return err
	}
	if err := validateToast(text, length); err != nil {
		return err
	}
	nb, err := resolveAs[NotificationBackend](n.b.registry, CapNotifications)
	if err != nil {
		n.b.logger.Debug("toast dropped, no notification backend", "text", text)
		return nil
	}
	tb, ok := nb.(ToastBackend)
	if !ok {
		n.b.logger.Debug("toast dropped, backend has no toasts", "backend", nb.Name())
		return nil
	}
	err = callErr(ctx, n.b.opts.callTimeout, func(ctx context.Context) error {
		return tb.Toast(ctx, text, length)
	})
	return wrap(CapNotifications, "createToast", ErrNotificationRejected, err)
}

// Window is the window capability.
type Window struct{ b *Bridge }

func (w *Window) controller(op string) (*WindowController, error) {
	if err := w.b.check(CapWindow, op); err != nil {
		return nil, err
	}
	return w.bound(op)
}

func (w *Window) bound(op string) (*WindowController, error) {
	if w.b.window == nil {
		_, err := w.b.registry.Resolve(CapWindow)
		return nil, unsupported(CapWindow, op, err)
	}
	return w.b.window, nil
}

// Maximize maximizes the context window.
func (w *Window) Maximize(ctx context.Context) error {
	wc, err := w.controller("maximize")
	if err != nil {
		return err
	}
	return wrap(CapWindow, "maximize", ErrBackendFailed, wc.Maximize(ctx))
}

// Minimize minimizes the context window.
func (w *Window) Minimize(ctx context.Context) error {
	wc, err := w.controller("minimize")
	if err != nil {
		return err
	}
	return wrap(CapWindow, "minimize", ErrBackendFailed, wc.Minimize(ctx))
}

// Exit asks the backend to terminate the process context and returns
// without waiting. Calls issued after Exit should be treated as unreachable.
func (w *Window) Exit(code int) error {
	if err := w.b.check(CapWindow, "exit"); err != nil {
		return err
	}
	if code < 0 {
		return invalid(CapWindow, "exit", "exit code must be non-negative, got %d", code)
	}
	wc, err := w.bound("exit")
	if err != nil {
		return err
	}
	wc.Exit(code)
	return nil
}

// Position reads the window geometry when newPosition is nil and sets it
// otherwise. The returned value is always a copy.
func (w *Window) Position(ctx context.Context, newPosition *PositionData) (PositionData, error) {
	if err := w.b.check(CapWindow, "position"); err != nil {
		return PositionData{}, err
	}
	if newPosition == nil {
		wc, err := w.bound("position")
		if err != nil {
			return PositionData{}, err
		}
		pos, err := wc.Position(ctx)
		return pos, wrap(CapWindow, "position", ErrBackendFailed, err)
	}

	p := *newPosition
	if err := validatePosition(p); err != nil {
		return PositionData{}, err
	}
	wc, err := w.bound("position")
	if err != nil {
		return PositionData{}, err
	}
	pos, err := wc.SetPosition(ctx, p)
	return pos, wrap(CapWindow, "position", ErrBackendFailed, err)
}

// StatusBarColor sets the colour (BarSet) or reads it (BarGet). An empty mode
// means SET when hex is given and GET otherwise.
func (w *Window) StatusBarColor(ctx context.Context, mode WindowBarMode, hex string) (string, error) {
	if err := w.b.check(CapWindow, "statusBarColor"); err != nil {
		return "", err
	}
	if mode == "" {
		mode = BarGet
		if hex != "" {
			mode = BarSet
		}
	}
	switch mode {
	case BarGet:
		wc, err := w.bound("statusBarColor")
		if err != nil {
			return "", err
		}
		return wc.StatusBarColor(), nil
	case BarSet:
		if err := validateHex(hex); err != nil {
			return "", err
		}
		wc, err := w.bound("statusBarColor")
		if err != nil {
			return "", err
		}
		applied, err := wc.SetStatusBarColor(ctx, hex)
		return applied, wrap(CapWindow, "statusBarColor", ErrBackendFailed, err)
	default:
		return "", invalid(CapWindow, "statusBarColor", "unknown mode %q", mode)
	}
}

// System is the system introspection capability.
type System struct{ b *Bridge }

func (s *System) backend(op string) (SystemBackend, error) {
	if err := s.b.check(CapSystem, op); err != nil {
		return nil, err
	}
	be, err := resolveAs[SystemBackend](s.b.registry, CapSystem)
	if err != nil {
		return nil, unsupported(CapSystem, op, err)
	}
	return be, nil
}

// Arch returns the CPU architecture, e.g. "x86_64".
func (s *System) Arch() (string, error) {
	be, err := s.backend("arch")
	if err != nil {
		return "", err
	}
	return be.Arch(), nil
}

// OS returns the versioned OS identifier, e.g. "windows_11".
func (s *System) OS() (string, error) {
	be, err := s.backend("os")
	if err != nil {
		return "", err
	}
	return be.OS(), nil
}

// Locale returns the user locale, e.g. "en_US".
func (s *System) Locale() (string, error) {
	be, err := s.backend("locale")
	if err != nil {
		return "", err
	}
	return be.Locale(), nil
}
