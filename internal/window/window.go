// Package window provides the window backends: xdotool/wmctrl on X11,
// System Events through osascript on macOS, user32/dwmapi on Windows and an
// in-memory window for headless hosts.
package window

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"

	"github.com/raptorfx/bridge/internal/bridge"
)

// ErrNoWindow is returned when the target window cannot be found.
var ErrNoWindow = errors.New("no target window")

// Options configures the window backends.
type Options struct {
	// Target selects the window: empty for the active window, a numeric
	// window ID, or a title substring (application name on macOS).
	Target string
	// Exit ends the process. Defaults to os.Exit.
	Exit func(code int)
}

func (o Options) exit() func(int) {
	if o.Exit != nil {
		return o.Exit
	}
	return os.Exit
}

// New returns the window backend for the running OS, or a headless window
// when no native mechanism is available.
func New(opts Options, logger *slog.Logger) bridge.WindowBackend {
	if logger == nil {
		logger = slog.Default()
	}
	be, err := platformBackend(opts)
	if err != nil {
		logger.Warn("window control unavailable, running headless", "err", err)
		return NewHeadless(opts)
	}
	logger.Debug("window backend ready", "backend", be.Name())
	return be
}

// runner executes an external tool and returns its combined output.
type runner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	if err != nil {
		return out, fmt.Errorf("%s: %w, output: %s", name, err, strings.TrimSpace(string(out)))
	}
	return out, nil
}

// method is one way of performing an operation.
type method struct {
	Name string
	Fn   func(ctx context.Context) error
}

// tryMethods runs methods in order until one succeeds.
func tryMethods(ctx context.Context, op string, methods []method) error {
	var errs []error
	for _, m := range methods {
		err := m.Fn(ctx)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		errs = append(errs, fmt.Errorf("%s: %w", m.Name, err))
	}
	return fmt.Errorf("all %s methods failed: %w", op, errors.Join(errs...))
}

// Headless is an in-memory window. Geometry and colour are stored verbatim.
type Headless struct {
	mu        sync.Mutex
	pos       bridge.PositionData
	color     string
	maximized bool
	minimized bool
	exit      func(int)
}

var _ bridge.WindowBackend = (*Headless)(nil)

// NewHeadless returns an 800x600 window at the origin.
func NewHeadless(opts Options) *Headless {
	return &Headless{
		pos:  bridge.PositionData{Width: 800, Height: 600},
		exit: opts.exit(),
	}
}

func (h *Headless) Name() string { return "headless" }

func (h *Headless) Maximize(context.Context) error {
	h.mu.Lock()
	h.maximized, h.minimized = true, false
	h.mu.Unlock()
	return nil
}

func (h *Headless) Minimize(context.Context) error {
	h.mu.Lock()
	h.minimized = true
	h.mu.Unlock()
	return nil
}

// State reports the maximized and minimized flags.
func (h *Headless) State() (maximized, minimized bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.maximized, h.minimized
}

func (h *Headless) Exit(code int) { h.exit(code) }

func (h *Headless) Position(context.Context) (bridge.PositionData, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.pos, nil
}

func (h *Headless) SetPosition(_ context.Context, p bridge.PositionData) (bridge.PositionData, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.pos = p
	h.maximized = false
	return h.pos, nil
}

func (h *Headless) SetStatusBarColor(_ context.Context, hex string) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.color = hex
	return hex, nil
}

// parseHex decodes #RGB, #RRGGBB or #RRGGBBAA. Alpha is ignored.
func parseHex(hex string) (r, g, b uint8, err error) {
	s := strings.TrimPrefix(hex, "#")
	switch len(s) {
	case 3:
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	case 6:
	case 8:
		s = s[:6]
	default:
		return 0, 0, 0, fmt.Errorf("invalid hex colour %q", hex)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("invalid hex colour %q: %w", hex, err)
	}
	return uint8(v >> 16), uint8(v >> 8), uint8(v), nil
}

// isDark reports whether a colour needs light foreground content (Rec. 709
// luma below half scale).
func isDark(r, g, b uint8) bool {
	lum := 0.2126*float64(r) + 0.7152*float64(g) + 0.0722*float64(b)
	return lum < 128
}

// colorRef packs a colour as a Win32 COLORREF (0x00BBGGRR).
func colorRef(r, g, b uint8) uint32 {
	return uint32(r) | uint32(g)<<8 | uint32(b)<<16
}
