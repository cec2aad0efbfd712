package window

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"

	"github.com/raptorfx/bridge/internal/bridge"
)

// X11 drives a window through xdotool, with wmctrl and xprop where xdotool
// has no equivalent.
type X11 struct {
	target string
	run    runner
	exit   func(int)

	mu sync.Mutex
	id string
}

var _ bridge.WindowBackend = (*X11)(nil)

// NewX11 returns an X11 backend. It fails when no X display is reachable or
// xdotool is not installed.
func NewX11(opts Options) (*X11, error) {
	if os.Getenv("DISPLAY") == "" {
		return nil, fmt.Errorf("DISPLAY not set")
	}
	if _, err := exec.LookPath("xdotool"); err != nil {
		return nil, fmt.Errorf("xdotool not installed")
	}
	return newX11(opts, execRunner), nil
}

func newX11(opts Options, run runner) *X11 {
	return &X11{target: opts.Target, run: run, exit: opts.exit()}
}

func (x *X11) Name() string { return "xdotool" }

// windowID resolves the target window once and caches it.
func (x *X11) windowID(ctx context.Context) (string, error) {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.id != "" {
		return x.id, nil
	}

	var id string
	switch {
	case x.target == "":
		out, err := x.run(ctx, "xdotool", "getactivewindow")
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrNoWindow, err)
		}
		id = firstLine(out)
	case isNumeric(x.target):
		id = x.target
	default:
		out, err := x.run(ctx, "xdotool", "search", "--name", x.target)
		if err != nil {
			return "", fmt.Errorf("%w: no window titled %q: %v", ErrNoWindow, x.target, err)
		}
		id = firstLine(out)
	}
	if id == "" {
		return "", ErrNoWindow
	}
	x.id = id
	return id, nil
}

func (x *X11) Maximize(ctx context.Context) error {
	id, err := x.windowID(ctx)
	if err != nil {
		return err
	}
	return tryMethods(ctx, "maximize", []method{
		{"wmctrl", func(ctx context.Context) error {
			_, err := x.run(ctx, "wmctrl", "-i", "-r", id, "-b", "add,maximized_vert,maximized_horz")
			return err
		}},
		{"xdotool", func(ctx context.Context) error {
			if _, err := x.run(ctx, "xdotool", "windowmove", id, "0", "0"); err != nil {
				return err
			}
			_, err := x.run(ctx, "xdotool", "windowsize", id, "100%", "100%")
			return err
		}},
	})
}

func (x *X11) Minimize(ctx context.Context) error {
	id, err := x.windowID(ctx)
	if err != nil {
		return err
	}
	return tryMethods(ctx, "minimize", []method{
		{"xdotool", func(ctx context.Context) error {
			_, err := x.run(ctx, "xdotool", "windowminimize", id)
			return err
		}},
		{"wmctrl", func(ctx context.Context) error {
			_, err := x.run(ctx, "wmctrl", "-i", "-r", id, "-b", "add,hidden")
			return err
		}},
	})
}

func (x *X11) Exit(code int) { x.exit(code) }

func (x *X11) Position(ctx context.Context) (bridge.PositionData, error) {
	id, err := x.windowID(ctx)
	if err != nil {
		return bridge.PositionData{}, err
	}
	out, err := x.run(ctx, "xdotool", "getwindowgeometry", "--shell", id)
	if err != nil {
		return bridge.PositionData{}, err
	}
	return parseShellGeometry(out)
}

// SetPosition moves and resizes, then reads back what the window manager
// actually applied.
func (x *X11) SetPosition(ctx context.Context, p bridge.PositionData) (bridge.PositionData, error) {
	id, err := x.windowID(ctx)
	if err != nil {
		return bridge.PositionData{}, err
	}
	if _, err := x.run(ctx, "xdotool", "windowsize", "--sync", id, strconv.Itoa(p.Width), strconv.Itoa(p.Height)); err != nil {
		return bridge.PositionData{}, err
	}
	if _, err := x.run(ctx, "xdotool", "windowmove", "--sync", id, strconv.Itoa(p.X), strconv.Itoa(p.Y)); err != nil {
		return bridge.PositionData{}, err
	}
	return x.Position(ctx)
}

// SetStatusBarColor picks the dark or light GTK title bar variant that
// matches hex. X11 has no way to paint an arbitrary title bar colour.
func (x *X11) SetStatusBarColor(ctx context.Context, hex string) (string, error) {
	r, g, b, err := parseHex(hex)
	if err != nil {
		return "", err
	}
	id, err := x.windowID(ctx)
	if err != nil {
		return "", err
	}
	variant := "light"
	if isDark(r, g, b) {
		variant = "dark"
	}
	if _, err := x.run(ctx, "xprop", "-id", id, "-f", "_GTK_THEME_VARIANT", "8u", "-set", "_GTK_THEME_VARIANT", variant); err != nil {
		return "", err
	}
	return hex, nil
}

// parseShellGeometry parses `xdotool getwindowgeometry --shell` output.
func parseShellGeometry(out []byte) (bridge.PositionData, error) {
	var p bridge.PositionData
	seen := 0
	for _, line := range strings.Split(string(out), "\n") {
		key, val, ok := strings.Cut(strings.TrimSpace(line), "=")
		if !ok {
			continue
		}
		n, err := strconv.Atoi(val)
		if err != nil {
			continue
		}
		switch key {
		case "X":
			p.X = n
		case "Y":
			p.Y = n
		case "WIDTH":
			p.Width = n
		case "HEIGHT":
			p.Height = n
		default:
			continue
		}
		seen++
	}
	if seen < 4 {
		return bridge.PositionData{}, fmt.Errorf("unexpected xdotool geometry output: %q", strings.TrimSpace(string(out)))
	}
	return p, nil
}

func firstLine(out []byte) string {
	line, _, _ := strings.Cut(strings.TrimSpace(string(out)), "\n")
	return strings.TrimSpace(line)
}

func isNumeric(s string) bool {
	_, err := strconv.ParseUint(s, 0, 64)
	return err == nil
}
