package window

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"sync"

	"github.com/raptorfx/bridge/internal/bridge"
)

// MacOS drives a window through System Events. It needs the Accessibility
// permission for the calling terminal or app.
type MacOS struct {
	target string
	run    runner
	exit   func(int)

	mu    sync.Mutex
	color string
}

var _ bridge.WindowBackend = (*MacOS)(nil)

// NewMacOS returns a macOS backend. It fails when osascript is missing.
func NewMacOS(opts Options) (*MacOS, error) {
	if _, err := exec.LookPath("osascript"); err != nil {
		return nil, fmt.Errorf("osascript not found: %w", err)
	}
	return newMacOS(opts, execRunner), nil
}

func newMacOS(opts Options, run runner) *MacOS {
	return &MacOS{target: opts.Target, run: run, exit: opts.exit()}
}

func (m *MacOS) Name() string { return "osascript" }

// process is the System Events reference of the target application.
func (m *MacOS) process() string {
	if m.target == "" {
		return "first application process whose frontmost is true"
	}
	return fmt.Sprintf("application process %q", m.target)
}

func (m *MacOS) script(ctx context.Context, body ...string) ([]byte, error) {
	lines := append([]string{
		`tell application "System Events"`,
		"tell " + m.process(),
	}, body...)
	lines = append(lines, "end tell", "end tell")
	return m.run(ctx, "osascript", "-e", strings.Join(lines, "\n"))
}

func (m *MacOS) Maximize(ctx context.Context) error {
	_, err := m.script(ctx, `click (first button of window 1 whose subrole is "AXZoomButton")`)
	return err
}

func (m *MacOS) Minimize(ctx context.Context) error {
	_, err := m.script(ctx, `set value of attribute "AXMinimized" of window 1 to true`)
	return err
}

func (m *MacOS) Exit(code int) { m.exit(code) }

func (m *MacOS) Position(ctx context.Context) (bridge.PositionData, error) {
	out, err := m.script(ctx, "get {position, size} of window 1")
	if err != nil {
		return bridge.PositionData{}, err
	}
	return parseAppleBounds(out)
}

func (m *MacOS) SetPosition(ctx context.Context, p bridge.PositionData) (bridge.PositionData, error) {
	out, err := m.script(ctx,
		fmt.Sprintf("set position of window 1 to {%d, %d}", p.X, p.Y),
		fmt.Sprintf("set size of window 1 to {%d, %d}", p.Width, p.Height),
		"get {position, size} of window 1",
	)
	if err != nil {
		return bridge.PositionData{}, err
	}
	return parseAppleBounds(out)
}

// SetStatusBarColor records hex. Title bars on macOS are drawn by the owning
// app and cannot be recoloured from outside it.
func (m *MacOS) SetStatusBarColor(_ context.Context, hex string) (string, error) {
	if _, _, _, err := parseHex(hex); err != nil {
		return "", err
	}
	m.mu.Lock()
	m.color = hex
	m.mu.Unlock()
	return hex, nil
}

// parseAppleBounds parses "x, y, w, h" as printed for {position, size}.
func parseAppleBounds(out []byte) (bridge.PositionData, error) {
	fields := strings.Split(strings.TrimSpace(string(out)), ",")
	if len(fields) != 4 {
		return bridge.PositionData{}, fmt.Errorf("unexpected window bounds %q", strings.TrimSpace(string(out)))
	}
	var n [4]int
	for i, f := range fields {
		v, err := strconv.Atoi(strings.TrimSpace(f))
		if err != nil {
			return bridge.PositionData{}, fmt.Errorf("unexpected window bounds %q: %w", strings.TrimSpace(string(out)), err)
		}
		n[i] = v
	}
	return bridge.PositionData{X: n[0], Y: n[1], Width: n[2], Height: n[3]}, nil
}
