package window

import (
	"context"
	"errors"
	"runtime"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raptorfx/bridge/internal/bridge"
)

var ctx = context.Background()

// fakeRunner records commands and answers from a table keyed by the
// command line prefix.
type fakeRunner struct {
	mu      sync.Mutex
	calls   []string
	replies map[string]string
	fail    map[string]error
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{replies: map[string]string{}, fail: map[string]error{}}
}

func (f *fakeRunner) run(_ context.Context, name string, args ...string) ([]byte, error) {
	line := strings.Join(append([]string{name}, args...), " ")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, line)
	for prefix, err := range f.fail {
		if strings.HasPrefix(line, prefix) {
			return nil, err
		}
	}
	for prefix, out := range f.replies {
		if strings.HasPrefix(line, prefix) {
			return []byte(out), nil
		}
	}
	return nil, nil
}

func (f *fakeRunner) called() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// === Headless ===

func TestHeadless(t *testing.T) {
	var exited []int
	h := NewHeadless(Options{Exit: func(code int) { exited = append(exited, code) }})

	pos, err := h.Position(ctx)
	require.NoError(t, err)
	assert.Equal(t, bridge.PositionData{Width: 800, Height: 600}, pos)

	require.NoError(t, h.Maximize(ctx))
	maxed, mined := h.State()
	assert.True(t, maxed)
	assert.False(t, mined)

	require.NoError(t, h.Minimize(ctx))
	_, mined = h.State()
	assert.True(t, mined)

	want := bridge.PositionData{X: -5, Y: 7, Width: 300, Height: 200}
	got, err := h.SetPosition(ctx, want)
	require.NoError(t, err)
	assert.Equal(t, want, got)
	maxed, _ = h.State()
	assert.False(t, maxed, "moving a window restores it")

	hex, err := h.SetStatusBarColor(ctx, "#123456")
	require.NoError(t, err)
	assert.Equal(t, "#123456", hex)

	h.Exit(3)
	assert.Equal(t, []int{3}, exited)
	assert.Equal(t, "headless", h.Name())
}

func TestNew_FallsBackToHeadless(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("display detection is tested on Linux")
	}
	t.Setenv("DISPLAY", "")
	be := New(Options{}, nil)
	assert.Equal(t, "headless", be.Name())
}

// === X11 ===

func TestX11_ActiveWindowIsResolvedOnce(t *testing.T) {
	f := newFakeRunner()
	f.replies["xdotool getactivewindow"] = "4194311\n"
	f.replies["xdotool getwindowgeometry"] = "WINDOW=4194311\nX=10\nY=20\nWIDTH=800\nHEIGHT=600\nSCREEN=0\n"
	x := newX11(Options{}, f.run)

	for range 2 {
		pos, err := x.Position(ctx)
		require.NoError(t, err)
		assert.Equal(t, bridge.PositionData{X: 10, Y: 20, Width: 800, Height: 600}, pos)
	}
	assert.Equal(t, []string{
		"xdotool getactivewindow",
		"xdotool getwindowgeometry --shell 4194311",
		"xdotool getwindowgeometry --shell 4194311",
	}, f.called())
}

func TestX11_TargetByTitleAndID(t *testing.T) {
	f := newFakeRunner()
	f.replies["xdotool search --name Editor"] = "77\n78\n"
	x := newX11(Options{Target: "Editor"}, f.run)
	require.NoError(t, x.Minimize(ctx))
	assert.Equal(t, "xdotool windowminimize 77", f.called()[1])

	f2 := newFakeRunner()
	x2 := newX11(Options{Target: "0x3a00007"}, f2.run)
	require.NoError(t, x2.Minimize(ctx))
	assert.Equal(t, []string{"xdotool windowminimize 0x3a00007"}, f2.called())
}

func TestX11_NoWindow(t *testing.T) {
	f := newFakeRunner()
	f.fail["xdotool getactivewindow"] = errors.New("exit status 1")
	x := newX11(Options{}, f.run)

	_, err := x.Position(ctx)
	assert.ErrorIs(t, err, ErrNoWindow)

	f2 := newFakeRunner()
	x2 := newX11(Options{}, f2.run)
	assert.ErrorIs(t, x2.Maximize(ctx), ErrNoWindow, "empty output means no window")
}

func TestX11_MaximizeFallsBackToXdotool(t *testing.T) {
	f := newFakeRunner()
	f.fail["wmctrl"] = errors.New("wmctrl: executable file not found")
	x := newX11(Options{Target: "42"}, f.run)

	require.NoError(t, x.Maximize(ctx))
	assert.Equal(t, []string{
		"wmctrl -i -r 42 -b add,maximized_vert,maximized_horz",
		"xdotool windowmove 42 0 0",
		"xdotool windowsize 42 100% 100%",
	}, f.called())
}

func TestX11_AllMethodsFail(t *testing.T) {
	f := newFakeRunner()
	f.fail["wmctrl"] = errors.New("no wmctrl")
	f.fail["xdotool windowminimize"] = errors.New("BadWindow")
	x := newX11(Options{Target: "42"}, f.run)

	err := x.Minimize(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "all minimize methods failed")
	assert.Contains(t, err.Error(), "BadWindow")
	assert.Contains(t, err.Error(), "no wmctrl")
}

func TestX11_SetPositionReadsBack(t *testing.T) {
	f := newFakeRunner()
	// The window manager clamps the requested size.
	f.replies["xdotool getwindowgeometry"] = "X=0\nY=0\nWIDTH=1920\nHEIGHT=1080\n"
	x := newX11(Options{Target: "42"}, f.run)

	got, err := x.SetPosition(ctx, bridge.PositionData{X: -10, Y: 5, Width: 5000, Height: 5000})
	require.NoError(t, err)
	assert.Equal(t, bridge.PositionData{Width: 1920, Height: 1080}, got)
	assert.Equal(t, []string{
		"xdotool windowsize --sync 42 5000 5000",
		"xdotool windowmove --sync 42 -10 5",
		"xdotool getwindowgeometry --shell 42",
	}, f.called())
}

func TestX11_StatusBarColorPicksVariant(t *testing.T) {
	tests := []struct {
		hex     string
		variant string
	}{
		{"#000000", "dark"},
		{"#1e1e2e", "dark"},
		{"#fff", "light"},
		{"#F5F5F5FF", "light"},
	}
	for _, tt := range tests {
		t.Run(tt.hex, func(t *testing.T) {
			f := newFakeRunner()
			x := newX11(Options{Target: "42"}, f.run)
			got, err := x.SetStatusBarColor(ctx, tt.hex)
			require.NoError(t, err)
			assert.Equal(t, tt.hex, got)
			assert.Equal(t, []string{
				"xprop -id 42 -f _GTK_THEME_VARIANT 8u -set _GTK_THEME_VARIANT " + tt.variant,
			}, f.called())
		})
	}

	f := newFakeRunner()
	x := newX11(Options{Target: "42"}, f.run)
	_, err := x.SetStatusBarColor(ctx, "blue")
	assert.Error(t, err)
	assert.Empty(t, f.called())
}

func TestParseShellGeometry(t *testing.T) {
	_, err := parseShellGeometry([]byte("WINDOW=1\nX=1\n"))
	assert.Error(t, err)

	p, err := parseShellGeometry([]byte("  X=-3\n Y=4\nWIDTH=5\nHEIGHT=6\nGARBAGE\n"))
	require.NoError(t, err)
	assert.Equal(t, bridge.PositionData{X: -3, Y: 4, Width: 5, Height: 6}, p)
}

// === macOS ===

func TestMacOS_Scripts(t *testing.T) {
	f := newFakeRunner()
	m := newMacOS(Options{Target: "Safari"}, f.run)

	require.NoError(t, m.Minimize(ctx))
	calls := f.called()
	require.Len(t, calls, 1)
	assert.Contains(t, calls[0], `tell application process "Safari"`)
	assert.Contains(t, calls[0], `set value of attribute "AXMinimized" of window 1 to true`)

	f2 := newFakeRunner()
	m2 := newMacOS(Options{}, f2.run)
	require.NoError(t, m2.Maximize(ctx))
	assert.Contains(t, f2.called()[0], "first application process whose frontmost is true")
	assert.Contains(t, f2.called()[0], "AXZoomButton")
}

func TestMacOS_Position(t *testing.T) {
	f := newFakeRunner()
	f.replies["osascript"] = "0, 25, 1440, 875\n"
	m := newMacOS(Options{}, f.run)

	pos, err := m.Position(ctx)
	require.NoError(t, err)
	assert.Equal(t, bridge.PositionData{X: 0, Y: 25, Width: 1440, Height: 875}, pos)

	got, err := m.SetPosition(ctx, bridge.PositionData{X: 1, Y: 2, Width: 3, Height: 4})
	require.NoError(t, err)
	assert.Equal(t, pos, got, "returns the geometry the OS applied")
	assert.Contains(t, f.called()[1], "set position of window 1 to {1, 2}")
	assert.Contains(t, f.called()[1], "set size of window 1 to {3, 4}")
}

func TestMacOS_StatusBarColor(t *testing.T) {
	m := newMacOS(Options{}, newFakeRunner().run)
	got, err := m.SetStatusBarColor(ctx, "#abc")
	require.NoError(t, err)
	assert.Equal(t, "#abc", got)

	_, err = m.SetStatusBarColor(ctx, "#ab")
	assert.Error(t, err)
}

func TestParseAppleBounds(t *testing.T) {
	for _, in := range []string{"", "1, 2, 3", "a, b, c, d"} {
		_, err := parseAppleBounds([]byte(in))
		assert.Error(t, err, in)
	}
}

// === helpers ===

func TestTryMethods_StopsOnCancel(t *testing.T) {
	cctx, cancel := context.WithCancel(ctx)
	second := false
	err := tryMethods(cctx, "op", []method{
		{"first", func(context.Context) error { cancel(); return errors.New("interrupted") }},
		{"second", func(context.Context) error { second = true; return nil }},
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, second)
}

func TestParseHex(t *testing.T) {
	tests := []struct {
		in      string
		r, g, b uint8
		wantErr bool
	}{
		{"#000", 0, 0, 0, false},
		{"#fa0", 0xff, 0xaa, 0x00, false},
		{"#102030", 0x10, 0x20, 0x30, false},
		{"#10203080", 0x10, 0x20, 0x30, false},
		{"#12345", 0, 0, 0, true},
		{"#gggggg", 0, 0, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			r, g, b, err := parseHex(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, [3]uint8{tt.r, tt.g, tt.b}, [3]uint8{r, g, b})
		})
	}
}

func TestColorRef(t *testing.T) {
	assert.Equal(t, uint32(0x00302010), colorRef(0x10, 0x20, 0x30))
	assert.Equal(t, uint32(0x000000ff), colorRef(0xff, 0, 0))
	assert.Equal(t, uint32(0x00ff0000), colorRef(0, 0, 0xff))
}
