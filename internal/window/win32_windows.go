//go:build windows

package window

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/raptorfx/bridge/internal/bridge"
)

var (
	modUser32 = windows.NewLazySystemDLL("user32.dll")
	modDwmapi = windows.NewLazySystemDLL("dwmapi.dll")

	procGetForegroundWindow   = modUser32.NewProc("GetForegroundWindow")
	procFindWindowW           = modUser32.NewProc("FindWindowW")
	procShowWindow            = modUser32.NewProc("ShowWindow")
	procGetWindowRect         = modUser32.NewProc("GetWindowRect")
	procSetWindowPos          = modUser32.NewProc("SetWindowPos")
	procDwmSetWindowAttribute = modDwmapi.NewProc("DwmSetWindowAttribute")
)

const (
	swMaximize = 3
	swMinimize = 6

	swpNoZOrder   = 0x0004
	swpNoActivate = 0x0010

	// DWMWA_CAPTION_COLOR, Windows 11 build 22000 and later.
	dwmwaCaptionColor = 35
)

// Win32 drives a window through user32 and dwmapi.
type Win32 struct {
	target string
	exit   func(int)

	mu   sync.Mutex
	hwnd uintptr
}

var _ bridge.WindowBackend = (*Win32)(nil)

func platformBackend(opts Options) (bridge.WindowBackend, error) {
	if err := procShowWindow.Find(); err != nil {
		return nil, fmt.Errorf("user32 unavailable: %w", err)
	}
	return &Win32{target: opts.Target, exit: opts.exit()}, nil
}

func (w *Win32) Name() string { return "win32" }

func (w *Win32) handle() (uintptr, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.hwnd != 0 {
		return w.hwnd, nil
	}

	var hwnd uintptr
	switch {
	case w.target == "":
		hwnd, _, _ = procGetForegroundWindow.Call()
	case isNumeric(w.target):
		n, _ := strconv.ParseUint(w.target, 0, 64)
		hwnd = uintptr(n)
	default:
		title, err := windows.UTF16PtrFromString(w.target)
		if err != nil {
			return 0, err
		}
		hwnd, _, _ = procFindWindowW.Call(0, uintptr(unsafe.Pointer(title)))
	}
	if hwnd == 0 {
		return 0, ErrNoWindow
	}
	w.hwnd = hwnd
	return hwnd, nil
}

func (w *Win32) show(cmd uintptr) error {
	hwnd, err := w.handle()
	if err != nil {
		return err
	}
	// ShowWindow returns the previous visibility, not success.
	procShowWindow.Call(hwnd, cmd)
	return nil
}

func (w *Win32) Maximize(context.Context) error { return w.show(swMaximize) }
func (w *Win32) Minimize(context.Context) error { return w.show(swMinimize) }
func (w *Win32) Exit(code int)                  { w.exit(code) }

func (w *Win32) Position(context.Context) (bridge.PositionData, error) {
	hwnd, err := w.handle()
	if err != nil {
		return bridge.PositionData{}, err
	}
	var r windows.Rect
	ok, _, callErr := procGetWindowRect.Call(hwnd, uintptr(unsafe.Pointer(&r)))
	if ok == 0 {
		return bridge.PositionData{}, fmt.Errorf("GetWindowRect: %w", callErr)
	}
	return bridge.PositionData{
		X:      int(r.Left),
		Y:      int(r.Top),
		Width:  int(r.Right - r.Left),
		Height: int(r.Bottom - r.Top),
	}, nil
}

func (w *Win32) SetPosition(ctx context.Context, p bridge.PositionData) (bridge.PositionData, error) {
	hwnd, err := w.handle()
	if err != nil {
		return bridge.PositionData{}, err
	}
	ok, _, callErr := procSetWindowPos.Call(hwnd, 0,
		uintptr(int32(p.X)), uintptr(int32(p.Y)),
		uintptr(int32(p.Width)), uintptr(int32(p.Height)),
		swpNoZOrder|swpNoActivate)
	if ok == 0 {
		return bridge.PositionData{}, fmt.Errorf("SetWindowPos: %w", callErr)
	}
	return w.Position(ctx)
}

// SetStatusBarColor paints the caption bar. Older Windows versions reject
// the attribute.
func (w *Win32) SetStatusBarColor(_ context.Context, hex string) (string, error) {
	r, g, b, err := parseHex(hex)
	if err != nil {
		return "", err
	}
	hwnd, err := w.handle()
	if err != nil {
		return "", err
	}
	if err := procDwmSetWindowAttribute.Find(); err != nil {
		return "", fmt.Errorf("dwmapi unavailable: %w", err)
	}
	ref := colorRef(r, g, b)
	hr, _, _ := procDwmSetWindowAttribute.Call(hwnd, dwmwaCaptionColor, uintptr(unsafe.Pointer(&ref)), unsafe.Sizeof(ref))
	if hr != 0 {
		return "", fmt.Errorf("DwmSetWindowAttribute: HRESULT 0x%08x", uint32(hr))
	}
	return hex, nil
}
