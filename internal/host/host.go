// Package host implements every capability by calling back into an embedding
// application. Mobile shells (Android, iOS) attach a Host through their
// language bindings; the bridge then routes clipboard, notification and
// window calls to it.
package host

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/raptorfx/bridge/internal/bridge"
)

// ErrNotAttached is returned when no host has been attached.
var ErrNotAttached = errors.New("host not attached")

// Host is the embedding application's side of the bridge. Method names are
// "<capability>.<op>"; payloads and results are JSON. A host reports a
// failure of a known kind as "<code>: message", e.g.
// "notification_rejected: channel disabled".
type Host interface {
	Call(method, payload string) (string, error)
}

// HostFunc adapts a function to Host.
type HostFunc func(method, payload string) (string, error)

func (f HostFunc) Call(method, payload string) (string, error) { return f(method, payload) }

var (
	mu       sync.RWMutex
	attached Host
)

// Attach installs h as the process host, replacing any previous one.
func Attach(h Host) {
	mu.Lock()
	attached = h
	mu.Unlock()
}

// Detach removes the process host.
func Detach() { Attach(nil) }

// Attached returns the process host.
func Attached() (Host, bool) {
	mu.RLock()
	defer mu.RUnlock()
	return attached, attached != nil
}

// Conn issues JSON calls to a Host.
type Conn struct {
	host Host
}

// NewConn wraps h.
func NewConn(h Host) *Conn {
	return &Conn{host: h}
}

// Call sends in as JSON and decodes the reply into out. Either may be nil.
func (c *Conn) Call(ctx context.Context, method string, in, out any) error {
	if c == nil || c.host == nil {
		return ErrNotAttached
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	payload := ""
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s: %w", method, err)
		}
		payload = string(b)
	}
	reply, err := c.host.Call(method, payload)
	if err != nil {
		return hostError(method, err)
	}
	if out == nil || strings.TrimSpace(reply) == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(reply), out); err != nil {
		return fmt.Errorf("decode %s reply: %w", method, err)
	}
	return nil
}

// hostError lifts a "<code>: message" error into the bridge taxonomy.
func hostError(method string, err error) error {
	code, msg, ok := strings.Cut(err.Error(), ":")
	if !ok {
		return fmt.Errorf("%s: %w", method, err)
	}
	code = strings.TrimSpace(code)
	kind := bridge.FromCode(code)
	if bridge.Code(kind) != code {
		return fmt.Errorf("%s: %w", method, err)
	}
	return fmt.Errorf("%s: %w: %s", method, kind, strings.TrimSpace(msg))
}

// Clipboard is the host clipboard.
type Clipboard struct{ conn *Conn }

var _ bridge.ClipboardBackend = (*Clipboard)(nil)

func (c *Clipboard) Name() string { return "host" }

func (c *Clipboard) Read(ctx context.Context) (bridge.ClipboardContent, error) {
	var out bridge.ClipboardContent
	if err := c.conn.Call(ctx, "clipboard.read", nil, &out); err != nil {
		return bridge.ClipboardContent{}, err
	}
	if out.Kind == "" {
		out = bridge.TextContent(out.Text)
	}
	return out, nil
}

func (c *Clipboard) Write(ctx context.Context, content bridge.ClipboardContent) error {
	return c.conn.Call(ctx, "clipboard.write", content, nil)
}

func (c *Clipboard) Clear(ctx context.Context) error {
	return c.conn.Call(ctx, "clipboard.clear", nil, nil)
}

// Notifier posts notifications and toasts through the host. The host
// coalesces GROUP deliveries by group_key (an Android notification group,
// an iOS thread identifier).
type Notifier struct{ conn *Conn }

var (
	_ bridge.NotificationBackend = (*Notifier)(nil)
	_ bridge.ToastBackend        = (*Notifier)(nil)
)

func (n *Notifier) Name() string { return "host" }

func (n *Notifier) Deliver(ctx context.Context, d bridge.Delivery) error {
	return n.conn.Call(ctx, "notifications.deliver", d, nil)
}

type toastRequest struct {
	Text   string             `json:"text"`
	Length bridge.ToastLength `json:"length"`
}

func (n *Notifier) Toast(ctx context.Context, text string, length bridge.ToastLength) error {
	return n.conn.Call(ctx, "notifications.toast", toastRequest{Text: text, Length: length}, nil)
}

// Window controls the host's window or activity.
type Window struct {
	conn *Conn
	exit func(int)
}

var _ bridge.WindowBackend = (*Window)(nil)

func (w *Window) Name() string { return "host" }

func (w *Window) Maximize(ctx context.Context) error {
	return w.conn.Call(ctx, "window.maximize", nil, nil)
}

func (w *Window) Minimize(ctx context.Context) error {
	return w.conn.Call(ctx, "window.minimize", nil, nil)
}

type exitRequest struct {
	Code int `json:"code"`
}

// Exit asks the host to finish. The process is ended directly if the host
// cannot be reached.
func (w *Window) Exit(code int) {
	if err := w.conn.Call(context.Background(), "window.exit", exitRequest{Code: code}, nil); err != nil {
		w.exit(code)
	}
}

func (w *Window) Position(ctx context.Context) (bridge.PositionData, error) {
	var p bridge.PositionData
	err := w.conn.Call(ctx, "window.position", nil, &p)
	return p, err
}

func (w *Window) SetPosition(ctx context.Context, p bridge.PositionData) (bridge.PositionData, error) {
	var got bridge.PositionData
	if err := w.conn.Call(ctx, "window.setPosition", p, &got); err != nil {
		return bridge.PositionData{}, err
	}
	return got, nil
}

type colorMessage struct {
	Hex string `json:"hex"`
}

func (w *Window) SetStatusBarColor(ctx context.Context, hex string) (string, error) {
	var out colorMessage
	if err := w.conn.Call(ctx, "window.statusBarColor", colorMessage{Hex: hex}, &out); err != nil {
		return "", err
	}
	if out.Hex == "" {
		return hex, nil
	}
	return out.Hex, nil
}

// Backends are the host-backed capability implementations.
type Backends struct {
	Clipboard     *Clipboard
	Notifications *Notifier
	Window        *Window
}

// New returns backends that call h. exit ends the process when the host
// cannot; nil means os.Exit.
func New(h Host, exit func(int)) *Backends {
	if exit == nil {
		exit = os.Exit
	}
	conn := NewConn(h)
	return &Backends{
		Clipboard:     &Clipboard{conn: conn},
		Notifications: &Notifier{conn: conn},
		Window:        &Window{conn: conn, exit: exit},
	}
}
