package bridge

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/raptorfx/bridge/internal/platform"
)

type fakePlatform struct {
	resolved atomic.Bool
	info     platform.Info
}

func resolvedPlatform() *fakePlatform {
	p := &fakePlatform{info: platform.Info{
		Arch:            "x86_64",
		OS:              "linux_6",
		Locale:          "en_US",
		LocalStorage:    "/home/u/.local/share/raptorfx",
		ExternalStorage: "/",
		Family:          "linux",
	}}
	p.resolved.Store(true)
	return p
}

func (p *fakePlatform) Resolved() (platform.Info, bool) {
	if !p.resolved.Load() {
		return platform.Info{}, false
	}
	return p.info, true
}

// overlapMeter records the highest number of calls in flight at once.
type overlapMeter struct {
	inflight atomic.Int32
	peak     atomic.Int32
}

func (m *overlapMeter) enter() (leave func()) {
	cur := m.inflight.Add(1)
	for {
		peak := m.peak.Load()
		if cur <= peak || m.peak.CompareAndSwap(peak, cur) {
			break
		}
	}
	return func() { m.inflight.Add(-1) }
}

type fakeClipboard struct {
	mu       sync.Mutex
	content  ClipboardContent
	readErr  error
	writeErr error
	delay    time.Duration
	stall    time.Duration // slept in Write regardless of ctx
	writes   int
	meter    overlapMeter
}

func (c *fakeClipboard) Name() string { return "fake" }

func (c *fakeClipboard) Read(ctx context.Context) (ClipboardContent, error) {
	if c.delay > 0 {
		select {
		case <-time.After(c.delay):
		case <-ctx.Done():
			return ClipboardContent{}, ctx.Err()
		}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.readErr != nil {
		return ClipboardContent{}, c.readErr
	}
	return c.content, nil
}

func (c *fakeClipboard) Write(_ context.Context, content ClipboardContent) error {
	defer c.meter.enter()()
	time.Sleep(c.stall)
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.writeErr != nil {
		return c.writeErr
	}
	c.writes++
	c.content = content
	return nil
}

func (c *fakeClipboard) Clear(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.content = ClipboardContent{}
	return nil
}

var errPermissionDenied = errors.New("permission denied")

type fakeNotifier struct {
	mu       sync.Mutex
	got      []Delivery
	reject   string // titles equal to this are refused
	delay    time.Duration
	gate     chan struct{}
	inflight atomic.Int32
	peak     atomic.Int32
}

func (n *fakeNotifier) Name() string { return "fake" }

func (n *fakeNotifier) Deliver(ctx context.Context, d Delivery) error {
	cur := n.inflight.Add(1)
	defer n.inflight.Add(-1)
	for {
		peak := n.peak.Load()
		if cur <= peak || n.peak.CompareAndSwap(peak, cur) {
			break
		}
	}
	if n.gate != nil {
		select {
		case <-n.gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if n.delay > 0 {
		time.Sleep(n.delay)
	}
	if n.reject != "" && d.Data.Title == n.reject {
		return errPermissionDenied
	}
	n.mu.Lock()
	n.got = append(n.got, d)
	n.mu.Unlock()
	return nil
}

func (n *fakeNotifier) deliveries() []Delivery {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Delivery(nil), n.got...)
}

type fakeToaster struct {
	fakeNotifier
	mu     sync.Mutex
	toasts []string
}

func (t *fakeToaster) Toast(_ context.Context, text string, length ToastLength) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.toasts = append(t.toasts, text+"/"+string(length))
	return nil
}

type fakeWindow struct {
	mu        sync.Mutex
	pos       PositionData
	clamp     func(PositionData) PositionData
	setErr    error
	colorErr  error
	getCalls  int
	maximized int
	minimized int
	exits     chan int
	hang      bool
	stall     time.Duration // slept in setters regardless of ctx
	meter     overlapMeter
}

func newFakeWindow() *fakeWindow {
	return &fakeWindow{
		pos:   PositionData{X: 10, Y: 20, Width: 800, Height: 600},
		exits: make(chan int, 1),
	}
}

func (w *fakeWindow) Name() string { return "fake" }

func (w *fakeWindow) Maximize(ctx context.Context) error {
	if w.hang {
		<-ctx.Done()
		return ctx.Err()
	}
	w.mu.Lock()
	w.maximized++
	w.mu.Unlock()
	return nil
}

func (w *fakeWindow) Minimize(context.Context) error {
	w.mu.Lock()
	w.minimized++
	w.mu.Unlock()
	return nil
}

func (w *fakeWindow) Exit(code int) { w.exits <- code }

func (w *fakeWindow) Position(context.Context) (PositionData, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.getCalls++
	return w.pos, nil
}

func (w *fakeWindow) SetPosition(_ context.Context, p PositionData) (PositionData, error) {
	defer w.meter.enter()()
	time.Sleep(w.stall)
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.setErr != nil {
		return PositionData{}, w.setErr
	}
	if w.clamp != nil {
		p = w.clamp(p)
	}
	w.pos = p
	return p, nil
}

func (w *fakeWindow) SetStatusBarColor(_ context.Context, hex string) (string, error) {
	defer w.meter.enter()()
	time.Sleep(w.stall)
	if w.colorErr != nil {
		return "", w.colorErr
	}
	return hex, nil
}

type fakeSystem struct{}

func (fakeSystem) Name() string   { return "fake" }
func (fakeSystem) Arch() string   { return "x86_64" }
func (fakeSystem) OS() string     { return "linux_6" }
func (fakeSystem) Locale() string { return "en_US" }

type testRig struct {
	platform  *fakePlatform
	clipboard *fakeClipboard
	notifier  NotificationBackend
	window    *fakeWindow
	bridge    *Bridge
}

func (r *testRig) fake() *fakeNotifier {
	switch n := r.notifier.(type) {
	case *fakeNotifier:
		return n
	case *fakeToaster:
		return &n.fakeNotifier
	}
	return nil
}

// newRig wires fakes for every capability. Pass a nil notifier to get a
// plain fakeNotifier.
func newRig(t *testing.T, notifier NotificationBackend, opts ...Option) *testRig {
	t.Helper()
	if notifier == nil {
		notifier = &fakeNotifier{}
	}
	r := &testRig{
		platform:  resolvedPlatform(),
		clipboard: &fakeClipboard{},
		notifier:  notifier,
		window:    newFakeWindow(),
	}
	reg := NewRegistry()
	for c, b := range map[Capability]any{
		CapClipboard:     r.clipboard,
		CapNotifications: r.notifier,
		CapWindow:        r.window,
		CapSystem:        fakeSystem{},
	} {
		if err := reg.Register(c, b); err != nil {
			t.Fatalf("register %s: %v", c, err)
		}
	}
	reg.Seal()

	r.bridge = New(r.platform, reg, opts...)
	if err := r.bridge.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = r.bridge.Close(ctx)
	})
	return r
}
