// Package clipboard provides the clipboard backends: the system clipboard
// through golang.design/x/clipboard and an in-memory clipboard for headless
// hosts.
package clipboard

import (
	"context"
	"log/slog"
	"sync"

	"github.com/raptorfx/bridge/internal/bridge"
)

// Memory is a process-local clipboard. It is the fallback when no display
// server is reachable.
type Memory struct {
	mu      sync.Mutex
	content bridge.ClipboardContent
}

var _ bridge.ClipboardBackend = (*Memory)(nil)

// NewMemory returns an empty in-memory clipboard.
func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Name() string { return "memory" }

func (m *Memory) Read(context.Context) (bridge.ClipboardContent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return clone(m.content), nil
}

func (m *Memory) Write(_ context.Context, c bridge.ClipboardContent) error {
	m.mu.Lock()
	m.content = clone(c)
	m.mu.Unlock()
	return nil
}

func (m *Memory) Clear(context.Context) error {
	m.mu.Lock()
	m.content = bridge.TextContent("")
	m.mu.Unlock()
	return nil
}

func clone(c bridge.ClipboardContent) bridge.ClipboardContent {
	if c.Kind == bridge.KindImage {
		return bridge.ImageContent(c.Image.PNG)
	}
	return bridge.TextContent(c.Text)
}

// New returns the system clipboard, or the in-memory clipboard when the
// system one cannot be initialised (no X11/Wayland, CGO disabled, ...).
func New(logger *slog.Logger) bridge.ClipboardBackend {
	if logger == nil {
		logger = slog.Default()
	}
	sys, err := newSystem()
	if err != nil {
		logger.Warn("clipboard unavailable, running headless", "err", err)
		return NewMemory()
	}
	logger.Debug("clipboard ready", "backend", sys.Name())
	return sys
}
