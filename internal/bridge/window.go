package bridge

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// WindowController owns the authoritative geometry and status-bar colour of
// the context window. Each field has a single writer at a time; readers see
// the last backend-acknowledged value.
type WindowController struct {
	backend WindowBackend
	timeout time.Duration
	logger  *slog.Logger

	posWrite   sync.Mutex // serialises position writes and the initial sync
	colorWrite sync.Mutex

	mu       sync.RWMutex
	pos      PositionData
	posKnown bool
	color    string
}

// NewWindowController creates a controller over backend. initialColor is
// reported by GET until the first SET.
func NewWindowController(backend WindowBackend, initialColor string, timeout time.Duration, logger *slog.Logger) *WindowController {
	if logger == nil {
		logger = slog.Default()
	}
	return &WindowController{
		backend: backend,
		timeout: timeout,
		logger:  logger.With("component", "window", "backend", backend.Name()),
		color:   initialColor,
	}
}

// Maximize forwards to the backend.
func (w *WindowController) Maximize(ctx context.Context) error {
	return callErr(ctx, w.timeout, w.backend.Maximize)
}

// Minimize forwards to the backend.
func (w *WindowController) Minimize(ctx context.Context) error {
	return callErr(ctx, w.timeout, w.backend.Minimize)
}

// Exit hands the request to the backend without waiting for it.
func (w *WindowController) Exit(code int) {
	w.logger.Info("exit requested", "code", code)
	go w.backend.Exit(code)
}

// Position returns a snapshot of the cached geometry, syncing from the
// backend the first time.
func (w *WindowController) Position(ctx context.Context) (PositionData, error) {
	w.mu.RLock()
	pos, known := w.pos, w.posKnown
	w.mu.RUnlock()
	if known {
		return pos, nil
	}

	lock := acquire(&w.posWrite)
	defer lock.release()

	// A writer may have filled the cache while we waited.
	w.mu.RLock()
	pos, known = w.pos, w.posKnown
	w.mu.RUnlock()
	if known {
		return pos, nil
	}

	pos, err := callHeld(ctx, lock, w.timeout, w.backend.Position)
	if err != nil {
		return PositionData{}, err
	}
	w.store(pos)
	return pos, nil
}

// SetPosition writes p through to the backend and caches the acknowledged
// geometry. On failure the cache keeps its previous value.
func (w *WindowController) SetPosition(ctx context.Context, p PositionData) (PositionData, error) {
	lock := acquire(&w.posWrite)
	defer lock.release()

	ack, err := callHeld(ctx, lock, w.timeout, func(ctx context.Context) (PositionData, error) {
		return w.backend.SetPosition(ctx, p)
	})
	if err != nil {
		return PositionData{}, err
	}
	if ack != p {
		w.logger.Debug("position clamped by backend", "requested", p, "applied", ack)
	}
	w.store(ack)
	return ack, nil
}

func (w *WindowController) store(p PositionData) {
	w.mu.Lock()
	w.pos = p
	w.posKnown = true
	w.mu.Unlock()
}

// StatusBarColor returns the current colour.
func (w *WindowController) StatusBarColor() string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.color
}

// SetStatusBarColor applies hex and returns the value now in effect.
func (w *WindowController) SetStatusBarColor(ctx context.Context, hex string) (string, error) {
	lock := acquire(&w.colorWrite)
	defer lock.release()

	applied, err := callHeld(ctx, lock, w.timeout, func(ctx context.Context) (string, error) {
		return w.backend.SetStatusBarColor(ctx, hex)
	})
	if err != nil {
		return "", err
	}
	if applied == "" {
		applied = hex
	}

	w.mu.Lock()
	w.color = applied
	w.mu.Unlock()
	return applied, nil
}
