package bridge

import (
	"context"
	"errors"
	"sync"
	"time"
)

// DefaultCallTimeout bounds synchronous backend calls.
const DefaultCallTimeout = 2 * time.Second

// callWithTimeout runs fn on its own goroutine and gives up after d. A
// backend that ignores its context keeps running in the background; the
// caller gets ErrBackendTimeout either way.
func callWithTimeout[T any](ctx context.Context, d time.Duration, fn func(context.Context) (T, error)) (T, error) {
	v, _, err := callTracked(ctx, d, fn)
	return v, err
}

// callTracked is callWithTimeout that also returns a channel closed once fn
// has returned, which may be after the caller stopped waiting.
func callTracked[T any](ctx context.Context, d time.Duration, fn func(context.Context) (T, error)) (T, <-chan struct{}, error) {
	if d <= 0 {
		d = DefaultCallTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, d)

	type result struct {
		v   T
		err error
	}
	done := make(chan result, 1)
	finished := make(chan struct{})
	go func() {
		defer cancel()
		v, err := fn(ctx)
		close(finished)
		done <- result{v, err}
	}()

	select {
	case r := <-done:
		if r.err != nil && errors.Is(r.err, context.DeadlineExceeded) {
			return r.v, finished, errors.Join(ErrBackendTimeout, r.err)
		}
		return r.v, finished, r.err
	case <-ctx.Done():
		var zero T
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return zero, finished, ErrBackendTimeout
		}
		return zero, finished, ctx.Err()
	}
}

func callErr(ctx context.Context, d time.Duration, fn func(context.Context) error) error {
	_, err := callWithTimeout(ctx, d, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// heldLock is a mutex held across backend calls. Releasing it waits for the
// last call made under it to return, so a timed-out call still excludes the
// next holder.
type heldLock struct {
	mu      *sync.Mutex
	running <-chan struct{}
}

func acquire(mu *sync.Mutex) *heldLock {
	mu.Lock()
	return &heldLock{mu: mu}
}

func (h *heldLock) release() {
	if h.running == nil {
		h.mu.Unlock()
		return
	}
	select {
	case <-h.running:
		h.mu.Unlock()
	default:
		running := h.running
		go func() {
			<-running
			h.mu.Unlock()
		}()
	}
}

// callHeld is callWithTimeout for a call made while holding h.
func callHeld[T any](ctx context.Context, h *heldLock, d time.Duration, fn func(context.Context) (T, error)) (T, error) {
	v, finished, err := callTracked(ctx, d, fn)
	h.running = finished
	return v, err
}

func callErrHeld(ctx context.Context, h *heldLock, d time.Duration, fn func(context.Context) error) error {
	_, err := callHeld(ctx, h, d, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}
