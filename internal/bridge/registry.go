package bridge

import (
	"fmt"
	"sort"
	"sync"
)

// Registry maps each capability to exactly one backend. It is filled once
// at start-up and then sealed; backends are never swapped mid-process.
type Registry struct {
	mu       sync.RWMutex
	backends map[Capability]any
	sealed   bool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		backends: make(map[Capability]any),
	}
}

// Register binds backend to capability. The backend must implement the
// interface belonging to that capability.
func (r *Registry) Register(c Capability, backend any) error {
	if err := checkBackend(c, backend); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sealed {
		return fmt.Errorf("%w: cannot register %s", ErrRegistrySealed, c)
	}
	if _, exists := r.backends[c]; exists {
		return fmt.Errorf("%w: %s", ErrBackendAlreadyRegistered, c)
	}
	r.backends[c] = backend
	return nil
}

// Seal forbids further registrations.
func (r *Registry) Seal() {
	r.mu.Lock()
	r.sealed = true
	r.mu.Unlock()
}

// Resolve returns the backend for c.
func (r *Registry) Resolve(c Capability) (any, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.backends[c]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedCapability, c)
	}
	return b, nil
}

// Capabilities lists the registered capabilities in sorted order.
func (r *Registry) Capabilities() []Capability {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Capability, 0, len(r.backends))
	for c := range r.backends {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Describe returns the backend name per capability.
func (r *Registry) Describe() map[Capability]string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[Capability]string, len(r.backends))
	for c, b := range r.backends {
		if n, ok := b.(interface{ Name() string }); ok {
			out[c] = n.Name()
		} else {
			out[c] = fmt.Sprintf("%T", b)
		}
	}
	return out
}

func checkBackend(c Capability, backend any) error {
	if backend == nil {
		return fmt.Errorf("%w: nil backend for %s", ErrInvalidArgument, c)
	}
	var ok bool
	switch c {
	case CapClipboard:
		_, ok = backend.(ClipboardBackend)
	case CapNotifications:
		_, ok = backend.(NotificationBackend)
	case CapWindow:
		_, ok = backend.(WindowBackend)
	case CapSystem:
		_, ok = backend.(SystemBackend)
	default:
		return fmt.Errorf("%w: unknown capability %q", ErrInvalidArgument, c)
	}
	if !ok {
		return fmt.Errorf("%w: %T does not implement the %s backend", ErrInvalidArgument, backend, c)
	}
	return nil
}

func resolveAs[T any](r *Registry, c Capability) (T, error) {
	var zero T
	b, err := r.Resolve(c)
	if err != nil {
		return zero, err
	}
	typed, ok := b.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %s backend has type %T", ErrUnsupportedCapability, c, b)
	}
	return typed, nil
}
