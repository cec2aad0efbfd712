package bridge

import "context"

// ClipboardBackend is implemented by every platform clipboard.
type ClipboardBackend interface {
	Name() string
	// Read returns the current contents. An empty clipboard is empty text,
	// not an error.
	Read(ctx context.Context) (ClipboardContent, error)
	Write(ctx context.Context, c ClipboardContent) error
	Clear(ctx context.Context) error
}

// NotificationBackend delivers notifications to the host OS.
type NotificationBackend interface {
	Name() string
	// Deliver returns once the OS has accepted the notification for
	// rendering. GROUP deliveries sharing a GroupKey must be coalesced by the
	// backend into one collapsible entry.
	Deliver(ctx context.Context, d Delivery) error
}

// ToastBackend is implemented by notification backends that can show toasts.
// Backends without it make CreateToast a no-op.
type ToastBackend interface {
	Toast(ctx context.Context, text string, length ToastLength) error
}

// WindowBackend drives the native context window.
type WindowBackend interface {
	Name() string
	Maximize(ctx context.Context) error
	Minimize(ctx context.Context) error
	// Exit terminates the process context. It normally does not return.
	Exit(code int)
	Position(ctx context.Context) (PositionData, error)
	// SetPosition applies p and returns the geometry the OS actually
	// accepted, which may be clamped.
	SetPosition(ctx context.Context, p PositionData) (PositionData, error)
	// SetStatusBarColor applies hex and returns the value now in effect.
	SetStatusBarColor(ctx context.Context, hex string) (string, error)
}

// SystemBackend reports static system facts.
type SystemBackend interface {
	Name() string
	Arch() string
	OS() string
	Locale() string
}
