package bridge

import (
	"errors"
	"fmt"

	"github.com/raptorfx/bridge/internal/platform"
)

// Error taxonomy. Every failure returned by the bridge unwraps to exactly one
// of these kinds.
var (
	// ErrPlatformUnknown means the platform descriptor was never resolved or
	// could not determine the architecture or OS. Fatal for bridge start-up.
	ErrPlatformUnknown = platform.ErrUnknown
	// ErrUnsupportedCapability means no backend is registered for the
	// capability on this platform. Fatal to the call only.
	ErrUnsupportedCapability = errors.New("unsupported capability")
	// ErrBackendTimeout means the backend did not answer within the call
	// timeout. Callers may retry.
	ErrBackendTimeout = errors.New("backend timeout")
	// ErrNotificationRejected means the notification backend (or the
	// channel itself) refused a push.
	ErrNotificationRejected = errors.New("notification rejected")
	// ErrInvalidArgument is raised by the dispatcher before any backend call.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrBackendFailed wraps backend-origin failures of the synchronous
	// capabilities (clipboard, window, system).
	ErrBackendFailed = errors.New("backend failed")
	// ErrBridgeClosed is returned once Close has been called.
	ErrBridgeClosed = errors.New("bridge closed")
)

// Registry errors.
var (
	ErrBackendAlreadyRegistered = errors.New("backend already registered")
	ErrRegistrySealed           = errors.New("registry sealed")
)

var taxonomy = []error{
	ErrPlatformUnknown,
	ErrUnsupportedCapability,
	ErrBackendTimeout,
	ErrNotificationRejected,
	ErrInvalidArgument,
	ErrBackendFailed,
	ErrBridgeClosed,
}

// Error describes a failed capability operation.
type Error struct {
	Capability Capability
	Op         string
	Kind       error // one of the taxonomy sentinels
	Err        error // underlying cause, may be nil
}

func (e *Error) Error() string {
	prefix := string(e.Capability) + "." + e.Op
	if e.Err == nil || e.Err == e.Kind {
		return fmt.Sprintf("%s: %v", prefix, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", prefix, e.Kind, e.Err)
}

// Unwrap exposes both the kind and the cause to errors.Is / errors.As.
func (e *Error) Unwrap() []error {
	if e.Err == nil || e.Err == e.Kind {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// wrap converts err into an *Error. Errors that already belong to the
// taxonomy keep their kind; anything else gets fallback.
func wrap(c Capability, op string, fallback, err error) error {
	if err == nil {
		return nil
	}
	var be *Error
	if errors.As(err, &be) {
		return err
	}
	return &Error{Capability: c, Op: op, Kind: kindOf(err, fallback), Err: err}
}

func invalid(c Capability, op, format string, args ...any) error {
	return &Error{
		Capability: c,
		Op:         op,
		Kind:       ErrInvalidArgument,
		Err:        fmt.Errorf(format, args...),
	}
}

func kindOf(err, fallback error) error {
	for _, k := range taxonomy {
		if errors.Is(err, k) {
			return k
		}
	}
	return fallback
}

// Code maps err to the stable string used on the IPC wire.
func Code(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrPlatformUnknown):
		return "platform_unknown"
	case errors.Is(err, ErrUnsupportedCapability):
		return "unsupported_capability"
	case errors.Is(err, ErrBackendTimeout):
		return "backend_timeout"
	case errors.Is(err, ErrNotificationRejected):
		return "notification_rejected"
	case errors.Is(err, ErrInvalidArgument):
		return "invalid_argument"
	case errors.Is(err, ErrBackendFailed):
		return "backend_failed"
	case errors.Is(err, ErrBridgeClosed):
		return "bridge_closed"
	default:
		return "internal"
	}
}

// FromCode is the inverse of Code. Unknown codes map to ErrBackendFailed.
func FromCode(code string) error {
	switch code {
	case "platform_unknown":
		return ErrPlatformUnknown
	case "unsupported_capability":
		return ErrUnsupportedCapability
	case "backend_timeout":
		return ErrBackendTimeout
	case "notification_rejected":
		return ErrNotificationRejected
	case "invalid_argument":
		return ErrInvalidArgument
	case "bridge_closed":
		return ErrBridgeClosed
	default:
		return ErrBackendFailed
	}
}
