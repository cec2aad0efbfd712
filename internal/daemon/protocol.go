// Package daemon serves the bridge to other processes: JSON envelopes over a
// per-user Unix socket, and optionally over a loopback WebSocket for script
// hosts. It also provides the client used by the CLI.
package daemon

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/raptorfx/bridge/internal/bridge"
)

// Common errors
var (
	ErrDaemonNotRunning = errors.New("daemon not running")
	// ErrBadRequest is reported for malformed envelopes and parameters.
	ErrBadRequest = errors.New("bad request")
)

// Protocol version for compatibility checking. Requests with another major
// version are refused.
const ProtocolVersion = "1.0"

// CodeBadRequest is the wire code of ErrBadRequest.
const CodeBadRequest = "bad_request"

// MessageType identifies the type of IPC message
type MessageType string

const (
	MessageTypePing MessageType = "ping"
	MessageTypeStop MessageType = "stop"

	MessageTypeClipboardCopy MessageType = "clipboard.copy"
	MessageTypeClipboardCut  MessageType = "clipboard.cut"
	MessageTypeClipboardPush MessageType = "clipboard.push"

	MessageTypeNotify MessageType = "notifications.push"
	MessageTypeToast  MessageType = "notifications.toast"

	MessageTypeMaximize       MessageType = "window.maximize"
	MessageTypeMinimize       MessageType = "window.minimize"
	MessageTypeExit           MessageType = "window.exit"
	MessageTypePosition       MessageType = "window.position"
	MessageTypeStatusBarColor MessageType = "window.statusBarColor"

	MessageTypeArch      MessageType = "system.arch"
	MessageTypeOS        MessageType = "system.os"
	MessageTypeLocale    MessageType = "system.locale"
	MessageTypeInfo      MessageType = "system.info"
	MessageTypeVariables MessageType = "variables"
)

// Request is the wrapper for all IPC requests
type Request struct {
	ID      string          `json:"id,omitempty"`
	Type    MessageType     `json:"type"`
	Version string          `json:"version"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// Response is the wrapper for all IPC responses
type Response struct {
	ID     string          `json:"id,omitempty"`
	Type   MessageType     `json:"type"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  *ErrorInfo      `json:"error,omitempty"`
}

// ErrorInfo carries a failure across the wire.
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ClipboardPushParams is the payload of clipboard.push.
type ClipboardPushParams struct {
	Content bridge.ClipboardContent `json:"content"`
}

// NotifyParams is the payload of notifications.push.
type NotifyParams struct {
	Data bridge.NotificationData `json:"data"`
	Mode bridge.NotificationMode `json:"mode"`
	// Wait makes the call return only after the OS accepted the
	// notification. Otherwise it returns once the push is queued.
	Wait bool `json:"wait,omitempty"`
}

// NotifyResult identifies a queued notification.
type NotifyResult struct {
	ID       string `json:"id"`
	Seq      uint64 `json:"seq"`
	Accepted bool   `json:"accepted"`
}

// ToastParams is the payload of notifications.toast.
type ToastParams struct {
	Text   string             `json:"text"`
	Length bridge.ToastLength `json:"length"`
}

// ExitParams is the payload of window.exit.
type ExitParams struct {
	Code int `json:"code"`
}

// PositionParams is the payload of window.position. A nil Position reads
// the geometry.
type PositionParams struct {
	Position *bridge.PositionData `json:"position,omitempty"`
}

// StatusBarParams is the payload of window.statusBarColor.
type StatusBarParams struct {
	Mode bridge.WindowBarMode `json:"mode,omitempty"`
	Hex  string               `json:"hex,omitempty"`
}

// ColorResult is the result of window.statusBarColor.
type ColorResult struct {
	Hex string `json:"hex"`
}

// ValueResult wraps a single string result.
type ValueResult struct {
	Value string `json:"value"`
}

// PingResult contains daemon status information
type PingResult struct {
	Version  string                       `json:"version"`
	Uptime   int64                        `json:"uptime"` // Seconds since daemon started
	PID      int                          `json:"pid"`
	Backends map[bridge.Capability]string `json:"backends"`
}

// RemoteError is a failure reported by the daemon. It unwraps to the
// matching bridge error kind, so errors.Is works across the wire.
type RemoteError struct {
	Code    string
	Message string
}

func (e *RemoteError) Error() string {
	if e.Message == "" {
		return "daemon error: " + e.Code
	}
	return "daemon error: " + e.Message
}

func (e *RemoteError) Unwrap() error {
	if e.Code == CodeBadRequest {
		return ErrBadRequest
	}
	if e.Code == "internal" {
		return nil
	}
	return bridge.FromCode(e.Code)
}

// errorInfo converts err for the wire.
func errorInfo(err error) *ErrorInfo {
	code := bridge.Code(err)
	if errors.Is(err, ErrBadRequest) {
		code = CodeBadRequest
	}
	return &ErrorInfo{Code: code, Message: err.Error()}
}

// compatible reports whether a client speaking version can be served.
func compatible(version string) bool {
	if version == "" {
		return true
	}
	major, _, _ := strings.Cut(version, ".")
	want, _, _ := strings.Cut(ProtocolVersion, ".")
	return major == want
}

// GetSocketPath returns the Unix socket path for the daemon. A non-empty
// override wins; otherwise XDG_RUNTIME_DIR is preferred, falling back to
// the temp directory with a UID suffix.
func GetSocketPath(override string) string {
	if override != "" {
		return override
	}
	if runtimeDir := os.Getenv("XDG_RUNTIME_DIR"); runtimeDir != "" {
		return filepath.Join(runtimeDir, "raptorfx.sock")
	}
	return filepath.Join(os.TempDir(), fmt.Sprintf("raptorfx-%d.sock", os.Getuid()))
}

// GetPidFilePath returns the PID file that sits next to socketPath.
func GetPidFilePath(socketPath string) string {
	return strings.TrimSuffix(socketPath, filepath.Ext(socketPath)) + ".pid"
}
