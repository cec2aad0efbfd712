package daemon

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/raptorfx/bridge/internal/bridge"
	"github.com/raptorfx/bridge/internal/platform"
)

// Client communicates with the daemon via Unix socket
type Client struct {
	socketPath  string
	dialTimeout time.Duration
	callTimeout time.Duration
}

// NewClient creates a client for the daemon at socketPath. An empty path
// selects the default socket.
func NewClient(socketPath string) (*Client, error) {
	socketPath = GetSocketPath(socketPath)

	if _, err := os.Stat(socketPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: socket %s does not exist", ErrDaemonNotRunning, socketPath)
	}

	return &Client{
		socketPath:  socketPath,
		dialTimeout: 5 * time.Second,
		callTimeout: 30 * time.Second,
	}, nil
}

// SocketPath returns the socket the client talks to.
func (c *Client) SocketPath() string { return c.socketPath }

// Ping checks if the daemon is responding and returns status info
func (c *Client) Ping(ctx context.Context) (*PingResult, error) {
	var res PingResult
	if err := c.call(ctx, MessageTypePing, nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Stop requests the daemon to shut down
func (c *Client) Stop(ctx context.Context) error {
	return c.call(ctx, MessageTypeStop, nil, nil)
}

// Copy reads the clipboard.
func (c *Client) Copy(ctx context.Context) (bridge.ClipboardContent, error) {
	var res bridge.ClipboardContent
	err := c.call(ctx, MessageTypeClipboardCopy, nil, &res)
	return res, err
}

// Cut reads and clears the clipboard.
func (c *Client) Cut(ctx context.Context) (bridge.ClipboardContent, error) {
	var res bridge.ClipboardContent
	err := c.call(ctx, MessageTypeClipboardCut, nil, &res)
	return res, err
}

// Push writes content to the clipboard.
func (c *Client) Push(ctx context.Context, content bridge.ClipboardContent) error {
	return c.call(ctx, MessageTypeClipboardPush, ClipboardPushParams{Content: content}, nil)
}

// Notify queues a notification. With wait set it returns after the OS
// accepted it.
func (c *Client) Notify(ctx context.Context, data bridge.NotificationData, mode bridge.NotificationMode, wait bool) (*NotifyResult, error) {
	var res NotifyResult
	if err := c.call(ctx, MessageTypeNotify, NotifyParams{Data: data, Mode: mode, Wait: wait}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Toast shows a short message.
func (c *Client) Toast(ctx context.Context, text string, length bridge.ToastLength) error {
	return c.call(ctx, MessageTypeToast, ToastParams{Text: text, Length: length}, nil)
}

// Maximize maximizes the controlled window.
func (c *Client) Maximize(ctx context.Context) error {
	return c.call(ctx, MessageTypeMaximize, nil, nil)
}

// Minimize minimizes the controlled window.
func (c *Client) Minimize(ctx context.Context) error {
	return c.call(ctx, MessageTypeMinimize, nil, nil)
}

// Exit asks the daemon process to exit with code.
func (c *Client) Exit(ctx context.Context, code int) error {
	return c.call(ctx, MessageTypeExit, ExitParams{Code: code}, nil)
}

// Position reads the window geometry, or applies newPosition when non-nil
// and returns the geometry after the change.
func (c *Client) Position(ctx context.Context, newPosition *bridge.PositionData) (bridge.PositionData, error) {
	var res bridge.PositionData
	err := c.call(ctx, MessageTypePosition, PositionParams{Position: newPosition}, &res)
	return res, err
}

// StatusBarColor gets or sets the status bar colour.
func (c *Client) StatusBarColor(ctx context.Context, mode bridge.WindowBarMode, hex string) (string, error) {
	var res ColorResult
	err := c.call(ctx, MessageTypeStatusBarColor, StatusBarParams{Mode: mode, Hex: hex}, &res)
	return res.Hex, err
}

// Arch returns the daemon host architecture.
func (c *Client) Arch(ctx context.Context) (string, error) {
	return c.value(ctx, MessageTypeArch)
}

// OS returns the daemon host OS identifier.
func (c *Client) OS(ctx context.Context) (string, error) {
	return c.value(ctx, MessageTypeOS)
}

// Locale returns the daemon host locale.
func (c *Client) Locale(ctx context.Context) (string, error) {
	return c.value(ctx, MessageTypeLocale)
}

// Info returns the resolved platform of the daemon host.
func (c *Client) Info(ctx context.Context) (platform.Info, error) {
	var res platform.Info
	err := c.call(ctx, MessageTypeInfo, nil, &res)
	return res, err
}

// Variables returns the storage paths of the daemon host.
func (c *Client) Variables(ctx context.Context) (bridge.Variables, error) {
	var res bridge.Variables
	err := c.call(ctx, MessageTypeVariables, nil, &res)
	return res, err
}

func (c *Client) value(ctx context.Context, t MessageType) (string, error) {
	var res ValueResult
	err := c.call(ctx, t, nil, &res)
	return res.Value, err
}

// call sends one request and decodes the result into out.
func (c *Client) call(ctx context.Context, t MessageType, params, out any) error {
	req := Request{
		ID:      uuid.NewString(),
		Type:    t,
		Version: ProtocolVersion,
	}
	if params != nil {
		data, err := json.Marshal(params)
		if err != nil {
			return fmt.Errorf("failed to encode %s params: %w", t, err)
		}
		req.Params = data
	}

	resp, err := c.send(ctx, req)
	if err != nil {
		return err
	}
	if resp.Error != nil {
		return &RemoteError{Code: resp.Error.Code, Message: resp.Error.Message}
	}
	if resp.ID != "" && resp.ID != req.ID {
		return fmt.Errorf("response id %q does not match request %q", resp.ID, req.ID)
	}
	if out == nil || len(resp.Result) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Result, out); err != nil {
		return fmt.Errorf("failed to decode %s result: %w", t, err)
	}
	return nil
}

// send sends a request to the daemon and returns the response
func (c *Client) send(ctx context.Context, req Request) (*Response, error) {
	dialer := net.Dialer{Timeout: c.dialTimeout}
	conn, err := dialer.DialContext(ctx, "unix", c.socketPath)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to daemon: %w", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(c.callTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := conn.SetDeadline(deadline); err != nil {
		return nil, fmt.Errorf("failed to set deadline: %w", err)
	}
	stop := context.AfterFunc(ctx, func() { _ = conn.SetDeadline(time.Now()) })
	defer stop()

	if err := json.NewEncoder(conn).Encode(req); err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	var resp Response
	if err := json.NewDecoder(conn).Decode(&resp); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	return &resp, nil
}

// IsDaemonRunning checks if the daemon at socketPath is running and
// responsive.
func IsDaemonRunning(socketPath string) bool {
	client, err := NewClient(socketPath)
	if err != nil {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err = client.Ping(ctx)
	return err == nil
}

// StartDaemonOnDemand starts the daemon if it's not already running, using
// the current executable with args. Returns true if the daemon is running
// (either started now or was already running).
func StartDaemonOnDemand(socketPath string, args ...string) bool {
	if IsDaemonRunning(socketPath) {
		return true
	}

	exe, err := os.Executable()
	if err != nil {
		exe, err = exec.LookPath("raptorfx")
		if err != nil {
			return false
		}
	}

	cmd := exec.Command(exe, args...)
	detach(cmd)

	devNull, err := os.OpenFile(os.DevNull, os.O_WRONLY, 0)
	if err == nil {
		cmd.Stdout = devNull
		cmd.Stderr = devNull
		defer devNull.Close()
	}

	if err := cmd.Start(); err != nil {
		return false
	}
	_ = cmd.Process.Release()

	// Wait for daemon to be ready (up to 5 seconds)
	for range 50 {
		time.Sleep(100 * time.Millisecond)
		if IsDaemonRunning(socketPath) {
			return true
		}
	}

	return false
}

// StopDaemon stops the daemon at socketPath.
func StopDaemon(socketPath string) error {
	client, err := NewClient(socketPath)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return client.Stop(ctx)
}

// GetDaemonPID returns the PID of the daemon at socketPath, or 0 if it is
// not running.
func GetDaemonPID(socketPath string) int {
	data, err := os.ReadFile(GetPidFilePath(GetSocketPath(socketPath)))
	if err != nil {
		return 0
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0
	}
	if !processAlive(pid) {
		return 0
	}
	return pid
}
