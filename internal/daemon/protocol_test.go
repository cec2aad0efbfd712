package daemon

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/raptorfx/bridge/internal/bridge"
)

func TestGetSocketPath(t *testing.T) {
	t.Run("override wins", func(t *testing.T) {
		t.Setenv("XDG_RUNTIME_DIR", "/run/user/1000")
		assert.Equal(t, "/srv/custom.sock", GetSocketPath("/srv/custom.sock"))
	})

	t.Run("XDG runtime dir", func(t *testing.T) {
		t.Setenv("XDG_RUNTIME_DIR", "/run/user/1000")
		assert.Equal(t, filepath.Join("/run/user/1000", "raptorfx.sock"), GetSocketPath(""))
	})

	t.Run("trailing slash", func(t *testing.T) {
		t.Setenv("XDG_RUNTIME_DIR", "/run/user/1000/")
		result := GetSocketPath("")
		assert.NotContains(t, result, "//")
		assert.True(t, strings.HasSuffix(result, ".sock"))
	})

	t.Run("temp dir with uid", func(t *testing.T) {
		t.Setenv("XDG_RUNTIME_DIR", "")
		expected := filepath.Join(os.TempDir(), fmt.Sprintf("raptorfx-%d.sock", os.Getuid()))
		assert.Equal(t, expected, GetSocketPath(""))
	})
}

func TestGetPidFilePath(t *testing.T) {
	assert.Equal(t, "/run/user/1000/raptorfx.pid", GetPidFilePath("/run/user/1000/raptorfx.sock"))
	assert.Equal(t, "/tmp/raptorfx-1000.pid", GetPidFilePath("/tmp/raptorfx-1000.sock"))
	assert.Equal(t, "/tmp/plain.pid", GetPidFilePath("/tmp/plain"))

	sock := GetSocketPath("/var/run/x/daemon.sock")
	assert.Equal(t, filepath.Dir(sock), filepath.Dir(GetPidFilePath(sock)))
}

func TestCompatible(t *testing.T) {
	tests := []struct {
		version string
		want    bool
	}{
		{"", true},
		{ProtocolVersion, true},
		{"1.7", true},
		{"1", true},
		{"2.0", false},
		{"0.9", false},
	}
	for _, tt := range tests {
		t.Run(tt.version, func(t *testing.T) {
			assert.Equal(t, tt.want, compatible(tt.version))
		})
	}
}

func TestRemoteErrorUnwrap(t *testing.T) {
	tests := []struct {
		code string
		want error
	}{
		{CodeBadRequest, ErrBadRequest},
		{"invalid_argument", bridge.ErrInvalidArgument},
		{"unsupported_capability", bridge.ErrUnsupportedCapability},
		{"backend_timeout", bridge.ErrBackendTimeout},
		{"notification_rejected", bridge.ErrNotificationRejected},
		{"bridge_closed", bridge.ErrBridgeClosed},
		{"something_new", bridge.ErrBackendFailed},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			err := &RemoteError{Code: tt.code, Message: "boom"}
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, "daemon error: boom", err.Error())
		})
	}

	internal := &RemoteError{Code: "internal"}
	assert.Nil(t, internal.Unwrap())
	assert.Equal(t, "daemon error: internal", internal.Error())
}

func TestErrorInfo(t *testing.T) {
	info := errorInfo(fmt.Errorf("%w: missing field", ErrBadRequest))
	assert.Equal(t, CodeBadRequest, info.Code)
	assert.Contains(t, info.Message, "missing field")

	info = errorInfo(fmt.Errorf("wrapped: %w", bridge.ErrUnsupportedCapability))
	assert.Equal(t, "unsupported_capability", info.Code)

	info = errorInfo(errors.New("plain"))
	assert.Equal(t, "internal", info.Code)
}

func TestCheckLoopbackAddr(t *testing.T) {
	for _, addr := range []string{"127.0.0.1:0", "localhost:8123", "[::1]:9000"} {
		assert.NoError(t, checkLoopbackAddr(addr), addr)
	}
	for _, addr := range []string{"0.0.0.0:8080", ":8080", "192.168.1.4:80", "example.com:80", "nonsense"} {
		assert.Error(t, checkLoopbackAddr(addr), addr)
	}
}
