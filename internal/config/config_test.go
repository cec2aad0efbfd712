package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ApplyDefaults()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "RaptorFX", cfg.App.Name)
	assert.Equal(t, "RaptorFX", cfg.Notifications.GroupKey, "group key defaults to the app name")
	assert.Equal(t, 256, cfg.Notifications.QueueSize)
	assert.Equal(t, "#000000", cfg.Window.StatusBarColor)
	assert.Equal(t, 2*time.Second, cfg.CallTimeout())
	assert.Equal(t, 10*time.Second, cfg.DeliveryTimeout())
	assert.Equal(t, 5*time.Minute, cfg.IdleTimeout())
	assert.False(t, cfg.IsSoundEnabled())
}

func TestLoadFile_YAML(t *testing.T) {
	path := writeConfig(t, "raptorfx.yaml", `
app:
  name: Notes
bridge:
  call_timeout: 500ms
notifications:
  queue_size: 8
  sound: $HOME/ding.wav
  volume: 0.25
window:
  status_bar_color: "#336699"
daemon:
  idle_timeout: "0"
  websocket_addr: 127.0.0.1:8765
`)
	t.Setenv("HOME", "/home/tester")

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "Notes", cfg.App.Name)
	assert.Equal(t, "Notes", cfg.Notifications.GroupKey)
	assert.Equal(t, 500*time.Millisecond, cfg.CallTimeout())
	assert.Equal(t, 8, cfg.Notifications.QueueSize)
	assert.Equal(t, "/home/tester/ding.wav", cfg.Notifications.Sound)
	assert.InDelta(t, 0.25, cfg.Notifications.Volume, 1e-9)
	assert.True(t, cfg.IsSoundEnabled())
	assert.Equal(t, "#336699", cfg.Window.StatusBarColor)
	assert.Zero(t, cfg.IdleTimeout())
	assert.Equal(t, "127.0.0.1:8765", cfg.Daemon.WebsocketAddr)

	// Unset keys keep their defaults.
	assert.Equal(t, 10*time.Second, cfg.DeliveryTimeout())
	assert.Equal(t, "dev.raptorfx.app", cfg.App.PackageID)
}

func TestLoadFile_JSON(t *testing.T) {
	path := writeConfig(t, "raptorfx.json", `{"notifications": {"group_key": "builds"}, "log": {"level": "debug"}}`)

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "builds", cfg.Notifications.GroupKey)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadFile_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "raptorfx.yaml", "log:\n  level: warn\n")
	t.Setenv("RAPTORFX_LOG_LEVEL", "error")
	t.Setenv("RAPTORFX_NOTIFICATIONS_QUEUE_SIZE", "3")

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "error", cfg.Log.Level)
	assert.Equal(t, 3, cfg.Notifications.QueueSize)
}

func TestLoadFile_Errors(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err, "an explicit path must exist")

	bad := writeConfig(t, "raptorfx.yaml", "app: [unclosed\n")
	_, err = LoadFile(bad)
	assert.Error(t, err)

	invalid := writeConfig(t, "raptorfx.yaml", "notifications:\n  volume: 3\n")
	_, err = LoadFile(invalid)
	assert.ErrorContains(t, err, "notifications.volume")
}

func TestLoadFile_NoFileUsesDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	cfg, err := LoadFile("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().App.Name, cfg.App.Name)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"ok", func(*Config) {}, ""},
		{"call timeout zero", func(c *Config) { c.Bridge.CallTimeout = "0s" }, "bridge.call_timeout"},
		{"call timeout garbage", func(c *Config) { c.Bridge.CallTimeout = "soon" }, "bridge.call_timeout"},
		{"delivery timeout negative", func(c *Config) { c.Notifications.DeliveryTimeout = "-1s" }, "notifications.delivery_timeout"},
		{"idle timeout negative", func(c *Config) { c.Daemon.IdleTimeout = "-1m" }, "daemon.idle_timeout"},
		{"queue size", func(c *Config) { c.Notifications.QueueSize = -1 }, "notifications.queue_size"},
		{"volume low", func(c *Config) { c.Notifications.Volume = -0.1 }, "notifications.volume"},
		{"colour", func(c *Config) { c.Window.StatusBarColor = "black" }, "window.status_bar_color"},
		{"log format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
		{"log level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.ApplyDefaults()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.App.Name = "Chat"
	cfg.ApplyDefaults()

	assert.Equal(t, "Chat", cfg.Notifications.GroupKey)
	assert.Equal(t, "dev.raptorfx.app", cfg.App.PackageID)
	assert.Equal(t, 256, cfg.Notifications.QueueSize)
	assert.Equal(t, "5m", cfg.Daemon.IdleTimeout)
	assert.Equal(t, "auto", cfg.Log.Format)
	assert.Zero(t, cfg.Notifications.Volume, "volume 0 is a valid choice and is kept")
}

func TestDir(t *testing.T) {
	t.Setenv("HOME", "/home/tester")
	dir, err := Dir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/home/tester", ".config", "raptorfx"), dir)
}
