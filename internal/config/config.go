// Package config loads raptorfx settings with viper. Precedence, lowest to
// highest: defaults, config file, RAPTORFX_* environment variables, flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/raptorfx/bridge/internal/bridge"
	"github.com/raptorfx/bridge/internal/platform"
)

// EnvPrefix prefixes every environment override, e.g. RAPTORFX_LOG_LEVEL.
const EnvPrefix = "RAPTORFX"

// Config represents the raptorfx configuration
type Config struct {
	App           AppConfig           `mapstructure:"app" json:"app"`
	Bridge        BridgeConfig        `mapstructure:"bridge" json:"bridge"`
	Notifications NotificationsConfig `mapstructure:"notifications" json:"notifications"`
	Window        WindowConfig        `mapstructure:"window" json:"window"`
	Daemon        DaemonConfig        `mapstructure:"daemon" json:"daemon"`
	Log           LogConfig           `mapstructure:"log" json:"log"`
}

// AppConfig names the application for storage paths and notifications.
type AppConfig struct {
	Name      string `mapstructure:"name" json:"name"`
	PackageID string `mapstructure:"package_id" json:"package_id"` // Android package / iOS bundle ID
}

// BridgeConfig tunes the dispatcher.
type BridgeConfig struct {
	CallTimeout string `mapstructure:"call_timeout" json:"call_timeout"` // e.g. "2s"
}

// NotificationsConfig represents notification settings
type NotificationsConfig struct {
	GroupKey             string  `mapstructure:"group_key" json:"group_key"` // empty = app name
	QueueSize            int     `mapstructure:"queue_size" json:"queue_size"`
	DeliveryTimeout      string  `mapstructure:"delivery_timeout" json:"delivery_timeout"`
	AppIcon              string  `mapstructure:"app_icon" json:"app_icon"`
	Sound                string  `mapstructure:"sound" json:"sound"`   // file path or sound name, empty = silent
	Volume               float64 `mapstructure:"volume" json:"volume"` // 0.0-1.0
	AudioDevice          string  `mapstructure:"audio_device" json:"audio_device"`
	TerminalNotifierPath string  `mapstructure:"terminal_notifier_path" json:"terminal_notifier_path"` // macOS only
}

// WindowConfig represents window settings
type WindowConfig struct {
	StatusBarColor string `mapstructure:"status_bar_color" json:"status_bar_color"`
	// Target selects the controlled window: empty for the active one, a
	// window ID, or a title (application name on macOS).
	Target string `mapstructure:"target" json:"target"`
}

// DaemonConfig represents the IPC daemon settings
type DaemonConfig struct {
	SocketPath    string `mapstructure:"socket_path" json:"socket_path"`   // empty = per-user default
	IdleTimeout   string `mapstructure:"idle_timeout" json:"idle_timeout"` // "0" disables
	WebsocketAddr string `mapstructure:"websocket_addr" json:"websocket_addr"`
}

// LogConfig selects log format and level.
type LogConfig struct {
	Format string `mapstructure:"format" json:"format"` // auto|text|json
	Level  string `mapstructure:"level" json:"level"`
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		App: AppConfig{
			Name:      platform.DefaultAppName,
			PackageID: platform.DefaultPackageID,
		},
		Bridge: BridgeConfig{
			CallTimeout: bridge.DefaultCallTimeout.String(),
		},
		Notifications: NotificationsConfig{
			QueueSize:       bridge.DefaultQueueSize,
			DeliveryTimeout: bridge.DefaultDeliveryTimeout.String(),
			Volume:          1.0,
		},
		Window: WindowConfig{
			StatusBarColor: bridge.DefaultStatusBarColor,
		},
		Daemon: DaemonConfig{
			IdleTimeout: "5m",
		},
		Log: LogConfig{
			Format: "auto",
		},
	}
}

// SetDefaults registers every key with v so that config files and
// environment variables can override them.
func SetDefaults(v *viper.Viper) {
	d := DefaultConfig()
	defaults := map[string]any{
		"app.name":                             d.App.Name,
		"app.package_id":                       d.App.PackageID,
		"bridge.call_timeout":                  d.Bridge.CallTimeout,
		"notifications.group_key":              d.Notifications.GroupKey,
		"notifications.queue_size":             d.Notifications.QueueSize,
		"notifications.delivery_timeout":       d.Notifications.DeliveryTimeout,
		"notifications.app_icon":               d.Notifications.AppIcon,
		"notifications.sound":                  d.Notifications.Sound,
		"notifications.volume":                 d.Notifications.Volume,
		"notifications.audio_device":           d.Notifications.AudioDevice,
		"notifications.terminal_notifier_path": d.Notifications.TerminalNotifierPath,
		"window.status_bar_color":              d.Window.StatusBarColor,
		"window.target":                        d.Window.Target,
		"daemon.socket_path":                   d.Daemon.SocketPath,
		"daemon.idle_timeout":                  d.Daemon.IdleTimeout,
		"daemon.websocket_addr":                d.Daemon.WebsocketAddr,
		"log.format":                           d.Log.Format,
		"log.level":                            d.Log.Level,
	}
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
}

// ReadInConfig loads path, or searches /etc/raptorfx/ and
// $HOME/.config/raptorfx/ for raptorfx.{yaml,toml,json}. A missing file is
// not an error unless path was given explicitly.
func ReadInConfig(v *viper.Viper, path string) error {
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("raptorfx")
		v.AddConfigPath("/etc/raptorfx/")
		if dir, err := Dir(); err == nil {
			v.AddConfigPath(dir)
		}
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// Dir returns the per-user config directory.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".config", "raptorfx"), nil
}

// Load decodes v into a Config, applies defaults and validates it.
func Load(v *viper.Viper) (*Config, error) {
	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.Notifications.AppIcon = platform.ExpandEnv(cfg.Notifications.AppIcon)
	cfg.Notifications.Sound = platform.ExpandEnv(cfg.Notifications.Sound)
	cfg.Daemon.SocketPath = platform.ExpandEnv(cfg.Daemon.SocketPath)

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile is Load for a single file without flag bindings. An empty path
// searches the default locations.
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	SetDefaults(v)
	if err := ReadInConfig(v, path); err != nil {
		return nil, err
	}
	return Load(v)
}

// ApplyDefaults fills in missing fields with default values
func (c *Config) ApplyDefaults() {
	d := DefaultConfig()
	if c.App.Name == "" {
		c.App.Name = d.App.Name
	}
	if c.App.PackageID == "" {
		c.App.PackageID = d.App.PackageID
	}
	if c.Bridge.CallTimeout == "" {
		c.Bridge.CallTimeout = d.Bridge.CallTimeout
	}
	if c.Notifications.GroupKey == "" {
		c.Notifications.GroupKey = c.App.Name
	}
	if c.Notifications.QueueSize == 0 {
		c.Notifications.QueueSize = d.Notifications.QueueSize
	}
	if c.Notifications.DeliveryTimeout == "" {
		c.Notifications.DeliveryTimeout = d.Notifications.DeliveryTimeout
	}
	if c.Window.StatusBarColor == "" {
		c.Window.StatusBarColor = d.Window.StatusBarColor
	}
	if c.Daemon.IdleTimeout == "" {
		c.Daemon.IdleTimeout = d.Daemon.IdleTimeout
	}
	if c.Log.Format == "" {
		c.Log.Format = d.Log.Format
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if d, err := time.ParseDuration(c.Bridge.CallTimeout); err != nil || d <= 0 {
		return fmt.Errorf("bridge.call_timeout must be a positive duration (got %q)", c.Bridge.CallTimeout)
	}
	if d, err := time.ParseDuration(c.Notifications.DeliveryTimeout); err != nil || d <= 0 {
		return fmt.Errorf("notifications.delivery_timeout must be a positive duration (got %q)", c.Notifications.DeliveryTimeout)
	}
	if d, err := time.ParseDuration(c.Daemon.IdleTimeout); err != nil || d < 0 {
		return fmt.Errorf("daemon.idle_timeout must be a duration >= 0 (got %q)", c.Daemon.IdleTimeout)
	}
	if c.Notifications.QueueSize < 1 {
		return fmt.Errorf("notifications.queue_size must be >= 1 (got %d)", c.Notifications.QueueSize)
	}
	if c.Notifications.Volume < 0.0 || c.Notifications.Volume > 1.0 {
		return fmt.Errorf("notifications.volume must be between 0.0 and 1.0 (got %.2f)", c.Notifications.Volume)
	}
	if !bridge.IsHexColor(c.Window.StatusBarColor) {
		return fmt.Errorf("window.status_bar_color must be #RGB, #RRGGBB or #RRGGBBAA (got %q)", c.Window.StatusBarColor)
	}
	switch strings.ToLower(c.Log.Format) {
	case "auto", "text", "tint", "human", "json":
	default:
		return fmt.Errorf("invalid log.format: %s (must be one of: auto, text, json)", c.Log.Format)
	}
	switch strings.ToLower(c.Log.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log.level: %s (must be one of: debug, info, warn, error)", c.Log.Level)
	}
	return nil
}

// CallTimeout returns the synchronous backend call timeout.
func (c *Config) CallTimeout() time.Duration {
	return parseDuration(c.Bridge.CallTimeout, bridge.DefaultCallTimeout)
}

// DeliveryTimeout returns the per-notification delivery timeout.
func (c *Config) DeliveryTimeout() time.Duration {
	return parseDuration(c.Notifications.DeliveryTimeout, bridge.DefaultDeliveryTimeout)
}

// IdleTimeout returns the daemon idle timeout; zero disables it.
func (c *Config) IdleTimeout() time.Duration {
	return parseDuration(c.Daemon.IdleTimeout, 5*time.Minute)
}

// IsSoundEnabled returns true if a notification sound is configured
func (c *Config) IsSoundEnabled() bool {
	return c.Notifications.Sound != "" && c.Notifications.Volume > 0
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}
