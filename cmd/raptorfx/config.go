package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/raptorfx/bridge/internal/config"
	"github.com/raptorfx/bridge/internal/logging"
)

// cli carries state shared by all commands once flags are parsed.
type cli struct {
	v      *viper.Viper
	cfg    *config.Config
	logger *slog.Logger

	jsonOut bool
	local   bool
	spawn   bool
}

// annotationService marks long-running commands; they log at info by
// default instead of warn.
const annotationService = "service"

func newCLI() *cli {
	return &cli{v: viper.New()}
}

// flagKeys maps config keys to the flags that override them.
var flagKeys = map[string]string{
	"log.format":            "log-format",
	"log.level":             "log-level",
	"daemon.socket_path":    "socket",
	"daemon.idle_timeout":   "idle-timeout",
	"daemon.websocket_addr": "websocket",
	"window.target":         "target",
}

// setup loads configuration and logging before any command runs.
func (c *cli) setup(cmd *cobra.Command, _ []string) error {
	if err := bindViper(cmd, c.v); err != nil {
		return err
	}
	cfg, err := config.Load(c.v)
	if err != nil {
		return err
	}
	c.cfg = cfg
	c.setupLogging(cmd)
	c.logger = logging.Component("cli")
	return nil
}

// bindViper wires a command's flags into v with the standard config file
// search order and RAPTORFX_* env var prefix.
//
// Precedence (lowest → highest): defaults → config file → RAPTORFX_* env vars → flags
func bindViper(cmd *cobra.Command, v *viper.Viper) error {
	config.SetDefaults(v)

	configFlag, _ := cmd.Flags().GetString("config")
	if err := config.ReadInConfig(v, configFlag); err != nil {
		return err
	}

	for key, name := range flagKeys {
		f := cmd.Flags().Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("binding flag %s: %w", name, err)
		}
	}
	return nil
}

// addLoggingFlags adds the standard logging flags to a command.
func addLoggingFlags(cmd *cobra.Command) {
	f := cmd.PersistentFlags()
	f.Bool("no-background", false, "run interactively: tinter logs + debug level")
	f.String("log-format", "auto", "log format: auto|text|json")
	f.String("log-level", "", "log level: debug|info|warn|error (default: info for the daemon, warn otherwise)")
}

// addConfigFlag adds the --config flag to a command.
func addConfigFlag(cmd *cobra.Command) {
	cmd.PersistentFlags().String("config", "", "path to config file (overrides auto-discovery)")
}

func (c *cli) setupLogging(cmd *cobra.Command) {
	interactive, _ := cmd.Flags().GetBool("no-background")
	service := cmd.Annotations[annotationService] == "true"
	resolveLogging(interactive, service, c.cfg.Log.Format, c.cfg.Log.Level)
}

// resolveLogging sets up the global slog logger after flags are parsed.
func resolveLogging(interactive, service bool, formatStr, levelStr string) {
	format := logging.ParseFormat(formatStr)
	level := logging.ParseLevel(levelStr)
	if levelStr == "" {
		switch {
		case interactive:
			level = logging.ParseLevel("debug")
		case service:
			level = logging.ParseLevel("info")
		default:
			level = logging.ParseLevel("warn")
		}
	}
	logging.Setup(format, level)
}
