//go:build darwin

package notifier

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/raptorfx/bridge/internal/bridge"
	"github.com/raptorfx/bridge/internal/platform"
)

// GetTerminalNotifierPath returns the terminal-notifier binary.
// Priority:
// 1. configOverride (notifications.terminal_notifier)
// 2. terminal-notifier bundled next to the executable
// 3. System-installed (brew install terminal-notifier)
func GetTerminalNotifierPath(configOverride string) (string, error) {
	if configOverride != "" {
		if platform.FileExists(configOverride) {
			return configOverride, nil
		}
		return "", fmt.Errorf("terminal-notifier not found at %s", configOverride)
	}

	if exe, err := exec.LookPath("raptorfx"); err == nil {
		bundled := filepath.Join(filepath.Dir(exe), "terminal-notifier.app", "Contents", "MacOS", "terminal-notifier")
		if platform.FileExists(bundled) {
			return bundled, nil
		}
	}

	if path, err := exec.LookPath("terminal-notifier"); err == nil {
		return path, nil
	}
	return "", fmt.Errorf("terminal-notifier not found: brew install terminal-notifier")
}

// IsTerminalNotifierAvailable checks if terminal-notifier is available.
func IsTerminalNotifierAvailable(configOverride string) bool {
	_, err := GetTerminalNotifierPath(configOverride)
	return err == nil
}

type terminalNotifierSender struct {
	path string
}

func (s *terminalNotifierSender) name() string { return "terminal-notifier" }
func (s *terminalNotifierSender) close() error { return nil }

func (s *terminalNotifierSender) send(ctx context.Context, d bridge.Delivery, icon string) error {
	output, err := exec.CommandContext(ctx, s.path, terminalNotifierArgs(d, icon)...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("terminal-notifier error: %w, output: %s", err, string(output))
	}
	return nil
}

type osascriptSender struct{}

func (osascriptSender) name() string { return "osascript" }
func (osascriptSender) close() error { return nil }

func (osascriptSender) send(ctx context.Context, d bridge.Delivery, _ string) error {
	output, err := exec.CommandContext(ctx, "osascript", osascriptArgs(d)...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("osascript error: %w, output: %s", err, string(output))
	}
	return nil
}

func platformChain(opts Options) []sender {
	var chain []sender
	if runtime.GOOS == "darwin" {
		if path, err := GetTerminalNotifierPath(opts.TerminalNotifierPath); err == nil {
			chain = append(chain, &terminalNotifierSender{path: path})
		}
		chain = append(chain, osascriptSender{})
	}
	return append(chain, newBeeep(opts))
}
