package platform

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// IsMacOS reports whether the process runs on macOS.
func IsMacOS() bool { return runtime.GOOS == "darwin" }

// IsLinux reports whether the process runs on Linux (Android excluded).
func IsLinux() bool { return runtime.GOOS == "linux" }

// IsWindows reports whether the process runs on Windows.
func IsWindows() bool { return runtime.GOOS == "windows" }

// FileExists reports whether path exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// ExpandEnv expands environment variables and a leading "~".
func ExpandEnv(path string) string {
	path = os.ExpandEnv(path)
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}
