//go:build darwin

package platform

import (
	"os/exec"
	"runtime"
	"strings"

	"golang.org/x/sys/unix"
)

// probeVersion returns the product version, e.g. "14.4.1".
func probeVersion() string {
	v, err := unix.Sysctl("kern.osproductversion")
	if err != nil {
		return ""
	}
	return v
}

func probeLocale(getenv func(string) string) string {
	if v := envLocale(getenv); v != "" {
		return v
	}
	if runtime.GOOS != "darwin" {
		return ""
	}
	out, err := exec.Command("defaults", "read", "-g", "AppleLocale").Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}
