//go:build android

package platform

import (
	"os/exec"
	"strings"
)

func getprop(name string) string {
	out, err := exec.Command("getprop", name).Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}

// probeVersion returns the Android release, e.g. "12".
func probeVersion() string {
	return getprop("ro.build.version.release")
}

func probeLocale(getenv func(string) string) string {
	if v := getprop("persist.sys.locale"); v != "" {
		return v
	}
	if v := getprop("ro.product.locale"); v != "" {
		return v
	}
	return envLocale(getenv)
}
