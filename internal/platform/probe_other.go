//go:build !linux && !darwin && !windows && !freebsd && !openbsd && !netbsd && !dragonfly

package platform

func probeVersion() string { return "" }

func probeLocale(getenv func(string) string) string {
	return envLocale(getenv)
}
