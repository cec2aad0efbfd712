//go:build (linux && !android) || freebsd || openbsd || netbsd || dragonfly

package platform

import "golang.org/x/sys/unix"

// probeVersion returns the kernel release, e.g. "6.8.0-45-generic".
func probeVersion() string {
	var u unix.Utsname
	if err := unix.Uname(&u); err != nil {
		return ""
	}
	return unix.ByteSliceToString(u.Release[:])
}

func probeLocale(getenv func(string) string) string {
	return envLocale(getenv)
}
