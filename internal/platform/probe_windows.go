//go:build windows

package platform

import (
	"fmt"

	"golang.org/x/sys/windows"
)

// probeVersion returns "major.minor.build". RtlGetVersion is not subject to
// the manifest-based version lie of GetVersionEx.
func probeVersion() string {
	v := windows.RtlGetVersion()
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%d.%d.%d", v.MajorVersion, v.MinorVersion, v.BuildNumber)
}

func probeLocale(getenv func(string) string) string {
	langs, err := windows.GetUserPreferredUILanguages(windows.MUI_LANGUAGE_NAME)
	if err == nil && len(langs) > 0 {
		return langs[0]
	}
	return envLocale(getenv)
}
