package platform

import (
	"path"
	"strings"
)

// StoragePaths returns the local (app-scoped) and external storage locations
// for goos. Paths are built for the target OS, not the running one.
func StoragePaths(goos, appName, packageID, home string, getenv func(string) string) (local, external string) {
	switch goos {
	case "windows":
		base := getenv("LOCALAPPDATA")
		if base == "" && home != "" {
			base = winJoin(home, "AppData", "Local")
		}
		drive := getenv("SystemDrive")
		if drive == "" {
			drive = "C:"
		}
		return winJoin(base, appName), strings.TrimRight(drive, `\`) + `\`

	case "darwin":
		return path.Join(home, "Library", "Application Support", appName), "/"

	case "ios":
		if h := getenv("HOME"); h != "" {
			home = h
		}
		return path.Join(home, "Library", "Application Support", appName), path.Join(home, "Documents")

	case "android":
		external = getenv("EXTERNAL_STORAGE")
		if external == "" {
			external = "/storage/emulated/0"
		}
		return path.Join("/data/data", packageID, "files"), external

	default:
		base := getenv("XDG_DATA_HOME")
		if base == "" {
			base = path.Join(home, ".local", "share")
		}
		return path.Join(base, strings.ToLower(appName)), "/"
	}
}

func winJoin(elems ...string) string {
	parts := make([]string, 0, len(elems))
	for i, e := range elems {
		if i > 0 {
			e = strings.TrimLeft(e, `\/`)
		}
		e = strings.TrimRight(e, `\/`)
		if e != "" {
			parts = append(parts, e)
		}
	}
	return strings.Join(parts, `\`)
}
