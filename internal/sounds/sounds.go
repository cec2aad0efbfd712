// Package sounds lists the notification sounds available on this machine:
// the user's sound directory under local storage first, then the OS's
// system sounds. Pure filesystem scanning, no audio dependencies.
package sounds

import (
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
)

// Sources, in priority order.
const (
	SourceUser   = "user"
	SourceSystem = "system"
)

// SoundInfo represents a discovered sound file.
type SoundInfo struct {
	Name        string `json:"name"`
	Path        string `json:"path"`
	Format      string `json:"format"`
	Source      string `json:"source"`
	Description string `json:"description,omitempty"`
}

// DiscoverOptions controls which sound sources to scan.
type DiscoverOptions struct {
	UserDir        string // usually <local storage>/sounds
	IncludeUser    bool
	IncludeSystem  bool
	MaxSystemDepth int // Max directory depth for Linux system sounds (default 5)
}

// playable lists the extensions the audio player decodes.
var playable = map[string]bool{
	".mp3":  true,
	".wav":  true,
	".ogg":  true,
	".oga":  true,
	".flac": true,
	".aiff": true,
	".aif":  true,
}

// descriptions maps well-known system sound names to human-readable text.
var descriptions = map[string]string{
	"Glass":     "Crisp, clean chime",
	"Hero":      "Triumphant fanfare",
	"Ping":      "Subtle ping sound",
	"Pop":       "Quick pop sound",
	"Purr":      "Gentle purr",
	"Funk":      "Distinctive funk groove",
	"Sosumi":    "Pleasant notification",
	"Basso":     "Deep bass sound",
	"Blow":      "Breeze-like whoosh",
	"Frog":      "Unique ribbit sound",
	"Submarine": "Sonar-like ping",
	"Bottle":    "Cork pop sound",
	"Morse":     "Morse code beeps",
	"Tink":      "Light metallic sound",

	"message-new-instant": "Freedesktop instant message",
	"complete":            "Freedesktop completion tone",
	"bell":                "Freedesktop bell",

	"Windows Notify System Generic": "Windows default notification",
	"Windows Background":            "Windows background chime",
}

// Discover scans for available sounds. User sounds are listed first, then
// system sounds, each group sorted by name.
func Discover(opts DiscoverOptions) []SoundInfo {
	var result []SoundInfo

	if opts.IncludeUser {
		result = append(result, discoverDir(opts.UserDir, SourceUser)...)
	}

	if opts.IncludeSystem {
		depth := opts.MaxSystemDepth
		if depth <= 0 {
			depth = 5
		}
		result = append(result, discoverSystem(runtime.GOOS, depth)...)
	}

	sort.SliceStable(result, func(i, j int) bool {
		if result[i].Source != result[j].Source {
			return result[i].Source == SourceUser
		}
		return result[i].Name < result[j].Name
	})

	return result
}

// FindByName searches for a sound by name with 3-level matching:
// 1. Exact match
// 2. Case-insensitive match
// 3. Prefix match (case-insensitive)
// User sounds are prioritized over system sounds at every level.
func FindByName(name string, available []SoundInfo) (SoundInfo, bool) {
	if name == "" {
		return SoundInfo{}, false
	}
	nameLower := strings.ToLower(name)

	if s, ok := findPreferUser(available, func(s SoundInfo) bool {
		return s.Name == name
	}); ok {
		return s, true
	}

	if s, ok := findPreferUser(available, func(s SoundInfo) bool {
		return strings.ToLower(s.Name) == nameLower
	}); ok {
		return s, true
	}

	if s, ok := findPreferUser(available, func(s SoundInfo) bool {
		return strings.HasPrefix(strings.ToLower(s.Name), nameLower)
	}); ok {
		return s, true
	}

	return SoundInfo{}, false
}

// Resolve turns the configured sound into a file path. An existing path is
// used as is; anything else is looked up by name.
func Resolve(sound string, opts DiscoverOptions) (string, bool) {
	if sound == "" {
		return "", false
	}
	if info, err := os.Stat(sound); err == nil && !info.IsDir() {
		return sound, true
	}
	s, ok := FindByName(sound, Discover(opts))
	return s.Path, ok
}

func findPreferUser(available []SoundInfo, match func(SoundInfo) bool) (SoundInfo, bool) {
	var firstOther *SoundInfo
	for i, s := range available {
		if !match(s) {
			continue
		}
		if s.Source == SourceUser {
			return s, true
		}
		if firstOther == nil {
			firstOther = &available[i]
		}
	}
	if firstOther != nil {
		return *firstOther, true
	}
	return SoundInfo{}, false
}

// discoverDir lists playable files directly inside dir.
func discoverDir(dir, source string) []SoundInfo {
	if dir == "" {
		return nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}

	var result []SoundInfo
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if s, ok := soundInfo(filepath.Join(dir, e.Name()), source); ok {
			result = append(result, s)
		}
	}
	return result
}

func soundInfo(path, source string) (SoundInfo, bool) {
	ext := filepath.Ext(path)
	if !playable[strings.ToLower(ext)] {
		return SoundInfo{}, false
	}
	name := strings.TrimSuffix(filepath.Base(path), ext)
	return SoundInfo{
		Name:        name,
		Path:        path,
		Format:      strings.ToLower(ext[1:]),
		Source:      source,
		Description: descriptions[name],
	}, true
}

func discoverSystem(goos string, maxDepth int) []SoundInfo {
	switch goos {
	case "darwin":
		return discoverDir("/System/Library/Sounds", SourceSystem)
	case "linux", "freebsd", "openbsd", "netbsd":
		return discoverTree("/usr/share/sounds", maxDepth)
	case "windows":
		sysRoot := os.Getenv("SYSTEMROOT")
		if sysRoot == "" {
			sysRoot = `C:\Windows`
		}
		return discoverDir(filepath.Join(sysRoot, "Media"), SourceSystem)
	default:
		return nil
	}
}

// discoverTree walks baseDir up to maxDepth levels for OGG and WAV files,
// the formats freedesktop sound themes ship.
func discoverTree(baseDir string, maxDepth int) []SoundInfo {
	if _, err := os.Stat(baseDir); err != nil {
		return nil
	}

	var result []SoundInfo
	baseDepth := strings.Count(filepath.Clean(baseDir), string(os.PathSeparator))

	_ = filepath.WalkDir(baseDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}

		currentDepth := strings.Count(path, string(os.PathSeparator)) - baseDepth
		if d.IsDir() {
			if currentDepth >= maxDepth {
				return filepath.SkipDir
			}
			return nil
		}

		ext := strings.ToLower(filepath.Ext(path))
		if ext != ".ogg" && ext != ".oga" && ext != ".wav" {
			return nil
		}
		if s, ok := soundInfo(path, SourceSystem); ok {
			result = append(result, s)
		}
		return nil
	})

	return result
}
