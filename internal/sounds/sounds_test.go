package sounds

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSounds(t *testing.T, names ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, n := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, n), []byte("x"), 0o600))
	}
	return dir
}

func TestDiscover_UserDir(t *testing.T) {
	dir := writeSounds(t, "ding.mp3", "alert.WAV", "tone.flac", "readme.txt", "chime.aiff")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.mp3"), 0o700))

	got := Discover(DiscoverOptions{UserDir: dir, IncludeUser: true})

	names := make([]string, len(got))
	for i, s := range got {
		names[i] = s.Name
		assert.Equal(t, SourceUser, s.Source)
		assert.FileExists(t, s.Path)
	}
	assert.Equal(t, []string{"alert", "chime", "ding", "tone"}, names)
	assert.Equal(t, "wav", got[0].Format)
}

func TestDiscover_MissingUserDir(t *testing.T) {
	assert.Empty(t, Discover(DiscoverOptions{
		UserDir:     "/nonexistent/path/that/does/not/exist",
		IncludeUser: true,
	}))
	assert.Empty(t, Discover(DiscoverOptions{IncludeUser: true}))
}

func TestDiscover_System(t *testing.T) {
	sounds := Discover(DiscoverOptions{IncludeSystem: true})

	switch runtime.GOOS {
	case "darwin":
		assert.NotEmpty(t, sounds, "expected system sounds on macOS")
		for _, s := range sounds {
			assert.Equal(t, SourceSystem, s.Source)
			assert.Equal(t, "aiff", s.Format)
		}
	default:
		t.Logf("found %d system sounds on %s", len(sounds), runtime.GOOS)
	}
}

func TestDiscoverTree_Depth(t *testing.T) {
	base := t.TempDir()
	deep := filepath.Join(base, "theme", "stereo", "extra")
	require.NoError(t, os.MkdirAll(deep, 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(base, "theme", "bell.oga"), nil, 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(deep, "hidden.ogg"), nil, 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(base, "theme", "index.theme"), nil, 0o600))

	got := discoverTree(base, 2)
	require.Len(t, got, 1)
	assert.Equal(t, "bell", got[0].Name)
	assert.Equal(t, "Freedesktop bell", got[0].Description)

	assert.Len(t, discoverTree(base, 5), 2)
	assert.Nil(t, discoverTree(filepath.Join(base, "missing"), 5))
}

func TestFindByName(t *testing.T) {
	list := []SoundInfo{
		{Name: "task-complete", Source: SourceUser},
		{Name: "question", Source: SourceUser},
		{Name: "Glass", Source: SourceSystem},
	}

	tests := []struct {
		input string
		want  string
		found bool
	}{
		{"task-complete", "task-complete", true},
		{"Task-Complete", "task-complete", true},
		{"QUESTION", "question", true},
		{"task", "task-complete", true},
		{"glass", "Glass", true},
		{"nonexistent-sound-xyz", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			s, found := FindByName(tt.input, list)
			assert.Equal(t, tt.found, found)
			assert.Equal(t, tt.want, s.Name)
		})
	}
}

func TestFindByName_PrioritizeUser(t *testing.T) {
	// System first in slice, user second: user should still win at every level.
	list := []SoundInfo{
		{Name: "test-sound", Source: SourceSystem, Path: "/sys/test.aiff"},
		{Name: "test-sound", Source: SourceUser, Path: "/user/test.mp3"},
	}

	for _, input := range []string{"test-sound", "Test-Sound", "test-so"} {
		s, found := FindByName(input, list)
		require.True(t, found, input)
		assert.Equal(t, SourceUser, s.Source, input)
	}
}

func TestFindByName_EmptyList(t *testing.T) {
	_, found := FindByName("any", []SoundInfo{})
	assert.False(t, found)
}

func TestResolve(t *testing.T) {
	dir := writeSounds(t, "ding.mp3")
	opts := DiscoverOptions{UserDir: dir, IncludeUser: true}

	path, ok := Resolve(filepath.Join(dir, "ding.mp3"), opts)
	assert.True(t, ok)
	assert.Equal(t, filepath.Join(dir, "ding.mp3"), path)

	path, ok = Resolve("Ding", opts)
	assert.True(t, ok)
	assert.Equal(t, filepath.Join(dir, "ding.mp3"), path)

	_, ok = Resolve("missing", opts)
	assert.False(t, ok)

	_, ok = Resolve("", opts)
	assert.False(t, ok)
}

func TestDiscoverSorted(t *testing.T) {
	dir := writeSounds(t, "b.mp3", "a.mp3")
	result := Discover(DiscoverOptions{UserDir: dir, IncludeUser: true, IncludeSystem: true})
	require.GreaterOrEqual(t, len(result), 2)

	assert.Equal(t, "a", result[0].Name)
	assert.Equal(t, "b", result[1].Name)

	seenSystem := false
	var lastSystem string
	for _, s := range result {
		if s.Source == SourceSystem {
			seenSystem = true
			assert.GreaterOrEqual(t, s.Name, lastSystem)
			lastSystem = s.Name
		} else {
			assert.False(t, seenSystem, "user sounds must come before system sounds")
		}
	}
}
