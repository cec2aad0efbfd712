package platform

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func home(dir string) func() (string, error) {
	return func() (string, error) { return dir, nil }
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name     string
		goos     string
		goarch   string
		version  string
		locale   string
		env      map[string]string
		wantArch string
		wantOS   string
		wantLoc  string
		wantExt  string
	}{
		{
			name: "linux amd64", goos: "linux", goarch: "amd64",
			version: "6.8.0-45-generic", locale: "de_DE.UTF-8",
			env:      map[string]string{"XDG_DATA_HOME": "/home/u/.data"},
			wantArch: "x86_64", wantOS: "linux_6", wantLoc: "/home/u/.data/raptorfx", wantExt: "/",
		},
		{
			name: "windows 11 arm64", goos: "windows", goarch: "arm64",
			version: "10.0.22631", locale: "en-GB",
			env:      map[string]string{"LOCALAPPDATA": `C:\Users\u\AppData\Local`, "SystemDrive": "D:"},
			wantArch: "arm64", wantOS: "windows_11", wantLoc: `C:\Users\u\AppData\Local\RaptorFX`, wantExt: `D:\`,
		},
		{
			name: "windows 10 x86", goos: "windows", goarch: "386",
			version:  "10.0.19045",
			env:      map[string]string{},
			wantArch: "x86", wantOS: "windows_10", wantLoc: `C:\Users\u\AppData\Local\RaptorFX`, wantExt: `C:\`,
		},
		{
			name: "macos", goos: "darwin", goarch: "arm64", version: "14.4.1",
			wantArch: "arm64", wantOS: "macos_14", wantLoc: "/Users/u/Library/Application Support/RaptorFX", wantExt: "/",
		},
		{
			name: "android", goos: "android", goarch: "arm64", version: "12",
			env:      map[string]string{"EXTERNAL_STORAGE": "/sdcard"},
			wantArch: "arm64", wantOS: "android_12", wantLoc: "/data/data/dev.raptorfx.app/files", wantExt: "/sdcard",
		},
		{
			name: "ios without version", goos: "ios", goarch: "arm64",
			env:      map[string]string{"HOME": "/var/mobile/App"},
			wantArch: "arm64", wantOS: "ios", wantLoc: "/var/mobile/App/Library/Application Support/RaptorFX", wantExt: "/var/mobile/App/Documents",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			homeDir := "/home/u"
			switch tt.goos {
			case "darwin":
				homeDir = "/Users/u"
			case "windows":
				homeDir = `C:\Users\u`
			}
			d := NewDescriptor(
				WithTarget(tt.goos, tt.goarch),
				WithEnv(env(tt.env)),
				WithHomeDir(home(homeDir)),
				WithVersionProbe(func() string { return tt.version }),
				WithLocaleProbe(func() string { return tt.locale }),
			)

			info, err := d.Resolve()
			require.NoError(t, err)
			assert.Equal(t, tt.wantArch, info.Arch)
			assert.Equal(t, tt.wantOS, info.OS)
			assert.Equal(t, tt.wantLoc, info.LocalStorage)
			assert.Equal(t, tt.wantExt, info.ExternalStorage)
			assert.Equal(t, tt.goos, info.Family)
		})
	}
}

func TestResolveUnknown(t *testing.T) {
	tests := []struct {
		name   string
		goos   string
		goarch string
	}{
		{"unknown arch", "linux", "mips"},
		{"unknown os", "plan9", "amd64"},
		{"wasm", "js", "wasm"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDescriptor(WithTarget(tt.goos, tt.goarch), WithVersionProbe(func() string { return "" }))
			_, err := d.Resolve()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrUnknown))

			_, ok := d.Resolved()
			assert.False(t, ok)

			// The failure is cached.
			_, err2 := d.Resolve()
			assert.Equal(t, err, err2)
		})
	}
}

func TestResolveIsIdempotent(t *testing.T) {
	calls := 0
	var mu sync.Mutex
	d := NewDescriptor(
		WithTarget("linux", "amd64"),
		WithEnv(env(nil)),
		WithHomeDir(home("/home/u")),
		WithVersionProbe(func() string {
			mu.Lock()
			calls++
			mu.Unlock()
			return "6.1"
		}),
	)

	_, ok := d.Resolved()
	assert.False(t, ok, "not resolved before Resolve")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = d.Resolve()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, calls)
	info, ok := d.Resolved()
	require.True(t, ok)
	assert.Equal(t, "linux_6", info.OS)
}

func TestOSIdentifier(t *testing.T) {
	tests := []struct {
		name    string
		os      string
		version string
		want    string
	}{
		{"empty version", "linux", "", "linux"},
		{"garbage version", "linux", "unknown", "linux"},
		{"kernel release", "linux", "5.15.0-1051-azure", "linux_5"},
		{"windows 10", "windows", "10.0.19045", "windows_10"},
		{"windows 11 first build", "windows", "10.0.22000", "windows_11"},
		{"windows without build", "windows", "10.0", "windows_10"},
		{"windows 8.1", "windows", "6.3.9600", "windows_6"},
		{"macos", "macos", "13.6", "macos_13"},
		{"freebsd", "freebsd", "14.0-RELEASE", "freebsd_14"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, osIdentifier(tt.os, tt.version))
		})
	}
}

func TestCanonicalLocale(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"", "en_US"},
		{"C", "en_US"},
		{"POSIX", "en_US"},
		{"C.UTF-8", "en_US"},
		{"en_US.UTF-8", "en_US"},
		{"de_DE@euro", "de_DE"},
		{"pt-br", "pt_BR"},
		{"fr", "fr_FR"},
		{"ja-JP", "ja_JP"},
		{"not a locale!", "en_US"},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, CanonicalLocale(tt.raw))
		})
	}
}

func TestEnvLocalePrecedence(t *testing.T) {
	assert.Equal(t, "fr_FR.UTF-8", envLocale(env(map[string]string{
		"LANG":   "en_US.UTF-8",
		"LC_ALL": "fr_FR.UTF-8",
	})))
	assert.Equal(t, "de_DE", envLocale(env(map[string]string{
		"LANG":        "en_US.UTF-8",
		"LC_MESSAGES": "de_DE",
	})))
	assert.Empty(t, envLocale(env(nil)))
}

func TestStoragePathsLinuxFallback(t *testing.T) {
	local, external := StoragePaths("linux", "RaptorFX", "", "/home/u", env(nil))
	assert.Equal(t, "/home/u/.local/share/raptorfx", local)
	assert.Equal(t, "/", external)

	local, external = StoragePaths("android", "", "com.example", "", env(nil))
	assert.Equal(t, "/data/data/com.example/files", local)
	assert.Equal(t, "/storage/emulated/0", external)
}

func TestSystem(t *testing.T) {
	s := NewSystem(Info{Arch: "x86_64", OS: "linux_6", Locale: "en_US"})
	assert.Equal(t, "platform", s.Name())
	assert.Equal(t, "x86_64", s.Arch())
	assert.Equal(t, "linux_6", s.OS())
	assert.Equal(t, "en_US", s.Locale())
}

func TestProcess(t *testing.T) {
	d := Process()
	require.NotNil(t, d)
	assert.Same(t, d, Process())
	assert.False(t, SetProcess(NewDescriptor()), "process descriptor is fixed after first use")

	if info, ok := d.Resolved(); ok {
		assert.Equal(t, info.LocalStorage, LocalStorage())
		assert.Equal(t, info.ExternalStorage, ExternalStorage())
	}
}

func TestExpandEnv(t *testing.T) {
	t.Setenv("RAPTORFX_TEST_DIR", "/opt/x")
	assert.Equal(t, "/opt/x/sounds", ExpandEnv("$RAPTORFX_TEST_DIR/sounds"))
	assert.Equal(t, "plain", ExpandEnv("plain"))
}

func TestFileExists(t *testing.T) {
	assert.True(t, FileExists(t.TempDir()))
	assert.False(t, FileExists("/definitely/not/here"))
}
