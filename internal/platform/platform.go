// Package platform resolves and caches the facts the bridge needs about the
// host: architecture, versioned OS identifier, locale and storage paths.
package platform

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
)

// ErrUnknown is returned when the architecture or OS is not recognised.
var ErrUnknown = errors.New("platform unknown")

// Defaults used when no option overrides them.
const (
	DefaultAppName   = "RaptorFX"
	DefaultPackageID = "dev.raptorfx.app"
	DefaultLocale    = "en_US"
)

// Info is the resolved platform description. It never changes after
// resolution.
type Info struct {
	Arch            string `json:"arch"`
	OS              string `json:"os"`
	Locale          string `json:"locale"`
	LocalStorage    string `json:"local_storage"`
	ExternalStorage string `json:"external_storage"`
	// Family is the GOOS-style selector used to choose backends.
	Family string `json:"family"`
	// Version is the raw OS version string, possibly empty.
	Version string `json:"version,omitempty"`
}

var archNames = map[string]string{
	"386":     "x86",
	"amd64":   "x86_64",
	"arm":     "arm",
	"arm64":   "arm64",
	"riscv64": "riscv64",
	"ppc64le": "ppc64le",
	"s390x":   "s390x",
	"loong64": "loong64",
}

var osNames = map[string]string{
	"windows":   "windows",
	"linux":     "linux",
	"darwin":    "macos",
	"android":   "android",
	"ios":       "ios",
	"freebsd":   "freebsd",
	"openbsd":   "openbsd",
	"netbsd":    "netbsd",
	"dragonfly": "dragonfly",
}

type descOptions struct {
	appName   string
	packageID string
	goos      string
	goarch    string
	getenv    func(string) string
	homeDir   func() (string, error)
	version   func() string
	locale    func() string
}

// Option configures a Descriptor.
type Option func(*descOptions)

// WithAppName sets the application name used in storage paths.
func WithAppName(name string) Option {
	return func(o *descOptions) { o.appName = name }
}

// WithPackageID sets the mobile package identifier.
func WithPackageID(id string) Option {
	return func(o *descOptions) { o.packageID = id }
}

// WithTarget overrides GOOS and GOARCH.
func WithTarget(goos, goarch string) Option {
	return func(o *descOptions) {
		o.goos = goos
		o.goarch = goarch
	}
}

// WithEnv replaces os.Getenv.
func WithEnv(getenv func(string) string) Option {
	return func(o *descOptions) { o.getenv = getenv }
}

// WithHomeDir replaces os.UserHomeDir.
func WithHomeDir(fn func() (string, error)) Option {
	return func(o *descOptions) { o.homeDir = fn }
}

// WithVersionProbe replaces the OS version probe.
func WithVersionProbe(fn func() string) Option {
	return func(o *descOptions) { o.version = fn }
}

// WithLocaleProbe replaces the raw locale probe.
func WithLocaleProbe(fn func() string) Option {
	return func(o *descOptions) { o.locale = fn }
}

// Descriptor resolves Info once and caches the result, including failure.
type Descriptor struct {
	opts descOptions

	once     sync.Once
	info     Info
	err      error
	resolved atomic.Bool
}

// NewDescriptor returns an unresolved descriptor.
func NewDescriptor(opts ...Option) *Descriptor {
	o := descOptions{
		appName:   DefaultAppName,
		packageID: DefaultPackageID,
		goos:      runtime.GOOS,
		goarch:    runtime.GOARCH,
		getenv:    os.Getenv,
		homeDir:   os.UserHomeDir,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.version == nil {
		o.version = probeVersion
	}
	if o.locale == nil {
		getenv := o.getenv
		o.locale = func() string { return probeLocale(getenv) }
	}
	return &Descriptor{opts: o}
}

// Resolve computes Info on the first call and returns the cached result
// afterwards.
func (d *Descriptor) Resolve() (Info, error) {
	d.once.Do(func() {
		d.info, d.err = d.resolve()
		if d.err == nil {
			d.resolved.Store(true)
		}
	})
	return d.info, d.err
}

// Resolved returns Info if Resolve has succeeded.
func (d *Descriptor) Resolved() (Info, bool) {
	if !d.resolved.Load() {
		return Info{}, false
	}
	return d.info, true
}

func (d *Descriptor) resolve() (Info, error) {
	o := d.opts
	arch, ok := archNames[o.goarch]
	if !ok {
		return Info{}, fmt.Errorf("%w: architecture %q", ErrUnknown, o.goarch)
	}
	name, ok := osNames[o.goos]
	if !ok {
		return Info{}, fmt.Errorf("%w: operating system %q", ErrUnknown, o.goos)
	}

	version := strings.TrimSpace(o.version())
	home, _ := o.homeDir()
	local, external := StoragePaths(o.goos, o.appName, o.packageID, home, o.getenv)

	return Info{
		Arch:            arch,
		OS:              osIdentifier(name, version),
		Locale:          CanonicalLocale(o.locale()),
		LocalStorage:    local,
		ExternalStorage: external,
		Family:          o.goos,
		Version:         version,
	}, nil
}

// osIdentifier builds "<name>_<major>". Windows 11 still reports major
// version 10 and is told apart by its build number.
func osIdentifier(name, version string) string {
	fields := strings.FieldsFunc(version, func(r rune) bool {
		return r == '.' || r == '-' || r == '+' || r == ' '
	})
	if len(fields) == 0 {
		return name
	}
	major, err := strconv.Atoi(fields[0])
	if err != nil {
		return name
	}
	if name == "windows" && major == 10 && len(fields) >= 3 {
		if build, err := strconv.Atoi(fields[2]); err == nil && build >= 22000 {
			major = 11
		}
	}
	return name + "_" + strconv.Itoa(major)
}

var (
	processOnce sync.Once
	process     *Descriptor
)

// Process returns the process-wide descriptor, resolved with default
// options on first use.
func Process() *Descriptor {
	processOnce.Do(func() {
		process = NewDescriptor()
		_, _ = process.Resolve()
	})
	return process
}

// SetProcess installs d as the process-wide descriptor. It only has an
// effect before the first call to Process and reports whether it did.
func SetProcess(d *Descriptor) bool {
	set := false
	processOnce.Do(func() {
		process = d
		_, _ = process.Resolve()
		set = true
	})
	return set
}

// LocalStorage returns the app-scoped data directory of the process.
func LocalStorage() string {
	info, _ := Process().Resolved()
	return info.LocalStorage
}

// ExternalStorage returns the external storage root of the process.
func ExternalStorage() string {
	info, _ := Process().Resolved()
	return info.ExternalStorage
}
