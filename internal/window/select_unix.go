//go:build (linux && !android) || freebsd || openbsd || netbsd

package window

import "github.com/raptorfx/bridge/internal/bridge"

func platformBackend(opts Options) (bridge.WindowBackend, error) {
	return NewX11(opts)
}
