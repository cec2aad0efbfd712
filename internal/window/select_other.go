//go:build !((linux && !android) || freebsd || openbsd || netbsd || (darwin && !ios) || windows)

package window

import (
	"errors"

	"github.com/raptorfx/bridge/internal/bridge"
)

func platformBackend(Options) (bridge.WindowBackend, error) {
	return nil, errors.New("no native window control on this platform")
}
