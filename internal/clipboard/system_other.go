//go:build !((linux && !android) || darwin || windows)

package clipboard

import (
	"errors"

	"github.com/raptorfx/bridge/internal/bridge"
)

func newSystem() (bridge.ClipboardBackend, error) {
	return nil, errors.New("no system clipboard on this platform")
}
