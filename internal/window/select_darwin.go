//go:build darwin && !ios

package window

import "github.com/raptorfx/bridge/internal/bridge"

func platformBackend(opts Options) (bridge.WindowBackend, error) {
	return NewMacOS(opts)
}
