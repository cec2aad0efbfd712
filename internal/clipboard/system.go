//go:build (linux && !android) || darwin || windows

package clipboard

import (
	"context"
	"fmt"

	xclip "golang.design/x/clipboard"

	"github.com/raptorfx/bridge/internal/bridge"
)

// System drives the OS clipboard.
type System struct{}

var _ bridge.ClipboardBackend = (*System)(nil)

func newSystem() (bridge.ClipboardBackend, error) {
	if err := xclip.Init(); err != nil {
		return nil, fmt.Errorf("init system clipboard: %w", err)
	}
	return &System{}, nil
}

func (s *System) Name() string { return "system" }

// Read prefers an image over text when both formats are present.
func (s *System) Read(ctx context.Context) (bridge.ClipboardContent, error) {
	if img := xclip.Read(xclip.FmtImage); len(img) > 0 {
		return bridge.ImageContent(img), nil
	}
	if err := ctx.Err(); err != nil {
		return bridge.ClipboardContent{}, err
	}
	return bridge.TextContent(string(xclip.Read(xclip.FmtText))), nil
}

func (s *System) Write(_ context.Context, c bridge.ClipboardContent) error {
	switch c.Kind {
	case bridge.KindText:
		xclip.Write(xclip.FmtText, []byte(c.Text))
	case bridge.KindImage:
		xclip.Write(xclip.FmtImage, c.Image.PNG)
	default:
		return fmt.Errorf("unsupported content kind: %s", c.Kind)
	}
	return nil
}

func (s *System) Clear(context.Context) error {
	xclip.Write(xclip.FmtText, []byte{})
	return nil
}
