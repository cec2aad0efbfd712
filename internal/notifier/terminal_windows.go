//go:build windows

package notifier

import (
	"context"
	"fmt"

	"github.com/go-toast/toast"

	"github.com/raptorfx/bridge/internal/bridge"
)

var _ bridge.ToastBackend = (*Notifier)(nil)

func platformChain(opts Options) []sender {
	return []sender{newBeeep(opts)}
}

// Toast shows a silent toast through the Windows Action Center.
func (n *Notifier) Toast(ctx context.Context, text string, length bridge.ToastLength) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t := toast.Notification{
		AppID:    n.opts.AppName,
		Title:    n.opts.AppName,
		Message:  text,
		Icon:     n.opts.AppIcon,
		Duration: toast.Short,
		Audio:    toast.Silent,
	}
	if length == bridge.ToastLong {
		t.Duration = toast.Long
	}
	if err := t.Push(); err != nil {
		return fmt.Errorf("toast: %w", err)
	}
	return nil
}
