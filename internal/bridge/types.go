package bridge

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"net/url"
	"time"
)

// Capability names one functional domain exposed by the bridge.
type Capability string

const (
	CapClipboard     Capability = "clipboard"
	CapNotifications Capability = "notifications"
	CapWindow        Capability = "window"
	CapSystem        Capability = "system"
)

// ContentKind discriminates ClipboardContent.
type ContentKind string

const (
	KindText  ContentKind = "text"
	KindImage ContentKind = "image"
)

// ImageHandle is a PNG-encoded clipboard image.
type ImageHandle struct {
	PNG []byte
}

// Decode parses the PNG payload.
func (h ImageHandle) Decode() (image.Image, error) {
	return png.Decode(bytes.NewReader(h.PNG))
}

// ImageFrom encodes img as a PNG handle.
func ImageFrom(img image.Image) (ImageHandle, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return ImageHandle{}, fmt.Errorf("encode png: %w", err)
	}
	return ImageHandle{PNG: buf.Bytes()}, nil
}

// ClipboardContent is either text or an image, never both.
type ClipboardContent struct {
	Kind  ContentKind
	Text  string
	Image ImageHandle
}

// TextContent returns text clipboard content.
func TextContent(s string) ClipboardContent {
	return ClipboardContent{Kind: KindText, Text: s}
}

// ImageContent returns image clipboard content holding a copy of pngData.
func ImageContent(pngData []byte) ClipboardContent {
	return ClipboardContent{Kind: KindImage, Image: ImageHandle{PNG: append([]byte(nil), pngData...)}}
}

// IsEmpty reports whether c carries no payload.
func (c ClipboardContent) IsEmpty() bool {
	switch c.Kind {
	case KindImage:
		return len(c.Image.PNG) == 0
	default:
		return c.Text == ""
	}
}

// NotificationData is the payload of a notification push.
type NotificationData struct {
	Title       string
	Description string
	Icon        *url.URL
}

// IconString returns the icon URL as a string, or "".
func (d NotificationData) IconString() string {
	if d.Icon == nil {
		return ""
	}
	return d.Icon.String()
}

// IconPath returns the local file path for file:// icons, or "".
func (d NotificationData) IconPath() string {
	if d.Icon == nil || d.Icon.Scheme != "file" {
		return ""
	}
	return d.Icon.Path
}

// NotificationMode selects SINGLE or GROUP delivery.
type NotificationMode string

const (
	ModeSingle NotificationMode = "single"
	ModeGroup  NotificationMode = "group"
)

// ToastLength hints how long a toast stays on screen.
type ToastLength string

const (
	ToastShort ToastLength = "short"
	ToastLong  ToastLength = "long"
)

// PositionData is window geometry. It is a value type; every get and set
// hands out a copy.
type PositionData struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Height int `json:"height"`
	Width  int `json:"width"`
}

// WindowBarMode selects the behaviour of StatusBarColor.
type WindowBarMode string

const (
	BarSet WindowBarMode = "set"
	BarGet WindowBarMode = "get"
)

// Variables are the read-only platform storage paths.
type Variables struct {
	LocalStorage    string `json:"local_storage"`
	ExternalStorage string `json:"external_storage"`
}

// Delivery is one queued notification as handed to the backend.
type Delivery struct {
	ID         string           `json:"id"`
	Seq        uint64           `json:"seq"`
	Data       NotificationData `json:"data"`
	Mode       NotificationMode `json:"mode"`
	GroupKey   string           `json:"group_key,omitempty"`
	EnqueuedAt time.Time        `json:"enqueued_at"`
}
