package bridge

import (
	"bytes"
	"image/png"
	"regexp"
	"strings"
)

// maxCoordinate bounds window coordinates and sizes.
const maxCoordinate = 1 << 20

var hexColorRe = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6}|[0-9a-fA-F]{8})$`)

func validatePosition(p PositionData) error {
	if p.Width <= 0 || p.Height <= 0 {
		return invalid(CapWindow, "position", "width and height must be positive, got %dx%d", p.Width, p.Height)
	}
	if p.Width > maxCoordinate || p.Height > maxCoordinate {
		return invalid(CapWindow, "position", "size %dx%d out of range", p.Width, p.Height)
	}
	if abs(p.X) > maxCoordinate || abs(p.Y) > maxCoordinate {
		return invalid(CapWindow, "position", "coordinates (%d,%d) out of range", p.X, p.Y)
	}
	return nil
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func validateHex(hex string) error {
	if !hexColorRe.MatchString(hex) {
		return invalid(CapWindow, "statusBarColor", "invalid hex colour %q", hex)
	}
	return nil
}

func validateNotification(d NotificationData) error {
	if strings.TrimSpace(d.Title) == "" {
		return invalid(CapNotifications, "push", "title is required")
	}
	if d.Icon == nil {
		return nil
	}
	if !d.Icon.IsAbs() {
		return invalid(CapNotifications, "push", "icon must be an absolute URL, got %q", d.Icon.String())
	}
	switch d.Icon.Scheme {
	case "file", "http", "https", "data":
		return nil
	default:
		return invalid(CapNotifications, "push", "unsupported icon scheme %q", d.Icon.Scheme)
	}
}

func validateMode(m NotificationMode) error {
	switch m {
	case ModeSingle, ModeGroup:
		return nil
	}
	return invalid(CapNotifications, "push", "unknown mode %q", m)
}

func validateToast(text string, length ToastLength) error {
	if strings.TrimSpace(text) == "" {
		return invalid(CapNotifications, "createToast", "text is required")
	}
	switch length {
	case ToastShort, ToastLong:
		return nil
	}
	return invalid(CapNotifications, "createToast", "unknown length %q", length)
}

func validateClipboard(c ClipboardContent) error {
	switch c.Kind {
	case KindText:
		return nil
	case KindImage:
		if len(c.Image.PNG) == 0 {
			return invalid(CapClipboard, "push", "image content is empty")
		}
		if _, err := png.DecodeConfig(bytes.NewReader(c.Image.PNG)); err != nil {
			return invalid(CapClipboard, "push", "image is not a PNG: %v", err)
		}
		return nil
	}
	return invalid(CapClipboard, "push", "unknown content kind %q", c.Kind)
}

// normalizeClipboard tags untyped or empty reads as text.
func normalizeClipboard(c ClipboardContent) ClipboardContent {
	if c.Kind == KindImage && len(c.Image.PNG) > 0 {
		return ImageContent(c.Image.PNG)
	}
	return TextContent(c.Text)
}

// IsHexColor reports whether s is a #RGB, #RRGGBB or #RRGGBBAA colour.
func IsHexColor(s string) bool {
	return hexColorRe.MatchString(s)
}
