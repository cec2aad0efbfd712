package bridge

import (
	"encoding/json"
	"fmt"
	"net/url"
)

// clipboardJSON is the wire form of ClipboardContent. Image bytes travel as
// base64.
type clipboardJSON struct {
	Kind ContentKind `json:"kind"`
	Text string      `json:"text,omitempty"`
	PNG  []byte      `json:"png,omitempty"`
}

func (c ClipboardContent) MarshalJSON() ([]byte, error) {
	w := clipboardJSON{Kind: c.Kind}
	if c.Kind == KindImage {
		w.PNG = c.Image.PNG
	} else {
		w.Kind = KindText
		w.Text = c.Text
	}
	return json.Marshal(w)
}

func (c *ClipboardContent) UnmarshalJSON(data []byte) error {
	var w clipboardJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	switch w.Kind {
	case KindImage:
		*c = ClipboardContent{Kind: KindImage, Image: ImageHandle{PNG: w.PNG}}
	case KindText, "":
		*c = TextContent(w.Text)
	default:
		return fmt.Errorf("unknown clipboard kind %q", w.Kind)
	}
	return nil
}

type notificationJSON struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Icon        string `json:"icon,omitempty"`
}

func (d NotificationData) MarshalJSON() ([]byte, error) {
	return json.Marshal(notificationJSON{
		Title:       d.Title,
		Description: d.Description,
		Icon:        d.IconString(),
	})
}

func (d *NotificationData) UnmarshalJSON(data []byte) error {
	var w notificationJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	out := NotificationData{Title: w.Title, Description: w.Description}
	if w.Icon != "" {
		u, err := url.Parse(w.Icon)
		if err != nil {
			return fmt.Errorf("icon: %w", err)
		}
		out.Icon = u
	}
	*d = out
	return nil
}
