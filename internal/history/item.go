// Package history implements the clipboard history core: classification of
// register snapshots into typed items, a bounded deduplicating store, search,
// and synchronous change notification.
package history

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"

	"github.com/mindmorass/clipstack/internal/clipboard"
)

// ContentType categorizes a history item
type ContentType int

const (
	Text ContentType = iota
	Image
	HTML
	URL
	File
	Code
)

// ContentTypes lists every content type in display order
var ContentTypes = []ContentType{Text, Image, HTML, URL, File, Code}

// String returns the human-readable type label
func (t ContentType) String() string {
	switch t {
	case Text:
		return "Text"
	case Image:
		return "Image"
	case HTML:
		return "HTML"
	case URL:
		return "URL"
	case File:
		return "File"
	case Code:
		return "Code"
	default:
		return "Unknown"
	}
}

// ParseContentType maps a label (any case) back to its type
func ParseContentType(label string) (ContentType, error) {
	for _, t := range ContentTypes {
		if strings.EqualFold(t.String(), label) {
			return t, nil
		}
	}
	return Text, fmt.Errorf("unknown content type %q", label)
}

// Key identifies equivalent history entries
type Key struct {
	Type   ContentType
	Digest string
}

// Item is one classified snapshot. Items are values and are never
// modified after classification; Image must be treated as read-only.
type Item struct {
	ID        string
	Text      string
	Image     []byte
	Width     int
	Height    int
	Type      ContentType
	Preview   string
	CreatedAt time.Time

	key Key
}

// Key returns the dedup key: NFC-normalized text for text-bearing items,
// SHA-256 of the encoded bytes for images
func (i Item) Key() Key {
	if i.key.Digest != "" {
		return i.key
	}
	return computeKey(i)
}

func computeKey(i Item) Key {
	if i.Type == Image {
		sum := sha256.Sum256(i.Image)
		return Key{Type: Image, Digest: hex.EncodeToString(sum[:])}
	}
	return Key{Type: i.Type, Digest: "t:" + norm.NFC.String(i.Text)}
}

// Size returns the payload size in bytes
func (i Item) Size() int {
	if i.Type == Image {
		return len(i.Image)
	}
	return len(i.Text)
}

// Snapshot converts the item back into register content for write-back
func (i Item) Snapshot() clipboard.Snapshot {
	switch i.Type {
	case Image:
		return clipboard.Snapshot{HasImage: true, Image: i.Image, Width: i.Width, Height: i.Height}
	case HTML:
		return clipboard.Snapshot{HasHTML: true, HTML: i.Text}
	default:
		return clipboard.TextSnapshot(i.Text)
	}
}

// FormatAge renders t relative to now for list displays
func FormatAge(t, now time.Time) string {
	ago := now.Sub(t)
	switch {
	case ago < time.Minute:
		return "Just now"
	case ago < time.Hour:
		return plural(int(ago/time.Minute), "minute") + " ago"
	case ago < 24*time.Hour:
		return plural(int(ago/time.Hour), "hour") + " ago"
	default:
		return t.Format("Jan 02, 15:04")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
