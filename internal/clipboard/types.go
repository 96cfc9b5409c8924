package clipboard

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"image"
	_ "image/png" // register PNG for DecodeConfig
	"os"
	"time"

	"github.com/google/uuid"
)

// ContentType represents the type of register content
type ContentType string

const (
	ContentTypeText  ContentType = "text"
	ContentTypeHTML  ContentType = "html"
	ContentTypeImage ContentType = "image"
)

// Snapshot is a point-in-time reading of the shared register.
// An empty register yields a Snapshot with every flag false.
type Snapshot struct {
	HasImage bool
	HasHTML  bool
	HasText  bool

	Text string
	HTML string

	// Image holds PNG encoded pixel data
	Image  []byte
	Width  int
	Height int
}

// IsEmpty reports whether the snapshot carries no usable content
func (s Snapshot) IsEmpty() bool {
	return !s.HasImage && !s.HasHTML && !s.HasText
}

// Size returns the payload size in bytes
func (s Snapshot) Size() int {
	switch {
	case s.HasImage:
		return len(s.Image)
	case s.HasHTML:
		return len(s.HTML)
	default:
		return len(s.Text)
	}
}

// ImageSnapshot builds an image snapshot, reading the dimensions from the PNG header
func ImageSnapshot(data []byte) Snapshot {
	snap := Snapshot{HasImage: len(data) > 0, Image: data}
	if cfg, _, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
		snap.Width = cfg.Width
		snap.Height = cfg.Height
	}
	return snap
}

// TextSnapshot builds a plain text snapshot
func TextSnapshot(text string) Snapshot {
	return Snapshot{HasText: text != "", Text: text}
}

// Content is a register record: one snapshot plus provenance, as stored in
// a shared register file
type Content struct {
	ID            string      `json:"id"`
	Timestamp     time.Time   `json:"timestamp"`
	SourceMachine string      `json:"source_machine"`
	SourceUser    string      `json:"source_user"`
	ContentType   ContentType `json:"content_type"`
	MimeType      string      `json:"mime_type"`
	Checksum      string      `json:"checksum"`
	Size          int64       `json:"size"`
	Width         int         `json:"width,omitempty"`
	Height        int         `json:"height,omitempty"`
	Data          []byte      `json:"-"` // Payload data, not serialized in header
}

// NewContent wraps a snapshot into a register record.
// Returns nil for an empty snapshot.
func NewContent(snap Snapshot) *Content {
	c := &Content{
		ID:        uuid.New().String(),
		Timestamp: time.Now().UTC(),
	}
	c.SourceMachine, _ = os.Hostname()
	c.SourceUser = os.Getenv("USER")

	switch {
	case snap.HasImage && len(snap.Image) > 0:
		c.ContentType = ContentTypeImage
		c.MimeType = "image/png"
		c.Data = snap.Image
		c.Width = snap.Width
		c.Height = snap.Height
	case snap.HasHTML && snap.HTML != "":
		c.ContentType = ContentTypeHTML
		c.MimeType = "text/html"
		c.Data = []byte(snap.HTML)
	case snap.HasText && snap.Text != "":
		c.ContentType = ContentTypeText
		c.MimeType = "text/plain"
		c.Data = []byte(snap.Text)
	default:
		return nil
	}

	checksum := sha256.Sum256(c.Data)
	c.Checksum = hex.EncodeToString(checksum[:])
	c.Size = int64(len(c.Data))
	return c
}

// Snapshot converts the record back into a register snapshot
func (c *Content) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	switch c.ContentType {
	case ContentTypeImage:
		snap := Snapshot{HasImage: len(c.Data) > 0, Image: c.Data, Width: c.Width, Height: c.Height}
		if snap.Width == 0 || snap.Height == 0 {
			snap = ImageSnapshot(c.Data)
		}
		return snap
	case ContentTypeHTML:
		return Snapshot{HasHTML: len(c.Data) > 0, HTML: string(c.Data)}
	case ContentTypeText:
		return TextSnapshot(string(c.Data))
	default:
		return Snapshot{}
	}
}

// IsText returns true if content is text-based
func (c *Content) IsText() bool {
	return c.ContentType == ContentTypeText || c.ContentType == ContentTypeHTML
}

// IsImage returns true if content is an image
func (c *Content) IsImage() bool {
	return c.ContentType == ContentTypeImage
}
