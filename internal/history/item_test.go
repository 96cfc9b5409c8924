package history

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/mindmorass/clipstack/internal/clipboard"
)

func TestContentType_String(t *testing.T) {
	labels := map[ContentType]string{
		Text: "Text", Image: "Image", HTML: "HTML", URL: "URL", File: "File", Code: "Code",
		ContentType(99): "Unknown",
	}
	for ct, want := range labels {
		assert.Equal(t, want, ct.String())
	}
}

func TestItem_SnapshotRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		snap clipboard.Snapshot
	}{
		{"text", clipboard.TextSnapshot("hello")},
		{"url", clipboard.TextSnapshot("https://example.com")},
		{"html", clipboard.Snapshot{HasHTML: true, HTML: "<b>x</b>"}},
		{"image", clipboard.Snapshot{HasImage: true, Image: []byte{1, 2, 3}, Width: 1, Height: 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := Classify(tt.snap, fixedNow)
			again := Classify(item.Snapshot(), fixedNow)
			assert.Equal(t, item.Key(), again.Key(), "write-back reads back as the same entry")
		})
	}
}

func TestItem_Size(t *testing.T) {
	assert.Equal(t, 5, textItem("hello").Size())
	img := Classify(clipboard.Snapshot{HasImage: true, Image: make([]byte, 42)}, fixedNow)
	assert.Equal(t, 42, img.Size())
}

func TestFormatAge(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		ago  time.Duration
		want string
	}{
		{10 * time.Second, "Just now"},
		{time.Minute, "1 minute ago"},
		{5 * time.Minute, "5 minutes ago"},
		{time.Hour, "1 hour ago"},
		{23 * time.Hour, "23 hours ago"},
		{48 * time.Hour, "Apr 29, 12:00"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatAge(now.Add(-tt.ago), now), tt.ago.String())
	}
}
