package history

import (
	"bytes"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mindmorass/clipstack/internal/clipboard"
)

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func TestClassify_Determinism(t *testing.T) {
	tests := []struct {
		text string
		want ContentType
	}{
		{"https://example.com", URL},
		{"function f(){}", Code},
		{"/usr/local/bin/file.txt", File},
		{"hello world", Text},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			first := Classify(clipboard.TextSnapshot(tt.text), fixedNow)
			again := Classify(clipboard.TextSnapshot(tt.text), fixedNow.Add(72*time.Hour))

			assert.Equal(t, tt.want, first.Type)
			assert.Equal(t, first.Type, again.Type)
			assert.Equal(t, first.Preview, again.Preview)
			assert.Equal(t, first.Key(), again.Key())
			assert.NotEqual(t, first.ID, again.ID, "each capture gets its own id")
		})
	}
}

func TestClassify_Corpus(t *testing.T) {
	corpus := []struct {
		name string
		text string
	}{
		{"url", "https://example.com"},
		{"url-padded", "  https://example.com/path?q=1  "},
		{"url-ftp", "ftp://files.example.org/pub"},
		{"url-in-sentence", "see https://example.com"},
		{"code-function", "function f(){}"},
		{"code-const", "const x = 1"},
		{"code-tab", "a\tb"},
		{"code-fence", "```go\nfmt.Println()\n```"},
		{"code-keyword-prose", "if you want"},
		{"file-unix", "/usr/local/bin/file.txt"},
		{"file-relative", "docs/readme.md"},
		{"file-windows", `C:\Users\me\notes.txt`},
		{"text-bare-filename", "notes.txt"},
		{"text", "hello world"},
		{"text-whitespace", "  lots   of\n\nspace  "},
		{"text-long", strings.Repeat("a", 150)},
	}

	var buf bytes.Buffer
	for _, c := range corpus {
		item := Classify(clipboard.TextSnapshot(c.text), fixedNow)
		fmt.Fprintf(&buf, "%s\t%s\t%s\n", c.name, item.Type, item.Preview)
	}
	html := Classify(clipboard.Snapshot{HasHTML: true, HTML: "<p>Hello <b>world</b></p>"}, fixedNow)
	fmt.Fprintf(&buf, "html\t%s\t%s\n", html.Type, html.Preview)
	unknown := Classify(clipboard.Snapshot{}, fixedNow)
	fmt.Fprintf(&buf, "unknown\t%s\t%s\n", unknown.Type, unknown.Preview)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "classify_corpus", buf.Bytes())
}

func TestClassify_Priority(t *testing.T) {
	png := []byte{0x89, 'P', 'N', 'G'}

	tests := []struct {
		name     string
		snap     clipboard.Snapshot
		wantType ContentType
		wantText string
	}{
		{
			name:     "image beats markup and text",
			snap:     clipboard.Snapshot{HasImage: true, Image: png, Width: 640, Height: 480, HasHTML: true, HTML: "<p>x</p>", HasText: true, Text: "x"},
			wantType: Image,
			wantText: "Image (640x480)",
		},
		{
			name:     "markup beats text heuristics",
			snap:     clipboard.Snapshot{HasHTML: true, HTML: "<a href=\"https://example.com\">x</a>", HasText: true, Text: "https://example.com"},
			wantType: HTML,
			wantText: "<a href=\"https://example.com\">x</a>",
		},
		{
			name:     "image flag without bytes falls through",
			snap:     clipboard.Snapshot{HasImage: true, HasText: true, Text: "hello"},
			wantType: Text,
			wantText: "hello",
		},
		{
			name:     "no flags",
			snap:     clipboard.Snapshot{},
			wantType: Text,
			wantText: UnknownFormat,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := Classify(tt.snap, fixedNow)
			assert.Equal(t, tt.wantType, item.Type)
			assert.Equal(t, tt.wantText, item.Text)
			assert.Equal(t, fixedNow, item.CreatedAt)
		})
	}
}

func TestClassify_ImagePreviewIsDescriptor(t *testing.T) {
	item := Classify(clipboard.Snapshot{HasImage: true, Image: []byte{1}, Width: 3, Height: 2}, fixedNow)
	assert.Equal(t, "Image (3x2)", item.Preview)
	assert.Equal(t, item.Text, item.Preview)
	assert.Equal(t, 3, item.Width)
}

func TestPreview(t *testing.T) {
	long := strings.Repeat("x", 150)
	got := Preview(long, 100)
	assert.Len(t, got, 103)
	assert.True(t, strings.HasSuffix(got, Ellipsis))

	short := strings.Repeat("y", 50)
	assert.Equal(t, short, Preview(short, 100))

	exact := strings.Repeat("z", 100)
	assert.Equal(t, exact, Preview(exact, 100), "no marker when it already fits")

	assert.Equal(t, "a b c", Preview("\n a \t\t b\r\n  c \n", 100))
}

func TestPreview_CountsCharactersNotBytes(t *testing.T) {
	text := strings.Repeat("é", 120)
	got := Preview(text, 100)
	assert.Equal(t, strings.Repeat("é", 100)+Ellipsis, got)
}

func TestClassifier_CustomRules(t *testing.T) {
	onlyFiles := NewClassifier(Rule{Type: File, Match: IsFilePath})
	assert.Equal(t, Text, onlyFiles.Detect("https://example.com"))
	assert.Equal(t, File, onlyFiles.Detect("a/b.go"))

	// Reordered: file before code
	reordered := NewClassifier(
		Rule{Type: File, Match: IsFilePath},
		Rule{Type: Code, Match: IsCode},
	)
	assert.Equal(t, File, reordered.Detect("src/main(1).go"))
	assert.Equal(t, Code, NewClassifier().Detect("src/main(1).go"))
}

func TestClassifier_PreviewLimit(t *testing.T) {
	c := NewClassifier()
	c.PreviewLimit = 5
	item := c.Classify(clipboard.TextSnapshot("hello world"), fixedNow)
	assert.Equal(t, "hello...", item.Preview)
}

func TestRules(t *testing.T) {
	t.Run("url", func(t *testing.T) {
		assert.True(t, IsURL("http://a.b"))
		assert.True(t, IsURL("  custom+scheme://thing  "))
		assert.False(t, IsURL("https://exa mple.com"))
		assert.False(t, IsURL("example.com"))
		assert.False(t, IsURL("://missing"))
	})

	t.Run("code", func(t *testing.T) {
		assert.True(t, IsCode("return"))
		assert.True(t, IsCode("x;"))
		assert.True(t, IsCode("a    b"))
		assert.True(t, IsCode("```"))
		assert.False(t, IsCode("information"), "keywords must be whole tokens")
		assert.False(t, IsCode("plain prose"))
	})

	t.Run("file", func(t *testing.T) {
		assert.True(t, IsFilePath("/etc/hosts.conf"))
		assert.True(t, IsFilePath("a/b/c.tar.gz"))
		assert.False(t, IsFilePath("/etc/hosts"))
		assert.False(t, IsFilePath("readme.md"))
	})
}

func TestParseContentType(t *testing.T) {
	for _, ct := range ContentTypes {
		got, err := ParseContentType(strings.ToLower(ct.String()))
		require.NoError(t, err)
		assert.Equal(t, ct, got)
	}

	_, err := ParseContentType("video")
	assert.Error(t, err)
}
