package history

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/mindmorass/clipstack/internal/clipboard"
)

const (
	// PreviewLength is the maximum preview length in characters
	PreviewLength = 100

	// Ellipsis marks a truncated preview
	Ellipsis = "..."

	// UnknownFormat is the text of items built from unrecognized snapshots
	UnknownFormat = "Unknown format"
)

var (
	urlPattern  = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9+.\-]*://\S+$`)
	codePattern = regexp.MustCompile(`\b(function|class|import|export|const|let|var|if|else|for|while|return)\b|[{}();]|\s{4,}|\t`)
	filePattern = regexp.MustCompile(`^[/\\]?([^/\\]+[/\\])+[^/\\]+\.[A-Za-z0-9]+$`)
)

// Rule tags text with Type when Match reports true
type Rule struct {
	Type  ContentType
	Match func(text string) bool
}

// IsURL reports whether the trimmed text is a single scheme://... URL
func IsURL(text string) bool {
	return urlPattern.MatchString(strings.TrimSpace(text))
}

// IsCode reports whether the text looks like source code
func IsCode(text string) bool {
	return codePattern.MatchString(text) || strings.Contains(text, "```")
}

// IsFilePath reports whether the trimmed text is a path ending in a file extension
func IsFilePath(text string) bool {
	return filePattern.MatchString(strings.TrimSpace(text))
}

// DefaultRules returns the text heuristics in priority order
func DefaultRules() []Rule {
	return []Rule{
		{Type: URL, Match: IsURL},
		{Type: Code, Match: IsCode},
		{Type: File, Match: IsFilePath},
	}
}

// Classifier turns register snapshots into history items.
// Text-bearing snapshots run through Rules in order; the first match wins.
type Classifier struct {
	Rules        []Rule
	PreviewLimit int

	newID func() string
}

// NewClassifier creates a classifier; with no rules it uses DefaultRules
func NewClassifier(rules ...Rule) *Classifier {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	return &Classifier{
		Rules:        rules,
		PreviewLimit: PreviewLength,
		newID:        uuid.NewString,
	}
}

var defaultClassifier = NewClassifier()

// Classify classifies a snapshot with the default rules
func Classify(snap clipboard.Snapshot, now time.Time) Item {
	return defaultClassifier.Classify(snap, now)
}

// Detect returns the content type of plain text
func (c *Classifier) Detect(text string) ContentType {
	for _, rule := range c.Rules {
		if rule.Match(text) {
			return rule.Type
		}
	}
	return Text
}

// Classify builds an item from a snapshot. Priority: image, then markup,
// then text heuristics. Unrecognized shapes become "Unknown format" text.
func (c *Classifier) Classify(snap clipboard.Snapshot, now time.Time) Item {
	item := Item{ID: c.id(), CreatedAt: now}

	switch {
	case snap.HasImage && len(snap.Image) > 0:
		item.Type = Image
		item.Image = snap.Image
		item.Width = snap.Width
		item.Height = snap.Height
		item.Text = fmt.Sprintf("Image (%dx%d)", snap.Width, snap.Height)
		item.Preview = item.Text
	case snap.HasHTML && snap.HTML != "":
		item.Type = HTML
		item.Text = snap.HTML
	case snap.HasText:
		item.Text = snap.Text
		item.Type = c.Detect(snap.Text)
	default:
		item.Type = Text
		item.Text = UnknownFormat
	}

	if item.Type != Image {
		item.Preview = Preview(item.Text, c.previewLimit())
	}
	item.key = computeKey(item)
	return item
}

func (c *Classifier) id() string {
	if c.newID == nil {
		return uuid.NewString()
	}
	return c.newID()
}

func (c *Classifier) previewLimit() int {
	if c.PreviewLimit <= 0 {
		return PreviewLength
	}
	return c.PreviewLimit
}

// Preview collapses whitespace runs to single spaces, trims, and truncates
// to limit characters, appending Ellipsis only when something was cut
func Preview(text string, limit int) string {
	simplified := strings.Join(strings.Fields(text), " ")
	if utf8.RuneCountInString(simplified) <= limit {
		return simplified
	}
	runes := []rune(simplified)
	return string(runes[:limit]) + Ellipsis
}
