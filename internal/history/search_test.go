package history

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mindmorass/clipstack/internal/clipboard"
)

func searchFixture() []Item {
	s := NewStore(10)
	s.Insert(textItem("an example string"))
	s.Insert(textItem("https://example.com"))
	s.Insert(textItem("func main() {}"))
	s.Insert(Classify(clipboard.Snapshot{HasImage: true, Image: []byte{1}, Width: 2, Height: 2}, fixedNow))
	s.Insert(Classify(clipboard.Snapshot{HasHTML: true, HTML: "<i>Straße</i>"}, fixedNow))
	return s.Items()
}

func TestSearch_EmptyQueryReturnsEverythingInOrder(t *testing.T) {
	items := searchFixture()
	got := Search(items, "")
	assert.Equal(t, texts(items), texts(got))

	// New slice, not a view
	got[0].Text = "changed"
	assert.NotEqual(t, "changed", items[0].Text)
}

func TestSearch_CaseInsensitive(t *testing.T) {
	got := Search(searchFixture(), "EXAMPLE")
	assert.Equal(t, []string{"https://example.com", "an example string"}, texts(got))
}

func TestSearch_MatchesTypeLabel(t *testing.T) {
	got := Search(searchFixture(), "url")
	assert.Equal(t, []string{"https://example.com"}, texts(got))

	got = Search(searchFixture(), "image")
	assert.Equal(t, []string{"Image (2x2)"}, texts(got))
}

func TestSearch_FullCaseFolding(t *testing.T) {
	got := Search(searchFixture(), "STRASSE")
	assert.Equal(t, []string{"<i>Straße</i>"}, texts(got))
}

func TestSearch_TypeFilter(t *testing.T) {
	items := searchFixture()

	assert.Equal(t, []string{"https://example.com"}, texts(Search(items, "example", URL)))
	assert.Empty(t, Search(items, "example", Code))
	assert.Equal(t, []string{"func main() {}"}, texts(Search(items, "", Code)))
	assert.Equal(t,
		[]string{"func main() {}", "https://example.com"},
		texts(Search(items, "", URL, Code)))
}

func TestSearch_NoMatch(t *testing.T) {
	got := Search(searchFixture(), "nothing like this")
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestStore_Search(t *testing.T) {
	s := NewStore(10)
	s.Insert(textItem("alpha"))
	s.Insert(textItem("beta"))
	assert.Equal(t, []string{"alpha"}, texts(s.Search("ALP")))
}
