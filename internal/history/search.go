package history

import (
	"slices"
	"strings"

	"golang.org/x/text/cases"
)

// Search filters items, keeping their order. An empty query matches
// everything; otherwise the case-folded query must occur in the raw text,
// the preview or the type label. When types are given, results are further
// restricted to those types. The result never aliases items.
func Search(items []Item, query string, types ...ContentType) []Item {
	// Casers carry state and cannot be shared between goroutines
	fold := cases.Fold()
	needle := fold.String(query)

	results := make([]Item, 0, len(items))
	for _, item := range items {
		if len(types) > 0 && !slices.Contains(types, item.Type) {
			continue
		}
		if needle != "" && !matches(fold, item, needle) {
			continue
		}
		results = append(results, item)
	}
	return results
}

func matches(fold cases.Caser, item Item, needle string) bool {
	return strings.Contains(fold.String(item.Text), needle) ||
		strings.Contains(fold.String(item.Preview), needle) ||
		strings.Contains(fold.String(item.Type.String()), needle)
}
