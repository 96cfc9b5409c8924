package ui

import (
	"sync"

	"github.com/mindmorass/clipstack/internal/history"
)

// slotTable remembers which history item each menu slot shows, so a click
// restores that item even if the history moved since the last render
type slotTable struct {
	mu  sync.Mutex
	ids []string
}

func newSlotTable(n int) *slotTable {
	return &slotTable{ids: make([]string, n)}
}

// set records the items rendered into the slots; slots past the end are cleared
func (t *slotTable) set(items []history.Item) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := range t.ids {
		if i < len(items) {
			t.ids[i] = items[i].ID
		} else {
			t.ids[i] = ""
		}
	}
}

// id returns the item ID shown in slot i
func (t *slotTable) id(i int) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if i < 0 || i >= len(t.ids) || t.ids[i] == "" {
		return "", false
	}
	return t.ids[i], true
}
