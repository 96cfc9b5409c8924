package ui

import (
	"fmt"
	"time"

	"github.com/mindmorass/clipstack/internal/engine"
	"github.com/mindmorass/clipstack/internal/history"
)

// SlotWidth is the preview length shown in a recent-item menu entry
const SlotWidth = 40

func statusTitle(status engine.Status) string {
	switch status {
	case engine.StatusWatching:
		return "Status: Watching ✓"
	case engine.StatusPaused:
		return "Status: Paused ⏸"
	case engine.StatusError:
		return "Status: Error ⚠"
	default:
		return "Status: " + status.String()
	}
}

func countTitle(n, limit int) string {
	return fmt.Sprintf("%d of %d items", n, limit)
}

func lastCaptureTitle(t, now time.Time) string {
	if t.IsZero() {
		return "Last capture: Never"
	}
	return "Last capture: " + history.FormatAge(t, now)
}

func slotTitle(item history.Item, now time.Time) string {
	return fmt.Sprintf("%s  [%s, %s]", history.Preview(item.Preview, SlotWidth), item.Type, history.FormatAge(item.CreatedAt, now))
}

func sizeTitle(n int) string {
	return fmt.Sprintf("%d items", n)
}
