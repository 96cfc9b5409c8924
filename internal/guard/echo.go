// Package guard holds the timing guards that sit between register change
// signals and ingestion: echo suppression for our own writes and a
// trailing-edge debouncer for bursts.
package guard

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// DefaultEchoWindow is how long after a write-back change signals are ignored
const DefaultEchoWindow = 100 * time.Millisecond

// Echo suppresses change signals caused by our own writes.
// Arm starts (or restarts) a fixed window; Suppress reports whether the
// current time is still inside it.
type Echo struct {
	clock  clockwork.Clock
	window time.Duration

	mu    sync.Mutex
	until time.Time
}

// NewEcho creates an echo guard. A nil clock means the real clock.
func NewEcho(clock clockwork.Clock, window time.Duration) *Echo {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Echo{clock: clock, window: window}
}

// Arm opens the suppression window starting now
func (e *Echo) Arm() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.until = e.clock.Now().Add(e.window)
}

// Suppress reports whether a signal arriving now should be dropped
func (e *Echo) Suppress() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.clock.Now().Before(e.until)
}

// Disarm closes the window early
func (e *Echo) Disarm() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.until = time.Time{}
}

// Window returns the configured window length
func (e *Echo) Window() time.Duration {
	return e.window
}
