package guard

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// DefaultDebounceWindow is the quiet period required before a burst is ingested
const DefaultDebounceWindow = 100 * time.Millisecond

// Debouncer coalesces a burst of triggers into one call of fn, made once
// the window has passed with no further trigger. Each Trigger restarts the
// window. A window of zero or less calls fn on every Trigger.
//
// fn runs on its own goroutine and must not assume it is the only call in
// flight after Stop.
type Debouncer struct {
	clock  clockwork.Clock
	window time.Duration
	fn     func()

	mu      sync.Mutex
	timer   clockwork.Timer
	gen     uint64
	pending bool
}

// NewDebouncer creates a debouncer. A nil clock means the real clock.
func NewDebouncer(clock clockwork.Clock, window time.Duration, fn func()) *Debouncer {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Debouncer{clock: clock, window: window, fn: fn}
}

// Trigger records a signal and (re)starts the quiet period
func (d *Debouncer) Trigger() {
	if d.window <= 0 {
		d.fn()
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.gen++
	gen := d.gen
	d.pending = true
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = d.clock.AfterFunc(d.window, func() { go d.fire(gen) })
}

func (d *Debouncer) fire(gen uint64) {
	d.mu.Lock()
	if gen != d.gen || !d.pending {
		d.mu.Unlock()
		return
	}
	d.pending = false
	d.timer = nil
	d.mu.Unlock()

	d.fn()
}

// Pending reports whether a call is scheduled
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending
}

// Cancel drops any scheduled call
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.gen++
	d.pending = false
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
