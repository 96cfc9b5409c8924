// Package engine drives clipboard capture. A single loop goroutine owns
// the history store: source change signals, debounce firings and every
// mutating API call are delivered to it through a mailbox, so the store
// only ever has one writer.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/mindmorass/clipstack/internal/clipboard"
	"github.com/mindmorass/clipstack/internal/guard"
	"github.com/mindmorass/clipstack/internal/history"
)

// DefaultMaxItemBytes caps the size of a single captured item
const DefaultMaxItemBytes = 10 << 20

const snapshotTimeout = 5 * time.Second

// ErrClosed is returned by calls made after Close
var ErrClosed = errors.New("engine closed")

// Options configures an Engine. A zero MaxHistorySize or MaxItemBytes
// selects the default; a zero EchoWindow or DebounceWindow disables that
// guard. Start from DefaultOptions for the stock windows.
type Options struct {
	MaxHistorySize int
	EchoWindow     time.Duration
	DebounceWindow time.Duration
	MaxItemBytes   int
	Clock          clockwork.Clock
	Classifier     *history.Classifier
	Verbose        bool
}

// DefaultOptions returns the stock configuration
func DefaultOptions() Options {
	return Options{
		MaxHistorySize: history.DefaultCapacity,
		EchoWindow:     guard.DefaultEchoWindow,
		DebounceWindow: guard.DefaultDebounceWindow,
		MaxItemBytes:   DefaultMaxItemBytes,
	}
}

// Engine captures register changes into a bounded history.
//
// Subscribers registered with Subscribe or OnItemAdded run on the loop
// goroutine. They may read from the engine but must not call its mutating
// methods synchronously; doing so deadlocks the loop.
type Engine struct {
	source     clipboard.Source
	store      *history.Store
	classifier *history.Classifier
	echo       *guard.Echo
	debounce   *guard.Debouncer
	clock      clockwork.Clock

	maxItemBytes int
	verbose      bool

	queue   *mailbox
	stopped chan struct{}

	status          Status
	lastError       error
	lastCaptureTime time.Time
	onStatusChange  StatusHandler

	paused  bool
	running bool
	mu      sync.Mutex
}

// New creates an engine reading from source and starts its loop.
// Capture begins with Start; Close releases the loop.
func New(source clipboard.Source, opts Options) *Engine {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Classifier == nil {
		opts.Classifier = history.NewClassifier()
	}
	if opts.MaxHistorySize == 0 {
		opts.MaxHistorySize = history.DefaultCapacity
	}
	if opts.MaxItemBytes == 0 {
		opts.MaxItemBytes = DefaultMaxItemBytes
	}

	e := &Engine{
		source:       source,
		store:        history.NewStore(opts.MaxHistorySize),
		classifier:   opts.Classifier,
		echo:         guard.NewEcho(opts.Clock, opts.EchoWindow),
		clock:        opts.Clock,
		maxItemBytes: opts.MaxItemBytes,
		verbose:      opts.Verbose,
		queue:        newMailbox(),
		stopped:      make(chan struct{}),
		status:       StatusIdle,
	}
	e.debounce = guard.NewDebouncer(opts.Clock, opts.DebounceWindow, func() {
		e.queue.Enqueue(event{kind: eventIngest})
	})

	source.OnChange(func() {
		e.queue.Enqueue(event{kind: eventSignal})
	})

	go e.run()
	return e
}

func (e *Engine) run() {
	defer close(e.stopped)

	for {
		if ev, ok := e.queue.TryDequeue(); ok {
			e.handle(ev)
			continue
		}
		if _, open := <-e.queue.Wait(); !open {
			for ev, ok := e.queue.TryDequeue(); ok; ev, ok = e.queue.TryDequeue() {
				e.handle(ev)
			}
			return
		}
	}
}

func (e *Engine) handle(ev event) {
	switch ev.kind {
	case eventSignal:
		e.onSignal()
	case eventIngest:
		e.ingest()
	case eventCall:
		ev.fn()
		close(ev.done)
	}
}

// do runs fn on the loop and waits for it. Returns false if the engine is closed.
func (e *Engine) do(fn func()) bool {
	done := make(chan struct{})
	if !e.queue.Enqueue(event{kind: eventCall, fn: fn, done: done}) {
		return false
	}
	<-done
	return true
}

func (e *Engine) onSignal() {
	if e.IsPaused() {
		e.debugf("Change signal dropped: paused")
		return
	}
	if e.echo.Suppress() {
		e.debugf("Change signal dropped: own write")
		return
	}
	e.debounce.Trigger()
}

func (e *Engine) ingest() {
	if e.IsPaused() {
		return
	}
	if e.echo.Suppress() {
		e.debugf("Capture skipped: own write")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), snapshotTimeout)
	snap, err := e.source.Snapshot(ctx)
	cancel()
	if err != nil {
		log.Printf("Failed to read clipboard: %v", err)
		e.setError(err)
		return
	}
	e.clearError()

	if snap.IsEmpty() {
		e.debugf("Capture skipped: empty clipboard")
		return
	}
	if e.maxItemBytes > 0 && snap.Size() > e.maxItemBytes {
		log.Printf("Capture skipped: %d bytes exceeds limit of %d", snap.Size(), e.maxItemBytes)
		return
	}

	now := e.clock.Now()
	item := e.classifier.Classify(snap, now)
	if item.Type != history.Image && item.Text == "" {
		return
	}
	if front, ok := e.store.Front(); ok && front.Key() == item.Key() {
		e.debugf("Capture skipped: same as newest entry")
		return
	}

	e.store.Insert(item)
	e.debugf("Captured %s item (%d bytes)", item.Type, item.Size())

	e.mu.Lock()
	e.lastCaptureTime = now
	e.mu.Unlock()
}

// Start begins watching the source and captures its current content
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return nil
	}
	e.mu.Unlock()

	if err := e.source.Start(ctx); err != nil {
		return fmt.Errorf("start clipboard source: %w", err)
	}

	e.mu.Lock()
	e.running = true
	e.paused = false
	e.mu.Unlock()

	log.Printf("Clipboard capture started")
	e.setStatus(StatusWatching)

	if !e.queue.Enqueue(event{kind: eventIngest}) {
		e.Stop()
		return ErrClosed
	}
	return nil
}

// Stop stops watching the source. History is kept.
func (e *Engine) Stop() {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return
	}
	e.running = false
	e.mu.Unlock()

	e.source.Stop()
	e.debounce.Cancel()
	log.Printf("Clipboard capture stopped")
	e.setStatus(StatusIdle)
}

// Close stops the engine and its loop. Calls after Close are no-ops.
func (e *Engine) Close() {
	e.Stop()
	e.queue.Close()
	<-e.stopped
}

// Pause ignores register changes until Resume
func (e *Engine) Pause() {
	e.mu.Lock()
	e.paused = true
	e.mu.Unlock()

	e.debounce.Cancel()
	e.setStatus(StatusPaused)
}

// Resume resumes capturing
func (e *Engine) Resume() {
	e.mu.Lock()
	e.paused = false
	running := e.running
	e.mu.Unlock()

	if running {
		e.setStatus(StatusWatching)
	} else {
		e.setStatus(StatusIdle)
	}
}

// IsPaused returns true if capture is paused
func (e *Engine) IsPaused() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.paused
}

// IsRunning returns true if the source is being watched
func (e *Engine) IsRunning() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

// OnStatusChange sets the status change handler
func (e *Engine) OnStatusChange(handler StatusHandler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onStatusChange = handler
}

// GetStatus returns the current status
func (e *Engine) GetStatus() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status
}

// GetLastError returns the last source error, cleared by the next capture
func (e *Engine) GetLastError() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastError
}

// GetLastCaptureTime returns when an item was last added
func (e *Engine) GetLastCaptureTime() time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastCaptureTime
}

func (e *Engine) setStatus(status Status) {
	e.mu.Lock()
	e.status = status
	handler := e.onStatusChange
	e.mu.Unlock()

	if handler != nil {
		handler(status)
	}
}

func (e *Engine) setError(err error) {
	e.mu.Lock()
	e.lastError = err
	e.mu.Unlock()
	e.setStatus(StatusError)
}

// clearError leaves the error state after a successful read
func (e *Engine) clearError() {
	e.mu.Lock()
	e.lastError = nil
	recovered := e.status == StatusError && e.running && !e.paused
	e.mu.Unlock()

	if recovered {
		e.setStatus(StatusWatching)
	}
}

func (e *Engine) debugf(format string, args ...any) {
	if e.verbose {
		log.Printf(format, args...)
	}
}

// History returns the items, newest first
func (e *Engine) History() []history.Item {
	return e.store.Items()
}

// Search filters the history; see history.Search
func (e *Engine) Search(query string, types ...history.ContentType) []history.Item {
	return e.store.Search(query, types...)
}

// ItemCount returns the number of items
func (e *Engine) ItemCount() int {
	return e.store.Len()
}

// MaxHistorySize returns the capacity
func (e *Engine) MaxHistorySize() int {
	return e.store.Capacity()
}

// RemoveAt deletes the item at index. Reports false for an invalid index.
func (e *Engine) RemoveAt(index int) bool {
	var removed bool
	e.do(func() { removed = e.store.RemoveAt(index) })
	return removed
}

// Clear empties the history
func (e *Engine) Clear() {
	e.do(e.store.Clear)
}

// SetMaxHistorySize changes the capacity, trimming the oldest items
func (e *Engine) SetMaxHistorySize(n int) {
	e.do(func() { e.store.SetCapacity(n) })
}

// Subscribe registers fn to run after every history change
func (e *Engine) Subscribe(fn func()) (unsubscribe func()) {
	return e.store.Subscribe(fn)
}

// OnItemAdded registers fn to run with every newly captured item
func (e *Engine) OnItemAdded(fn func(history.Item)) (unsubscribe func()) {
	return e.store.OnAdded(fn)
}

// SelectForRestore writes the item at index back to the register without
// recording the resulting change as a new capture
func (e *Engine) SelectForRestore(ctx context.Context, index int) error {
	return e.restore(ctx, history.ErrInvalidIndex, func() (history.Item, bool) {
		return e.store.At(index)
	})
}

// RestoreByID is SelectForRestore for the item with the given ID, wherever
// it sits in the history when the call runs
func (e *Engine) RestoreByID(ctx context.Context, id string) error {
	return e.restore(ctx, history.ErrItemNotFound, func() (history.Item, bool) {
		return e.store.ByID(id)
	})
}

func (e *Engine) restore(ctx context.Context, missing error, lookup func() (history.Item, bool)) error {
	var (
		item  history.Item
		found bool
	)
	ok := e.do(func() {
		item, found = lookup()
		if found {
			e.echo.Arm()
			e.debounce.Cancel()
		}
	})
	if !ok {
		return ErrClosed
	}
	if !found {
		return missing
	}

	err := e.source.Write(ctx, item.Snapshot())
	e.echo.Arm()
	if err != nil {
		return fmt.Errorf("restore item: %w", err)
	}
	return nil
}
