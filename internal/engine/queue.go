package engine

import "sync"

type eventKind int

const (
	// eventSignal is a raw change signal from the source
	eventSignal eventKind = iota + 1
	// eventIngest is a debounced request to read and record the register
	eventIngest
	// eventCall runs fn on the loop and closes done afterwards
	eventCall
)

type event struct {
	kind eventKind
	fn   func()
	done chan struct{}
}

// mailbox is an unbounded FIFO of events drained by the engine loop.
//
// Enqueue never blocks, so timer callbacks and source goroutines can always
// hand work to the loop. The signal channel has room for one token; multiple
// enqueues before the loop wakes coalesce into a single wakeup.
type mailbox struct {
	mu     sync.Mutex
	events []event
	closed bool
	signal chan struct{}
}

func newMailbox() *mailbox {
	return &mailbox{
		events: make([]event, 0, 16),
		signal: make(chan struct{}, 1),
	}
}

// Enqueue adds an event to the back. Returns false once closed.
func (q *mailbox) Enqueue(e event) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}

	q.events = append(q.events, e)

	select {
	case q.signal <- struct{}{}:
	default:
	}
	return true
}

// TryDequeue removes the front event without blocking
func (q *mailbox) TryDequeue() (event, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.events) == 0 {
		return event{}, false
	}

	e := q.events[0]
	q.events[0] = event{}
	if len(q.events) == 1 {
		q.events = q.events[:0]
	} else {
		q.events = q.events[1:]
	}
	return e, true
}

// Wait returns a channel that receives when events may be available.
// It is closed by Close.
func (q *mailbox) Wait() <-chan struct{} {
	return q.signal
}

// Len returns the number of queued events
func (q *mailbox) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events)
}

// Close rejects further events and wakes the loop
func (q *mailbox) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	close(q.signal)
}
