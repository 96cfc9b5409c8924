package history

import (
	"errors"
	"slices"
	"sync/atomic"
)

// DefaultCapacity is the default maximum number of history entries
const DefaultCapacity = 100

var (
	// ErrInvalidIndex is returned for an out-of-range history index
	ErrInvalidIndex = errors.New("history index out of range")

	// ErrItemNotFound is returned for an ID no longer in the history
	ErrItemNotFound = errors.New("history item not found")
)

// Store is a bounded, deduplicated history, newest first.
//
// Mutations (Insert, RemoveAt, Clear, SetCapacity) must come from a single
// goroutine. Every mutation publishes a fresh slice that is never written
// again, so the read methods are safe from any goroutine and never observe a
// partially applied change. Change notifications are delivered synchronously
// before a mutating call returns.
type Store struct {
	items    atomic.Pointer[[]Item]
	capacity atomic.Int64

	changed Registry[struct{}]
	added   Registry[Item]
}

// NewStore creates an empty store. Capacity is clamped to at least 1.
func NewStore(capacity int) *Store {
	s := &Store{}
	empty := []Item{}
	s.items.Store(&empty)
	s.capacity.Store(int64(max(capacity, 1)))
	return s
}

func (s *Store) load() []Item {
	return *s.items.Load()
}

func (s *Store) publish(items []Item) {
	s.items.Store(&items)
}

// Insert puts item at the front. An existing entry with the same key is
// removed first, and the oldest entries are evicted to honor the capacity.
// Always notifies.
func (s *Store) Insert(item Item) {
	if item.key.Digest == "" {
		item.key = computeKey(item)
	}

	current := s.load()
	limit := s.Capacity()

	next := make([]Item, 0, min(len(current)+1, limit))
	next = append(next, item)
	for _, existing := range current {
		if len(next) == limit {
			break
		}
		if existing.Key() == item.key {
			continue
		}
		next = append(next, existing)
	}

	s.publish(next)
	s.added.Publish(item)
	s.changed.Publish(struct{}{})
}

// RemoveAt removes the item at index. It reports false and changes nothing
// when index is out of range.
func (s *Store) RemoveAt(index int) bool {
	current := s.load()
	if index < 0 || index >= len(current) {
		return false
	}

	s.publish(slices.Delete(slices.Clone(current), index, index+1))
	s.changed.Publish(struct{}{})
	return true
}

// Clear removes every item. Always notifies, even when already empty.
func (s *Store) Clear() {
	s.publish([]Item{})
	s.changed.Publish(struct{}{})
}

// SetCapacity changes the maximum size, clamped to at least 1.
// Notifies only when entries had to be trimmed.
func (s *Store) SetCapacity(n int) {
	n = max(n, 1)
	s.capacity.Store(int64(n))

	current := s.load()
	if len(current) <= n {
		return
	}
	s.publish(slices.Clone(current[:n]))
	s.changed.Publish(struct{}{})
}

// Capacity returns the maximum size
func (s *Store) Capacity() int {
	return int(s.capacity.Load())
}

// Len returns the number of items
func (s *Store) Len() int {
	return len(s.load())
}

// Items returns a copy of the history, newest first
func (s *Store) Items() []Item {
	return slices.Clone(s.load())
}

// At returns the item at index
func (s *Store) At(index int) (Item, bool) {
	current := s.load()
	if index < 0 || index >= len(current) {
		return Item{}, false
	}
	return current[index], true
}

// ByID returns the item with the given ID
func (s *Store) ByID(id string) (Item, bool) {
	for _, item := range s.load() {
		if item.ID == id {
			return item, true
		}
	}
	return Item{}, false
}

// Front returns the newest item
func (s *Store) Front() (Item, bool) {
	return s.At(0)
}

// Search runs Search over the current history
func (s *Store) Search(query string, types ...ContentType) []Item {
	return Search(s.load(), query, types...)
}

// Subscribe registers fn to run after every mutation
func (s *Store) Subscribe(fn func()) (unsubscribe func()) {
	return s.changed.Subscribe(func(struct{}) { fn() })
}

// OnAdded registers fn to run with each inserted item
func (s *Store) OnAdded(fn func(Item)) (unsubscribe func()) {
	return s.added.Subscribe(fn)
}
