package history

import (
	"sync"
	"sync/atomic"
)

type subscriber[T any] struct {
	fn     func(T)
	active atomic.Bool
}

// Registry is a synchronous publish/subscribe fan-out.
//
// Publish invokes subscribers in registration order on the caller's
// goroutine. A subscriber removed during a Publish, including by itself,
// receives nothing further from that Publish. Subscribe and the returned
// unsubscribe func are safe to call from any goroutine.
type Registry[T any] struct {
	mu   sync.Mutex
	subs []*subscriber[T]
}

// Subscribe registers fn and returns a func that removes it.
// The returned func is idempotent.
func (r *Registry[T]) Subscribe(fn func(T)) (unsubscribe func()) {
	s := &subscriber[T]{fn: fn}
	s.active.Store(true)

	r.mu.Lock()
	r.subs = append(r.subs, s)
	r.mu.Unlock()

	return func() {
		if !s.active.CompareAndSwap(true, false) {
			return
		}
		r.mu.Lock()
		defer r.mu.Unlock()
		for i, sub := range r.subs {
			if sub == s {
				r.subs = append(r.subs[:i:i], r.subs[i+1:]...)
				break
			}
		}
	}
}

// Publish delivers v to every active subscriber
func (r *Registry[T]) Publish(v T) {
	r.mu.Lock()
	subs := r.subs
	r.mu.Unlock()

	for _, s := range subs {
		if s.active.Load() {
			s.fn(v)
		}
	}
}

// Len returns the number of subscribers
func (r *Registry[T]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.subs)
}
