// Package pubsub provides a minimal in-process publish/subscribe topic.
//
// Delivery is synchronous and in subscription order: Publish invokes every
// handler registered at the time of the call before returning. There is no
// buffering and no delivery to handlers subscribed after publication.
package pubsub

import "sync"

type subscriber[T any] struct {
	id int
	fn func(T)
}

// Topic is a typed event channel with ordered, synchronous fan-out.
// The zero value is ready to use.
type Topic[T any] struct {
	mu     sync.Mutex
	nextID int
	subs   []subscriber[T]
}

// Subscribe registers fn and returns a function that removes it again.
// Unsubscribing twice is harmless.
func (t *Topic[T]) Subscribe(fn func(T)) (unsubscribe func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	id := t.nextID
	t.nextID++
	t.subs = append(t.subs, subscriber[T]{id: id, fn: fn})
	return func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		for i, s := range t.subs {
			if s.id == id {
				t.subs = append(t.subs[:i], t.subs[i+1:]...)
				return
			}
		}
	}
}

// Publish delivers v to all current subscribers, in subscription order.
func (t *Topic[T]) Publish(v T) {
	t.mu.Lock()
	subs := make([]subscriber[T], len(t.subs))
	copy(subs, t.subs)
	t.mu.Unlock()

	for _, s := range subs {
		s.fn(v)
	}
}

// Len reports the number of active subscribers.
func (t *Topic[T]) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.subs)
}
