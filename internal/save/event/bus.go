// Package event provides a typed publish/subscribe bus for save and
// load lifecycle notifications.
package event

import "sync"

// Bus fan-outs values of one event type to subscribers. A panicking
// listener is isolated: it never prevents delivery to the rest.
type Bus[T any] struct {
	mu   sync.Mutex
	next int
	subs map[int]func(T)
}

// NewBus creates an empty bus.
func NewBus[T any]() *Bus[T] {
	return &Bus[T]{subs: map[int]func(T){}}
}

// Subscribe registers fn and returns its unsubscribe function.
// Unsubscribing twice is harmless.
func (b *Bus[T]) Subscribe(fn func(T)) (unsubscribe func()) {
	if fn == nil {
		return func() {}
	}

	b.mu.Lock()
	id := b.next
	b.next++
	b.subs[id] = fn
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
	}
}

// Publish delivers value to every subscriber in turn.
func (b *Bus[T]) Publish(value T) {
	b.mu.Lock()
	listeners := make([]func(T), 0, len(b.subs))
	for _, fn := range b.subs {
		listeners = append(listeners, fn)
	}
	b.mu.Unlock()

	for _, fn := range listeners {
		deliver(fn, value)
	}
}

func deliver[T any](fn func(T), value T) {
	defer func() {
		_ = recover()
	}()
	fn(value)
}
