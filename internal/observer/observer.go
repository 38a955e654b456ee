// Package observer provides ordered observer lists with explicit
// unregistration. Delivery order is registration order, always.
package observer

import "sync"

// List holds observers of T. The zero value is ready to use.
type List[T any] struct {
	mu      sync.Mutex
	nextID  int
	entries []entry[T]
}

type entry[T any] struct {
	id int
	fn func(T)
}

// Register adds fn to the list and returns a token for Unregister.
func (l *List[T]) Register(fn func(T)) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.nextID++
	l.entries = append(l.entries, entry[T]{id: l.nextID, fn: fn})
	return l.nextID
}

// Unregister removes the observer registered under id. Unknown ids are
// ignored, so double unregistration is harmless.
func (l *List[T]) Unregister(id int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, e := range l.entries {
		if e.id == id {
			l.entries = append(l.entries[:i], l.entries[i+1:]...)
			return
		}
	}
}

// Notify calls every observer with v, in registration order.
// Observers registered or removed during delivery take effect on the
// next notification.
func (l *List[T]) Notify(v T) {
	l.mu.Lock()
	fns := make([]func(T), len(l.entries))
	for i, e := range l.entries {
		fns[i] = e.fn
	}
	l.mu.Unlock()
	for _, fn := range fns {
		fn(v)
	}
}

// Len returns the number of registered observers.
func (l *List[T]) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
