// Package event provides a typed observer used in place of toolkit signals.
package event

import "sync"

// Subject fans a payload out to every subscribed handler.
// Handlers run synchronously on the goroutine that calls Emit, in
// subscription order. There is no unsubscribe: subscriptions live as long
// as the subject.
type Subject[T any] struct {
	mu       sync.RWMutex
	handlers []func(T)
}

// Subscribe registers a handler for all future emissions.
func (s *Subject[T]) Subscribe(handler func(T)) {
	if handler == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers = append(s.handlers, handler)
}

// Emit invokes every handler with payload.
// The handler list is copied before dispatch so a handler may subscribe
// further handlers without deadlocking; those only see later emissions.
func (s *Subject[T]) Emit(payload T) {
	s.mu.RLock()
	handlers := make([]func(T), len(s.handlers))
	copy(handlers, s.handlers)
	s.mu.RUnlock()

	for _, h := range handlers {
		h(payload)
	}
}

// Len returns the number of subscribed handlers.
func (s *Subject[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.handlers)
}
