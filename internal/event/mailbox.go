package event

import "sync"

// Mailbox is an ordered, unbounded queue that hands values from worker
// goroutines to the interactive goroutine. Post never blocks; the owner
// drains it once per event-processing pass.
type Mailbox[T any] struct {
	mu    sync.Mutex
	items []T
	ready chan struct{}
}

// NewMailbox creates an empty mailbox.
func NewMailbox[T any]() *Mailbox[T] {
	return &Mailbox[T]{ready: make(chan struct{}, 1)}
}

// Post appends v and signals Ready.
func (m *Mailbox[T]) Post(v T) {
	m.mu.Lock()
	m.items = append(m.items, v)
	m.mu.Unlock()

	select {
	case m.ready <- struct{}{}:
	default:
	}
}

// Drain removes and returns everything posted so far, oldest first.
func (m *Mailbox[T]) Drain() []T {
	m.mu.Lock()
	defer m.mu.Unlock()
	items := m.items
	m.items = nil
	return items
}

// Len returns the number of pending values.
func (m *Mailbox[T]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

// Ready is signalled after a Post. A single signal may cover several posts.
func (m *Mailbox[T]) Ready() <-chan struct{} {
	return m.ready
}
