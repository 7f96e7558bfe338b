package capture

import (
	"context"
	"errors"
	"sync"
)

// ErrMailboxClosed is returned by Put and Receive once the mailbox is closed.
var ErrMailboxClosed = errors.New("mailbox closed")

// Mailbox is a single-slot, latest-wins hand-off between a producer and a
// consumer. Put never blocks: a value that has not been received yet is
// replaced and passed to the drop callback.
type Mailbox[T any] struct {
	mu      sync.Mutex
	item    T
	full    bool
	closed  bool
	dropped uint64
	drop    func(T)
	ready   chan struct{}
	done    chan struct{}
}

// NewMailbox creates an empty mailbox. drop, if non-nil, receives every value
// that is replaced or discarded without being received.
func NewMailbox[T any](drop func(T)) *Mailbox[T] {
	return &Mailbox[T]{
		drop:  drop,
		ready: make(chan struct{}, 1),
		done:  make(chan struct{}),
	}
}

// Put stores v, replacing any value still waiting.
func (m *Mailbox[T]) Put(v T) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		m.discard(v)
		return ErrMailboxClosed
	}
	old, hadOld := m.item, m.full
	m.item, m.full = v, true
	if hadOld {
		m.dropped++
	}
	m.mu.Unlock()

	if hadOld {
		m.discard(old)
	}
	select {
	case m.ready <- struct{}{}:
	default:
	}
	return nil
}

// Receive waits for a value, the context to end, or the mailbox to close.
func (m *Mailbox[T]) Receive(ctx context.Context) (T, error) {
	for {
		if v, ok := m.TryReceive(); ok {
			return v, nil
		}

		m.mu.Lock()
		closed := m.closed
		m.mu.Unlock()
		if closed {
			var zero T
			return zero, ErrMailboxClosed
		}

		select {
		case <-ctx.Done():
			var zero T
			return zero, ctx.Err()
		case <-m.done:
		case <-m.ready:
		}
	}
}

// TryReceive takes the waiting value, if any, without blocking.
func (m *Mailbox[T]) TryReceive() (T, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var zero T
	if !m.full {
		return zero, false
	}
	v := m.item
	m.item, m.full = zero, false
	return v, true
}

// Dropped returns how many values were replaced before being received.
func (m *Mailbox[T]) Dropped() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dropped
}

// Close discards any waiting value and wakes blocked receivers. Closing
// twice is a no-op.
func (m *Mailbox[T]) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	v, had := m.item, m.full
	var zero T
	m.item, m.full = zero, false
	m.mu.Unlock()

	close(m.done)
	if had {
		m.discard(v)
	}
}

func (m *Mailbox[T]) discard(v T) {
	if m.drop != nil {
		m.drop(v)
	}
}
