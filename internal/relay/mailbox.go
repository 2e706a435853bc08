package relay

import (
	"context"
	"sync"
)

// Sender is the producer side of a Mailbox.
type Sender interface {
	Send(ev Event) error
}

// Mailbox is an unbounded multi-producer single-consumer queue of events.
// Events sent by one goroutine are received in the order they were sent.
type Mailbox struct {
	mu     sync.Mutex
	queue  []Event
	closed bool
	notify chan struct{}
}

// NewMailbox creates an empty, open Mailbox.
func NewMailbox() *Mailbox {
	return &Mailbox{
		notify: make(chan struct{}, 1),
	}
}

// Send enqueues ev. It never blocks.
func (m *Mailbox) Send(ev Event) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrMailboxClosed
	}
	m.queue = append(m.queue, ev)
	m.mu.Unlock()

	m.wake()
	return nil
}

// Receive blocks until an event is available. Events queued before Close are
// still delivered; once the queue is drained after Close it returns
// ErrMailboxClosed.
func (m *Mailbox) Receive(ctx context.Context) (Event, error) {
	for {
		m.mu.Lock()
		if len(m.queue) > 0 {
			ev := m.queue[0]
			m.queue[0] = nil
			m.queue = m.queue[1:]
			if len(m.queue) == 0 {
				m.queue = nil
			}
			m.mu.Unlock()
			return ev, nil
		}
		closed := m.closed
		m.mu.Unlock()

		if closed {
			return nil, ErrMailboxClosed
		}

		select {
		case <-m.notify:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// Close stops accepting new events. It is safe to call more than once.
func (m *Mailbox) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	m.mu.Unlock()

	m.wake()
}

// Len returns the number of queued events.
func (m *Mailbox) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queue)
}

func (m *Mailbox) wake() {
	select {
	case m.notify <- struct{}{}:
	default:
	}
}
