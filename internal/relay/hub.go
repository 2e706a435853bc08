package relay

import (
	"context"
	"log/slog"
	"sync"
)

// Hub runs the Actor and the reader tasks of every connection handed to it.
// Both the TCP and the WebSocket transports share a single Hub instance.
type Hub struct {
	mailbox *Mailbox
	actor   *Actor
	logger  *slog.Logger
	bufSize int

	mu       sync.Mutex
	started  bool
	stopping bool
	readers  sync.WaitGroup
	done     chan struct{}
}

// NewHub creates a Hub whose reader tasks read bufSize bytes at a time.
func NewHub(bufSize int, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	mailbox := NewMailbox()
	return &Hub{
		mailbox: mailbox,
		actor:   NewActor(mailbox, logger),
		logger:  logger,
		bufSize: bufSize,
		done:    make(chan struct{}),
	}
}

// Start launches the Actor goroutine. It does nothing once Stop has begun.
func (h *Hub) Start() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.started || h.stopping {
		return
	}
	h.started = true
	go func() {
		defer close(h.done)
		h.actor.Run(context.Background())
	}()
}

// HandleConn runs the reader task of conn and returns when it ends.
// After Stop has begun, conn is closed and ErrMailboxClosed is returned.
func (h *Hub) HandleConn(conn *Conn) error {
	h.mu.Lock()
	if h.stopping {
		h.mu.Unlock()
		conn.Reader.Close()
		conn.Writer.Close()
		return ErrMailboxClosed
	}
	h.readers.Add(1)
	h.mu.Unlock()
	defer h.readers.Done()

	return ReadLoop(conn, h.mailbox, h.bufSize, h.logger)
}

// Snapshot returns the Actor's current peer list.
func (h *Hub) Snapshot(ctx context.Context) (Snapshot, error) {
	return h.actor.Snapshot(ctx)
}

// Stop waits for running reader tasks, closes the mailbox and waits for the
// Actor to drain it. Transports must close their sockets first so that
// blocked reads return.
func (h *Hub) Stop() {
	h.mu.Lock()
	if h.stopping {
		h.mu.Unlock()
		<-h.done
		return
	}
	h.stopping = true
	started := h.started
	h.mu.Unlock()

	h.readers.Wait()
	h.mailbox.Close()
	if !started {
		close(h.done)
		return
	}
	<-h.done
}
