package relay_test

import (
	"errors"
	"io"
	"sync"

	"github.com/omochice/socket-relay/internal/relay"
)

// mockWriter is a mock implementation of relay.WriteHalf for testing.
type mockWriter struct {
	mu       sync.Mutex
	written  [][]byte
	writeErr error
	closeErr error
	closed   bool
}

func (m *mockWriter) Write(p []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.writeErr != nil {
		return 0, m.writeErr
	}
	if m.closed {
		return 0, errors.New("write on closed half")
	}
	copied := make([]byte, len(p))
	copy(copied, p)
	m.written = append(m.written, copied)
	return len(p), nil
}

func (m *mockWriter) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return m.closeErr
}

func (m *mockWriter) Written() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.written
}

func (m *mockWriter) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// mockReader hands out chunks one Read at a time, then returns err.
type mockReader struct {
	mu     sync.Mutex
	chunks [][]byte
	err    error
	reads  int
	closed bool
}

func (m *mockReader) Read(p []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reads++
	if len(m.chunks) == 0 {
		if m.err == nil {
			return 0, io.EOF
		}
		return 0, m.err
	}
	n := copy(p, m.chunks[0])
	if n < len(m.chunks[0]) {
		m.chunks[0] = m.chunks[0][n:]
	} else {
		m.chunks = m.chunks[1:]
	}
	return n, nil
}

func (m *mockReader) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *mockReader) Reads() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reads
}

// recordingSender collects every event it is given.
type recordingSender struct {
	mu     sync.Mutex
	events []relay.Event
	err    error
}

func (s *recordingSender) Send(ev relay.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.events = append(s.events, ev)
	return nil
}

func (s *recordingSender) Events() []relay.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.events
}

// Compile-time checks
var (
	_ relay.WriteHalf = (*mockWriter)(nil)
	_ relay.ReadHalf  = (*mockReader)(nil)
	_ relay.Sender    = (*recordingSender)(nil)
	_ relay.Sender    = (*relay.Mailbox)(nil)
)
