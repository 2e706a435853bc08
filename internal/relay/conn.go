// Package relay provides the broadcast core shared by all transports.
//
// Every accepted socket is split into a read half and a write half. The read
// half stays with a per-connection reader task (ReadLoop) while the write half
// is handed to the Actor, the only goroutine that ever touches the table of
// live peers.
package relay

import (
	"io"

	"github.com/google/uuid"
)

// DefaultReadBufferSize is the chunk size a reader task reads per call.
const DefaultReadBufferSize = 64

// ReadHalf is the receiving direction of a peer connection.
type ReadHalf interface {
	io.Reader
	// Close releases this half. The socket is closed once both halves are.
	Close() error
}

// WriteHalf is the sending direction of a peer connection.
type WriteHalf interface {
	io.Writer
	// Close performs an orderly shutdown of the sending direction and
	// releases this half.
	Close() error
}

// Conn is one accepted peer split into independently owned halves.
type Conn struct {
	// ID distinguishes two connections that reuse the same remote address.
	ID     string
	Addr   string
	Reader ReadHalf
	Writer WriteHalf
}

// NewConn creates a Conn with a fresh ID.
func NewConn(addr string, r ReadHalf, w WriteHalf) *Conn {
	return &Conn{
		ID:     uuid.NewString(),
		Addr:   addr,
		Reader: r,
		Writer: w,
	}
}
