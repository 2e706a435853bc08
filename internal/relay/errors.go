package relay

import "errors"

var (
	// ErrMailboxClosed - returned by Send once the mailbox no longer accepts events,
	// which means the Actor is gone or stopping.
	ErrMailboxClosed = errors.New("relay: mailbox closed")

	// ErrRead - wraps a socket read failure that ended a reader task.
	ErrRead = errors.New("relay: read failed")

	// ErrBroadcastWrite - wraps a failed write to a single peer during broadcast.
	ErrBroadcastWrite = errors.New("relay: broadcast write failed")

	// ErrShutdown - wraps a failed orderly shutdown of a write half.
	ErrShutdown = errors.New("relay: shutdown failed")
)
