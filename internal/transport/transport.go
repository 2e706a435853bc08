// Package transport holds what the TCP and WebSocket transports share.
package transport

import (
	"errors"
	"fmt"
	"net"
)

var (
	// ErrBind - the listening socket could not be bound. Fatal at startup.
	ErrBind = errors.New("transport: bind failed")

	// ErrAccept - accepting a connection failed. The accept loop logs it and retries.
	ErrAccept = errors.New("transport: accept failed")

	// ErrPeerAddress - the remote address of an accepted socket is unknown.
	// The socket is discarded.
	ErrPeerAddress = errors.New("transport: peer address unavailable")
)

// PeerAddress resolves the host:port of the remote end of conn.
func PeerAddress(conn net.Conn) (string, error) {
	addr := conn.RemoteAddr()
	if addr == nil {
		return "", ErrPeerAddress
	}
	s := addr.String()
	if s == "" || s == "<nil>" {
		return "", ErrPeerAddress
	}
	return s, nil
}

// ValidAddress reports whether addr is a host:port pair, returning it wrapped
// in ErrPeerAddress otherwise.
func ValidAddress(addr string) (string, error) {
	if _, _, err := net.SplitHostPort(addr); err != nil {
		return "", fmt.Errorf("%w: %q: %w", ErrPeerAddress, addr, err)
	}
	return addr, nil
}
