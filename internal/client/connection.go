package client

import (
	"errors"
	"io"
	"net"
	"sync"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
)

// Connection is the byte stream between a client and the relay.
type Connection interface {
	// Write sends data to the relay
	Write(data []byte) (int, error)

	// Read receives data relayed from other peers
	Read(buf []byte) (int, error)

	// Close closes the connection
	Close() error

	// LocalAddr returns the client side address, which is how the relay
	// identifies this peer
	LocalAddr() net.Addr
}

// WebSocketConnection adapts a client-side gobwas/ws connection to a byte stream.
type WebSocketConnection struct {
	conn    net.Conn
	reader  io.Reader
	pending []byte
	rmu     sync.Mutex
	wmu     sync.Mutex
}

// NewWebSocketConnection wraps an established WebSocket connection. reader,
// when non-nil, holds bytes the server sent along with the handshake.
func NewWebSocketConnection(conn net.Conn, reader io.Reader) *WebSocketConnection {
	if reader == nil {
		reader = conn
	}
	return &WebSocketConnection{conn: conn, reader: reader}
}

func (wc *WebSocketConnection) Write(data []byte) (int, error) {
	wc.wmu.Lock()
	defer wc.wmu.Unlock()
	if err := wsutil.WriteClientBinary(wc.conn, data); err != nil {
		return 0, err
	}
	return len(data), nil
}

func (wc *WebSocketConnection) Read(buf []byte) (int, error) {
	wc.rmu.Lock()
	defer wc.rmu.Unlock()

	for len(wc.pending) == 0 {
		data, _, err := wsutil.ReadServerData(struct {
			io.Reader
			io.Writer
		}{wc.reader, lockedWriter{wc}})
		if err != nil {
			var closed wsutil.ClosedError
			if errors.As(err, &closed) {
				return 0, io.EOF
			}
			return 0, err
		}
		wc.pending = data
	}

	n := copy(buf, wc.pending)
	wc.pending = wc.pending[n:]
	return n, nil
}

func (wc *WebSocketConnection) Close() error {
	wc.wmu.Lock()
	_ = wsutil.WriteClientMessage(wc.conn, ws.OpClose, ws.NewCloseFrameBody(ws.StatusNormalClosure, ""))
	wc.wmu.Unlock()
	return wc.conn.Close()
}

func (wc *WebSocketConnection) LocalAddr() net.Addr {
	return wc.conn.LocalAddr()
}

// lockedWriter lets control frame replies share the write lock.
type lockedWriter struct {
	wc *WebSocketConnection
}

func (w lockedWriter) Write(p []byte) (int, error) {
	w.wc.wmu.Lock()
	defer w.wc.wmu.Unlock()
	return w.wc.conn.Write(p)
}
