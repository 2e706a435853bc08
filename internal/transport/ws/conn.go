// Package ws provides the WebSocket transport of the relay, built on gobwas/ws.
//
// Frame boundaries are not preserved: the payload of every text or binary
// frame a client sends is handed to the relay as a plain byte stream, and
// every chunk the relay writes goes out as one binary frame.
package ws

import (
	"errors"
	"io"
	"net"
	"sync"
	"sync/atomic"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
)

// socket is shared by both halves. Writes are serialized because the read
// side answers ping and close frames on the same connection.
type socket struct {
	conn   net.Conn
	reader io.Reader
	wmu    sync.Mutex
	refs   atomic.Int32
}

func (s *socket) Read(p []byte) (int, error) {
	return s.reader.Read(p)
}

func (s *socket) Write(p []byte) (int, error) {
	s.wmu.Lock()
	defer s.wmu.Unlock()
	return s.conn.Write(p)
}

func (s *socket) release() error {
	if s.refs.Add(-1) == 0 {
		return s.conn.Close()
	}
	return nil
}

// ReadHalf is the receiving direction of a server-side WebSocket connection.
type ReadHalf struct {
	sock    *socket
	pending []byte
	once    sync.Once
}

// WriteHalf is the sending direction of a server-side WebSocket connection.
type WriteHalf struct {
	sock *socket
	once sync.Once
}

// Split divides an upgraded connection into halves. reader, when non-nil,
// replaces conn as the source of incoming bytes (for data buffered during
// the handshake).
func Split(conn net.Conn, reader io.Reader) (*ReadHalf, *WriteHalf) {
	if reader == nil {
		reader = conn
	}
	s := &socket{conn: conn, reader: reader}
	s.refs.Store(2)
	return &ReadHalf{sock: s}, &WriteHalf{sock: s}
}

// Read implements relay.ReadHalf. A close frame from the client is reported
// as io.EOF.
func (r *ReadHalf) Read(p []byte) (int, error) {
	for len(r.pending) == 0 {
		data, _, err := wsutil.ReadClientData(r.sock)
		if err != nil {
			var closed wsutil.ClosedError
			if errors.As(err, &closed) {
				return 0, io.EOF
			}
			return 0, err
		}
		r.pending = data
	}

	n := copy(p, r.pending)
	r.pending = r.pending[n:]
	return n, nil
}

// Close implements relay.ReadHalf.
func (r *ReadHalf) Close() error {
	var err error
	r.once.Do(func() {
		err = r.sock.release()
	})
	return err
}

// Write implements relay.WriteHalf. p is sent as one binary frame.
func (w *WriteHalf) Write(p []byte) (int, error) {
	w.sock.wmu.Lock()
	defer w.sock.wmu.Unlock()
	if err := wsutil.WriteServerBinary(w.sock.conn, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Close sends a normal-closure frame, then releases this half.
func (w *WriteHalf) Close() error {
	var err error
	w.once.Do(func() {
		body := ws.NewCloseFrameBody(ws.StatusNormalClosure, "")
		if _, werr := w.sock.Write(ws.MustCompileFrame(ws.NewCloseFrame(body))); werr != nil && !errors.Is(werr, net.ErrClosed) {
			err = werr
		}
		if rerr := w.sock.release(); err == nil {
			err = rerr
		}
	})
	return err
}
