// Package tcp provides the TCP transport of the relay.
package tcp

import (
	"errors"
	"net"
	"sync"
	"sync/atomic"
)

// socket is shared by both halves and closed when the last one is released.
type socket struct {
	conn net.Conn
	refs atomic.Int32
}

func (s *socket) release() error {
	if s.refs.Add(-1) == 0 {
		return s.conn.Close()
	}
	return nil
}

// ReadHalf is the receiving direction of a split TCP connection.
type ReadHalf struct {
	sock *socket
	once sync.Once
}

// WriteHalf is the sending direction of a split TCP connection.
type WriteHalf struct {
	sock *socket
	once sync.Once
}

// Split divides conn into halves that can be owned by different goroutines.
func Split(conn net.Conn) (*ReadHalf, *WriteHalf) {
	s := &socket{conn: conn}
	s.refs.Store(2)
	return &ReadHalf{sock: s}, &WriteHalf{sock: s}
}

// Read implements relay.ReadHalf.
func (r *ReadHalf) Read(p []byte) (int, error) {
	return r.sock.conn.Read(p)
}

// Close implements relay.ReadHalf.
func (r *ReadHalf) Close() error {
	var err error
	r.once.Do(func() {
		err = r.sock.release()
	})
	return err
}

// Write implements relay.WriteHalf.
func (w *WriteHalf) Write(p []byte) (int, error) {
	return w.sock.conn.Write(p)
}

// Close sends FIN to the peer when the connection supports half-close, then
// releases this half.
func (w *WriteHalf) Close() error {
	var err error
	w.once.Do(func() {
		if cw, ok := w.sock.conn.(interface{ CloseWrite() error }); ok {
			if cerr := cw.CloseWrite(); cerr != nil && !errors.Is(cerr, net.ErrClosed) {
				err = cerr
			}
		}
		if rerr := w.sock.release(); err == nil {
			err = rerr
		}
	})
	return err
}
