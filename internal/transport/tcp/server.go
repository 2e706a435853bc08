package tcp

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/omochice/socket-relay/internal/metrics"
	"github.com/omochice/socket-relay/internal/relay"
	"github.com/omochice/socket-relay/internal/transport"
)

const (
	minAcceptDelay = 5 * time.Millisecond
	maxAcceptDelay = time.Second
)

// Server accepts TCP connections and hands them to a Hub.
type Server struct {
	address  string
	listener net.Listener
	hub      *relay.Hub
	logger   *slog.Logger

	mu    sync.Mutex
	conns map[net.Conn]struct{}
	quit  chan struct{}
	once  sync.Once
	wg    sync.WaitGroup
}

// New creates a TCP server that uses the provided Hub.
func New(address string, hub *relay.Hub, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		address: address,
		hub:     hub,
		logger:  logger.With("transport", "tcp"),
		conns:   make(map[net.Conn]struct{}),
		quit:    make(chan struct{}),
	}
}

// Listen binds the listening socket.
func (s *Server) Listen() error {
	listener, err := net.Listen("tcp", s.address)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", transport.ErrBind, s.address, err)
	}
	s.listener = listener
	s.logger.Info("tcp_listening", "addr", listener.Addr().String())
	return nil
}

// Serve accepts connections until Stop is called. Accept failures are
// logged and retried after a growing delay.
func (s *Server) Serve() error {
	if s.listener == nil {
		return errors.New("tcp: Serve called before Listen")
	}

	var delay time.Duration
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.quit:
				return nil
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return nil
			}

			delay = nextDelay(delay)
			metrics.AcceptErrors.WithLabelValues("accept").Inc()
			s.logger.Error("accept_failed",
				"error", fmt.Errorf("%w: %w", transport.ErrAccept, err).Error(),
				"retry_in", delay.String(),
			)
			select {
			case <-time.After(delay):
			case <-s.quit:
				return nil
			}
			continue
		}
		delay = 0
		s.admit(conn)
	}
}

// Start binds and serves.
func (s *Server) Start() error {
	if err := s.Listen(); err != nil {
		return err
	}
	return s.Serve()
}

// Stop closes the listener and every connection it accepted, then waits for
// their reader tasks.
func (s *Server) Stop() {
	s.once.Do(func() {
		close(s.quit)
		if s.listener != nil {
			s.listener.Close()
		}

		s.mu.Lock()
		for conn := range s.conns {
			conn.Close()
		}
		s.mu.Unlock()
	})
	s.wg.Wait()
}

// Addr returns the listening address.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return ""
}

func (s *Server) admit(conn net.Conn) {
	addr, err := transport.PeerAddress(conn)
	if err != nil {
		metrics.AcceptErrors.WithLabelValues("peer_address").Inc()
		s.logger.Warn("peer_address_failed", "error", err.Error())
		conn.Close()
		return
	}

	if !s.track(conn) {
		conn.Close()
		return
	}
	metrics.ConnectionsAccepted.WithLabelValues("tcp").Inc()

	r, w := Split(conn)
	go func() {
		defer s.wg.Done()
		defer s.untrack(conn)
		if err := s.hub.HandleConn(relay.NewConn(addr, r, w)); err != nil {
			s.logger.Debug("reader_ended", "remote_addr", addr, "error", err.Error())
		}
	}()
}

// track registers conn and its reader goroutine unless the server is stopping.
func (s *Server) track(conn net.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	select {
	case <-s.quit:
		return false
	default:
	}
	s.conns[conn] = struct{}{}
	s.wg.Add(1)
	return true
}

func (s *Server) untrack(conn net.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conns, conn)
}

func nextDelay(d time.Duration) time.Duration {
	if d == 0 {
		return minAcceptDelay
	}
	d *= 2
	if d > maxAcceptDelay {
		d = maxAcceptDelay
	}
	return d
}
