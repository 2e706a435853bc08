package ws

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gobwas/ws"

	"github.com/omochice/socket-relay/internal/metrics"
	"github.com/omochice/socket-relay/internal/relay"
	"github.com/omochice/socket-relay/internal/transport"
)

// Path is where WebSocket clients are upgraded.
const Path = "/ws"

// PeerPrefix qualifies the address of WebSocket peers in the relay table. A
// TCP peer and a WebSocket peer may share a source host:port because they
// connect to different listeners.
const PeerPrefix = "ws://"

// PeerKey is the relay table key of a WebSocket peer at remote address addr.
func PeerKey(addr string) string {
	return PeerPrefix + addr
}

// Server serves HTTP, upgrades requests on Path and hands the resulting
// connections to a Hub. Extra routes can be mounted with Handle.
type Server struct {
	address  string
	listener net.Listener
	hub      *relay.Hub
	mux      *http.ServeMux
	server   *http.Server
	logger   *slog.Logger

	mu    sync.Mutex
	conns map[net.Conn]struct{}
	quit  chan struct{}
	once  sync.Once
	wg    sync.WaitGroup
}

// New creates a WebSocket server that uses the provided Hub.
func New(address string, hub *relay.Hub, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		address: address,
		hub:     hub,
		mux:     http.NewServeMux(),
		logger:  logger.With("transport", "websocket"),
		conns:   make(map[net.Conn]struct{}),
		quit:    make(chan struct{}),
	}
	s.mux.HandleFunc(Path, s.handleWebSocket)
	s.server = &http.Server{
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handle mounts an extra handler next to the WebSocket endpoint.
func (s *Server) Handle(pattern string, handler http.Handler) {
	s.mux.Handle(pattern, handler)
}

// Listen binds the listening socket.
func (s *Server) Listen() error {
	listener, err := net.Listen("tcp", s.address)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", transport.ErrBind, s.address, err)
	}
	s.listener = listener
	s.logger.Info("http_listening", "addr", listener.Addr().String())
	return nil
}

// Serve handles HTTP requests until Stop is called.
func (s *Server) Serve() error {
	if s.listener == nil {
		return errors.New("ws: Serve called before Listen")
	}
	if err := s.server.Serve(s.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop shuts the HTTP server down and closes every upgraded connection.
func (s *Server) Stop() {
	s.once.Do(func() {
		close(s.quit)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.server.Shutdown(ctx); err != nil {
			s.logger.Warn("http_shutdown_failed", "error", err.Error())
		}
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

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	addr, err := transport.ValidAddress(r.RemoteAddr)
	if err != nil {
		metrics.AcceptErrors.WithLabelValues("peer_address").Inc()
		s.logger.Warn("peer_address_failed", "error", err.Error())
		http.Error(w, "unknown peer address", http.StatusBadRequest)
		return
	}

	conn, brw, _, err := ws.UpgradeHTTP(r, w)
	if err != nil {
		metrics.AcceptErrors.WithLabelValues("upgrade").Inc()
		s.logger.Warn("websocket_upgrade_failed", "remote_addr", addr, "error", err.Error())
		return
	}

	if !s.track(conn) {
		conn.Close()
		return
	}
	metrics.ConnectionsAccepted.WithLabelValues("websocket").Inc()

	var reader io.Reader = conn
	if brw != nil && brw.Reader.Buffered() > 0 {
		reader = brw.Reader
	}
	rh, wh := Split(conn, reader)

	go func() {
		defer s.wg.Done()
		defer s.untrack(conn)
		if err := s.hub.HandleConn(relay.NewConn(PeerKey(addr), rh, wh)); err != nil {
			s.logger.Debug("reader_ended", "remote_addr", addr, "error", err.Error())
		}
	}()
}

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
