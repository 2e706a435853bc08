// Package server assembles the relay: one Hub, the TCP acceptor and the
// optional HTTP side endpoint (WebSocket peers, status and metrics).
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/omochice/socket-relay/internal/relay"
	"github.com/omochice/socket-relay/internal/transport/tcp"
	"github.com/omochice/socket-relay/internal/transport/ws"
)

// ErrNotListening is returned by operations that need a bound server.
var ErrNotListening = errors.New("server: not listening")

// Options configures a Server.
type Options struct {
	// Addr is the TCP relay endpoint.
	Addr string
	// HTTPAddr enables the HTTP side endpoint when non-empty.
	HTTPAddr string
	// ReadBufferSize is the chunk size of every reader task.
	ReadBufferSize int
	Logger         *slog.Logger
}

// Server is a running relay.
type Server struct {
	opts    Options
	logger  *slog.Logger
	hub     *relay.Hub
	tcp     *tcp.Server
	http    *ws.Server
	started time.Time

	stopOnce sync.Once
	quit     chan struct{}
}

// New creates a Server. Nothing is bound until Listen.
func New(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.ReadBufferSize <= 0 {
		opts.ReadBufferSize = relay.DefaultReadBufferSize
	}

	hub := relay.NewHub(opts.ReadBufferSize, opts.Logger)
	s := &Server{
		opts:   opts,
		logger: opts.Logger,
		hub:    hub,
		tcp:    tcp.New(opts.Addr, hub, opts.Logger),
		quit:   make(chan struct{}),
	}
	if opts.HTTPAddr != "" {
		s.http = ws.New(opts.HTTPAddr, hub, opts.Logger)
		s.http.Handle("/status", http.HandlerFunc(s.handleStatus))
		s.http.Handle("/metrics", promhttp.Handler())
	}
	return s
}

// Listen binds every configured endpoint and starts the relay actor. A bind
// failure leaves nothing bound.
func (s *Server) Listen() error {
	if err := s.tcp.Listen(); err != nil {
		return err
	}
	if s.http != nil {
		if err := s.http.Listen(); err != nil {
			s.tcp.Stop()
			return err
		}
	}
	s.started = time.Now()
	s.hub.Start()
	return nil
}

// Serve accepts connections until Stop is called.
func (s *Server) Serve() error {
	errc := make(chan error, 2)
	go func() { errc <- s.tcp.Serve() }()
	if s.http != nil {
		go func() { errc <- s.http.Serve() }()
	}

	select {
	case err := <-errc:
		if err != nil {
			return err
		}
		<-s.quit
		return nil
	case <-s.quit:
		return nil
	}
}

// Start binds and serves.
func (s *Server) Start() error {
	if err := s.Listen(); err != nil {
		return err
	}
	return s.Serve()
}

// Stop closes every endpoint and peer, then waits for the relay actor.
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		close(s.quit)
		s.tcp.Stop()
		if s.http != nil {
			s.http.Stop()
		}
		s.hub.Stop()
		s.logger.Info("relay_stopped")
	})
}

// Addr returns the TCP relay address.
func (s *Server) Addr() string {
	return s.tcp.Addr()
}

// HTTPAddr returns the HTTP side endpoint address, or "" when disabled.
func (s *Server) HTTPAddr() string {
	if s.http == nil {
		return ""
	}
	return s.http.Addr()
}

// Peers returns the addresses of every connected peer.
func (s *Server) Peers(ctx context.Context) ([]string, error) {
	snap, err := s.hub.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return snap.Peers, nil
}
