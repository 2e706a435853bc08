package server

import (
	"context"
	"net/http"
	"time"

	"github.com/omochice/socket-relay/pkg/protocol"
)

const statusTimeout = 2 * time.Second

// Status reports the relay address, its peers and uptime.
func (s *Server) Status(ctx context.Context) (*protocol.Status, error) {
	if s.started.IsZero() {
		return nil, ErrNotListening
	}
	peers, err := s.Peers(ctx)
	if err != nil {
		return nil, err
	}
	return &protocol.Status{
		Addr:   s.Addr(),
		Peers:  peers,
		Uptime: time.Since(s.started),
	}, nil
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), statusTimeout)
	defer cancel()

	status, err := s.Status(ctx)
	if err != nil {
		s.logger.Warn("status_unavailable", "error", err.Error())
		http.Error(w, "relay unavailable", http.StatusServiceUnavailable)
		return
	}

	contentType := protocol.ContentTypeJSON
	encode := status.Encode
	if r.URL.Query().Get("format") == "binary" || r.Header.Get("Accept") == protocol.ContentTypeProtobuf {
		contentType = protocol.ContentTypeProtobuf
		encode = status.EncodeBinary
	}

	data, err := encode()
	if err != nil {
		s.logger.Error("status_encode_failed", "error", err.Error())
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Write(data)
}
