package relay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sort"

	"github.com/omochice/socket-relay/internal/metrics"
)

type peer struct {
	id     string
	writer WriteHalf
}

// Actor owns the table of live peers and processes the mailbox one event at a
// time. Only the goroutine running Run reads or writes the table.
type Actor struct {
	mailbox *Mailbox
	logger  *slog.Logger
	peers   map[string]*peer
}

// NewActor creates an Actor consuming mailbox. A nil logger uses slog.Default().
func NewActor(mailbox *Mailbox, logger *slog.Logger) *Actor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Actor{
		mailbox: mailbox,
		logger:  logger,
		peers:   make(map[string]*peer),
	}
}

// Run processes events until the mailbox is closed and drained, or ctx is
// cancelled. Every write half still held on return is closed.
// Run must not be called more than once.
func (a *Actor) Run(ctx context.Context) {
	defer a.closeAll()
	for {
		ev, err := a.mailbox.Receive(ctx)
		if err != nil {
			a.logger.Info("relay_actor_stopped", "reason", err.Error())
			return
		}
		a.handle(ev)
	}
}

// Snapshot asks the running Actor for its current peer list.
func (a *Actor) Snapshot(ctx context.Context) (Snapshot, error) {
	reply := make(chan Snapshot, 1)
	if err := a.mailbox.Send(snapshotRequest{reply: reply}); err != nil {
		return Snapshot{}, err
	}
	select {
	case snap := <-reply:
		return snap, nil
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	}
}

func (a *Actor) handle(ev Event) {
	switch ev := ev.(type) {
	case Connected:
		a.connect(ev)
	case Disconnected:
		a.disconnect(ev)
	case Payload:
		a.broadcast(ev)
	case snapshotRequest:
		ev.reply <- a.snapshot()
	default:
		a.logger.Warn("relay_unknown_event", "type", fmt.Sprintf("%T", ev))
	}
}

func (a *Actor) connect(ev Connected) {
	metrics.PeerEvents.WithLabelValues("connected").Inc()
	if old, ok := a.peers[ev.Addr]; ok {
		a.logger.Warn("peer_replaced",
			"remote_addr", ev.Addr,
			"old_conn_id", old.id,
			"conn_id", ev.ID,
		)
		a.shutdown(ev.Addr, old)
	}
	a.peers[ev.Addr] = &peer{id: ev.ID, writer: ev.Writer}
	metrics.PeersConnected.Set(float64(len(a.peers)))
	a.logger.Info("peer_connected",
		"remote_addr", ev.Addr,
		"conn_id", ev.ID,
		"peers", len(a.peers),
	)
}

func (a *Actor) disconnect(ev Disconnected) {
	metrics.PeerEvents.WithLabelValues("disconnected").Inc()
	p, ok := a.peers[ev.Addr]
	if !ok {
		a.logger.Debug("peer_already_gone", "remote_addr", ev.Addr, "conn_id", ev.ID)
		return
	}
	// A newer connection reusing the address has already replaced this one.
	if ev.ID != "" && p.id != ev.ID {
		a.logger.Debug("stale_disconnect_ignored",
			"remote_addr", ev.Addr,
			"conn_id", ev.ID,
			"live_conn_id", p.id,
		)
		return
	}
	delete(a.peers, ev.Addr)
	metrics.PeersConnected.Set(float64(len(a.peers)))
	a.shutdown(ev.Addr, p)
	a.logger.Info("peer_disconnected",
		"remote_addr", ev.Addr,
		"conn_id", p.id,
		"peers", len(a.peers),
	)
}

func (a *Actor) broadcast(ev Payload) {
	metrics.PayloadsRelayed.Inc()
	a.logger.Debug("payload_received",
		"remote_addr", ev.Addr,
		"size", len(ev.Data),
	)
	for addr, p := range a.peers {
		if addr == ev.Addr {
			continue
		}
		n, err := p.writer.Write(ev.Data)
		metrics.BytesWritten.Add(float64(n))
		if err != nil {
			metrics.WriteFailures.Inc()
			a.logger.Warn("broadcast_write_failed",
				"remote_addr", addr,
				"conn_id", p.id,
				"error", fmt.Errorf("%w: %w", ErrBroadcastWrite, err).Error(),
			)
		}
	}
}

func (a *Actor) snapshot() Snapshot {
	peers := make([]string, 0, len(a.peers))
	for addr := range a.peers {
		peers = append(peers, addr)
	}
	sort.Strings(peers)
	return Snapshot{Peers: peers}
}

func (a *Actor) shutdown(addr string, p *peer) {
	if err := p.writer.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		a.logger.Warn("peer_shutdown_failed",
			"remote_addr", addr,
			"conn_id", p.id,
			"error", fmt.Errorf("%w: %w", ErrShutdown, err).Error(),
		)
	}
}

func (a *Actor) closeAll() {
	for addr, p := range a.peers {
		a.shutdown(addr, p)
		delete(a.peers, addr)
	}
	metrics.PeersConnected.Set(0)
}
