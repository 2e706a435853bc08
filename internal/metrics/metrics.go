// Package metrics holds the Prometheus collectors exported by the relay.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Relay Actor Metrics
var (
	// PeersConnected tracks the number of entries in the live peer table
	PeersConnected = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "relay_peers_connected",
			Help: "Number of peers currently held by the relay actor",
		},
	)

	// PeerEvents tracks lifecycle events processed by the relay actor
	PeerEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_peer_events_total",
			Help: "Lifecycle events processed by the relay actor by kind",
		},
		[]string{"event"},
	)

	// PayloadsRelayed tracks payload events broadcast by the relay actor
	PayloadsRelayed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "relay_payloads_total",
			Help: "Total payload chunks processed by the relay actor",
		},
	)

	// BytesWritten tracks bytes successfully written to peers
	BytesWritten = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "relay_bytes_written_total",
			Help: "Total bytes written to peers during broadcasts",
		},
	)

	// WriteFailures tracks failed per-peer writes during broadcasts
	WriteFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "relay_write_failures_total",
			Help: "Total failed per-peer writes during broadcasts",
		},
	)
)

// Acceptor Metrics
var (
	// ConnectionsAccepted tracks accepted connections by transport
	ConnectionsAccepted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_connections_accepted_total",
			Help: "Total connections admitted to the relay by transport",
		},
		[]string{"transport"},
	)

	// AcceptErrors tracks failed accept calls and rejected sockets
	AcceptErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_accept_errors_total",
			Help: "Total accept failures by reason",
		},
		[]string{"reason"},
	)
)
