// Package discovery announces the relay on the local network over mDNS.
package discovery

import (
	"fmt"
	"net"
	"strconv"

	"github.com/betamos/zeroconf"
)

const (
	ServiceType = "_socketrelay._tcp"
	Domain      = "local."
)

// Announcer publishes one relay instance until closed.
type Announcer struct {
	client *zeroconf.Client
	name   string
	port   int
}

// Announce publishes name on port as a ServiceType instance.
func Announce(name string, port int) (*Announcer, error) {
	if port < 1 || port > 65535 {
		return nil, fmt.Errorf("zeroconf: invalid port %d", port)
	}
	svc := zeroconf.NewService(zeroconf.NewType(ServiceType), name, uint16(port))

	client, err := zeroconf.New().
		Publish(svc).
		Open()
	if err != nil {
		return nil, fmt.Errorf("zeroconf: %w", err)
	}

	return &Announcer{client: client, name: name, port: port}, nil
}

// Name is the published instance name.
func (a *Announcer) Name() string {
	return a.name
}

// Close withdraws the announcement.
func (a *Announcer) Close() error {
	if a.client != nil {
		return a.client.Close()
	}
	return nil
}

// PortOf extracts the port of a "host:port" listen address.
func PortOf(addr string) (int, error) {
	_, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return 0, err
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return 0, err
	}
	return port, nil
}
