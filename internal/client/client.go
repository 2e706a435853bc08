// Package client provides a raw byte client for the relay, over TCP or WebSocket.
package client

import (
	"context"
	"fmt"
	"io"
	"net"

	"github.com/gobwas/ws"
)

// Client is one peer of the relay.
type Client struct {
	conn Connection
}

// New wraps an established connection.
func New(conn Connection) *Client {
	return &Client{conn: conn}
}

// Dial connects to the relay's TCP endpoint.
func Dial(ctx context.Context, address string) (*Client, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to relay: %w", err)
	}
	return &Client{conn: conn}, nil
}

// DialWebSocket connects to the relay's WebSocket endpoint, e.g. ws://127.0.0.1:8080/ws.
func DialWebSocket(ctx context.Context, url string) (*Client, error) {
	conn, br, _, err := ws.Dial(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to relay: %w", err)
	}
	var reader io.Reader
	if br != nil {
		reader = io.MultiReader(br, conn)
	}
	return &Client{conn: NewWebSocketConnection(conn, reader)}, nil
}

// Write sends raw bytes to the relay.
func (c *Client) Write(p []byte) (int, error) {
	return c.conn.Write(p)
}

// Read receives bytes written by other peers. Chunk boundaries are arbitrary.
func (c *Client) Read(p []byte) (int, error) {
	return c.conn.Read(p)
}

// Close closes the connection to the relay.
func (c *Client) Close() error {
	return c.conn.Close()
}

// LocalAddr is the address the relay knows this client by.
func (c *Client) LocalAddr() string {
	return c.conn.LocalAddr().String()
}

// Pipe copies in to the relay and everything relayed back to out. It returns
// when either direction ends or ctx is cancelled, and closes the client.
func (c *Client) Pipe(ctx context.Context, in io.Reader, out io.Writer) error {
	errc := make(chan error, 2)
	go func() {
		_, err := io.Copy(out, c.conn)
		errc <- err
	}()
	go func() {
		_, err := io.Copy(c.conn, in)
		errc <- err
	}()

	var err error
	select {
	case err = <-errc:
	case <-ctx.Done():
		err = ctx.Err()
	}
	c.conn.Close()
	return err
}
