package test

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omochice/socket-relay/internal/client"
	"github.com/omochice/socket-relay/internal/server"
)

const (
	senders   = 4
	perSender = 5000
	// Each sender owns a disjoint range of byte values so receivers can
	// tell interleaved streams apart.
	alphabet = 50
)

func startRelay(t *testing.T, bufSize int) *server.Server {
	t.Helper()
	srv := server.New(server.Options{
		Addr:           "127.0.0.1:0",
		HTTPAddr:       "127.0.0.1:0",
		ReadBufferSize: bufSize,
	})
	require.NoError(t, srv.Listen())
	go srv.Serve()
	t.Cleanup(srv.Stop)
	return srv
}

func streamFor(sender int) []byte {
	data := make([]byte, perSender)
	for k := range data {
		data[k] = byte(sender*alphabet + k%alphabet)
	}
	return data
}

// TestIntegration_ConcurrentSendersKeepOrder has every peer send at once,
// over both transports, and checks that each receiver gets every other
// peer's bytes complete and in order, and never its own.
func TestIntegration_ConcurrentSendersKeepOrder(t *testing.T) {
	srv := startRelay(t, 16)
	ctx := context.Background()

	peers := make([]*client.Client, senders)
	for i := range peers {
		var (
			c   *client.Client
			err error
		)
		if i%2 == 0 {
			c, err = client.Dial(ctx, srv.Addr())
		} else {
			c, err = client.DialWebSocket(ctx, "ws://"+srv.HTTPAddr()+"/ws")
		}
		require.NoError(t, err)
		defer c.Close()
		peers[i] = c
	}
	require.Eventually(t, func() bool {
		got, _ := srv.Peers(ctx)
		return len(got) == senders
	}, 2*time.Second, 10*time.Millisecond)

	want := (senders - 1) * perSender
	received := make([][]byte, senders)
	var readers sync.WaitGroup
	for i, c := range peers {
		readers.Add(1)
		go func() {
			defer readers.Done()
			buf := make([]byte, want)
			n, _ := io.ReadFull(c, buf)
			received[i] = buf[:n]
		}()
	}

	var writers sync.WaitGroup
	for i, c := range peers {
		writers.Add(1)
		go func() {
			defer writers.Done()
			data := streamFor(i)
			for off := 0; off < len(data); off += 100 {
				if _, err := c.Write(data[off : off+100]); err != nil {
					t.Errorf("peer %d write: %v", i, err)
					return
				}
			}
		}()
	}
	writers.Wait()

	done := make(chan struct{})
	go func() {
		readers.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		for _, c := range peers {
			c.Close()
		}
		<-done
	}

	for i, got := range received {
		require.Len(t, got, want, "receiver %d", i)

		next := make([]int, senders)
		for _, b := range got {
			from := int(b) / alphabet
			require.Less(t, from, senders)
			require.NotEqual(t, i, from, "receiver %d got its own bytes", i)
			require.Equal(t, byte(from*alphabet+next[from]%alphabet), b,
				"receiver %d: byte %d from sender %d out of order", i, next[from], from)
			next[from]++
		}
		for from, n := range next {
			if from != i {
				assert.Equal(t, perSender, n, "receiver %d from sender %d", i, from)
			}
		}
	}
}

// TestIntegration_ChurnLeavesRelayConsistent connects and drops peers
// repeatedly and checks that the relay ends up tracking exactly the
// survivors, which can still talk to each other.
func TestIntegration_ChurnLeavesRelayConsistent(t *testing.T) {
	srv := startRelay(t, 0)
	ctx := context.Background()

	stable, err := client.Dial(ctx, srv.Addr())
	require.NoError(t, err)
	defer stable.Close()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c, err := client.Dial(ctx, srv.Addr())
			if err != nil {
				t.Errorf("dial %d: %v", i, err)
				return
			}
			c.Write([]byte(fmt.Sprintf("churn-%d", i)))
			c.Close()
		}()
	}
	wg.Wait()

	other, err := client.Dial(ctx, srv.Addr())
	require.NoError(t, err)
	defer other.Close()

	require.Eventually(t, func() bool {
		got, _ := srv.Peers(ctx)
		return len(got) == 2
	}, 5*time.Second, 20*time.Millisecond)

	got, err := srv.Peers(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{stable.LocalAddr(), other.LocalAddr()}, got)

	_, err = other.Write([]byte("still-here"))
	require.NoError(t, err)

	// stable may first see churn payloads; look for the marker.
	deadline := time.Now().Add(3 * time.Second)
	var seen []byte
	buf := make([]byte, 256)
	for time.Now().Before(deadline) {
		n, err := stable.Read(buf)
		require.NoError(t, err)
		seen = append(seen, buf[:n]...)
		if bytes.Contains(seen, []byte("still-here")) {
			return
		}
	}
	t.Fatalf("marker never arrived, got %q", seen)
}
