package relay_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omochice/socket-relay/internal/relay"
)

func TestMailbox_FIFO(t *testing.T) {
	mb := relay.NewMailbox()
	for i := 0; i < 5; i++ {
		require.NoError(t, mb.Send(relay.Payload{Addr: "a", Data: []byte{byte(i)}}))
	}
	assert.Equal(t, 5, mb.Len())

	for i := 0; i < 5; i++ {
		ev, err := mb.Receive(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []byte{byte(i)}, ev.(relay.Payload).Data)
	}
	assert.Equal(t, 0, mb.Len())
}

func TestMailbox_PerProducerOrder(t *testing.T) {
	mb := relay.NewMailbox()
	const producers = 8
	const perProducer = 200

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			addr := fmt.Sprintf("10.0.0.%d:1000", p)
			for i := 0; i < perProducer; i++ {
				_ = mb.Send(relay.Payload{Addr: addr, Data: []byte(fmt.Sprint(i))})
			}
		}(p)
	}

	next := make(map[string]int)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for received := 0; received < producers*perProducer; received++ {
		ev, err := mb.Receive(ctx)
		require.NoError(t, err)
		payload := ev.(relay.Payload)
		assert.Equal(t, fmt.Sprint(next[payload.Addr]), string(payload.Data), "out of order from %s", payload.Addr)
		next[payload.Addr]++
	}
	wg.Wait()
}

func TestMailbox_CloseDrainsQueue(t *testing.T) {
	mb := relay.NewMailbox()
	require.NoError(t, mb.Send(relay.Disconnected{Addr: "a"}))
	mb.Close()
	mb.Close()

	assert.ErrorIs(t, mb.Send(relay.Disconnected{Addr: "b"}), relay.ErrMailboxClosed)

	ev, err := mb.Receive(context.Background())
	require.NoError(t, err)
	assert.Equal(t, relay.Disconnected{Addr: "a"}, ev)

	_, err = mb.Receive(context.Background())
	assert.ErrorIs(t, err, relay.ErrMailboxClosed)
}

func TestMailbox_ReceiveWakesOnSend(t *testing.T) {
	mb := relay.NewMailbox()
	got := make(chan relay.Event, 1)
	go func() {
		ev, err := mb.Receive(context.Background())
		if err == nil {
			got <- ev
		}
	}()

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, mb.Send(relay.Payload{Addr: "a", Data: []byte("x")}))

	select {
	case ev := <-got:
		assert.Equal(t, "a", ev.(relay.Payload).Addr)
	case <-time.After(time.Second):
		t.Fatal("Receive did not wake up after Send")
	}
}

func TestMailbox_ReceiveWakesOnClose(t *testing.T) {
	mb := relay.NewMailbox()
	done := make(chan error, 1)
	go func() {
		_, err := mb.Receive(context.Background())
		done <- err
	}()

	time.Sleep(20 * time.Millisecond)
	mb.Close()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, relay.ErrMailboxClosed)
	case <-time.After(time.Second):
		t.Fatal("Receive did not return after Close")
	}
}

func TestMailbox_ReceiveContextCancelled(t *testing.T) {
	mb := relay.NewMailbox()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := mb.Receive(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
