package ws

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeConn struct {
	mu     sync.Mutex
	msgs   [][]byte
	closed bool
	fail   bool
}

func (c *fakeConn) WriteMessage(_ int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail {
		return errors.New("broken pipe")
	}
	c.msgs = append(c.msgs, data)
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) received() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.msgs)
}

func (c *fakeConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func TestHubBroadcast(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(zap.NewNop())
	done := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(done)
	}()

	good := &fakeConn{}
	bad := &fakeConn{fail: true}
	hub.Register(good)
	hub.Register(bad)
	require.Eventually(t, func() bool { return hub.ClientCount() == 2 }, time.Second, 5*time.Millisecond)

	hub.Broadcast([]byte(`{"type":"stock_update"}`))

	require.Eventually(t, func() bool { return good.received() == 1 }, time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)
	assert.True(t, bad.isClosed(), "a client that fails a write is dropped")

	cancel()
	<-done
	assert.True(t, good.isClosed())
	assert.Equal(t, 0, hub.ClientCount())
}

func TestHubUnregister(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hub := NewHub(zap.NewNop())
	go hub.Run(ctx)

	c := &fakeConn{}
	hub.Register(c)
	hub.Unregister(c)

	require.Eventually(t, func() bool { return hub.ClientCount() == 0 }, time.Second, 5*time.Millisecond)
	assert.True(t, c.isClosed())
}

func TestHubStoppedClosesLateClients(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(zap.NewNop())
	cancel()
	hub.Run(ctx)

	c := &fakeConn{}
	hub.Register(c)
	hub.Unregister(c)
	assert.True(t, c.isClosed())
}
