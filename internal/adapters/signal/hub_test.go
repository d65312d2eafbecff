package signal

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tgrenier/huddle/internal/core"
)

type recordConn struct {
	mu     sync.Mutex
	frames []core.Frame
}

func (c *recordConn) TrySend(f core.Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames = append(c.frames, f)
	return nil
}

func (c *recordConn) Close() {}

func (c *recordConn) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.frames)
}

func TestHub_BroadcastExceptsSender(t *testing.T) {
	h := NewHub()
	alice, bob, carol := &recordConn{}, &recordConn{}, &recordConn{}
	h.Subscribe("r1", "c1", "alice", alice)
	h.Subscribe("r1", "c2", "bob", bob)
	h.Subscribe("r2", "c3", "carol", carol)

	h.Broadcast("r1", "alice", core.Frame(`{"type":"user-typing"}`))

	require.Zero(t, alice.count())
	require.Equal(t, 1, bob.count())
	require.Zero(t, carol.count())
}

func TestHub_ExceptCoversAllConnsOfUser(t *testing.T) {
	h := NewHub()
	tab1, tab2, bob := &recordConn{}, &recordConn{}, &recordConn{}
	h.Subscribe("r1", "c1", "alice", tab1)
	h.Subscribe("r1", "c2", "alice", tab2)
	h.Subscribe("r1", "c3", "bob", bob)

	h.Broadcast("r1", "alice", core.Frame(`x`))

	require.Zero(t, tab1.count())
	require.Zero(t, tab2.count())
	require.Equal(t, 1, bob.count())
}

func TestHub_UnsubscribeAndDrop(t *testing.T) {
	h := NewHub()
	alice, bob := &recordConn{}, &recordConn{}
	h.Subscribe("r1", "c1", "alice", alice)
	h.Subscribe("r2", "c1", "alice", alice)
	h.Subscribe("r1", "c2", "bob", bob)
	require.True(t, h.Subscribed("r1", "c1"))

	h.Unsubscribe("r1", "c1")
	require.False(t, h.Subscribed("r1", "c1"))
	require.True(t, h.Subscribed("r2", "c1"))

	h.DropConn("c1")
	require.False(t, h.Subscribed("r2", "c1"))

	h.Broadcast("r1", "", core.Frame(`x`))
	h.Broadcast("r2", "", core.Frame(`x`))
	require.Zero(t, alice.count())
	require.Equal(t, 1, bob.count())
}
