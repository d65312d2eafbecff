package signal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestJoinRateLimiter_BlocksOverLimit(t *testing.T) {
	rl := NewJoinRateLimiter(3, time.Minute)

	require.True(t, rl.Allow("alice"))
	require.True(t, rl.Allow("alice"))
	require.True(t, rl.Allow("alice"))
	require.False(t, rl.Allow("alice"))

	// other users are unaffected
	require.True(t, rl.Allow("bob"))
}

func TestJoinRateLimiter_WindowSlides(t *testing.T) {
	rl := NewJoinRateLimiter(2, 50*time.Millisecond)

	require.True(t, rl.Allow("alice"))
	require.True(t, rl.Allow("alice"))
	require.False(t, rl.Allow("alice"))

	time.Sleep(60 * time.Millisecond)
	require.True(t, rl.Allow("alice"))
}

func TestWSConn_Backpressure(t *testing.T) {
	c := newWSConn(nil, 1)
	require.NoError(t, c.TrySend([]byte("one")))
	require.ErrorIs(t, c.TrySend([]byte("two")), ErrBackpressure)
}
