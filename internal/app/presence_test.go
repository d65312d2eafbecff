package app

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tgrenier/huddle/internal/core"
	"github.com/tgrenier/huddle/internal/domain"
)

type fakeGraph struct {
	friends map[domain.UserID][]domain.UserID
	err     error
}

func (g *fakeGraph) AcceptedFriendsOf(_ context.Context, userID domain.UserID) ([]domain.UserID, error) {
	if g.err != nil {
		return nil, g.err
	}
	return g.friends[userID], nil
}

func TestPresence_NotifiesOnlyOnlineFriends(t *testing.T) {
	registry := NewRegistry(nil)
	registry.Register("bob", "c-bob", &fakeConn{})
	// carol is a friend but offline, dave is online but not a friend
	registry.Register("dave", "c-dave", &fakeConn{})

	fd := newFakeDispatcher()
	graph := &fakeGraph{friends: map[domain.UserID][]domain.UserID{
		"alice": {"bob", "carol"},
	}}
	p := NewPresence(registry, graph, fd)

	p.BroadcastStatus(context.Background(), "alice", true)

	require.Len(t, fd.toUser, 1)
	require.Equal(t, domain.UserID("bob"), fd.toUser[0].User)
	require.Equal(t, core.EvFriendStatus, fd.toUser[0].Ev.Type)
	payload := fd.toUser[0].Ev.Payload.(core.FriendStatusPayload)
	require.Equal(t, domain.UserID("alice"), payload.UserID)
	require.True(t, payload.IsOnline)
	require.False(t, payload.Timestamp.IsZero())
}

func TestPresence_OfflineStatus(t *testing.T) {
	registry := NewRegistry(nil)
	registry.Register("bob", "c-bob", &fakeConn{})

	fd := newFakeDispatcher()
	graph := &fakeGraph{friends: map[domain.UserID][]domain.UserID{"alice": {"bob"}}}
	p := NewPresence(registry, graph, fd)

	p.BroadcastStatus(context.Background(), "alice", false)

	require.Len(t, fd.toUser, 1)
	payload := fd.toUser[0].Ev.Payload.(core.FriendStatusPayload)
	require.False(t, payload.IsOnline)
}

func TestPresence_GraphFailureIsSwallowed(t *testing.T) {
	registry := NewRegistry(nil)
	fd := newFakeDispatcher()
	p := NewPresence(registry, &fakeGraph{err: errors.New("upstream down")}, fd)

	// must not panic, must not dispatch anything
	p.BroadcastStatus(context.Background(), "alice", true)
	require.Empty(t, fd.toUser)
}

func TestPresence_NoFriends(t *testing.T) {
	registry := NewRegistry(nil)
	fd := newFakeDispatcher()
	p := NewPresence(registry, &fakeGraph{}, fd)

	p.BroadcastStatus(context.Background(), "alice", true)
	require.Empty(t, fd.toUser)
}
