package app

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tgrenier/huddle/internal/core"
	"github.com/tgrenier/huddle/internal/domain"
)

type roomEvent struct {
	Room   domain.RoomID
	Except domain.UserID
	Ev     core.Event
}

type userEvent struct {
	User domain.UserID
	Ev   core.Event
}

type fakeDispatcher struct {
	mu     sync.Mutex
	toConn map[core.ConnID][]core.Event
	toUser []userEvent
	toRoom []roomEvent
}

func newFakeDispatcher() *fakeDispatcher {
	return &fakeDispatcher{toConn: make(map[core.ConnID][]core.Event)}
}

func (d *fakeDispatcher) ToConnection(id core.ConnID, ev core.Event) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.toConn[id] = append(d.toConn[id], ev)
}

func (d *fakeDispatcher) ToUser(userID domain.UserID, ev core.Event) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.toUser = append(d.toUser, userEvent{User: userID, Ev: ev})
}

func (d *fakeDispatcher) ToRoom(roomID domain.RoomID, except domain.UserID, ev core.Event) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.toRoom = append(d.toRoom, roomEvent{Room: roomID, Except: except, Ev: ev})
}

func (d *fakeDispatcher) roomEvents(evType string) []roomEvent {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []roomEvent
	for _, e := range d.toRoom {
		if e.Ev.Type == evType {
			out = append(out, e)
		}
	}
	return out
}

func TestTypingTracker_StartEmitsToRoom(t *testing.T) {
	fd := newFakeDispatcher()
	tracker := NewTypingTracker(time.Minute, fd)

	tracker.Start("r1", "alice", "Alice")

	events := fd.roomEvents(core.EvUserTyping)
	require.Len(t, events, 1)
	require.Equal(t, domain.RoomID("r1"), events[0].Room)
	require.Equal(t, domain.UserID("alice"), events[0].Except)
	payload := events[0].Ev.Payload.(core.UserTypingPayload)
	require.Equal(t, "Alice", payload.Username)
	require.ElementsMatch(t, []domain.UserID{"alice"}, tracker.TypingIn("r1"))
}

func TestTypingTracker_AutoExpiry(t *testing.T) {
	fd := newFakeDispatcher()
	tracker := NewTypingTracker(60*time.Millisecond, fd)

	tracker.Start("r1", "alice", "Alice")

	// bounded below: no premature stop
	time.Sleep(20 * time.Millisecond)
	require.Empty(t, fd.roomEvents(core.EvUserStoppedTyping))

	// bounded above: the stop must fire without any client action
	require.Eventually(t, func() bool {
		return len(fd.roomEvents(core.EvUserStoppedTyping)) == 1
	}, time.Second, 5*time.Millisecond)
	require.Empty(t, tracker.TypingIn("r1"))
}

func TestTypingTracker_RefreshCancelsPendingExpiry(t *testing.T) {
	fd := newFakeDispatcher()
	tracker := NewTypingTracker(60*time.Millisecond, fd)

	tracker.Start("r1", "alice", "Alice")
	time.Sleep(40 * time.Millisecond)
	tracker.Start("r1", "alice", "Alice")

	// past the first deadline, within the refreshed one
	time.Sleep(40 * time.Millisecond)
	require.Empty(t, fd.roomEvents(core.EvUserStoppedTyping))

	// exactly one stop in the end, never a duplicate from the stale timer
	require.Eventually(t, func() bool {
		return len(fd.roomEvents(core.EvUserStoppedTyping)) == 1
	}, time.Second, 5*time.Millisecond)
	time.Sleep(100 * time.Millisecond)
	require.Len(t, fd.roomEvents(core.EvUserStoppedTyping), 1)
}

func TestTypingTracker_ExplicitStop(t *testing.T) {
	fd := newFakeDispatcher()
	tracker := NewTypingTracker(time.Minute, fd)

	tracker.Start("r1", "alice", "Alice")
	tracker.Stop("r1", "alice")

	require.Len(t, fd.roomEvents(core.EvUserStoppedTyping), 1)
	require.Empty(t, tracker.TypingIn("r1"))

	// stopping again is a no-op, no duplicate event
	tracker.Stop("r1", "alice")
	require.Len(t, fd.roomEvents(core.EvUserStoppedTyping), 1)
}

func TestTypingTracker_StopUnknownIsNoop(t *testing.T) {
	fd := newFakeDispatcher()
	tracker := NewTypingTracker(time.Minute, fd)

	tracker.Stop("r1", "ghost")
	require.Empty(t, fd.roomEvents(core.EvUserStoppedTyping))
}

func TestTypingTracker_ClearAllFor(t *testing.T) {
	fd := newFakeDispatcher()
	tracker := NewTypingTracker(time.Minute, fd)

	tracker.Start("r1", "alice", "Alice")
	tracker.Start("r2", "alice", "Alice")
	tracker.Start("r1", "bob", "Bob")

	tracker.ClearAllFor("alice")

	stops := fd.roomEvents(core.EvUserStoppedTyping)
	require.Len(t, stops, 2)
	rooms := []domain.RoomID{stops[0].Room, stops[1].Room}
	require.ElementsMatch(t, []domain.RoomID{"r1", "r2"}, rooms)

	require.ElementsMatch(t, []domain.UserID{"bob"}, tracker.TypingIn("r1"))
	require.Empty(t, tracker.TypingIn("r2"))
}
