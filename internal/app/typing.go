package app

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tgrenier/huddle/internal/core"
	"github.com/tgrenier/huddle/internal/domain"
)

// DefaultTypingTTL is the inactivity window after which a typing indicator
// expires on its own.
const DefaultTypingTTL = 3 * time.Second

type typingEntry struct {
	username   string
	lastActive time.Time
	timer      *time.Timer
}

// TypingTracker keeps the per-room set of users currently typing and owns the
// expiry timers. A new Start always cancels and replaces the previous timer
// for the same (room, user) pair, so two timers can never race to fire.
//
// Expiry fires the stop event even when the client never sends one (crashed
// or backgrounded tabs), which is the whole point of the timer.
type TypingTracker struct {
	mu       sync.Mutex
	ttl      time.Duration
	rooms    map[domain.RoomID]map[domain.UserID]*typingEntry
	dispatch core.Dispatcher
}

func NewTypingTracker(ttl time.Duration, dispatch core.Dispatcher) *TypingTracker {
	if ttl <= 0 {
		ttl = DefaultTypingTTL
	}
	return &TypingTracker{
		ttl:      ttl,
		rooms:    make(map[domain.RoomID]map[domain.UserID]*typingEntry),
		dispatch: dispatch,
	}
}

// Start upserts the typing entry with a fresh timestamp and (re)arms its
// expiry timer, then tells the rest of the room.
func (t *TypingTracker) Start(roomID domain.RoomID, userID domain.UserID, username string) {
	t.mu.Lock()
	room, ok := t.rooms[roomID]
	if !ok {
		room = make(map[domain.UserID]*typingEntry)
		t.rooms[roomID] = room
	}
	if prev, ok := room[userID]; ok {
		prev.timer.Stop()
	}
	entry := &typingEntry{username: username, lastActive: time.Now()}
	entry.timer = time.AfterFunc(t.ttl, func() { t.expire(roomID, userID, entry) })
	room[userID] = entry
	t.mu.Unlock()

	t.dispatch.ToRoom(roomID, userID, core.Event{
		Type:    core.EvUserTyping,
		Payload: core.UserTypingPayload{UserID: userID, Username: username, RoomID: roomID},
	})
}

// Stop removes the entry if present and tells the rest of the room.
// Absent entries are a no-op: the timer may have fired a moment ago.
func (t *TypingTracker) Stop(roomID domain.RoomID, userID domain.UserID) {
	if t.remove(roomID, userID, nil) {
		t.emitStopped(roomID, userID)
	}
}

// ClearAllFor removes the user from every room's typing state, emitting a
// stop event for each. Called during disconnect teardown so no ghost
// indicator ever sticks.
func (t *TypingTracker) ClearAllFor(userID domain.UserID) {
	t.mu.Lock()
	var cleared []domain.RoomID
	for roomID, room := range t.rooms {
		if entry, ok := room[userID]; ok {
			entry.timer.Stop()
			delete(room, userID)
			if len(room) == 0 {
				delete(t.rooms, roomID)
			}
			cleared = append(cleared, roomID)
		}
	}
	t.mu.Unlock()

	for _, roomID := range cleared {
		t.emitStopped(roomID, userID)
	}
}

// TypingIn snapshots who is typing in a room.
func (t *TypingTracker) TypingIn(roomID domain.RoomID) []domain.UserID {
	t.mu.Lock()
	defer t.mu.Unlock()
	room := t.rooms[roomID]
	out := make([]domain.UserID, 0, len(room))
	for uid := range room {
		out = append(out, uid)
	}
	return out
}

func (t *TypingTracker) expire(roomID domain.RoomID, userID domain.UserID, entry *typingEntry) {
	if t.remove(roomID, userID, entry) {
		log.Debug().Str("module", "app.typing").Str("room", string(roomID)).Str("user", string(userID)).Msg("typing expired")
		t.emitStopped(roomID, userID)
	}
}

// remove deletes the entry. When expected is non-nil the delete only happens
// if that exact entry is still current, so a stale timer firing after a
// refresh cannot remove its replacement.
func (t *TypingTracker) remove(roomID domain.RoomID, userID domain.UserID, expected *typingEntry) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	room, ok := t.rooms[roomID]
	if !ok {
		return false
	}
	entry, ok := room[userID]
	if !ok {
		return false
	}
	if expected != nil && entry != expected {
		return false
	}
	entry.timer.Stop()
	delete(room, userID)
	if len(room) == 0 {
		delete(t.rooms, roomID)
	}
	return true
}

func (t *TypingTracker) emitStopped(roomID domain.RoomID, userID domain.UserID) {
	t.dispatch.ToRoom(roomID, userID, core.Event{
		Type:    core.EvUserStoppedTyping,
		Payload: core.UserStoppedTypingPayload{UserID: userID, RoomID: roomID},
	})
}
