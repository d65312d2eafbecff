package core

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"github.com/tgrenier/huddle/internal/domain"
)

// Participant is one user's membership in a live call.
type Participant struct {
	UserID   domain.UserID
	ConnID   ConnID
	IsHost   bool
	Media    domain.MediaState
	JoinedAt time.Time
}

func (p Participant) View() ParticipantView {
	return ParticipantView{UserID: p.UserID, IsHost: p.IsHost, Media: p.Media}
}

// callRoom only lives while its roster is non-empty. Guarded by the
// CallRooms mutex, never exported.
type callRoom struct {
	id        domain.RoomID
	kind      domain.CallKind
	createdAt time.Time
	byUser    map[domain.UserID]*Participant
	order     []domain.UserID // join order, keeps snapshots stable
}

func (r *callRoom) roster() []Participant {
	return lo.FilterMap(r.order, func(uid domain.UserID, _ int) (Participant, bool) {
		p, ok := r.byUser[uid]
		if !ok {
			return Participant{}, false
		}
		return *p, true
	})
}

// RoomInfo is a read-only view for APIs.
type RoomInfo struct {
	RoomID           domain.RoomID   `json:"roomId"`
	Kind             domain.CallKind `json:"kind"`
	CreatedAt        time.Time       `json:"createdAt"`
	ParticipantCount int             `json:"participantCount"`
}

// CallRooms tracks who is currently live in each room's call. It owns the
// rosters exclusively: rooms appear on first join and vanish the moment the
// last participant leaves. Access control happens upstream, before any
// mutation here.
type CallRooms struct {
	mu    sync.RWMutex
	rooms map[domain.RoomID]*callRoom
}

func NewCallRooms() *CallRooms {
	return &CallRooms{rooms: make(map[domain.RoomID]*callRoom)}
}

// Join adds the participant and reports whether they became host (first
// joiner of an empty roster) plus the roster as it stood before this join.
// Existing peers use that trigger to initiate offers toward the newcomer,
// never the reverse, so each pair exchanges exactly one offer/answer.
//
// A second join from a user already in the room refreshes their connection
// and media state in place; the host flag is never reassigned.
func (c *CallRooms) Join(roomID domain.RoomID, userID domain.UserID, connID ConnID, kind domain.CallKind, media domain.MediaState) (isHost bool, prior []Participant) {
	c.mu.Lock()
	defer c.mu.Unlock()

	room, ok := c.rooms[roomID]
	if !ok {
		room = &callRoom{
			id:        roomID,
			kind:      kind,
			createdAt: time.Now(),
			byUser:    make(map[domain.UserID]*Participant),
		}
		c.rooms[roomID] = room
		log.Info().Str("module", "core.rooms").Str("room", string(roomID)).Str("kind", string(kind)).Msg("call room created")
	}

	if p, ok := room.byUser[userID]; ok {
		p.ConnID = connID
		p.Media = media
		prior = lo.Filter(room.roster(), func(x Participant, _ int) bool { return x.UserID != userID })
		return p.IsHost, prior
	}

	prior = room.roster()
	isHost = len(room.byUser) == 0
	room.byUser[userID] = &Participant{
		UserID:   userID,
		ConnID:   connID,
		IsHost:   isHost,
		Media:    media,
		JoinedAt: time.Now(),
	}
	room.order = append(room.order, userID)
	log.Info().Str("module", "core.rooms").Str("room", string(roomID)).Str("user", string(userID)).Bool("host", isHost).Msg("participant joined")
	return isHost, prior
}

// Leave removes the participant. Deleting the room when the roster empties is
// part of the same critical section, so no observer ever sees a dangling
// empty room. Unknown room or user is a no-op: disconnect races are expected.
func (c *CallRooms) Leave(roomID domain.RoomID, userID domain.UserID) (removed bool, remaining int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	room, ok := c.rooms[roomID]
	if !ok {
		return false, 0
	}
	if _, ok := room.byUser[userID]; !ok {
		return false, len(room.byUser)
	}
	delete(room.byUser, userID)
	room.order = lo.Filter(room.order, func(uid domain.UserID, _ int) bool { return uid != userID })
	if len(room.byUser) == 0 {
		delete(c.rooms, roomID)
		log.Info().Str("module", "core.rooms").Str("room", string(roomID)).Msg("call room deleted")
		return true, 0
	}
	log.Info().Str("module", "core.rooms").Str("room", string(roomID)).Str("user", string(userID)).Msg("participant left")
	return true, len(room.byUser)
}

// UpdateMedia mutates a participant's media state in place.
// Silently ignored when the user is not in the room.
func (c *CallRooms) UpdateMedia(roomID domain.RoomID, userID domain.UserID, media domain.MediaState) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	room, ok := c.rooms[roomID]
	if !ok {
		return false
	}
	p, ok := room.byUser[userID]
	if !ok {
		return false
	}
	p.Media = media
	return true
}

// Roster returns a copy of the current roster, empty for unknown rooms.
func (c *CallRooms) Roster(roomID domain.RoomID) []Participant {
	c.mu.RLock()
	defer c.mu.RUnlock()
	room, ok := c.rooms[roomID]
	if !ok {
		return nil
	}
	return room.roster()
}

// ConnOf resolves the unicast target for the signaling relay.
func (c *CallRooms) ConnOf(roomID domain.RoomID, userID domain.UserID) (ConnID, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	room, ok := c.rooms[roomID]
	if !ok {
		return "", false
	}
	p, ok := room.byUser[userID]
	if !ok {
		return "", false
	}
	return p.ConnID, true
}

// RoomsOf lists every room this connection participates in.
// Used by disconnect teardown.
func (c *CallRooms) RoomsOf(connID ConnID) []domain.RoomID {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []domain.RoomID
	for id, room := range c.rooms {
		for _, p := range room.byUser {
			if p.ConnID == connID {
				out = append(out, id)
				break
			}
		}
	}
	return out
}

// Infos snapshots every active call for APIs.
func (c *CallRooms) Infos() []RoomInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]RoomInfo, 0, len(c.rooms))
	for id, room := range c.rooms {
		out = append(out, RoomInfo{
			RoomID:           id,
			Kind:             room.kind,
			CreatedAt:        room.createdAt,
			ParticipantCount: len(room.byUser),
		})
	}
	return out
}

// Exists reports whether a call is active for the room.
func (c *CallRooms) Exists(roomID domain.RoomID) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.rooms[roomID]
	return ok
}
