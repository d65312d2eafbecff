package signal

import (
	"sync"

	"github.com/tgrenier/huddle/internal/core"
	"github.com/tgrenier/huddle/internal/domain"
)

type hubMember struct {
	userID domain.UserID
	conn   core.SignalConnection
}

// Hub tracks which messaging connections subscribed to which chat rooms, so
// room-scoped events (typing) reach only current subscribers. Rooms are
// dropped as soon as their last subscriber leaves.
type Hub struct {
	mu     sync.RWMutex
	rooms  map[domain.RoomID]map[core.ConnID]hubMember
	byConn map[core.ConnID]map[domain.RoomID]struct{}
}

func NewHub() *Hub {
	return &Hub{
		rooms:  make(map[domain.RoomID]map[core.ConnID]hubMember),
		byConn: make(map[core.ConnID]map[domain.RoomID]struct{}),
	}
}

func (h *Hub) Subscribe(roomID domain.RoomID, connID core.ConnID, userID domain.UserID, conn core.SignalConnection) {
	h.mu.Lock()
	defer h.mu.Unlock()

	room, ok := h.rooms[roomID]
	if !ok {
		room = make(map[core.ConnID]hubMember)
		h.rooms[roomID] = room
	}
	room[connID] = hubMember{userID: userID, conn: conn}

	set, ok := h.byConn[connID]
	if !ok {
		set = make(map[domain.RoomID]struct{})
		h.byConn[connID] = set
	}
	set[roomID] = struct{}{}
}

func (h *Hub) Unsubscribe(roomID domain.RoomID, connID core.ConnID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dropLocked(roomID, connID)
}

// DropConn removes the connection from every room. Called at disconnect.
func (h *Hub) DropConn(connID core.ConnID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for roomID := range h.byConn[connID] {
		h.dropLocked(roomID, connID)
	}
}

func (h *Hub) dropLocked(roomID domain.RoomID, connID core.ConnID) {
	if room, ok := h.rooms[roomID]; ok {
		delete(room, connID)
		if len(room) == 0 {
			delete(h.rooms, roomID)
		}
	}
	if set, ok := h.byConn[connID]; ok {
		delete(set, roomID)
		if len(set) == 0 {
			delete(h.byConn, connID)
		}
	}
}

// Broadcast best-effort delivers a frame to every subscriber of the room
// except connections owned by the excluded user.
func (h *Hub) Broadcast(roomID domain.RoomID, except domain.UserID, f core.Frame) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, m := range h.rooms[roomID] {
		if m.userID == except {
			continue
		}
		_ = m.conn.TrySend(f)
	}
}

// Subscribed reports whether the connection is in the room.
func (h *Hub) Subscribed(roomID domain.RoomID, connID core.ConnID) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.rooms[roomID][connID]
	return ok
}
