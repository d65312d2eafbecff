package core

import "github.com/tgrenier/huddle/internal/domain"

// Dispatcher delivers typed events to live connections. Implemented by the
// websocket adapter; state managers only ever see this interface, which keeps
// them testable with a fake.
//
// Delivery is best-effort: a slow or dead connection drops the event, it never
// blocks or fails the caller.
type Dispatcher interface {
	// ToConnection delivers to exactly one connection.
	ToConnection(id ConnID, ev Event)
	// ToUser fans out to every live connection of a user (multi-device).
	ToUser(userID domain.UserID, ev Event)
	// ToRoom delivers to every connection subscribed to a chat room,
	// excluding the given user (the sender of the triggering action).
	ToRoom(roomID domain.RoomID, except domain.UserID, ev Event)
}
