// Package orch drives connection lifecycle across the two namespaces
// (messaging, calls) and routes signaling between call peers. It owns no
// state of its own; all mutation goes through the injected state managers.
package orch

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/tgrenier/huddle/internal/app"
	"github.com/tgrenier/huddle/internal/core"
	"github.com/tgrenier/huddle/internal/domain"
)

type Orchestrator struct {
	// Chat and Calls each track the connections of one namespace.
	// Presence derives from the chat namespace.
	Chat  *app.Registry
	Calls *app.Registry

	Rooms    *core.CallRooms
	Typing   *app.TypingTracker
	Presence *app.Presence
	Offline  *app.OfflineQueue

	Authority core.RoomAuthority
	Dispatch  core.Dispatcher
}

// ConnectChat registers an authenticated messaging connection, broadcasts
// "online" if this is the user's first one, and replays anything queued while
// they were away.
func (o *Orchestrator) ConnectChat(ctx context.Context, user *domain.User, connID core.ConnID, conn core.SignalConnection) {
	cameOnline := o.Chat.Register(user.ID, connID, conn)
	if cameOnline && o.Presence != nil {
		o.Presence.BroadcastStatus(ctx, user.ID, true)
	}
	if o.Offline != nil {
		for _, ev := range o.Offline.Flush(user.ID) {
			o.Dispatch.ToConnection(connID, ev)
		}
	}
}

// DisconnectChat unwinds a messaging connection. Teardown is unconditional
// and best-effort: every step runs regardless of the others, so a stuck
// socket can never leave a ghost typing indicator or stale presence.
func (o *Orchestrator) DisconnectChat(ctx context.Context, userID domain.UserID, connID core.ConnID) {
	o.Typing.ClearAllFor(userID)
	wentOffline := o.Chat.Unregister(userID, connID)
	if wentOffline && o.Presence != nil {
		o.Presence.BroadcastStatus(ctx, userID, false)
	}
	log.Info().Str("module", "orch").Str("conn", string(connID)).Str("user", string(userID)).Msg("chat connection torn down")
}

// ConnectCalls registers an authenticated calls connection.
func (o *Orchestrator) ConnectCalls(user *domain.User, connID core.ConnID, conn core.SignalConnection) {
	o.Calls.Register(user.ID, connID, conn)
}

// DisconnectCalls removes the connection from every call it was part of,
// with full leave semantics (peer notification, empty-room cleanup), then
// unregisters it.
func (o *Orchestrator) DisconnectCalls(userID domain.UserID, connID core.ConnID) {
	for _, roomID := range o.Rooms.RoomsOf(connID) {
		o.LeaveCall(roomID, userID)
	}
	o.Calls.Unregister(userID, connID)
	log.Info().Str("module", "orch").Str("conn", string(connID)).Str("user", string(userID)).Msg("calls connection torn down")
}

// DeliverOrQueue sends an event to every live connection of the user, or
// parks it in the offline queue until they next connect.
func (o *Orchestrator) DeliverOrQueue(userID domain.UserID, ev core.Event) {
	if o.Chat.IsOnline(userID) {
		o.Dispatch.ToUser(userID, ev)
		return
	}
	if o.Offline != nil {
		o.Offline.Enqueue(userID, ev)
	}
}
