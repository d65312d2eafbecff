package signal

import (
	"encoding/json"

	"github.com/rs/zerolog/log"
	"github.com/tgrenier/huddle/internal/app"
	"github.com/tgrenier/huddle/internal/core"
	"github.com/tgrenier/huddle/internal/domain"
)

// Dispatcher is the transport-backed implementation of core.Dispatcher.
// User fan-out goes through the messaging-namespace registry; connection
// lookup tries every namespace since connection IDs are globally unique.
type Dispatcher struct {
	hub   *Hub
	users *app.Registry
	all   []*app.Registry
}

func NewDispatcher(hub *Hub, chat *app.Registry, calls *app.Registry) *Dispatcher {
	return &Dispatcher{hub: hub, users: chat, all: []*app.Registry{chat, calls}}
}

func (d *Dispatcher) ToConnection(id core.ConnID, ev core.Event) {
	for _, reg := range d.all {
		if conn, ok := reg.Sender(id); ok {
			sendEvent(conn, ev)
			return
		}
	}
	log.Debug().Str("module", "signal").Str("conn", string(id)).Str("event", ev.Type).Msg("dispatch to unknown connection dropped")
}

func (d *Dispatcher) ToUser(userID domain.UserID, ev core.Event) {
	for _, connID := range d.users.ConnectionsFor(userID) {
		if conn, ok := d.users.Sender(connID); ok {
			sendEvent(conn, ev)
		}
	}
}

func (d *Dispatcher) ToRoom(roomID domain.RoomID, except domain.UserID, ev core.Event) {
	b, err := json.Marshal(ev)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ToRoom marshal")
		return
	}
	d.hub.Broadcast(roomID, except, b)
}
