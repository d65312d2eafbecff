package app

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tgrenier/huddle/internal/core"
	"github.com/tgrenier/huddle/internal/domain"
)

// Presence tells a user's online friends when they come and go. Fan-out is
// independent per friend: one failed lookup or delivery never aborts the
// rest.
type Presence struct {
	registry *Registry
	graph    core.SocialGraph
	dispatch core.Dispatcher
}

func NewPresence(registry *Registry, graph core.SocialGraph, dispatch core.Dispatcher) *Presence {
	return &Presence{registry: registry, graph: graph, dispatch: dispatch}
}

// BroadcastStatus notifies every currently-online accepted friend of the
// user's status change, on every one of the friend's connections.
func (p *Presence) BroadcastStatus(ctx context.Context, userID domain.UserID, isOnline bool) {
	friends, err := p.graph.AcceptedFriendsOf(ctx, userID)
	if err != nil {
		log.Warn().Err(err).Str("module", "app.presence").Str("user", string(userID)).Msg("friend lookup failed")
		return
	}

	ev := core.Event{
		Type: core.EvFriendStatus,
		Payload: core.FriendStatusPayload{
			UserID:    userID,
			IsOnline:  isOnline,
			Timestamp: time.Now(),
		},
	}
	notified := 0
	for _, friend := range friends {
		if !p.registry.IsOnline(friend) {
			continue
		}
		p.dispatch.ToUser(friend, ev)
		notified++
	}
	log.Debug().Str("module", "app.presence").Str("user", string(userID)).Bool("online", isOnline).Int("notified", notified).Msg("presence broadcast")
}
