package orch

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"github.com/tgrenier/huddle/internal/core"
	"github.com/tgrenier/huddle/internal/domain"
)

// ErrRoomAccess is returned when the membership authority rejects a join.
// The caller surfaces it to the offending connection only.
var ErrRoomAccess = errors.New("room not found or access denied")

// JoinCall checks room access with the external authority, then adds the
// participant. The authority call completes before the roster is touched;
// a rejected or failed check mutates nothing.
//
// The joiner receives the roster as it stood before the join; each prior
// participant receives the join trigger. That fixes the offer direction:
// existing peers initiate toward the newcomer, so a pair can never produce
// competing offers.
func (o *Orchestrator) JoinCall(ctx context.Context, userID domain.UserID, connID core.ConnID, roomID domain.RoomID, kind domain.CallKind, media domain.MediaState) error {
	authorized, err := o.Authority.IsAuthorizedInRoom(ctx, roomID, userID)
	if err != nil {
		return fmt.Errorf("room authority: %w", err)
	}
	if !authorized {
		return ErrRoomAccess
	}

	isHost, prior := o.Rooms.Join(roomID, userID, connID, kind, media)

	o.Dispatch.ToConnection(connID, core.Event{
		Type: core.EvCallJoined,
		Payload: core.CallJoinedPayload{
			RoomID:       roomID,
			Participants: lo.Map(prior, func(p core.Participant, _ int) core.ParticipantView { return p.View() }),
			IsHost:       isHost,
		},
	})

	joined := core.Event{
		Type: core.EvUserJoinedCall,
		Payload: core.UserJoinedCallPayload{
			UserID:           userID,
			Media:            media,
			IsHost:           isHost,
			ParticipantCount: len(prior) + 1,
		},
	}
	for _, p := range prior {
		o.Dispatch.ToConnection(p.ConnID, joined)
	}
	return nil
}

// LeaveCall removes the participant and notifies whoever remains. Unknown
// room or user is a silent no-op.
func (o *Orchestrator) LeaveCall(roomID domain.RoomID, userID domain.UserID) {
	removed, remaining := o.Rooms.Leave(roomID, userID)
	if !removed || remaining == 0 {
		return
	}
	left := core.Event{
		Type:    core.EvUserLeftCall,
		Payload: core.UserLeftCallPayload{UserID: userID, ParticipantCount: remaining},
	}
	for _, p := range o.Rooms.Roster(roomID) {
		o.Dispatch.ToConnection(p.ConnID, left)
	}
}

// UpdateMedia mutates the participant's media state and tells the other
// participants. Ignored when the user is not in the room.
func (o *Orchestrator) UpdateMedia(roomID domain.RoomID, userID domain.UserID, media domain.MediaState) {
	if !o.Rooms.UpdateMedia(roomID, userID, media) {
		log.Debug().Str("module", "orch").Str("room", string(roomID)).Str("user", string(userID)).Msg("media update for absent participant")
		return
	}
	changed := core.Event{
		Type:    core.EvMediaStateChanged,
		Payload: core.MediaStateChangedPayload{UserID: userID, Media: media},
	}
	for _, p := range o.Rooms.Roster(roomID) {
		if p.UserID == userID {
			continue
		}
		o.Dispatch.ToConnection(p.ConnID, changed)
	}
}
