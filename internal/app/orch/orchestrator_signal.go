package orch

import (
	"encoding/json"

	"github.com/rs/zerolog/log"
	"github.com/tgrenier/huddle/internal/core"
	"github.com/tgrenier/huddle/internal/domain"
)

// Route relays one signaling payload (SDP offer/answer or ICE candidate)
// from a sender to one target peer of the same room. It is a pure relay:
// the payload is never inspected, and there is exactly one recipient.
//
// A missing sender or target is dropped silently. The target may have left a
// moment ago; that is a normal race, not a fault, and the sender is not told.
func (o *Orchestrator) Route(roomID domain.RoomID, senderID, targetID domain.UserID, evType string, data json.RawMessage) {
	switch evType {
	case core.EvWebRTCOffer, core.EvWebRTCAnswer, core.EvWebRTCCandidate:
	default:
		log.Warn().Str("module", "orch").Str("type", evType).Msg("unknown signal kind")
		return
	}

	if _, ok := o.Rooms.ConnOf(roomID, senderID); !ok {
		log.Debug().Str("module", "orch").Str("room", string(roomID)).Str("sender", string(senderID)).Msg("signal from non-participant dropped")
		return
	}
	connID, ok := o.Rooms.ConnOf(roomID, targetID)
	if !ok {
		log.Debug().Str("module", "orch").Str("room", string(roomID)).Str("target", string(targetID)).Msg("signal target absent, dropped")
		return
	}

	o.Dispatch.ToConnection(connID, core.Event{
		Type:    evType,
		Payload: core.SignalPayload{RoomID: roomID, SenderID: senderID, Data: data},
	})
}
