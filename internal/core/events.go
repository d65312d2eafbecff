package core

import (
	"encoding/json"
	"time"

	"github.com/tgrenier/huddle/internal/domain"
)

// Event names on the wire. Clients subscribe by these.
const (
	EvUserJoinedCall    = "user-joined-call"
	EvUserLeftCall      = "user-left-call"
	EvCallJoined        = "call-joined"
	EvWebRTCOffer       = "webrtc-offer"
	EvWebRTCAnswer      = "webrtc-answer"
	EvWebRTCCandidate   = "webrtc-ice-candidate"
	EvMediaStateChanged = "media-state-changed"
	EvUserTyping        = "user-typing"
	EvUserStoppedTyping = "user-stopped-typing"
	EvFriendStatus      = "friend-status-change"
	EvError             = "error"
)

// Event is the envelope every outbound notification travels in.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// ParticipantView is a read-only roster entry for events and APIs
// (no transport fields).
type ParticipantView struct {
	UserID domain.UserID     `json:"userId"`
	IsHost bool              `json:"isHost"`
	Media  domain.MediaState `json:"mediaState"`
}

type UserJoinedCallPayload struct {
	UserID           domain.UserID     `json:"userId"`
	Media            domain.MediaState `json:"mediaState"`
	IsHost           bool              `json:"isHost"`
	ParticipantCount int               `json:"participantCount"`
}

type UserLeftCallPayload struct {
	UserID           domain.UserID `json:"userId"`
	ParticipantCount int           `json:"participantCount"`
}

// CallJoinedPayload goes only to the joining connection. Participants holds
// the roster as it stood before the join: those peers will send offers toward
// the newcomer, the newcomer only answers.
type CallJoinedPayload struct {
	RoomID       domain.RoomID     `json:"roomId"`
	Participants []ParticipantView `json:"participants"`
	IsHost       bool              `json:"isHost"`
}

// SignalPayload relays an SDP or ICE blob between two peers of one room.
// Data is opaque here: validated for shape at the edge, never inspected.
type SignalPayload struct {
	RoomID   domain.RoomID   `json:"roomId"`
	SenderID domain.UserID   `json:"senderId"`
	Data     json.RawMessage `json:"payload"`
}

type MediaStateChangedPayload struct {
	UserID domain.UserID     `json:"userId"`
	Media  domain.MediaState `json:"mediaState"`
}

type UserTypingPayload struct {
	UserID   domain.UserID `json:"userId"`
	Username string        `json:"username"`
	RoomID   domain.RoomID `json:"roomId"`
}

type UserStoppedTypingPayload struct {
	UserID domain.UserID `json:"userId"`
	RoomID domain.RoomID `json:"roomId"`
}

type FriendStatusPayload struct {
	UserID    domain.UserID `json:"userId"`
	IsOnline  bool          `json:"isOnline"`
	Timestamp time.Time     `json:"timestamp"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

func ErrorEvent(msg string) Event {
	return Event{Type: EvError, Payload: ErrorPayload{Message: msg}}
}
