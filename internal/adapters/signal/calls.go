package signal

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"
	"github.com/tgrenier/huddle/internal/app/orch"
	"github.com/tgrenier/huddle/internal/core"
	"github.com/tgrenier/huddle/internal/domain"
)

// CallsController serves the calls namespace: call membership, media state
// and the WebRTC signaling relay.
type CallsController struct {
	Orch    *orch.Orchestrator
	Limiter *JoinRateLimiter
	Opts    ConnOptions
}

func (ctl *CallsController) Handle(ctx context.Context, c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal.calls").Msg("ws upgrade")
		return
	}

	connID := core.ConnID(uuid.NewString())
	conn := newWSConn(ws, ctl.Opts.SendBuf)
	log.Info().Str("module", "signal.calls").Str("conn", string(connID)).Str("user", string(user.ID)).Msg("new WS connection")

	connCtx, cancel := context.WithCancel(ctx)
	ctl.Orch.ConnectCalls(user, connID, conn)

	go writePump(connCtx, conn, ctl.Opts.PingPeriod)
	go func() {
		defer func() {
			cancel()
			ctl.Orch.DisconnectCalls(user.ID, connID)
		}()
		readPump(connCtx, connID, conn, ctl.Opts.ReadLimit, ctl.Opts.PingPeriod, func(data []byte) {
			ctl.handleMessage(connCtx, user, connID, conn, data)
		})
	}()
}

func (ctl *CallsController) handleMessage(ctx context.Context, user *domain.User, connID core.ConnID, conn *wsConn, data []byte) {
	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		log.Error().Err(err).Str("module", "signal.calls").Msg("bad json")
		sendEvent(conn, core.ErrorEvent("bad payload"))
		return
	}

	switch env.Type {
	case "join-call":
		ctl.handleJoinCall(ctx, user, connID, conn, data)
	case "leave-call":
		ctl.handleLeaveCall(user, conn, data)
	case "webrtc-offer":
		ctl.handleSDP(user, conn, data, core.EvWebRTCOffer)
	case "webrtc-answer":
		ctl.handleSDP(user, conn, data, core.EvWebRTCAnswer)
	case "webrtc-ice-candidate":
		ctl.handleCandidate(user, conn, data)
	case "media-state-change":
		ctl.handleMediaState(user, conn, data)
	case "ping":
		sendEvent(conn, core.Event{Type: "pong"})
	default:
		log.Warn().Str("module", "signal.calls").Str("type", env.Type).Msg("unknown command")
	}
}

func (ctl *CallsController) handleJoinCall(ctx context.Context, user *domain.User, connID core.ConnID, conn *wsConn, data []byte) {
	type joinPayload struct {
		Type  string            `json:"type"`
		Room  string            `json:"roomId"`
		Kind  domain.CallKind   `json:"callType"`
		Media domain.MediaState `json:"mediaState"`
	}
	var p joinPayload
	if err := json.Unmarshal(data, &p); err != nil || p.Room == "" {
		sendEvent(conn, core.ErrorEvent("bad payload"))
		return
	}
	if ctl.Limiter != nil && !ctl.Limiter.Allow(user.ID) {
		sendEvent(conn, core.ErrorEvent("too many join attempts"))
		return
	}
	kind := p.Kind
	if !kind.Valid() {
		kind = domain.CallVideo
	}

	err := ctl.Orch.JoinCall(ctx, user.ID, connID, domain.RoomID(p.Room), kind, p.Media)
	switch {
	case errors.Is(err, orch.ErrRoomAccess):
		sendEvent(conn, core.ErrorEvent("Room not found or access denied"))
	case err != nil:
		log.Error().Err(err).Str("module", "signal.calls").Str("room", p.Room).Msg("join-call failed")
		sendEvent(conn, core.ErrorEvent("could not join call"))
	}
}

func (ctl *CallsController) handleLeaveCall(user *domain.User, conn *wsConn, data []byte) {
	var p roomPayload
	if err := json.Unmarshal(data, &p); err != nil || p.Room == "" {
		sendEvent(conn, core.ErrorEvent("bad payload"))
		return
	}
	ctl.Orch.LeaveCall(domain.RoomID(p.Room), user.ID)
}

type signalEnvelope struct {
	Type   string          `json:"type"`
	Room   string          `json:"roomId"`
	Target string          `json:"targetUserId"`
	Data   json.RawMessage `json:"payload"`
}

// handleSDP shape-checks the session description before relaying. The SDP
// body itself stays opaque; no media processing happens here.
func (ctl *CallsController) handleSDP(user *domain.User, conn *wsConn, data []byte, evType string) {
	var p signalEnvelope
	if err := json.Unmarshal(data, &p); err != nil || p.Room == "" || p.Target == "" {
		sendEvent(conn, core.ErrorEvent("bad payload"))
		return
	}
	var sd webrtc.SessionDescription
	if err := json.Unmarshal(p.Data, &sd); err != nil || sd.SDP == "" {
		sendEvent(conn, core.ErrorEvent("bad session description"))
		return
	}
	ctl.Orch.Route(domain.RoomID(p.Room), user.ID, domain.UserID(p.Target), evType, p.Data)
}

func (ctl *CallsController) handleCandidate(user *domain.User, conn *wsConn, data []byte) {
	var p signalEnvelope
	if err := json.Unmarshal(data, &p); err != nil || p.Room == "" || p.Target == "" {
		sendEvent(conn, core.ErrorEvent("bad payload"))
		return
	}
	var ci webrtc.ICECandidateInit
	if err := json.Unmarshal(p.Data, &ci); err != nil || ci.Candidate == "" {
		sendEvent(conn, core.ErrorEvent("bad ice candidate"))
		return
	}
	ctl.Orch.Route(domain.RoomID(p.Room), user.ID, domain.UserID(p.Target), core.EvWebRTCCandidate, p.Data)
}

func (ctl *CallsController) handleMediaState(user *domain.User, conn *wsConn, data []byte) {
	type mediaPayload struct {
		Type  string            `json:"type"`
		Room  string            `json:"roomId"`
		Media domain.MediaState `json:"mediaState"`
	}
	var p mediaPayload
	if err := json.Unmarshal(data, &p); err != nil || p.Room == "" {
		sendEvent(conn, core.ErrorEvent("bad payload"))
		return
	}
	ctl.Orch.UpdateMedia(domain.RoomID(p.Room), user.ID, p.Media)
}
