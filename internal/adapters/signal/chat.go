package signal

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"github.com/tgrenier/huddle/internal/app/orch"
	"github.com/tgrenier/huddle/internal/core"
	"github.com/tgrenier/huddle/internal/domain"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ConnOptions carries the transport tuning shared by both namespaces.
type ConnOptions struct {
	ReadLimit  int64
	PingPeriod time.Duration
	SendBuf    int
}

func currentUser(c *gin.Context) (*domain.User, bool) {
	v, ok := c.Get("user")
	if !ok {
		return nil, false
	}
	u, ok := v.(*domain.User)
	return u, ok
}

// ChatController serves the messaging namespace: chat-room subscriptions,
// typing indicators, presence side effects of connect/disconnect.
type ChatController struct {
	Orch *orch.Orchestrator
	Hub  *Hub
	Opts ConnOptions
}

func (ctl *ChatController) Handle(ctx context.Context, c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal.chat").Msg("ws upgrade")
		return
	}

	connID := core.ConnID(uuid.NewString())
	conn := newWSConn(ws, ctl.Opts.SendBuf)
	log.Info().Str("module", "signal.chat").Str("conn", string(connID)).Str("user", string(user.ID)).Msg("new WS connection")

	connCtx, cancel := context.WithCancel(ctx)
	ctl.Orch.ConnectChat(connCtx, user, connID, conn)

	go writePump(connCtx, conn, ctl.Opts.PingPeriod)
	go func() {
		defer func() {
			cancel()
			ctl.Hub.DropConn(connID)
			ctl.Orch.DisconnectChat(context.Background(), user.ID, connID)
		}()
		readPump(connCtx, connID, conn, ctl.Opts.ReadLimit, ctl.Opts.PingPeriod, func(data []byte) {
			ctl.handleMessage(connCtx, user, connID, conn, data)
		})
	}()
}

func (ctl *ChatController) handleMessage(ctx context.Context, user *domain.User, connID core.ConnID, conn *wsConn, data []byte) {
	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		log.Error().Err(err).Str("module", "signal.chat").Msg("bad json")
		sendEvent(conn, core.ErrorEvent("bad payload"))
		return
	}

	switch env.Type {
	case "join-room":
		ctl.handleJoinRoom(ctx, user, connID, conn, data)
	case "leave-room":
		ctl.handleLeaveRoom(user, connID, conn, data)
	case "typing-start":
		ctl.handleTyping(user, connID, conn, data, true)
	case "typing-stop":
		ctl.handleTyping(user, connID, conn, data, false)
	case "ping":
		sendEvent(conn, core.Event{Type: "pong"})
	default:
		log.Warn().Str("module", "signal.chat").Str("type", env.Type).Msg("unknown command")
	}
}

type roomPayload struct {
	Type string `json:"type"`
	Room string `json:"roomId"`
}

func (ctl *ChatController) handleJoinRoom(ctx context.Context, user *domain.User, connID core.ConnID, conn *wsConn, data []byte) {
	var p roomPayload
	if err := json.Unmarshal(data, &p); err != nil || p.Room == "" {
		sendEvent(conn, core.ErrorEvent("bad payload"))
		return
	}
	roomID := domain.RoomID(p.Room)

	authorized, err := ctl.Orch.Authority.IsAuthorizedInRoom(ctx, roomID, user.ID)
	if err != nil {
		log.Error().Err(err).Str("module", "signal.chat").Str("room", p.Room).Msg("authority check failed")
		sendEvent(conn, core.ErrorEvent("room lookup failed"))
		return
	}
	if !authorized {
		sendEvent(conn, core.ErrorEvent("Room not found or access denied"))
		return
	}

	ctl.Hub.Subscribe(roomID, connID, user.ID, conn)
	sendEvent(conn, core.Event{Type: "room-joined", Payload: roomPayload{Room: p.Room}})
}

func (ctl *ChatController) handleLeaveRoom(user *domain.User, connID core.ConnID, conn *wsConn, data []byte) {
	var p roomPayload
	if err := json.Unmarshal(data, &p); err != nil || p.Room == "" {
		sendEvent(conn, core.ErrorEvent("bad payload"))
		return
	}
	roomID := domain.RoomID(p.Room)
	ctl.Orch.Typing.Stop(roomID, user.ID)
	ctl.Hub.Unsubscribe(roomID, connID)
}

func (ctl *ChatController) handleTyping(user *domain.User, connID core.ConnID, conn *wsConn, data []byte, start bool) {
	var p roomPayload
	if err := json.Unmarshal(data, &p); err != nil || p.Room == "" {
		sendEvent(conn, core.ErrorEvent("bad payload"))
		return
	}
	roomID := domain.RoomID(p.Room)
	if !ctl.Hub.Subscribed(roomID, connID) {
		// typing outside a subscribed room says nothing to anyone
		return
	}
	if start {
		ctl.Orch.Typing.Start(roomID, user.ID, user.Username)
	} else {
		ctl.Orch.Typing.Stop(roomID, user.ID)
	}
}
