package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/tgrenier/huddle/internal/adapters/signal"
	"github.com/tgrenier/huddle/internal/app/orch"
	"github.com/tgrenier/huddle/internal/config"
	"github.com/tgrenier/huddle/internal/core"
	"github.com/tgrenier/huddle/internal/domain"
)

// AuthMiddleware verifies the bearer token and attaches the identity to the
// request. Websocket clients pass the token as a query parameter since
// browsers cannot set headers on WS upgrades. A bad token is a plain 401:
// the client just sees the connection close.
func AuthMiddleware(verifier core.TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
				token = strings.TrimPrefix(h, "Bearer ")
			}
		}
		if token == "" {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		user, err := verifier.Verify(token)
		if err != nil {
			log.Debug().Err(err).Str("module", "adapters.http").Msg("token rejected")
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		c.Set("user", user)
		c.Next()
	}
}

func SetupRouter(ctx context.Context, cfg *config.Config, o *orch.Orchestrator, hub *signal.Hub, verifier core.TokenVerifier) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	opts := signal.ConnOptions{
		ReadLimit:  cfg.ReadLimit,
		PingPeriod: cfg.PingPeriod,
		SendBuf:    cfg.SendBuffer,
	}
	chatCtl := &signal.ChatController{Orch: o, Hub: hub, Opts: opts}
	callsCtl := &signal.CallsController{
		Orch:    o,
		Limiter: signal.NewJoinRateLimiter(cfg.JoinLimit, cfg.JoinWindow),
		Opts:    opts,
	}

	api := r.Group("/api", AuthMiddleware(verifier))

	api.GET("/ws/chat", func(c *gin.Context) {
		chatCtl.Handle(ctx, c)
	})
	api.GET("/ws/calls", func(c *gin.Context) {
		callsCtl.Handle(ctx, c)
	})

	api.GET("/calls", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"calls": o.Rooms.Infos()})
	})
	api.GET("/calls/:roomID", handleCallRoster(o))
	api.POST("/notify", handleNotify(o))

	log.Info().Str("module", "adapters.http").Msg("router setup")
	return r
}

func handleCallRoster(o *orch.Orchestrator) gin.HandlerFunc {
	return func(c *gin.Context) {
		roomID := domain.RoomID(c.Param("roomID"))
		user, ok := c.Get("user")
		if !ok {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		authorized, err := o.Authority.IsAuthorizedInRoom(c.Request.Context(), roomID, user.(*domain.User).ID)
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": "room lookup failed"})
			return
		}
		if !authorized {
			c.JSON(http.StatusNotFound, gin.H{"error": "room not found or access denied"})
			return
		}
		if !o.Rooms.Exists(roomID) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no active call"})
			return
		}
		roster := o.Rooms.Roster(roomID)
		views := make([]core.ParticipantView, 0, len(roster))
		for _, p := range roster {
			views = append(views, p.View())
		}
		c.JSON(http.StatusOK, gin.H{"roomId": roomID, "participants": views})
	}
}

// handleNotify lets the REST application push an event at a user: delivered
// live when they are connected, queued for their next connect otherwise.
func handleNotify(o *orch.Orchestrator) gin.HandlerFunc {
	type notifyRequest struct {
		UserID  string `json:"userId" binding:"required"`
		Event   string `json:"event" binding:"required"`
		Payload any    `json:"payload"`
	}
	return func(c *gin.Context) {
		var req notifyRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing userId or event"})
			return
		}
		o.DeliverOrQueue(domain.UserID(req.UserID), core.Event{Type: req.Event, Payload: req.Payload})
		c.JSON(http.StatusAccepted, gin.H{"status": "accepted"})
	}
}
