package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/tgrenier/huddle/internal/adapters/backend"
	router "github.com/tgrenier/huddle/internal/adapters/http"
	wssignal "github.com/tgrenier/huddle/internal/adapters/signal"
	"github.com/tgrenier/huddle/internal/app"
	"github.com/tgrenier/huddle/internal/app/orch"
	"github.com/tgrenier/huddle/internal/auth"
	"github.com/tgrenier/huddle/internal/config"
	"github.com/tgrenier/huddle/internal/core"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	// Human-friendly output for terminal; in production you may want JSON only.
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if cfg.Secret == "" {
		log.Fatal().Msg("secret must be configured")
	}

	// The main web application owns rooms, users and friendships; the core
	// consumes them over its internal API.
	collaborators := backend.NewClient(cfg.BackendURL, 5*time.Second)
	verifier := auth.NewVerifier(cfg.Secret)

	chatRegistry := app.NewRegistry(collaborators)
	callsRegistry := app.NewRegistry(nil)
	hub := wssignal.NewHub()
	dispatcher := wssignal.NewDispatcher(hub, chatRegistry, callsRegistry)

	o := &orch.Orchestrator{
		Chat:      chatRegistry,
		Calls:     callsRegistry,
		Rooms:     core.NewCallRooms(),
		Typing:    app.NewTypingTracker(cfg.TypingTTL, dispatcher),
		Presence:  app.NewPresence(chatRegistry, collaborators, dispatcher),
		Offline:   app.NewOfflineQueue(cfg.OfflineCap),
		Authority: collaborators,
		Dispatch:  dispatcher,
	}

	r := router.SetupRouter(ctx, cfg, o, hub, verifier)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("Huddle signaling server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited gracefully")
}
