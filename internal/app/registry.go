package app

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"github.com/tgrenier/huddle/internal/core"
	"github.com/tgrenier/huddle/internal/domain"
)

// Registry maps authenticated users to their live connections within one
// namespace. A user may hold several connections at once (tabs, devices);
// they are online while at least one remains.
//
// Register and Unregister tolerate replays and disconnect races: re-adding a
// known connection or removing an absent one is a no-op, never an error.
type Registry struct {
	mu     sync.RWMutex
	conns  map[core.ConnID]core.SignalConnection
	owners map[core.ConnID]domain.UserID
	byUser map[domain.UserID]map[core.ConnID]struct{}

	// directory persists lastSeen on online/offline transitions,
	// fire-and-forget. May be nil in tests.
	directory core.UserDirectory
}

func NewRegistry(directory core.UserDirectory) *Registry {
	return &Registry{
		conns:     make(map[core.ConnID]core.SignalConnection),
		owners:    make(map[core.ConnID]domain.UserID),
		byUser:    make(map[domain.UserID]map[core.ConnID]struct{}),
		directory: directory,
	}
}

// Register records the connection and reports whether the user just came
// online (this is their first live connection).
func (r *Registry) Register(userID domain.UserID, connID core.ConnID, conn core.SignalConnection) (cameOnline bool) {
	r.mu.Lock()
	if _, known := r.conns[connID]; known {
		r.mu.Unlock()
		return false
	}
	r.conns[connID] = conn
	r.owners[connID] = userID
	set, ok := r.byUser[userID]
	if !ok {
		set = make(map[core.ConnID]struct{})
		r.byUser[userID] = set
	}
	cameOnline = len(set) == 0
	set[connID] = struct{}{}
	r.mu.Unlock()

	log.Info().Str("module", "app.registry").Str("conn", string(connID)).Str("user", string(userID)).Bool("came_online", cameOnline).Msg("connection registered")
	if cameOnline {
		r.touchLastSeen(userID, true)
	}
	return cameOnline
}

// Unregister drops the connection and reports whether that was the user's
// last one (the user transitioned to offline).
func (r *Registry) Unregister(userID domain.UserID, connID core.ConnID) (wentOffline bool) {
	r.mu.Lock()
	if _, known := r.conns[connID]; !known {
		r.mu.Unlock()
		return false
	}
	delete(r.conns, connID)
	delete(r.owners, connID)
	if set, ok := r.byUser[userID]; ok {
		delete(set, connID)
		if len(set) == 0 {
			delete(r.byUser, userID)
			wentOffline = true
		}
	}
	r.mu.Unlock()

	log.Info().Str("module", "app.registry").Str("conn", string(connID)).Str("user", string(userID)).Bool("went_offline", wentOffline).Msg("connection unregistered")
	if wentOffline {
		r.touchLastSeen(userID, false)
	}
	return wentOffline
}

func (r *Registry) IsOnline(userID domain.UserID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byUser[userID]) > 0
}

// ConnectionsFor returns every live connection of the user, for fan-out.
func (r *Registry) ConnectionsFor(userID domain.UserID) []core.ConnID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return lo.Keys(r.byUser[userID])
}

// Sender resolves a connection handle to its transport.
func (r *Registry) Sender(connID core.ConnID) (core.SignalConnection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.conns[connID]
	return c, ok
}

// OwnerOf returns the user a connection was authenticated as.
func (r *Registry) OwnerOf(connID core.ConnID) (domain.UserID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.owners[connID]
	return u, ok
}

func (r *Registry) touchLastSeen(userID domain.UserID, online bool) {
	if r.directory == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := r.directory.SetLastSeen(ctx, userID, online, time.Now()); err != nil {
			log.Warn().Err(err).Str("module", "app.registry").Str("user", string(userID)).Msg("lastSeen update failed")
		}
	}()
}
