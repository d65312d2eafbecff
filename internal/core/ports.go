package core

import (
	"context"
	"time"

	"github.com/tgrenier/huddle/internal/domain"
)

// Collaborators owned by the surrounding web application. The signaling core
// consumes them behind these interfaces and never caches their answers.

// RoomAuthority gates call/room joins. The core does not own room existence
// or access control, only call presence within rooms it was told are valid.
type RoomAuthority interface {
	IsAuthorizedInRoom(ctx context.Context, roomID domain.RoomID, userID domain.UserID) (bool, error)
}

// UserDirectory resolves human-readable identity and persists presence
// timestamps. SetLastSeen is fire-and-forget from the core's perspective.
type UserDirectory interface {
	DisplayNameOf(ctx context.Context, userID domain.UserID) (string, error)
	AvatarOf(ctx context.Context, userID domain.UserID) (string, error)
	SetLastSeen(ctx context.Context, userID domain.UserID, online bool, at time.Time) error
}

// SocialGraph backs the presence broadcaster.
type SocialGraph interface {
	AcceptedFriendsOf(ctx context.Context, userID domain.UserID) ([]domain.UserID, error)
}

// TokenVerifier authenticates inbound connections.
type TokenVerifier interface {
	Verify(token string) (*domain.User, error)
}
