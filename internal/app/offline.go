package app

import (
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/tgrenier/huddle/internal/core"
	"github.com/tgrenier/huddle/internal/domain"
)

// DefaultOfflineCap bounds how many events wait per user. Oldest entries are
// dropped first once full; anything important lives in the database anyway.
const DefaultOfflineCap = 100

// OfflineQueue holds events addressed to users with no live connection.
// The lifecycle flushes it right after a user's first connection registers.
type OfflineQueue struct {
	mu     sync.Mutex
	cap    int
	byUser map[domain.UserID][]core.Event
}

func NewOfflineQueue(capacity int) *OfflineQueue {
	if capacity <= 0 {
		capacity = DefaultOfflineCap
	}
	return &OfflineQueue{cap: capacity, byUser: make(map[domain.UserID][]core.Event)}
}

func (q *OfflineQueue) Enqueue(userID domain.UserID, ev core.Event) {
	q.mu.Lock()
	defer q.mu.Unlock()
	queue := q.byUser[userID]
	if len(queue) >= q.cap {
		queue = queue[1:]
		log.Warn().Str("module", "app.offline").Str("user", string(userID)).Msg("offline queue full, dropping oldest")
	}
	q.byUser[userID] = append(queue, ev)
}

// Flush removes and returns everything pending for the user, in arrival
// order.
func (q *OfflineQueue) Flush(userID domain.UserID) []core.Event {
	q.mu.Lock()
	defer q.mu.Unlock()
	pending := q.byUser[userID]
	delete(q.byUser, userID)
	return pending
}

func (q *OfflineQueue) Pending(userID domain.UserID) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.byUser[userID])
}
