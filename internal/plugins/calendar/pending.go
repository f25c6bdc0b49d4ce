package calendar

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrGesturePending is returned when a move, resize, edit or delete targets
// an event whose previous write has not resolved.
var ErrGesturePending = errors.New("a change to this event is still being saved")

// PendingGuard marks an event as having a write in flight. Acquire fails
// with ErrGesturePending while another holder has the same key; the
// returned release func must be called once the write resolves.
type PendingGuard interface {
	Acquire(ctx context.Context, ownerID, eventID string) (release func(), err error)
}

func pendingKey(ownerID, eventID string) string {
	return "calendar:pending:" + ownerID + ":" + eventID
}

// --- In-memory ---

type memoryGuard struct {
	mu   sync.Mutex
	held map[string]struct{}
}

// NewMemoryGuard returns a PendingGuard for a single process.
func NewMemoryGuard() PendingGuard {
	return &memoryGuard{held: make(map[string]struct{})}
}

func (g *memoryGuard) Acquire(_ context.Context, ownerID, eventID string) (func(), error) {
	key := pendingKey(ownerID, eventID)

	g.mu.Lock()
	defer g.mu.Unlock()
	if _, busy := g.held[key]; busy {
		return nil, ErrGesturePending
	}
	g.held[key] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.held, key)
			g.mu.Unlock()
		})
	}, nil
}

// --- Redis ---

// releaseScript deletes the marker only if it still carries our token, so a
// holder whose TTL lapsed can't clear a newer holder's marker.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

type redisGuard struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisGuard returns a PendingGuard shared by every server instance.
// Markers expire after ttl so a crashed request can't wedge an event.
func NewRedisGuard(rdb *redis.Client, ttl time.Duration) PendingGuard {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &redisGuard{rdb: rdb, ttl: ttl}
}

func (g *redisGuard) Acquire(ctx context.Context, ownerID, eventID string) (func(), error) {
	key := pendingKey(ownerID, eventID)
	token := uuid.NewString()

	ok, err := g.rdb.SetNX(ctx, key, token, g.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquiring pending marker: %w", err)
	}
	if !ok {
		return nil, ErrGesturePending
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			// The request context may already be cancelled.
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := releaseScript.Run(ctx, g.rdb, []string{key}, token).Err(); err != nil {
				slog.Warn("failed to release pending marker, it will expire",
					slog.String("key", key),
					slog.Duration("ttl", g.ttl),
					slog.Any("error", err),
				)
			}
		})
	}, nil
}
