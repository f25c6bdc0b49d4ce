package calendar

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ViewStateStore keeps each owner's view state between requests.
type ViewStateStore interface {
	// Load returns the saved state and true, or false if none is saved.
	Load(ctx context.Context, ownerID string) (ViewState, bool, error)
	Save(ctx context.Context, ownerID string, state ViewState) error
}

// redisViewStore stores view state as JSON with a sliding TTL.
type redisViewStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisViewStore creates a ViewStateStore on Redis. Each save renews
// the TTL.
func NewRedisViewStore(rdb *redis.Client, ttl time.Duration) ViewStateStore {
	return &redisViewStore{rdb: rdb, ttl: ttl}
}

func viewStateKey(ownerID string) string {
	return "calendar:view:" + ownerID
}

func (s *redisViewStore) Load(ctx context.Context, ownerID string) (ViewState, bool, error) {
	raw, err := s.rdb.Get(ctx, viewStateKey(ownerID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return ViewState{}, false, nil
	}
	if err != nil {
		return ViewState{}, false, fmt.Errorf("loading view state: %w", err)
	}

	var state ViewState
	if err := json.Unmarshal(raw, &state); err != nil {
		// A corrupt entry is treated as absent; the next save replaces it.
		return ViewState{}, false, nil
	}
	return state, true, nil
}

func (s *redisViewStore) Save(ctx context.Context, ownerID string, state ViewState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encoding view state: %w", err)
	}
	if err := s.rdb.Set(ctx, viewStateKey(ownerID), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("saving view state: %w", err)
	}
	return nil
}
