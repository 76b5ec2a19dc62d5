// internal/actor/store.go
// Embedded per-actor persistence. Grounded on the teacher's
// services.CacheService Redis wrapper (internal/services/cache_service.go):
// the same Set/Get-by-key shape, narrowed to the one key per match actor
// that spec.md §4.B calls "embedded per-actor storage under a fixed key".

package actor

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"

	"musicbattle-core/internal/models"
)

// StateStore is the persistence seam the Match Actor writes through.
// Tests use an in-memory fake; production wires RedisStore.
type StateStore interface {
	Save(ctx context.Context, matchActorID string, state models.MatchState) error
	Load(ctx context.Context, matchActorID string) (models.MatchState, bool, error)
}

// RedisStore is the production StateStore, one JSON blob per match actor
// under a fixed key, with no expiration (a live match's state must
// survive indefinitely until archived).
type RedisStore struct {
	client *redis.Client
	logger *log.Logger
}

// NewRedisStore wraps a Redis client for actor-state persistence.
func NewRedisStore(client *redis.Client, logger *log.Logger) *RedisStore {
	return &RedisStore{client: client, logger: logger}
}

func stateKey(matchActorID string) string {
	return fmt.Sprintf("match:state:%s", matchActorID)
}

// Save writes the full MatchState to its fixed key.
func (s *RedisStore) Save(ctx context.Context, matchActorID string, state models.MatchState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal match state: %w", err)
	}
	if err := s.client.Set(ctx, stateKey(matchActorID), data, 0).Err(); err != nil {
		return fmt.Errorf("write match state to redis: %w", err)
	}
	return nil
}

// Load rehydrates a MatchState, reporting found=false if no key exists
// yet (a brand-new, never-initialized actor).
func (s *RedisStore) Load(ctx context.Context, matchActorID string) (models.MatchState, bool, error) {
	data, err := s.client.Get(ctx, stateKey(matchActorID)).Bytes()
	if err == redis.Nil {
		return models.MatchState{}, false, nil
	}
	if err != nil {
		return models.MatchState{}, false, fmt.Errorf("read match state from redis: %w", err)
	}
	var state models.MatchState
	if err := json.Unmarshal(data, &state); err != nil {
		return models.MatchState{}, false, fmt.Errorf("unmarshal match state: %w", err)
	}
	return state, true, nil
}
