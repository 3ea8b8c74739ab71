package intervention

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

const (
	// interventionStoreKeyPrefix is the prefix for all intervention state keys.
	interventionStoreKeyPrefix = "lifecycle_engine:intervention_state:"
)

// Store persists per-user intervention state.
type Store interface {
	// GetInterventionState returns the user's intervention document. A
	// missing document yields an empty one: the dismissed set and audit
	// trail start empty, which is safe to fabricate (unlike lifecycle or
	// retention state).
	GetInterventionState(ctx context.Context, userID string) (*UserInterventionState, error)
	PutInterventionState(ctx context.Context, userID string, state *UserInterventionState) error
}

// RedisStore implements Store using Redis.
//
// Activating an intervention is a plain SET of the whole document: two
// racing selections for the same user are last-writer-wins, same as the
// lifecycle ledger.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a new Redis-backed intervention store.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// makeInterventionKey creates the Redis key for a user's intervention state.
func makeInterventionKey(userID string) string {
	return fmt.Sprintf("%s%s", interventionStoreKeyPrefix, userID)
}

// GetInterventionState retrieves the intervention document for a user.
func (r *RedisStore) GetInterventionState(ctx context.Context, userID string) (*UserInterventionState, error) {
	key := makeInterventionKey(userID)

	data, err := r.client.Get(ctx, key).Result()
	if err == redis.Nil {
		logrus.Debugf("no intervention state for user %s, starting empty", userID)
		return &UserInterventionState{
			DismissedTypes: []string{},
			History:        []AuditEntry{},
		}, nil
	}
	if err != nil {
		logrus.Errorf("failed to get intervention state for user %s: %v", userID, err)
		return nil, fmt.Errorf("failed to get intervention state: %w", err)
	}

	var state UserInterventionState
	if err := json.Unmarshal([]byte(data), &state); err != nil {
		logrus.Errorf("failed to unmarshal intervention state for user %s: %v", userID, err)
		return nil, fmt.Errorf("failed to unmarshal intervention state: %w", err)
	}

	return &state, nil
}

// PutInterventionState stores the intervention document for a user.
func (r *RedisStore) PutInterventionState(ctx context.Context, userID string, state *UserInterventionState) error {
	key := makeInterventionKey(userID)

	data, err := json.Marshal(state)
	if err != nil {
		logrus.Errorf("failed to marshal intervention state for user %s: %v", userID, err)
		return fmt.Errorf("failed to marshal intervention state: %w", err)
	}

	if err := r.client.Set(ctx, key, data, 0).Err(); err != nil {
		logrus.Errorf("failed to set intervention state for user %s: %v", userID, err)
		return fmt.Errorf("failed to set intervention state: %w", err)
	}

	logrus.Debugf("updated intervention state for user %s", userID)
	return nil
}
