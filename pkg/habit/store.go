package habit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

const (
	// retentionStoreKeyPrefix is the prefix for all retention state keys.
	retentionStoreKeyPrefix = "lifecycle_engine:retention_state:"
)

// ErrRetentionStateNotFound is returned when the user has no habit-loop
// state yet. The detector never fabricates default loops; provisioning is
// the onboarding flow's job.
var ErrRetentionStateNotFound = errors.New("retention state not found")

// RetentionStore persists per-user habit-loop state.
type RetentionStore interface {
	GetRetentionState(ctx context.Context, userID string) (*RetentionState, error)
	PutRetentionState(ctx context.Context, userID string, state *RetentionState) error
}

// RedisRetentionStore implements RetentionStore using Redis.
type RedisRetentionStore struct {
	client *redis.Client
}

// NewRedisRetentionStore creates a new Redis-backed retention store.
func NewRedisRetentionStore(client *redis.Client) *RedisRetentionStore {
	return &RedisRetentionStore{client: client}
}

// makeRetentionKey creates the Redis key for a user's retention state.
func makeRetentionKey(userID string) string {
	return fmt.Sprintf("%s%s", retentionStoreKeyPrefix, userID)
}

// GetRetentionState retrieves the habit-loop state for a user.
// Returns ErrRetentionStateNotFound when the user was never provisioned.
func (r *RedisRetentionStore) GetRetentionState(ctx context.Context, userID string) (*RetentionState, error) {
	key := makeRetentionKey(userID)

	data, err := r.client.Get(ctx, key).Result()
	if err == redis.Nil {
		logrus.Debugf("no retention state for user %s", userID)
		return nil, ErrRetentionStateNotFound
	}
	if err != nil {
		logrus.Errorf("failed to get retention state for user %s: %v", userID, err)
		return nil, fmt.Errorf("failed to get retention state: %w", err)
	}

	var state RetentionState
	if err := json.Unmarshal([]byte(data), &state); err != nil {
		logrus.Errorf("failed to unmarshal retention state for user %s: %v", userID, err)
		return nil, fmt.Errorf("failed to unmarshal retention state: %w", err)
	}

	return &state, nil
}

// PutRetentionState stores the habit-loop state for a user.
func (r *RedisRetentionStore) PutRetentionState(ctx context.Context, userID string, state *RetentionState) error {
	key := makeRetentionKey(userID)

	data, err := json.Marshal(state)
	if err != nil {
		logrus.Errorf("failed to marshal retention state for user %s: %v", userID, err)
		return fmt.Errorf("failed to marshal retention state: %w", err)
	}

	if err := r.client.Set(ctx, key, data, 0).Err(); err != nil {
		logrus.Errorf("failed to set retention state for user %s: %v", userID, err)
		return fmt.Errorf("failed to set retention state: %w", err)
	}

	logrus.Debugf("updated retention state for user %s", userID)
	return nil
}
