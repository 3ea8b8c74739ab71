// Copyright (c) 2026 DealScholar Inc. All Rights Reserved.
// This is licensed software from DealScholar Inc, for limitations
// and restrictions contact your company contract manager.

package lifecycle

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

const (
	// stateStoreKeyPrefix is the prefix for all lifecycle state keys.
	stateStoreKeyPrefix = "lifecycle_engine:lifecycle_state:"
)

// StateStore persists per-user lifecycle records.
type StateStore interface {
	// GetState returns the user's lifecycle record, or nil if none exists
	// yet. A nil record is not an error: the classifier creates the record
	// on the first classification call.
	GetState(ctx context.Context, userID string) (*LifecycleState, error)
	PutState(ctx context.Context, userID string, state *LifecycleState) error
}

// RedisStateStore implements StateStore using Redis.
//
// Writes are plain SETs with no optimistic-concurrency check: concurrent
// classifications for the same user are last-writer-wins.
type RedisStateStore struct {
	client *redis.Client
}

// NewRedisStateStore creates a new Redis-backed lifecycle state store.
func NewRedisStateStore(client *redis.Client) *RedisStateStore {
	return &RedisStateStore{client: client}
}

// makeStateKey creates the Redis key for a user's lifecycle record.
func makeStateKey(userID string) string {
	return fmt.Sprintf("%s%s", stateStoreKeyPrefix, userID)
}

// GetState retrieves the lifecycle record for a user from Redis.
func (r *RedisStateStore) GetState(ctx context.Context, userID string) (*LifecycleState, error) {
	key := makeStateKey(userID)

	data, err := r.client.Get(ctx, key).Result()
	if err == redis.Nil {
		logrus.Debugf("no lifecycle state for user %s", userID)
		return nil, nil
	}
	if err != nil {
		logrus.Errorf("failed to get lifecycle state for user %s: %v", userID, err)
		return nil, fmt.Errorf("failed to get lifecycle state: %w", err)
	}

	var state LifecycleState
	if err := json.Unmarshal([]byte(data), &state); err != nil {
		logrus.Errorf("failed to unmarshal lifecycle state for user %s: %v", userID, err)
		return nil, fmt.Errorf("failed to unmarshal lifecycle state: %w", err)
	}

	return &state, nil
}

// PutState stores the lifecycle record for a user in Redis.
// Lifecycle records are a historical ledger and carry no TTL.
func (r *RedisStateStore) PutState(ctx context.Context, userID string, state *LifecycleState) error {
	key := makeStateKey(userID)

	data, err := json.Marshal(state)
	if err != nil {
		logrus.Errorf("failed to marshal lifecycle state for user %s: %v", userID, err)
		return fmt.Errorf("failed to marshal lifecycle state: %w", err)
	}

	if err := r.client.Set(ctx, key, data, 0).Err(); err != nil {
		logrus.Errorf("failed to set lifecycle state for user %s: %v", userID, err)
		return fmt.Errorf("failed to set lifecycle state: %w", err)
	}

	logrus.Debugf("updated lifecycle state for user %s (%s)", userID, state.CurrentState)
	return nil
}
