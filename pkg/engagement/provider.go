// Copyright (c) 2026 DealScholar Inc. All Rights Reserved.
// This is licensed software from DealScholar Inc, for limitations
// and restrictions contact your company contract manager.

package engagement

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

const (
	// profileKeyPrefix is the prefix the analytics aggregator uses when it
	// writes engagement profiles. This service never writes under it.
	profileKeyPrefix = "lifecycle_engine:engagement_profile:"
)

// ErrProfileNotFound is returned when the analytics aggregator has not yet
// written an engagement profile for the user. Classification must fail in
// that case rather than silently defaulting.
var ErrProfileNotFound = errors.New("engagement profile not found")

// Provider reads engagement profiles written by the external analytics
// aggregator.
type Provider interface {
	GetProfile(ctx context.Context, userID string) (*EngagementProfile, error)
}

// RedisProvider implements Provider against the shared Redis instance.
type RedisProvider struct {
	client *redis.Client
}

// NewRedisProvider creates a new Redis-backed engagement profile provider.
func NewRedisProvider(client *redis.Client) *RedisProvider {
	return &RedisProvider{client: client}
}

// makeProfileKey creates the Redis key for a user's engagement profile.
func makeProfileKey(userID string) string {
	return fmt.Sprintf("%s%s", profileKeyPrefix, userID)
}

// GetProfile retrieves the engagement profile for a user.
// Returns ErrProfileNotFound when the aggregator has not written one.
func (r *RedisProvider) GetProfile(ctx context.Context, userID string) (*EngagementProfile, error) {
	key := makeProfileKey(userID)

	data, err := r.client.Get(ctx, key).Result()
	if err == redis.Nil {
		logrus.Debugf("no engagement profile for user %s", userID)
		return nil, ErrProfileNotFound
	}
	if err != nil {
		logrus.Errorf("failed to get engagement profile for user %s: %v", userID, err)
		return nil, fmt.Errorf("failed to get engagement profile: %w", err)
	}

	var profile EngagementProfile
	if err := json.Unmarshal([]byte(data), &profile); err != nil {
		logrus.Errorf("failed to unmarshal engagement profile for user %s: %v", userID, err)
		return nil, fmt.Errorf("failed to unmarshal engagement profile: %w", err)
	}

	return &profile, nil
}
