package handler

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

// RedisHealthChecker implements HealthChecker against the shared Redis
// instance backing every store in this service.
type RedisHealthChecker struct {
	client *redis.Client
}

// NewRedisHealthChecker creates a new health checker.
func NewRedisHealthChecker(client *redis.Client) *RedisHealthChecker {
	return &RedisHealthChecker{client: client}
}

// Check performs a Redis health check.
func (h *RedisHealthChecker) Check(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	_, err := h.client.Ping(ctx).Result()
	if err != nil {
		logrus.Errorf("Redis health check failed: %v", err)
		return err
	}

	return nil
}

// IsHealthy returns true if Redis is accessible.
func (h *RedisHealthChecker) IsHealthy(ctx context.Context) bool {
	return h.Check(ctx) == nil
}
