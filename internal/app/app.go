// Copyright (c) 2026 DealScholar Inc. All Rights Reserved.
// This is licensed software from DealScholar Inc, for limitations
// and restrictions contact your company contract manager.

package app

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"github.com/dealscholar/lifecycle-engine/internal/config"
	"github.com/dealscholar/lifecycle-engine/internal/server"
	"github.com/dealscholar/lifecycle-engine/pkg/engagement"
	"github.com/dealscholar/lifecycle-engine/pkg/habit"
	"github.com/dealscholar/lifecycle-engine/pkg/handler"
	"github.com/dealscholar/lifecycle-engine/pkg/intervention"
	"github.com/dealscholar/lifecycle-engine/pkg/lifecycle"
)

// App holds all application dependencies and manages the application
// lifecycle. Components initialize in dependency order: Redis, engine
// config, stores, services, servers, telemetry.
type App struct {
	cfg               *config.Config
	httpServer        *server.HTTPServer
	metricsServer     *server.MetricsServer
	redisClient       *redis.Client
	shutdownTelemetry func(context.Context) error
}

// New creates and initializes a new application instance.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	logrus.Info("initializing application...")

	app := &App{cfg: cfg}

	if err := app.initRedis(ctx); err != nil {
		return nil, fmt.Errorf("failed to init Redis: %w", err)
	}

	engineCfg, err := config.LoadEngineConfig(cfg.EngineConfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load engine config from %s: %w", cfg.EngineConfigPath, err)
	}
	logrus.Infof("loaded engine configuration from %s", cfg.EngineConfigPath)

	// Stores and the read-only engagement profile provider.
	profiles := engagement.NewRedisProvider(app.redisClient)
	lifecycleStore := lifecycle.NewRedisStateStore(app.redisClient)
	retentionStore := habit.NewRedisRetentionStore(app.redisClient)
	interventionStore := intervention.NewRedisStore(app.redisClient)

	// Services.
	classifier := lifecycle.NewClassifier(engineCfg.Classifier.Thresholds, engineCfg.Classifier.RetainOnNoMatch)
	lifecycleService := lifecycle.NewService(profiles, lifecycleStore, classifier)
	habitService := habit.NewService(retentionStore)
	interventionService := intervention.NewService(interventionStore, lifecycleStore, profiles)

	// Servers.
	h := handler.New(
		lifecycleService,
		habitService,
		interventionService,
		handler.NewRedisHealthChecker(app.redisClient),
	)

	app.httpServer = server.NewHTTPServer(cfg.HTTPPort, h)
	if err := app.httpServer.Setup(); err != nil {
		return nil, fmt.Errorf("failed to setup API server: %w", err)
	}

	app.metricsServer = server.NewMetricsServer(cfg.MetricsPort, "/metrics")
	if err := app.metricsServer.Setup(); err != nil {
		return nil, fmt.Errorf("failed to setup metrics server: %w", err)
	}

	// Telemetry.
	if cfg.OtelEnabled {
		shutdownTelemetry, err := server.SetupTelemetry(ctx, cfg.ServiceName, cfg.Environment, cfg.ZipkinEndpoint)
		if err != nil {
			return nil, fmt.Errorf("failed to setup telemetry: %w", err)
		}
		app.shutdownTelemetry = shutdownTelemetry
	}

	logrus.Info("application initialized successfully")

	return app, nil
}

// initRedis initializes the Redis client with exponential-backoff retry.
func (a *App) initRedis(ctx context.Context) error {
	client := redis.NewClient(&redis.Options{
		Addr:         a.cfg.RedisHost + ":" + a.cfg.RedisPort,
		Password:     a.cfg.RedisPassword,
		DB:           0, // use default DB
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = time.Duration(a.cfg.RedisRetryDelayMs) * time.Millisecond
	maxRetries := backoff.WithMaxRetries(b, uint64(a.cfg.RedisMaxRetries))

	err := backoff.Retry(
		func() error {
			_, err := client.Ping(ctx).Result()
			if err != nil {
				logrus.Warnf("Redis connection failed: %v, retrying...", err)
				return err
			}
			return nil
		},
		maxRetries,
	)

	if err != nil {
		return err
	}

	a.redisClient = client
	logrus.Info("Redis client initialized")
	return nil
}
