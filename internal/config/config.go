// Copyright (c) 2026 DealScholar Inc. All Rights Reserved.
// This is licensed software from DealScholar Inc, for limitations
// and restrictions contact your company contract manager.

package config

// Config holds all application configuration loaded from environment
// variables, using github.com/caarlos0/env struct tags.
type Config struct {
	// Server configuration
	HTTPPort    int    `env:"HTTP_PORT" envDefault:"8000"`
	MetricsPort int    `env:"METRICS_PORT" envDefault:"8080"`
	Environment string `env:"ENVIRONMENT" envDefault:"dev"`
	ServiceName string `env:"SERVICE_NAME" envDefault:"LifecycleEngine"`

	// Redis configuration
	RedisHost         string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort         string `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword     string `env:"REDIS_PASSWORD"`
	RedisMaxRetries   int    `env:"REDIS_MAX_RETRIES" envDefault:"5"`
	RedisRetryDelayMs int    `env:"REDIS_RETRY_DELAY_MS" envDefault:"1000"`

	// Engine configuration (classifier thresholds and feature flags)
	EngineConfigPath string `env:"ENGINE_CONFIG_PATH" envDefault:"config/engine.yaml"`

	// Telemetry configuration
	OtelEnabled    bool   `env:"OTEL_ENABLED" envDefault:"true"`
	ZipkinEndpoint string `env:"ZIPKIN_ENDPOINT"`
}
