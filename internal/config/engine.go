// Copyright (c) 2026 DealScholar Inc. All Rights Reserved.
// This is licensed software from DealScholar Inc, for limitations
// and restrictions contact your company contract manager.

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/dealscholar/lifecycle-engine/pkg/lifecycle"
)

// EngineConfig is the YAML-file side of the configuration: classifier
// thresholds and behavior flags that product tunes without a redeploy.
type EngineConfig struct {
	Classifier ClassifierConfig `yaml:"classifier"`
}

// ClassifierConfig configures the lifecycle classifier.
type ClassifierConfig struct {
	// RetainOnNoMatch keeps the previous state when no decision rule
	// matches instead of resetting to "new". Off by default to preserve
	// the original product behavior.
	RetainOnNoMatch bool                 `yaml:"retain_on_no_match"`
	Thresholds      lifecycle.Thresholds `yaml:",inline"`
}

// DefaultEngineConfig returns the shipped engine configuration.
func DefaultEngineConfig() *EngineConfig {
	return &EngineConfig{
		Classifier: ClassifierConfig{
			RetainOnNoMatch: false,
			Thresholds:      lifecycle.DefaultThresholds(),
		},
	}
}

// LoadEngineConfig loads the engine configuration from a YAML file.
// Supports environment variable expansion in the form ${VAR} or
// ${VAR:default}. A missing file falls back to the shipped defaults.
func LoadEngineConfig(path string) (*EngineConfig, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		logrus.Warnf("engine config %s not found, using defaults", path)
		return DefaultEngineConfig(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read engine config %s: %w", path, err)
	}

	expanded := expandEnvVars(string(data))

	cfg := DefaultEngineConfig()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse engine config: %w", err)
	}

	return cfg, nil
}

// expandEnvVars expands environment variables in the format ${VAR} or
// ${VAR:default}.
func expandEnvVars(s string) string {
	return os.Expand(s, func(key string) string {
		parts := strings.SplitN(key, ":", 2)
		varName := parts[0]
		defaultValue := ""
		if len(parts) == 2 {
			defaultValue = parts[1]
		}

		value := os.Getenv(varName)
		if value == "" {
			return defaultValue
		}
		return value
	})
}
