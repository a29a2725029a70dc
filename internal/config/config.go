/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config covers process level configuration read from environment variables.
type Config struct {
	Environment  string
	HTTPBind     string
	HTTPPort     int
	TimelineFile string // YAML timeline definition

	// Tracing configuration
	TracingEnabled    bool
	OTLPEndpoint      string
	TracingSampleRate float64

	// Redis mirror of step/playback events, disabled when RedisAddr is empty
	RedisAddr          string
	RedisPassword      string
	RedisDB            int
	RedisChannelPrefix string

	LegacyEnvWarnings []string
}

// Load reads environment variables, applies defaults, and validates the result.
func Load() (*Config, error) {
	cfg := &Config{
		Environment:  getEnvAny([]string{"TIMELINE_ENV", "GRIMNIR_ENV"}, "development"),
		HTTPBind:     getEnvAny([]string{"TIMELINE_HTTP_BIND"}, "0.0.0.0"),
		HTTPPort:     getEnvIntAny([]string{"TIMELINE_HTTP_PORT"}, 8080),
		TimelineFile: getEnvAny([]string{"TIMELINE_FILE", "TIMELINE_CONFIG"}, "timeline.yaml"),

		TracingEnabled:    getEnvBoolAny([]string{"TIMELINE_TRACING_ENABLED"}, false),
		OTLPEndpoint:      getEnvAny([]string{"TIMELINE_OTLP_ENDPOINT"}, "localhost:4317"),
		TracingSampleRate: getEnvFloatAny([]string{"TIMELINE_TRACING_SAMPLE_RATE"}, 1.0),

		RedisAddr:          getEnvAny([]string{"TIMELINE_REDIS_ADDR"}, ""),
		RedisPassword:      getEnvAny([]string{"TIMELINE_REDIS_PASSWORD"}, ""),
		RedisDB:            getEnvIntAny([]string{"TIMELINE_REDIS_DB"}, 0),
		RedisChannelPrefix: getEnvAny([]string{"TIMELINE_REDIS_CHANNEL_PREFIX"}, "timeline"),
	}

	if cfg.HTTPPort <= 0 || cfg.HTTPPort > 65535 {
		return nil, fmt.Errorf("TIMELINE_HTTP_PORT must be between 1 and 65535, got %d", cfg.HTTPPort)
	}

	if cfg.TracingSampleRate < 0 || cfg.TracingSampleRate > 1 {
		return nil, fmt.Errorf("TIMELINE_TRACING_SAMPLE_RATE must be between 0 and 1, got %v", cfg.TracingSampleRate)
	}

	if cfg.RedisDB < 0 {
		return nil, fmt.Errorf("TIMELINE_REDIS_DB must not be negative, got %d", cfg.RedisDB)
	}

	if strings.TrimSpace(cfg.TimelineFile) == "" {
		return nil, fmt.Errorf("TIMELINE_FILE must not be blank")
	}

	cfg.LegacyEnvWarnings = detectLegacyEnvWarnings()

	return cfg, nil
}

// Addr returns the HTTP listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.HTTPBind, c.HTTPPort)
}

func detectLegacyEnvWarnings() []string {
	legacy := map[string]string{
		"TIMELINE_CONFIG": "use TIMELINE_FILE",
		"GRIMNIR_ENV":     "use TIMELINE_ENV",
	}

	warnings := make([]string, 0, len(legacy))
	for key, recommendation := range legacy {
		if os.Getenv(key) != "" {
			warnings = append(warnings, fmt.Sprintf("legacy env key %s is set; %s", key, recommendation))
		}
	}
	return warnings
}

// getEnvAny returns the first non-empty environment variable value from keys, or def if none set.
func getEnvAny(keys []string, def string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return def
}

// getEnvIntAny returns the first set integer environment variable value from keys, or def.
func getEnvIntAny(keys []string, def int) int {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			if parsed, err := strconv.Atoi(v); err == nil {
				return parsed
			}
		}
	}
	return def
}

// getEnvBoolAny returns the first set boolean environment variable value from keys, or def.
func getEnvBoolAny(keys []string, def bool) bool {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			v = strings.ToLower(strings.TrimSpace(v))
			if v == "true" || v == "1" || v == "yes" {
				return true
			}
			if v == "false" || v == "0" || v == "no" {
				return false
			}
		}
	}
	return def
}

// getEnvFloatAny returns the first set float environment variable value from keys, or def.
func getEnvFloatAny(keys []string, def float64) float64 {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			if parsed, err := strconv.ParseFloat(v, 64); err == nil {
				return parsed
			}
		}
	}
	return def
}
