// Reelhouse - Streaming Platform Delivery and Billing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelhouse

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists config file locations in order of priority.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/reelhouse/config.yaml",
	"/etc/reelhouse/config.yml",
}

// ConfigPathEnvVar overrides the config file location.
const ConfigPathEnvVar = "CONFIG_PATH"

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			Host:            "0.0.0.0",
			ReadTimeout:     30 * time.Second,
			IdleTimeout:     2 * time.Minute,
			ShutdownTimeout: 15 * time.Second,
			Environment:     "development",
		},
		Database: DatabaseConfig{
			Path:      "/data/reelhouse.duckdb",
			MaxMemory: "1GB",
			Threads:   0, // runtime.NumCPU()
		},
		Media: MediaConfig{
			Root:        "/data/media",
			ChunkSize:   32 * 1024,
			ContentType: "video/mp4",
		},
		Billing: BillingConfig{
			DunningEnabled:  true,
			DunningSchedule: "@every 5m",
			BatchSize:       100,
			RunTimeout:      2 * time.Minute,
			Currency:        "USD",
		},
		Gateway: GatewayConfig{
			URL:                     "",
			Timeout:                 15 * time.Second,
			RequestsPerSecond:       10,
			Burst:                   5,
			BreakerMaxRequests:      3,
			BreakerInterval:         time.Minute,
			BreakerTimeout:          2 * time.Minute,
			BreakerFailureThreshold: 5,
		},
		Idempotency: IdempotencyConfig{
			Backend:    "badger",
			Path:       "/data/idempotency",
			TTL:        30 * 24 * time.Hour,
			GCInterval: 10 * time.Minute,
		},
		Events: EventsConfig{
			Backend:       "memory",
			NATSURL:       "nats://127.0.0.1:4222",
			SubjectPrefix: "reelhouse",
			MaxReconnects: -1,
			ReconnectWait: 2 * time.Second,

			EmbeddedHost:     "127.0.0.1",
			EmbeddedPort:     4222,
			EmbeddedStoreDir: "./data/jetstream",
			LiveFeed:         true,
		},
		Audit: AuditConfig{
			Enabled:         true,
			RetentionDays:   365,
			BufferSize:      1000,
			CleanupInterval: 24 * time.Hour,
		},
		Security: SecurityConfig{
			AuthMode:        "jwt",
			JWTIssuer:       "reelhouse",
			CORSOrigins:     []string{"*"},
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// LoadWithKoanf loads configuration with the precedence
// environment > config file > defaults, then validates it.
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

var sliceConfigPaths = []string{
	"security.cors_origins",
}

// processSliceFields splits comma-separated env values for slice fields.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) == 0 {
			continue
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

var envMappings = map[string]string{
	"http_port":                "server.port",
	"http_host":                "server.host",
	"http_read_timeout":        "server.read_timeout",
	"http_idle_timeout":        "server.idle_timeout",
	"http_shutdown_timeout":    "server.shutdown_timeout",
	"environment":              "server.environment",
	"duckdb_path":              "database.path",
	"duckdb_max_memory":        "database.max_memory",
	"duckdb_threads":           "database.threads",
	"media_root":               "media.root",
	"media_chunk_size":         "media.chunk_size",
	"media_content_type":       "media.content_type",
	"dunning_enabled":          "billing.dunning_enabled",
	"dunning_schedule":         "billing.dunning_schedule",
	"dunning_batch_size":       "billing.batch_size",
	"dunning_run_timeout":      "billing.run_timeout",
	"billing_currency":         "billing.currency",
	"gateway_url":              "gateway.url",
	"gateway_api_key":          "gateway.api_key",
	"gateway_timeout":          "gateway.timeout",
	"gateway_rps":              "gateway.requests_per_second",
	"gateway_burst":            "gateway.burst",
	"gateway_breaker_max":      "gateway.breaker_max_requests",
	"gateway_breaker_interval": "gateway.breaker_interval",
	"gateway_breaker_timeout":  "gateway.breaker_timeout",
	"gateway_breaker_failures": "gateway.breaker_failure_threshold",
	"idempotency_backend":      "idempotency.backend",
	"idempotency_path":         "idempotency.path",
	"idempotency_ttl":          "idempotency.ttl",
	"idempotency_gc_interval":  "idempotency.gc_interval",
	"events_backend":           "events.backend",
	"nats_url":                 "events.nats_url",
	"events_subject_prefix":    "events.subject_prefix",
	"nats_max_reconnects":      "events.max_reconnects",
	"nats_reconnect_wait":      "events.reconnect_wait",
	"nats_embedded_host":       "events.embedded_host",
	"nats_embedded_port":       "events.embedded_port",
	"nats_store_dir":           "events.embedded_store_dir",
	"events_live_feed":         "events.live_feed",
	"audit_enabled":            "audit.enabled",
	"audit_retention_days":     "audit.retention_days",
	"audit_buffer_size":        "audit.buffer_size",
	"audit_cleanup_interval":   "audit.cleanup_interval",
	"auth_mode":                "security.auth_mode",
	"jwt_secret":               "security.jwt_secret",
	"jwt_issuer":               "security.jwt_issuer",
	"authz_policy_path":        "security.policy_path",
	"cors_origins":             "security.cors_origins",
	"rate_limit_requests":      "security.rate_limit_requests",
	"rate_limit_window":        "security.rate_limit_window",
	"disable_rate_limit":       "security.rate_limit_disabled",
	"log_level":                "logging.level",
	"log_format":               "logging.format",
	"log_caller":               "logging.caller",
}

// envTransformFunc maps known environment variables to koanf paths, e.g.
// GATEWAY_URL -> gateway.url. Unknown variables map to "" and are skipped.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
