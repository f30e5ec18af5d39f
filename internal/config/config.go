// Reelhouse - Streaming Platform Delivery and Billing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelhouse

// Package config loads and validates Reelhouse configuration.
//
// Configuration is layered with Koanf: built-in defaults, then an optional
// YAML file, then environment variables. See koanf.go for the search paths
// and the environment variable mapping.
package config

import "time"

// Config is the root configuration.
type Config struct {
	Server      ServerConfig      `koanf:"server"`
	Database    DatabaseConfig    `koanf:"database"`
	Media       MediaConfig       `koanf:"media"`
	Billing     BillingConfig     `koanf:"billing"`
	Gateway     GatewayConfig     `koanf:"gateway"`
	Idempotency IdempotencyConfig `koanf:"idempotency"`
	Events      EventsConfig      `koanf:"events"`
	Audit       AuditConfig       `koanf:"audit"`
	Security    SecurityConfig    `koanf:"security"`
	Logging     LoggingConfig     `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `koanf:"port"`
	Host            string        `koanf:"host"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	Environment     string        `koanf:"environment"`
}

// DatabaseConfig holds DuckDB settings.
type DatabaseConfig struct {
	Path      string `koanf:"path"`
	MaxMemory string `koanf:"max_memory"`
	Threads   int    `koanf:"threads"`
}

// MediaConfig holds settings for the stream handler.
type MediaConfig struct {
	// Root is the directory every catalog path is resolved against.
	Root string `koanf:"root"`

	// ChunkSize is the copy buffer size in bytes.
	ChunkSize int `koanf:"chunk_size"`

	// ContentType is sent on every stream response.
	ContentType string `koanf:"content_type"`
}

// BillingConfig holds dunning processor settings.
type BillingConfig struct {
	// DunningEnabled starts the cron-driven processor.
	DunningEnabled bool `koanf:"dunning_enabled"`

	// DunningSchedule is a robfig/cron spec, e.g. "@every 5m".
	DunningSchedule string `koanf:"dunning_schedule"`

	// BatchSize bounds the due attempts handled by one run.
	BatchSize int `koanf:"batch_size"`

	// RunTimeout bounds a single processor run.
	RunTimeout time.Duration `koanf:"run_timeout"`

	// Currency is used when an invoice omits one.
	Currency string `koanf:"currency"`
}

// GatewayConfig holds payment gateway client settings.
type GatewayConfig struct {
	URL     string        `koanf:"url"`
	APIKey  string        `koanf:"api_key"`
	Timeout time.Duration `koanf:"timeout"`

	// RequestsPerSecond throttles outbound charges. Zero disables throttling.
	RequestsPerSecond float64 `koanf:"requests_per_second"`
	Burst             int     `koanf:"burst"`

	BreakerMaxRequests      uint32        `koanf:"breaker_max_requests"`
	BreakerInterval         time.Duration `koanf:"breaker_interval"`
	BreakerTimeout          time.Duration `koanf:"breaker_timeout"`
	BreakerFailureThreshold uint32        `koanf:"breaker_failure_threshold"`
}

// IdempotencyConfig holds the charge ledger settings.
type IdempotencyConfig struct {
	// Backend is badger or memory.
	Backend    string        `koanf:"backend"`
	Path       string        `koanf:"path"`
	TTL        time.Duration `koanf:"ttl"`
	GCInterval time.Duration `koanf:"gc_interval"`
}

// EventsConfig holds dunning event publisher settings.
type EventsConfig struct {
	// Backend is memory, nats, or embedded. Embedded runs a JetStream
	// server inside the process.
	Backend       string        `koanf:"backend"`
	NATSURL       string        `koanf:"nats_url"`
	SubjectPrefix string        `koanf:"subject_prefix"`
	MaxReconnects int           `koanf:"max_reconnects"`
	ReconnectWait time.Duration `koanf:"reconnect_wait"`

	// Embedded server settings.
	EmbeddedHost     string `koanf:"embedded_host"`
	EmbeddedPort     int    `koanf:"embedded_port"`
	EmbeddedStoreDir string `koanf:"embedded_store_dir"`

	// LiveFeed streams dunning events to websocket clients.
	LiveFeed bool `koanf:"live_feed"`
}

// AuditConfig holds billing audit trail settings.
type AuditConfig struct {
	Enabled         bool          `koanf:"enabled"`
	RetentionDays   int           `koanf:"retention_days"`
	BufferSize      int           `koanf:"buffer_size"`
	CleanupInterval time.Duration `koanf:"cleanup_interval"`
}

// SecurityConfig holds authentication, authorization and rate limit settings.
type SecurityConfig struct {
	// AuthMode is jwt or none.
	AuthMode          string        `koanf:"auth_mode"`
	JWTSecret         string        `koanf:"jwt_secret"`
	JWTIssuer         string        `koanf:"jwt_issuer"`
	PolicyPath        string        `koanf:"policy_path"`
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitReqs     int           `koanf:"rate_limit_requests"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// IsProduction reports whether the server runs with production checks.
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// Load reads configuration from defaults, an optional file and the environment.
func Load() (*Config, error) {
	return LoadWithKoanf()
}
