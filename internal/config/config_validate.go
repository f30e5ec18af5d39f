// Reelhouse - Streaming Platform Delivery and Billing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelhouse

package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/robfig/cron/v3"
)

var (
	validLogLevels = map[string]bool{
		"trace": true, "debug": true, "info": true, "warn": true, "error": true,
	}
	validLogFormats        = map[string]bool{"json": true, "console": true}
	validAuthModes         = map[string]bool{"jwt": true, "none": true}
	validEventBackends     = map[string]bool{"memory": true, "nats": true, "embedded": true}
	validIdempotencyStores = map[string]bool{"badger": true, "memory": true}
)

// Validate checks that required configuration is present and consistent.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateMedia(); err != nil {
		return err
	}
	if err := c.validateBilling(); err != nil {
		return err
	}
	if err := c.validateGateway(); err != nil {
		return err
	}
	if err := c.validateIdempotency(); err != nil {
		return err
	}
	if err := c.validateEvents(); err != nil {
		return err
	}
	if err := c.validateAudit(); err != nil {
		return err
	}
	if err := c.validateSecurity(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("HTTP_SHUTDOWN_TIMEOUT must be positive")
	}
	if c.Database.Path == "" {
		return fmt.Errorf("DUCKDB_PATH is required")
	}
	return nil
}

func (c *Config) validateMedia() error {
	if c.Media.Root == "" {
		return fmt.Errorf("MEDIA_ROOT is required")
	}
	if c.Media.ChunkSize < 512 {
		return fmt.Errorf("MEDIA_CHUNK_SIZE must be at least 512 bytes, got %d", c.Media.ChunkSize)
	}
	if c.Media.ContentType == "" {
		return fmt.Errorf("MEDIA_CONTENT_TYPE is required")
	}
	return nil
}

func (c *Config) validateBilling() error {
	if !c.Billing.DunningEnabled {
		return nil
	}
	if strings.TrimSpace(c.Billing.DunningSchedule) == "" {
		return fmt.Errorf("DUNNING_SCHEDULE is required when DUNNING_ENABLED=true")
	}
	if _, err := cron.ParseStandard(c.Billing.DunningSchedule); err != nil {
		return fmt.Errorf("DUNNING_SCHEDULE %q is not a valid cron spec: %w", c.Billing.DunningSchedule, err)
	}
	if c.Billing.BatchSize < 1 {
		return fmt.Errorf("DUNNING_BATCH_SIZE must be at least 1, got %d", c.Billing.BatchSize)
	}
	if len(c.Billing.Currency) != 3 {
		return fmt.Errorf("BILLING_CURRENCY must be an ISO 4217 code, got %q", c.Billing.Currency)
	}
	return nil
}

func (c *Config) validateGateway() error {
	if c.Gateway.URL == "" {
		if c.IsProduction() && c.Billing.DunningEnabled {
			return fmt.Errorf("GATEWAY_URL is required in production when dunning is enabled")
		}
		return nil
	}
	u, err := url.Parse(c.Gateway.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("GATEWAY_URL must be an absolute http(s) URL, got %q", c.Gateway.URL)
	}
	if c.Gateway.Timeout <= 0 {
		return fmt.Errorf("GATEWAY_TIMEOUT must be positive")
	}
	if c.Gateway.RequestsPerSecond < 0 {
		return fmt.Errorf("GATEWAY_RPS must not be negative")
	}
	if c.Gateway.BreakerFailureThreshold == 0 {
		return fmt.Errorf("GATEWAY_BREAKER_FAILURES must be at least 1")
	}
	return nil
}

func (c *Config) validateIdempotency() error {
	if !validIdempotencyStores[c.Idempotency.Backend] {
		return fmt.Errorf("IDEMPOTENCY_BACKEND must be 'badger' or 'memory', got %q", c.Idempotency.Backend)
	}
	if c.Idempotency.Backend == "badger" && c.Idempotency.Path == "" {
		return fmt.Errorf("IDEMPOTENCY_PATH is required for the badger backend")
	}
	if c.Idempotency.TTL <= 0 {
		return fmt.Errorf("IDEMPOTENCY_TTL must be positive")
	}
	return nil
}

func (c *Config) validateAudit() error {
	if !c.Audit.Enabled {
		return nil
	}
	if c.Audit.RetentionDays < 1 {
		return fmt.Errorf("AUDIT_RETENTION_DAYS must be at least 1, got %d", c.Audit.RetentionDays)
	}
	if c.Audit.BufferSize < 1 {
		return fmt.Errorf("AUDIT_BUFFER_SIZE must be at least 1, got %d", c.Audit.BufferSize)
	}
	return nil
}

func (c *Config) validateEvents() error {
	if !validEventBackends[c.Events.Backend] {
		return fmt.Errorf("EVENTS_BACKEND must be 'memory', 'nats' or 'embedded', got %q", c.Events.Backend)
	}
	if c.Events.Backend == "embedded" {
		if c.Events.EmbeddedPort < 1 || c.Events.EmbeddedPort > 65535 {
			return fmt.Errorf("NATS_EMBEDDED_PORT must be between 1 and 65535, got %d", c.Events.EmbeddedPort)
		}
		if c.Events.EmbeddedStoreDir == "" {
			return fmt.Errorf("NATS_STORE_DIR is required when EVENTS_BACKEND=embedded")
		}
	}
	if c.Events.Backend == "nats" && c.Events.NATSURL == "" {
		return fmt.Errorf("NATS_URL is required when EVENTS_BACKEND=nats")
	}
	if c.Events.SubjectPrefix == "" {
		return fmt.Errorf("EVENTS_SUBJECT_PREFIX is required")
	}
	return nil
}

func (c *Config) validateSecurity() error {
	if !validAuthModes[c.Security.AuthMode] {
		return fmt.Errorf("AUTH_MODE must be 'jwt' or 'none', got %q", c.Security.AuthMode)
	}
	if c.Security.AuthMode == "jwt" && len(c.Security.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters when AUTH_MODE=jwt")
	}
	if c.Security.AuthMode == "none" && c.IsProduction() {
		return fmt.Errorf("AUTH_MODE=none is not allowed in production")
	}
	if !c.Security.RateLimitDisabled && (c.Security.RateLimitReqs < 1 || c.Security.RateLimitWindow <= 0) {
		return fmt.Errorf("RATE_LIMIT_REQUESTS and RATE_LIMIT_WINDOW must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("LOG_LEVEL must be one of trace, debug, info, warn, error; got %q", c.Logging.Level)
	}
	if !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("LOG_FORMAT must be 'json' or 'console', got %q", c.Logging.Format)
	}
	return nil
}
