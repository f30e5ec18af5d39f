// Reelhouse - Streaming Platform Delivery and Billing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelhouse

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func validConfig() *Config {
	cfg := defaultConfig()
	cfg.Security.JWTSecret = testSecret
	return cfg
}

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Media.ChunkSize != 32*1024 {
		t.Errorf("Media.ChunkSize = %d, want 32768", cfg.Media.ChunkSize)
	}
	if cfg.Media.ContentType != "video/mp4" {
		t.Errorf("Media.ContentType = %q, want video/mp4", cfg.Media.ContentType)
	}
	if cfg.Billing.DunningSchedule != "@every 5m" {
		t.Errorf("Billing.DunningSchedule = %q, want @every 5m", cfg.Billing.DunningSchedule)
	}
	if cfg.Idempotency.TTL != 30*24*time.Hour {
		t.Errorf("Idempotency.TTL = %v, want 720h", cfg.Idempotency.TTL)
	}
	if cfg.Events.Backend != "memory" {
		t.Errorf("Events.Backend = %q, want memory", cfg.Events.Backend)
	}
}

func TestLoadWithKoanf_EnvOverrides(t *testing.T) {
	t.Setenv(ConfigPathEnvVar, filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("DUNNING_SCHEDULE", "@every 1m")
	t.Setenv("GATEWAY_URL", "https://pay.example.com")
	t.Setenv("GATEWAY_TIMEOUT", "5s")
	t.Setenv("GATEWAY_RPS", "2.5")
	t.Setenv("CORS_ORIGINS", "https://a.example.com, https://b.example.com")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Billing.DunningSchedule != "@every 1m" {
		t.Errorf("Billing.DunningSchedule = %q", cfg.Billing.DunningSchedule)
	}
	if cfg.Gateway.Timeout != 5*time.Second {
		t.Errorf("Gateway.Timeout = %v, want 5s", cfg.Gateway.Timeout)
	}
	if cfg.Gateway.RequestsPerSecond != 2.5 {
		t.Errorf("Gateway.RequestsPerSecond = %v, want 2.5", cfg.Gateway.RequestsPerSecond)
	}
	if len(cfg.Security.CORSOrigins) != 2 || cfg.Security.CORSOrigins[1] != "https://b.example.com" {
		t.Errorf("Security.CORSOrigins = %v", cfg.Security.CORSOrigins)
	}
}

func TestLoadWithKoanf_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
media:
  root: /srv/videos
billing:
  batch_size: 25
security:
  jwt_secret: ` + testSecret + `
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("DUNNING_BATCH_SIZE", "50")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}
	if cfg.Media.Root != "/srv/videos" {
		t.Errorf("Media.Root = %q, want /srv/videos", cfg.Media.Root)
	}
	if cfg.Billing.BatchSize != 50 {
		t.Errorf("env should override file: BatchSize = %d, want 50", cfg.Billing.BatchSize)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid defaults", func(*Config) {}, ""},
		{"bad port", func(c *Config) { c.Server.Port = 0 }, "HTTP_PORT"},
		{"tiny chunk", func(c *Config) { c.Media.ChunkSize = 10 }, "MEDIA_CHUNK_SIZE"},
		{"empty schedule", func(c *Config) { c.Billing.DunningSchedule = " " }, "DUNNING_SCHEDULE"},
		{"bad cron spec", func(c *Config) { c.Billing.DunningSchedule = "every five minutes" }, "DUNNING_SCHEDULE"},
		{"dunning disabled skips schedule", func(c *Config) {
			c.Billing.DunningEnabled = false
			c.Billing.DunningSchedule = ""
		}, ""},
		{"bad currency", func(c *Config) { c.Billing.Currency = "dollars" }, "BILLING_CURRENCY"},
		{"relative gateway url", func(c *Config) { c.Gateway.URL = "pay.example.com" }, "GATEWAY_URL"},
		{"production needs gateway", func(c *Config) { c.Server.Environment = "production" }, "GATEWAY_URL"},
		{"unknown idempotency backend", func(c *Config) { c.Idempotency.Backend = "redis" }, "IDEMPOTENCY_BACKEND"},
		{"nats without url", func(c *Config) {
			c.Events.Backend = "nats"
			c.Events.NATSURL = ""
		}, "NATS_URL"},
		{"zero audit retention", func(c *Config) { c.Audit.RetentionDays = 0 }, "AUDIT_RETENTION_DAYS"},
		{"audit disabled skips checks", func(c *Config) {
			c.Audit.Enabled = false
			c.Audit.BufferSize = 0
		}, ""},
		{"embedded without store dir", func(c *Config) {
			c.Events.Backend = "embedded"
			c.Events.EmbeddedStoreDir = ""
		}, "NATS_STORE_DIR"},
		{"embedded bad port", func(c *Config) {
			c.Events.Backend = "embedded"
			c.Events.EmbeddedPort = 0
		}, "NATS_EMBEDDED_PORT"},
		{"short secret", func(c *Config) { c.Security.JWTSecret = "short" }, "JWT_SECRET"},
		{"auth none allowed in dev", func(c *Config) {
			c.Security.AuthMode = "none"
			c.Security.JWTSecret = ""
		}, ""},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, "LOG_FORMAT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate() error = %v, want mention of %s", err, tt.wantErr)
			}
		})
	}
}

func TestEnvTransformFunc(t *testing.T) {
	if got := envTransformFunc("GATEWAY_API_KEY"); got != "gateway.api_key" {
		t.Errorf("envTransformFunc(GATEWAY_API_KEY) = %q", got)
	}
	if got := envTransformFunc("PATH"); got != "" {
		t.Errorf("unmapped variables should be skipped, got %q", got)
	}
}
