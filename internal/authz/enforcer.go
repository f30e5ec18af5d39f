// Reelhouse - Streaming Platform Delivery and Billing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelhouse

package authz

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	fileadapter "github.com/casbin/casbin/v2/persist/file-adapter"
)

//go:embed model.conf
var embeddedModel string

//go:embed policy.csv
var embeddedPolicy string

// Objects and actions used by the billing routes.
const (
	ObjectBilling = "billing"
	ObjectAudit   = "audit"

	ActionRead    = "read"
	ActionProcess = "process"
	ActionWrite   = "write"
)

// EnforcerConfig holds configuration for the Casbin enforcer.
type EnforcerConfig struct {
	// PolicyPath replaces the embedded policy when set.
	PolicyPath string

	// ReloadInterval is how often a file policy is reloaded. Zero disables reloading.
	ReloadInterval time.Duration

	// CacheTTL is how long decisions are cached. Zero disables the cache.
	CacheTTL time.Duration
}

// DefaultEnforcerConfig returns default configuration.
func DefaultEnforcerConfig() *EnforcerConfig {
	return &EnforcerConfig{
		ReloadInterval: 30 * time.Second,
		CacheTTL:       time.Minute,
	}
}

// Enforcer wraps the Casbin enforcer with a decision cache.
type Enforcer struct {
	config   *EnforcerConfig
	enforcer *casbin.SyncedEnforcer
	cache    *enforcementCache
}

// NewEnforcer loads the embedded model and either the configured policy
// file or the embedded policy.
func NewEnforcer(config *EnforcerConfig) (*Enforcer, error) {
	if config == nil {
		config = DefaultEnforcerConfig()
	}

	m, err := model.NewModelFromString(embeddedModel)
	if err != nil {
		return nil, fmt.Errorf("failed to load casbin model: %w", err)
	}

	var enforcer *casbin.SyncedEnforcer
	if config.PolicyPath != "" {
		if _, statErr := os.Stat(config.PolicyPath); statErr != nil {
			return nil, fmt.Errorf("policy file %s: %w", config.PolicyPath, statErr)
		}
		enforcer, err = casbin.NewSyncedEnforcer(m, fileadapter.NewAdapter(config.PolicyPath))
	} else {
		enforcer, err = casbin.NewSyncedEnforcer(m)
		if err == nil {
			err = loadEmbeddedPolicy(enforcer, embeddedPolicy)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create casbin enforcer: %w", err)
	}

	if config.PolicyPath != "" && config.ReloadInterval > 0 {
		enforcer.StartAutoLoadPolicy(config.ReloadInterval)
	}

	e := &Enforcer{
		config:   config,
		enforcer: enforcer,
	}
	if config.CacheTTL > 0 {
		e.cache = newEnforcementCache(config.CacheTTL)
	}
	return e, nil
}

// loadEmbeddedPolicy parses CSV policy lines into the enforcer.
func loadEmbeddedPolicy(enforcer *casbin.SyncedEnforcer, policy string) error {
	for _, line := range strings.Split(policy, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.Split(line, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}

		switch rule := parts[1:]; parts[0] {
		case "p":
			if len(rule) != 3 {
				return fmt.Errorf("malformed policy line %q", line)
			}
			if _, err := enforcer.AddPolicy(rule[0], rule[1], rule[2]); err != nil {
				return fmt.Errorf("failed to add policy %v: %w", rule, err)
			}
		case "g":
			if len(rule) != 2 {
				return fmt.Errorf("malformed grouping line %q", line)
			}
			if _, err := enforcer.AddGroupingPolicy(rule[0], rule[1]); err != nil {
				return fmt.Errorf("failed to add grouping policy %v: %w", rule, err)
			}
		default:
			return fmt.Errorf("unknown policy type %q", parts[0])
		}
	}
	return nil
}

// Enforce checks whether role may perform action on object.
func (e *Enforcer) Enforce(role, object, action string) (bool, error) {
	if e.cache != nil {
		if allowed, ok := e.cache.get(role, object, action); ok {
			return allowed, nil
		}
	}

	allowed, err := e.enforcer.Enforce(role, object, action)
	if err != nil {
		return false, fmt.Errorf("enforcement failed: %w", err)
	}

	if e.cache != nil {
		e.cache.set(role, object, action, allowed)
	}
	return allowed, nil
}

// LoadPolicy reloads the file policy and clears cached decisions. It is a
// no-op for the embedded policy.
func (e *Enforcer) LoadPolicy() error {
	if e.config.PolicyPath == "" {
		return nil
	}
	if err := e.enforcer.LoadPolicy(); err != nil {
		return fmt.Errorf("failed to reload policy: %w", err)
	}
	if e.cache != nil {
		e.cache.clear()
	}
	return nil
}

// Close stops policy reloading and the cache janitor.
func (e *Enforcer) Close() {
	e.enforcer.StopAutoLoadPolicy()
	if e.cache != nil {
		e.cache.stop()
	}
}
