// Reelhouse - Streaming Platform Delivery and Billing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelhouse

package api

import (
	"context"
	"time"

	"github.com/tomtom215/reelhouse/internal/audit"
	"github.com/tomtom215/reelhouse/internal/billing"
	ws "github.com/tomtom215/reelhouse/internal/websocket"
)

// DunningService schedules and settles dunning attempts.
type DunningService interface {
	ScheduleDunningAttempts(ctx context.Context, inv billing.Invoice) ([]*billing.DunningAttempt, error)
	ProcessDunningAttempt(ctx context.Context, id string) (*billing.ProcessResult, error)
}

// AttemptReader is the read side of the attempt store.
type AttemptReader interface {
	GetAttempt(ctx context.Context, id string) (*billing.DunningAttempt, error)
	ListByInvoice(ctx context.Context, invoiceID string) ([]*billing.DunningAttempt, error)
	ListBySubscription(ctx context.Context, subscriptionID string) ([]*billing.DunningAttempt, error)
}

// PlanChangeService prices and records plan changes.
type PlanChangeService interface {
	RequestPlanChange(ctx context.Context, pc billing.PlanChange) (*billing.PlanChangeRequest, error)
	Get(ctx context.Context, id string) (*billing.PlanChangeRequest, error)
}

// AuditTrail records billing actions and reads them back.
type AuditTrail interface {
	Record(ctx context.Context, eventType audit.EventType, outcome audit.Outcome, actor audit.Actor, target audit.Target, description string, metadata interface{})
	Query(ctx context.Context, filter audit.QueryFilter) ([]audit.Event, error)
}

// HealthChecker reports whether a dependency answers.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// HandlerDeps are the collaborators of Handler. DB, Audit and LiveFeed
// may be nil.
type HandlerDeps struct {
	Dunning         DunningService
	Attempts        AttemptReader
	PlanChanges     PlanChangeService
	DB              HealthChecker
	Audit           AuditTrail
	LiveFeed        *ws.Hub
	DefaultCurrency string

	// AllowedOrigins are accepted on websocket upgrades. "*" allows any.
	AllowedOrigins []string
}

// Handler contains dependencies for API handlers
//
// Handler methods are split across files:
//   - handlers_billing.go: dunning, proration and plan change endpoints
//   - handlers_audit.go: audit trail recording and queries
//   - handlers_feed.go: live dunning event feed
//   - handlers_health.go: health probes
type Handler struct {
	dunning         DunningService
	attempts        AttemptReader
	planChanges     PlanChangeService
	db              HealthChecker
	audit           AuditTrail
	liveFeed        *ws.Hub
	allowedOrigins  []string
	defaultCurrency string
	startTime       time.Time
}

// NewHandler creates a Handler.
func NewHandler(deps HandlerDeps) *Handler {
	return &Handler{
		dunning:         deps.Dunning,
		attempts:        deps.Attempts,
		planChanges:     deps.PlanChanges,
		db:              deps.DB,
		audit:           deps.Audit,
		liveFeed:        deps.LiveFeed,
		allowedOrigins:  deps.AllowedOrigins,
		defaultCurrency: deps.DefaultCurrency,
		startTime:       time.Now(),
	}
}
