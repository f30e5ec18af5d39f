// Reelhouse - Streaming Platform Delivery and Billing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelhouse

package audit

import (
	"context"
	"time"

	"github.com/goccy/go-json"
)

// EventType categorizes audit events.
type EventType string

const (
	EventTypeDunningScheduled   EventType = "dunning.scheduled"
	EventTypeDunningProcessed   EventType = "dunning.processed"
	EventTypePlanChangeRecorded EventType = "plan_change.recorded"
)

// Outcome indicates whether an action succeeded.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
)

// Actor identifies the caller.
type Actor struct {
	ID   string `json:"id"`
	Role string `json:"role"`
}

// Target identifies the affected resource.
type Target struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

// Event is one audited billing action.
type Event struct {
	ID          string          `json:"id"`
	Timestamp   time.Time       `json:"timestamp"`
	Type        EventType       `json:"type"`
	Outcome     Outcome         `json:"outcome"`
	Actor       Actor           `json:"actor"`
	Target      Target          `json:"target"`
	Description string          `json:"description"`
	Metadata    json.RawMessage `json:"metadata,omitempty"`
	RequestID   string          `json:"request_id,omitempty"`
}

// QueryFilter selects events. Zero fields do not filter. Results are
// newest first.
type QueryFilter struct {
	Types    []EventType
	ActorID  string
	TargetID string
	Since    time.Time
	Until    time.Time
	Limit    int
}

// DefaultQueryLimit caps queries that set no limit.
const DefaultQueryLimit = 100

func (f QueryFilter) limit() int {
	if f.Limit <= 0 || f.Limit > 1000 {
		return DefaultQueryLimit
	}
	return f.Limit
}

// Store persists audit events.
type Store interface {
	Save(ctx context.Context, event *Event) error
	Query(ctx context.Context, filter QueryFilter) ([]Event, error)

	// DeleteBefore removes events older than cutoff and returns how many.
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// mustJSON marshals v, returning nil on failure.
func mustJSON(v interface{}) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return data
}
