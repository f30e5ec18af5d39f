// Reelhouse - Streaming Platform Delivery and Billing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelhouse

// Package events publishes dunning lifecycle events over Watermill.
//
// The billing scheduler emits one event per state change (attempts
// scheduled, attempt settled) and one per stage action that needs an
// outside system to act (customer email, in-app notification, plan
// downgrade, cancellation). Consumers such as the mailer or the
// entitlement service subscribe by topic:
//
//	<prefix>.dunning.attempt.failed
//	<prefix>.dunning.action.email
//	<prefix>.dunning.subscription.cancel
//
// The in-memory backend (gochannel) serves tests and single-node setups;
// production uses NATS JetStream through watermill-nats.
package events

import (
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// SchemaVersion is bumped on breaking changes to DunningEvent.
const SchemaVersion = 1

// Event types.
const (
	TypeAttemptsScheduled     = "attempts.scheduled"
	TypeAttemptSucceeded      = "attempt.succeeded"
	TypeAttemptFailed         = "attempt.failed"
	TypeSubscriptionDowngrade = "subscription.downgrade"
	TypeSubscriptionCancel    = "subscription.cancel"

	// actionTypePrefix is joined with a stage action, e.g. action.email.
	actionTypePrefix = "action."
)

var (
	// ErrPublisherClosed is returned after Close.
	ErrPublisherClosed = errors.New("publisher is closed")

	// ErrInvalidEvent is returned for events missing required fields.
	ErrInvalidEvent = errors.New("invalid event")
)

// DunningEvent is the payload of every dunning message.
type DunningEvent struct {
	SchemaVersion int    `json:"schema_version"`
	EventID       string `json:"event_id"`
	Type          string `json:"type"`

	SubscriptionID string `json:"subscription_id"`
	InvoiceID      string `json:"invoice_id"`
	AttemptID      string `json:"attempt_id,omitempty"`
	AttemptNumber  int    `json:"attempt_number,omitempty"`
	Stage          string `json:"stage,omitempty"`
	Action         string `json:"action,omitempty"`
	Status         string `json:"status,omitempty"`
	ErrorMessage   string `json:"error_message,omitempty"`

	NextAttemptAt *time.Time `json:"next_attempt_at,omitempty"`
	OccurredAt    time.Time  `json:"occurred_at"`
}

// NewDunningEvent returns an event with id, schema version and timestamp set.
func NewDunningEvent(eventType, subscriptionID, invoiceID string, occurredAt time.Time) *DunningEvent {
	return &DunningEvent{
		SchemaVersion:  SchemaVersion,
		EventID:        uuid.New().String(),
		Type:           eventType,
		SubscriptionID: subscriptionID,
		InvoiceID:      invoiceID,
		OccurredAt:     occurredAt.UTC(),
	}
}

// ActionType returns the event type for a stage action.
func ActionType(action string) string {
	return actionTypePrefix + action
}

// Topics lists every subject a scheduler publishes on, given the action
// names its schedule uses. Subscribers on brokers without wildcard
// subscriptions subscribe to each.
func Topics(prefix string, actions []string) []string {
	types := []string{
		TypeAttemptsScheduled,
		TypeAttemptSucceeded,
		TypeAttemptFailed,
		TypeSubscriptionDowngrade,
		TypeSubscriptionCancel,
	}
	for _, a := range actions {
		types = append(types, ActionType(a))
	}
	topics := make([]string, len(types))
	for i, t := range types {
		topics[i] = (&DunningEvent{Type: t}).Topic(prefix)
	}
	return topics
}

// Topic returns the subject the event is published on.
func (e *DunningEvent) Topic(prefix string) string {
	return prefix + ".dunning." + e.Type
}

// Validate checks the fields every consumer relies on.
func (e *DunningEvent) Validate() error {
	switch {
	case e.EventID == "":
		return fmt.Errorf("%w: event_id is required", ErrInvalidEvent)
	case e.Type == "":
		return fmt.Errorf("%w: type is required", ErrInvalidEvent)
	case e.InvoiceID == "":
		return fmt.Errorf("%w: invoice_id is required", ErrInvalidEvent)
	}
	return nil
}

// SerializeEvent encodes e as JSON.
func SerializeEvent(e *DunningEvent) ([]byte, error) {
	return json.Marshal(e)
}

// DeserializeEvent decodes a message payload.
func DeserializeEvent(data []byte) (*DunningEvent, error) {
	var e DunningEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("decode dunning event: %w", err)
	}
	if e.SchemaVersion == 0 {
		e.SchemaVersion = SchemaVersion
	}
	return &e, nil
}
