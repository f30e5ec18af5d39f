// Reelhouse - Streaming Platform Delivery and Billing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelhouse

package billing

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// AttemptStatus is the settlement state of a DunningAttempt.
type AttemptStatus string

const (
	StatusPending    AttemptStatus = "pending"
	StatusSucceeded  AttemptStatus = "succeeded"
	StatusFailed     AttemptStatus = "failed"
	StatusSuperseded AttemptStatus = "superseded"
)

// Settled reports whether the status is terminal.
func (s AttemptStatus) Settled() bool {
	return s != StatusPending
}

// Invoice is the failed invoice that triggers dunning.
type Invoice struct {
	ID             string          `json:"id"`
	SubscriptionID string          `json:"subscription_id"`
	AmountDue      decimal.Decimal `json:"amount_due"`
	Currency       string          `json:"currency"`
	FirstFailedAt  time.Time       `json:"first_failed_at"`
}

// Validate checks the fields scheduling relies on.
func (inv *Invoice) Validate() error {
	switch {
	case inv.ID == "":
		return fmt.Errorf("%w: id is required", ErrInvalidInvoice)
	case inv.SubscriptionID == "":
		return fmt.Errorf("%w: subscription id is required", ErrInvalidInvoice)
	case !inv.AmountDue.IsPositive():
		return fmt.Errorf("%w: amount due must be positive", ErrInvalidInvoice)
	case len(inv.Currency) != 3:
		return fmt.Errorf("%w: currency must be an ISO 4217 code", ErrInvalidInvoice)
	case inv.FirstFailedAt.IsZero():
		return fmt.Errorf("%w: first failure time is required", ErrInvalidInvoice)
	}
	return nil
}

// DunningAttempt is one planned collection attempt for an invoice.
type DunningAttempt struct {
	ID             string          `json:"id"`
	SubscriptionID string          `json:"subscription_id"`
	InvoiceID      string          `json:"invoice_id"`
	Stage          Stage           `json:"stage"`
	AttemptNumber  int             `json:"attempt_number"`
	Actions        []Action        `json:"actions"`
	AmountDue      decimal.Decimal `json:"amount_due"`
	Currency       string          `json:"currency"`
	FirstFailedAt  time.Time       `json:"first_failed_at"`
	NextAttemptAt  time.Time       `json:"next_attempt_at"`
	AttemptedAt    *time.Time      `json:"attempted_at,omitempty"`
	Status         AttemptStatus   `json:"status"`
	ErrorMessage   string          `json:"error_message,omitempty"`
	TransactionID  string          `json:"transaction_id,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// Settlement is the outcome written by a conditional status transition.
type Settlement struct {
	Status        AttemptStatus
	AttemptedAt   time.Time
	ErrorMessage  string
	TransactionID string
}

// ProcessResult is returned by ProcessDunningAttempt.
type ProcessResult struct {
	AttemptID            string        `json:"attempt_id"`
	Success              bool          `json:"success"`
	Status               AttemptStatus `json:"status"`
	Stage                Stage         `json:"stage"`
	NextAttemptScheduled bool          `json:"next_attempt_scheduled"`
	NextAttemptAt        *time.Time    `json:"next_attempt_at,omitempty"`
	ErrorMessage         string        `json:"error_message,omitempty"`
	// Replayed is true when the attempt was already settled and the
	// recorded outcome was returned without charging.
	Replayed bool `json:"replayed,omitempty"`
}
