// Reelhouse - Streaming Platform Delivery and Billing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelhouse

// Package gateway is the payment gateway client used by the dunning
// scheduler.
//
// The client layers are composed outermost first:
//
//	IdempotentGateway  replays settled outcomes from the ledger
//	CircuitBreakerClient  stops calling a gateway that keeps failing
//	Client  HTTP transport, rate limited
//
// Every charge carries an Idempotency-Key (the dunning attempt id) so
// the gateway itself also collapses duplicate submissions.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrDeclined marks a charge the gateway refused (insufficient funds,
	// expired card). Declines are definitive for their idempotency key.
	ErrDeclined = errors.New("payment declined")

	// ErrUnavailable marks a transient failure: transport error, timeout,
	// 5xx, 429 or an open circuit. The outcome of the charge is unknown.
	ErrUnavailable = errors.New("payment gateway unavailable")

	// ErrRejected marks a request the gateway considered malformed.
	ErrRejected = errors.New("payment request rejected")

	// ErrNotConfigured is returned by a Client with no base URL.
	ErrNotConfigured = errors.New("payment gateway not configured")
)

// ChargeRequest is one charge against a subscription's stored payment method.
type ChargeRequest struct {
	IdempotencyKey string
	SubscriptionID string
	InvoiceID      string
	Amount         decimal.Decimal
	Currency       string
	AttemptNumber  int
}

// Validate checks the fields the gateway requires.
func (r *ChargeRequest) Validate() error {
	switch {
	case r.IdempotencyKey == "":
		return fmt.Errorf("%w: idempotency key is required", ErrRejected)
	case r.SubscriptionID == "":
		return fmt.Errorf("%w: subscription id is required", ErrRejected)
	case !r.Amount.IsPositive():
		return fmt.Errorf("%w: amount must be positive", ErrRejected)
	case len(r.Currency) != 3:
		return fmt.Errorf("%w: currency must be an ISO 4217 code", ErrRejected)
	}
	return nil
}

// ChargeResult is the gateway's definitive answer for a charge.
type ChargeResult struct {
	Success       bool      `json:"success"`
	TransactionID string    `json:"transaction_id,omitempty"`
	DeclineCode   string    `json:"decline_code,omitempty"`
	Message       string    `json:"message,omitempty"`
	ProcessedAt   time.Time `json:"processed_at"`
}

// Err returns nil for a successful charge and an ErrDeclined-wrapping
// error describing the decline otherwise.
func (r *ChargeResult) Err() error {
	if r.Success {
		return nil
	}
	msg := r.Message
	if msg == "" {
		msg = "no reason given"
	}
	if r.DeclineCode != "" {
		return fmt.Errorf("%w (%s): %s", ErrDeclined, r.DeclineCode, msg)
	}
	return fmt.Errorf("%w: %s", ErrDeclined, msg)
}

// Charger is implemented by every layer of the client stack.
type Charger interface {
	Charge(ctx context.Context, req *ChargeRequest) (*ChargeResult, error)
}
