// Reelhouse - Streaming Platform Delivery and Billing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelhouse

package gateway

import (
	"context"
	"time"

	"github.com/tomtom215/reelhouse/internal/logging"
	"github.com/tomtom215/reelhouse/internal/metrics"
)

// IdempotentGateway answers repeated charges for the same idempotency key
// from a Ledger. Only definitive outcomes (success or decline) are
// recorded; an ErrUnavailable charge may be retried.
type IdempotentGateway struct {
	next   Charger
	ledger Ledger
	ttl    time.Duration
}

// NewIdempotentGateway wraps next with ledger.
func NewIdempotentGateway(next Charger, ledger Ledger, ttl time.Duration) *IdempotentGateway {
	return &IdempotentGateway{next: next, ledger: ledger, ttl: ttl}
}

// Charge returns the recorded outcome for req.IdempotencyKey if one exists,
// otherwise charges through the wrapped Charger.
func (g *IdempotentGateway) Charge(ctx context.Context, req *ChargeRequest) (*ChargeResult, error) {
	if prev, ok, err := g.ledger.Get(ctx, req.IdempotencyKey); err != nil {
		// Fall through: the gateway dedups on the same key.
		logging.Ctx(ctx).Warn().Err(err).Str("idempotency_key", req.IdempotencyKey).Msg("Idempotency ledger read failed")
	} else if ok {
		metrics.IdempotencyReplays.Inc()
		return prev, nil
	}

	result, err := g.next.Charge(ctx, req)
	if err != nil {
		return nil, err
	}

	if putErr := g.ledger.Put(ctx, req.IdempotencyKey, result, g.ttl); putErr != nil {
		logging.Ctx(ctx).Warn().Err(putErr).Str("idempotency_key", req.IdempotencyKey).Msg("Idempotency ledger write failed")
	}
	return result, nil
}
