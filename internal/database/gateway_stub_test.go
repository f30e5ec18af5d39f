// Reelhouse - Streaming Platform Delivery and Billing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelhouse

//go:build integration

package database

import (
	"context"

	"github.com/tomtom215/reelhouse/internal/gateway"
)

// billingGatewayFunc answers every charge with the outcome of approve.
type billingGatewayFunc func() bool

func (f billingGatewayFunc) Charge(_ context.Context, _ *gateway.ChargeRequest) (*gateway.ChargeResult, error) {
	if f() {
		return &gateway.ChargeResult{Success: true, TransactionID: "txn_test"}, nil
	}
	return &gateway.ChargeResult{Success: false, DeclineCode: "do_not_honor", Message: "declined"}, nil
}
