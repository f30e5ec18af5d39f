// Reelhouse - Streaming Platform Delivery and Billing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelhouse

package main

import (
	"fmt"

	"github.com/tomtom215/reelhouse/internal/config"
	"github.com/tomtom215/reelhouse/internal/gateway"
	"github.com/tomtom215/reelhouse/internal/logging"
)

// paymentGateway is the composed charge path plus the ledger it owns.
type paymentGateway struct {
	charger gateway.Charger
	ledger  gateway.Ledger
	// badger is set when the ledger needs value log GC.
	badger *gateway.BadgerLedger
}

func (g *paymentGateway) Close() {
	if err := g.ledger.Close(); err != nil {
		logging.Error().Err(err).Msg("Error closing idempotency ledger")
	}
}

// newPaymentGateway builds IdempotentGateway -> CircuitBreakerClient ->
// Client.
func newPaymentGateway(cfg *config.Config) (*paymentGateway, error) {
	g := &paymentGateway{}

	switch cfg.Idempotency.Backend {
	case "memory":
		g.ledger = gateway.NewMemoryLedger()
	case "badger", "":
		l, err := gateway.OpenBadgerLedger(cfg.Idempotency.Path)
		if err != nil {
			return nil, fmt.Errorf("open idempotency ledger: %w", err)
		}
		g.ledger = l
		g.badger = l
	default:
		return nil, fmt.Errorf("unknown idempotency backend %q", cfg.Idempotency.Backend)
	}

	client := gateway.NewClient(&cfg.Gateway)
	breaker := gateway.NewCircuitBreakerClient(client, &cfg.Gateway)
	g.charger = gateway.NewIdempotentGateway(breaker, g.ledger, cfg.Idempotency.TTL)

	logging.Info().
		Str("gateway_url", cfg.Gateway.URL).
		Str("ledger", cfg.Idempotency.Backend).
		Float64("requests_per_second", cfg.Gateway.RequestsPerSecond).
		Msg("Payment gateway initialized")
	return g, nil
}
