// Reelhouse - Streaming Platform Delivery and Billing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelhouse

package gateway

import (
	"context"
	"errors"
	"fmt"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/reelhouse/internal/config"
	"github.com/tomtom215/reelhouse/internal/logging"
	"github.com/tomtom215/reelhouse/internal/metrics"
)

const breakerName = "payment-gateway"

// CircuitBreakerClient wraps a Charger with a circuit breaker.
//
// Only ErrUnavailable counts as a failure. A decline is a healthy answer
// from the gateway and a rejected request is our own bug, so neither
// should take the gateway out of rotation.
type CircuitBreakerClient struct {
	next Charger
	cb   *gobreaker.CircuitBreaker[*ChargeResult]
}

// NewCircuitBreakerClient wraps next using the breaker settings in cfg.
func NewCircuitBreakerClient(next Charger, cfg *config.GatewayConfig) *CircuitBreakerClient {
	threshold := cfg.BreakerFailureThreshold
	if threshold == 0 {
		threshold = 5
	}
	timeout := cfg.BreakerTimeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}

	metrics.CircuitBreakerState.WithLabelValues(breakerName).Set(0)

	cb := gobreaker.NewCircuitBreaker[*ChargeResult](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: cfg.BreakerMaxRequests,
		Interval:    cfg.BreakerInterval,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			trip := counts.ConsecutiveFailures >= threshold
			if trip {
				logging.Warn().Uint32("consecutive_failures", counts.ConsecutiveFailures).
					Msg("[CIRCUIT BREAKER] Opening payment gateway circuit")
			}
			return trip
		},
		IsSuccessful: func(err error) bool {
			return err == nil || !errors.Is(err, ErrUnavailable)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().Str("from", from.String()).Str("to", to.String()).
				Msg("[CIRCUIT BREAKER] State transition")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
		},
	})

	return &CircuitBreakerClient{next: next, cb: cb}
}

// Charge forwards to the wrapped Charger unless the circuit is open.
func (c *CircuitBreakerClient) Charge(ctx context.Context, req *ChargeRequest) (*ChargeResult, error) {
	result, err := c.cb.Execute(func() (*ChargeResult, error) {
		return c.next.Charge(ctx, req)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return result, err
}

// State reports the breaker state for health output.
func (c *CircuitBreakerClient) State() string {
	return c.cb.State().String()
}
