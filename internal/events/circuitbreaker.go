// Reelhouse - Streaming Platform Delivery and Billing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelhouse

package events

import (
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/reelhouse/internal/logging"
	"github.com/tomtom215/reelhouse/internal/metrics"
)

// CircuitBreakerConfig configures the breaker in front of the broker.
type CircuitBreakerConfig struct {
	Name             string
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold uint32
}

// DefaultCircuitBreakerConfig trips after five consecutive publish failures.
func DefaultCircuitBreakerConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Name:             "event-publisher",
		MaxRequests:      1,
		Interval:         time.Minute,
		Timeout:          30 * time.Second,
		FailureThreshold: 5,
	}
}

// NewCircuitBreaker creates a breaker that opens after FailureThreshold
// consecutive failures.
func NewCircuitBreaker(cfg CircuitBreakerConfig) *gobreaker.CircuitBreaker[interface{}] {
	metrics.CircuitBreakerState.WithLabelValues(cfg.Name).Set(0)

	return gobreaker.NewCircuitBreaker[interface{}](gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).
				Msg("Event publisher circuit breaker state change")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
		},
	})
}
