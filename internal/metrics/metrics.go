// Reelhouse - Streaming Platform Delivery and Billing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelhouse

// Package metrics defines the Prometheus collectors for Reelhouse.
//
// Collectors are registered on the default registry at init through
// promauto and exposed at /metrics. Callers use the Record* helpers so
// label sets stay consistent.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reelhouse_api_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "reelhouse_api_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "reelhouse_api_active_requests",
			Help: "Number of in-flight HTTP requests",
		},
	)

	// Stream metrics
	StreamResponses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reelhouse_stream_responses_total",
			Help: "Stream responses by status code",
		},
		[]string{"status"},
	)

	StreamBytesServed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "reelhouse_stream_bytes_served_total",
			Help: "Total body bytes written by the stream handler",
		},
	)

	StreamAborted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "reelhouse_stream_aborted_total",
			Help: "Streams stopped before the full window was written",
		},
	)

	// Dunning metrics
	DunningAttemptsScheduled = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "reelhouse_dunning_attempts_scheduled_total",
			Help: "Dunning attempts materialized",
		},
	)

	DunningAttemptsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reelhouse_dunning_attempts_processed_total",
			Help: "Dunning attempts processed by stage and outcome",
		},
		[]string{"stage", "outcome"},
	)

	DunningRunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "reelhouse_dunning_run_duration_seconds",
			Help:    "Duration of a scheduled dunning run",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120},
		},
	)

	// Gateway metrics
	GatewayRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reelhouse_gateway_requests_total",
			Help: "Payment gateway charge requests by outcome",
		},
		[]string{"outcome"},
	)

	GatewayLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "reelhouse_gateway_request_duration_seconds",
			Help:    "Payment gateway round trip time",
			Buckets: prometheus.DefBuckets,
		},
	)

	IdempotencyReplays = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "reelhouse_gateway_idempotent_replays_total",
			Help: "Charges answered from the idempotency ledger",
		},
	)

	// Circuit breaker metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "reelhouse_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reelhouse_circuit_breaker_transitions_total",
			Help: "Circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	// Event metrics
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reelhouse_events_published_total",
			Help: "Dunning events published by type and result",
		},
		[]string{"type", "result"},
	)

	// Authorization metrics
	AuthzDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reelhouse_authz_decisions_total",
			Help: "Authorization decisions by permission and result",
		},
		[]string{"object", "action", "result"},
	)

	// Live feed metrics
	WebSocketClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "reelhouse_websocket_clients",
			Help: "Connected live feed clients",
		},
	)

	WebSocketDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "reelhouse_websocket_messages_dropped_total",
			Help: "Live feed messages dropped because a buffer was full",
		},
	)
)

// RecordAPIRequest records one completed HTTP request.
func RecordAPIRequest(method, route string, status int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// TrackActiveRequest adjusts the in-flight gauge.
func TrackActiveRequest(start bool) {
	if start {
		APIActiveRequests.Inc()
		return
	}
	APIActiveRequests.Dec()
}

// RecordStream records a finished stream response.
func RecordStream(status int, bytesWritten int64, aborted bool) {
	StreamResponses.WithLabelValues(strconv.Itoa(status)).Inc()
	if bytesWritten > 0 {
		StreamBytesServed.Add(float64(bytesWritten))
	}
	if aborted {
		StreamAborted.Inc()
	}
}

// RecordDunningScheduled records newly materialized attempts.
func RecordDunningScheduled(n int) {
	DunningAttemptsScheduled.Add(float64(n))
}

// RecordDunningProcessed records the outcome of one processed attempt.
func RecordDunningProcessed(stage, outcome string) {
	DunningAttemptsProcessed.WithLabelValues(stage, outcome).Inc()
}

// RecordGatewayRequest records one gateway round trip.
func RecordGatewayRequest(outcome string, duration time.Duration) {
	GatewayRequests.WithLabelValues(outcome).Inc()
	GatewayLatency.Observe(duration.Seconds())
}

// RecordEventPublished records a publish attempt.
func RecordEventPublished(eventType string, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	EventsPublished.WithLabelValues(eventType, result).Inc()
}

// RecordDunningRun records the duration of one processor run.
func RecordDunningRun(duration time.Duration) {
	DunningRunDuration.Observe(duration.Seconds())
}

// RecordAuthzDecision records one policy check.
func RecordAuthzDecision(object, action string, allowed bool) {
	result := "denied"
	if allowed {
		result = "allowed"
	}
	AuthzDecisions.WithLabelValues(object, action, result).Inc()
}
