// Reelhouse - Streaming Platform Delivery and Billing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelhouse

package logging

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type contextKey string

const (
	correlationIDKey contextKey = "correlation_id"
	requestIDKey     contextKey = "request_id"
)

// GenerateCorrelationID returns a short id used to tie together the log
// lines of one dunning run or one background job.
func GenerateCorrelationID() string {
	return uuid.New().String()[:8]
}

// GenerateRequestID returns a full UUID for an inbound HTTP request.
func GenerateRequestID() string {
	return uuid.New().String()
}

// ContextWithCorrelationID returns a context carrying id.
func ContextWithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey, id)
}

// ContextWithNewCorrelationID returns a context carrying a fresh correlation id.
func ContextWithNewCorrelationID(ctx context.Context) context.Context {
	return ContextWithCorrelationID(ctx, GenerateCorrelationID())
}

// CorrelationIDFromContext returns "" when no id is present.
func CorrelationIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(correlationIDKey).(string); ok {
		return id
	}
	return ""
}

// ContextWithRequestID returns a context carrying the HTTP request id.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext returns "" when no id is present.
func RequestIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

// Ctx returns the global logger enriched with the correlation and request
// ids found in ctx.
//
//	logging.Ctx(ctx).Info().Str("attempt_id", id).Msg("Attempt processed")
func Ctx(ctx context.Context) *zerolog.Logger {
	logCtx := Logger().With()
	if id := CorrelationIDFromContext(ctx); id != "" {
		logCtx = logCtx.Str("correlation_id", id)
	}
	if id := RequestIDFromContext(ctx); id != "" {
		logCtx = logCtx.Str("request_id", id)
	}
	l := logCtx.Logger()
	return &l
}
