// Reelhouse - Streaming Platform Delivery and Billing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelhouse

package logging

import (
	"github.com/ThreeDotsLabs/watermill"
	"github.com/rs/zerolog"
)

// WatermillAdapter implements watermill.LoggerAdapter so the event
// publisher and its NATS connection log through zerolog.
type WatermillAdapter struct {
	logger zerolog.Logger
}

// NewWatermillAdapter wraps the global logger with component=events.
func NewWatermillAdapter() *WatermillAdapter {
	return &WatermillAdapter{logger: WithComponent("events")}
}

// NewWatermillAdapterWithLogger wraps a specific logger.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewWatermillAdapterWithLogger(logger zerolog.Logger) *WatermillAdapter {
	return &WatermillAdapter{logger: logger}
}

func (a *WatermillAdapter) Error(msg string, err error, fields watermill.LogFields) {
	a.logger.Error().Err(err).Fields(map[string]interface{}(fields)).Msg(msg)
}

func (a *WatermillAdapter) Info(msg string, fields watermill.LogFields) {
	a.logger.Info().Fields(map[string]interface{}(fields)).Msg(msg)
}

func (a *WatermillAdapter) Debug(msg string, fields watermill.LogFields) {
	a.logger.Debug().Fields(map[string]interface{}(fields)).Msg(msg)
}

func (a *WatermillAdapter) Trace(msg string, fields watermill.LogFields) {
	a.logger.Trace().Fields(map[string]interface{}(fields)).Msg(msg)
}

func (a *WatermillAdapter) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return &WatermillAdapter{logger: a.logger.With().Fields(map[string]interface{}(fields)).Logger()}
}
