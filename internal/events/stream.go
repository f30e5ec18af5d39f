// Reelhouse - Streaming Platform Delivery and Billing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelhouse

package events

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"
)

// StreamConfig describes the JetStream stream holding dunning events.
type StreamConfig struct {
	Name            string
	Subjects        []string
	MaxAge          time.Duration
	DuplicateWindow time.Duration
	Replicas        int
}

// DefaultStreamConfig captures every dunning subject under prefix.
func DefaultStreamConfig(prefix string) StreamConfig {
	return StreamConfig{
		Name:            "REELHOUSE_DUNNING",
		Subjects:        []string{prefix + ".dunning.>"},
		MaxAge:          30 * 24 * time.Hour,
		DuplicateWindow: 2 * time.Minute,
		Replicas:        1,
	}
}

// JetStreamContext is the subset of jetstream.JetStream used by EnsureStream.
type JetStreamContext interface {
	Stream(ctx context.Context, name string) (jetstream.Stream, error)
	CreateStream(ctx context.Context, cfg jetstream.StreamConfig) (jetstream.Stream, error)
	UpdateStream(ctx context.Context, cfg jetstream.StreamConfig) (jetstream.Stream, error)
}

// EnsureStream creates the stream, or updates it when it already exists.
// Stream names cannot contain dots, so topics are never auto-provisioned
// as streams of their own.
func EnsureStream(ctx context.Context, js JetStreamContext, cfg StreamConfig) error {
	streamCfg := jetstream.StreamConfig{
		Name:       cfg.Name,
		Subjects:   cfg.Subjects,
		Retention:  jetstream.LimitsPolicy,
		MaxAge:     cfg.MaxAge,
		Duplicates: cfg.DuplicateWindow,
		Replicas:   cfg.Replicas,
		Storage:    jetstream.FileStorage,
		Discard:    jetstream.DiscardOld,
	}

	_, err := js.Stream(ctx, cfg.Name)
	switch {
	case err == nil:
		if _, err := js.UpdateStream(ctx, streamCfg); err != nil {
			return fmt.Errorf("update stream %s: %w", cfg.Name, err)
		}
		return nil
	case errors.Is(err, jetstream.ErrStreamNotFound):
		if _, err := js.CreateStream(ctx, streamCfg); err != nil {
			return fmt.Errorf("create stream %s: %w", cfg.Name, err)
		}
		return nil
	default:
		return fmt.Errorf("check stream %s: %w", cfg.Name, err)
	}
}
