// Reelhouse - Streaming Platform Delivery and Billing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelhouse

package events

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	natsgo "github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// NATSConfig configures the JetStream-backed publisher and subscriber.
type NATSConfig struct {
	URL           string
	SubjectPrefix string
	MaxReconnects int
	ReconnectWait time.Duration

	// Stream defaults to DefaultStreamConfig(SubjectPrefix).
	Stream *StreamConfig
}

func (c NATSConfig) stream() StreamConfig {
	if c.Stream != nil {
		return *c.Stream
	}
	return DefaultStreamConfig(c.SubjectPrefix)
}

func natsOptions(name string, cfg NATSConfig, logger watermill.LoggerAdapter) []natsgo.Option {
	return []natsgo.Option{
		natsgo.Name(name),
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(cfg.MaxReconnects),
		natsgo.ReconnectWait(cfg.ReconnectWait),
		natsgo.DisconnectErrHandler(func(_ *natsgo.Conn, err error) {
			if err != nil {
				logger.Error("NATS disconnected", err, nil)
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logger.Info("NATS reconnected", watermill.LogFields{"url": nc.ConnectedUrl()})
		}),
	}
}

// InitStream connects once and makes sure the dunning stream exists.
func InitStream(ctx context.Context, cfg NATSConfig) error {
	nc, err := natsgo.Connect(cfg.URL, natsgo.Name("reelhouse-stream-init"))
	if err != nil {
		return fmt.Errorf("connect to nats: %w", err)
	}
	defer nc.Close()

	js, err := jetstream.New(nc)
	if err != nil {
		return fmt.Errorf("jetstream context: %w", err)
	}
	return EnsureStream(ctx, js, cfg.stream())
}

// NewNATSPublisher creates the dunning stream if needed and returns a
// Publisher on it. Message UUIDs are tracked as Nats-Msg-Id so redelivered
// publishes are deduplicated by the stream.
func NewNATSPublisher(cfg NATSConfig, logger watermill.LoggerAdapter) (*Publisher, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("nats url is required")
	}
	if logger == nil {
		logger = watermill.NopLogger{}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := InitStream(ctx, cfg); err != nil {
		return nil, err
	}

	pub, err := wmNats.NewPublisher(wmNats.PublisherConfig{
		URL:         cfg.URL,
		NatsOptions: natsOptions("reelhouse-dunning", cfg, logger),
		Marshaler:   &wmNats.NATSMarshaler{},
		JetStream: wmNats.JetStreamConfig{
			AutoProvision: false,
			TrackMsgId:    true,
			PublishOptions: []natsgo.PubOpt{
				natsgo.RetryAttempts(3),
				natsgo.RetryWait(100 * time.Millisecond),
			},
		},
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("create watermill nats publisher: %w", err)
	}

	return NewPublisher(pub, cfg.SubjectPrefix, NewCircuitBreaker(DefaultCircuitBreakerConfig())), nil
}

// NewNATSSubscriber returns a subscriber bound to the dunning stream. It
// creates ephemeral consumers that see only messages published after they
// subscribe, so every instance receives every event.
func NewNATSSubscriber(cfg NATSConfig, logger watermill.LoggerAdapter) (message.Subscriber, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("nats url is required")
	}
	if logger == nil {
		logger = watermill.NopLogger{}
	}

	sub, err := wmNats.NewSubscriber(wmNats.SubscriberConfig{
		URL:              cfg.URL,
		SubscribersCount: 1,
		AckWaitTimeout:   30 * time.Second,
		CloseTimeout:     10 * time.Second,
		NatsOptions:      natsOptions("reelhouse-dunning-feed", cfg, logger),
		Unmarshaler:      &wmNats.NATSMarshaler{},
		JetStream: wmNats.JetStreamConfig{
			AutoProvision: false,
			SubscribeOptions: []natsgo.SubOpt{
				natsgo.BindStream(cfg.stream().Name),
				natsgo.DeliverNew(),
			},
		},
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("create watermill nats subscriber: %w", err)
	}
	return sub, nil
}
