// Reelhouse - Streaming Platform Delivery and Billing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelhouse

package main

import (
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/tomtom215/reelhouse/internal/config"
	"github.com/tomtom215/reelhouse/internal/events"
	"github.com/tomtom215/reelhouse/internal/logging"
)

// eventBus is the dunning event publisher, the subscriber feeding the
// live feed, and the embedded broker when one runs in-process.
type eventBus struct {
	publisher *events.Publisher
	// feed is nil when the live feed is off.
	feed     message.Subscriber
	ownsFeed bool
	embedded *events.EmbeddedServer
}

// Close stops the subscriber, then the publisher, then the broker.
func (b *eventBus) Close() {
	if b.ownsFeed {
		if err := b.feed.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing event subscriber")
		}
	}
	if err := b.publisher.Close(); err != nil {
		logging.Error().Err(err).Msg("Error closing event publisher")
	}
	if b.embedded != nil {
		b.embedded.Shutdown()
	}
}

// newEventBus connects the configured backend. The memory backend uses
// one gochannel for both directions, so its subscriber is closed with the
// publisher.
func newEventBus(cfg *config.EventsConfig) (*eventBus, error) {
	adapter := logging.NewWatermillAdapter()
	bus := &eventBus{}

	natsURL := cfg.NATSURL
	switch cfg.Backend {
	case "memory", "":
		pub, ch := events.NewMemoryPublisher(cfg.SubjectPrefix, adapter)
		bus.publisher = pub
		if cfg.LiveFeed {
			bus.feed = ch
		}
		return bus, nil
	case "embedded":
		srv, err := events.NewEmbeddedServer(events.EmbeddedServerConfig{
			Host:     cfg.EmbeddedHost,
			Port:     cfg.EmbeddedPort,
			StoreDir: cfg.EmbeddedStoreDir,
		})
		if err != nil {
			return nil, fmt.Errorf("start embedded nats: %w", err)
		}
		bus.embedded = srv
		natsURL = srv.ClientURL()
		logging.Info().Str("url", natsURL).Str("store_dir", cfg.EmbeddedStoreDir).Msg("Embedded NATS JetStream started")
	case "nats":
	default:
		return nil, fmt.Errorf("unknown events backend %q", cfg.Backend)
	}

	natsCfg := events.NATSConfig{
		URL:           natsURL,
		SubjectPrefix: cfg.SubjectPrefix,
		MaxReconnects: cfg.MaxReconnects,
		ReconnectWait: cfg.ReconnectWait,
	}
	pub, err := events.NewNATSPublisher(natsCfg, adapter)
	if err != nil {
		if bus.embedded != nil {
			bus.embedded.Shutdown()
		}
		return nil, err
	}
	bus.publisher = pub

	if cfg.LiveFeed {
		sub, err := events.NewNATSSubscriber(natsCfg, adapter)
		if err != nil {
			bus.Close()
			return nil, err
		}
		bus.feed = sub
		bus.ownsFeed = true
	}

	logging.Info().Str("url", natsURL).Bool("live_feed", cfg.LiveFeed).Msg("Dunning events published to NATS")
	return bus, nil
}
