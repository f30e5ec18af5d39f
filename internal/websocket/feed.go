// Reelhouse - Streaming Platform Delivery and Billing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelhouse

package websocket

import (
	"context"
	"fmt"
	"sync"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/tomtom215/reelhouse/internal/events"
	"github.com/tomtom215/reelhouse/internal/logging"
)

// EventFeed forwards dunning events from a Watermill subscriber to a Hub.
type EventFeed struct {
	hub        *Hub
	subscriber message.Subscriber
	topics     []string

	ready     chan struct{}
	readyOnce sync.Once
}

// NewEventFeed subscribes to topics when served. See events.Topics.
func NewEventFeed(hub *Hub, subscriber message.Subscriber, topics []string) *EventFeed {
	return &EventFeed{
		hub:        hub,
		subscriber: subscriber,
		topics:     topics,
		ready:      make(chan struct{}),
	}
}

// Ready is closed once the first Serve has subscribed to every topic.
func (f *EventFeed) Ready() <-chan struct{} {
	return f.ready
}

// Serve forwards events until ctx is done. Undecodable messages are
// acknowledged and skipped so they are not redelivered.
func (f *EventFeed) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	merged := make(chan *message.Message)
	for _, topic := range f.topics {
		msgs, err := f.subscriber.Subscribe(ctx, topic)
		if err != nil {
			return fmt.Errorf("subscribe to %s: %w", topic, err)
		}
		go func(msgs <-chan *message.Message) {
			for msg := range msgs {
				select {
				case merged <- msg:
				case <-ctx.Done():
					msg.Nack()
					return
				}
			}
		}(msgs)
	}

	f.readyOnce.Do(func() { close(f.ready) })

	log := logging.WithComponent("event-feed")
	log.Info().Int("topics", len(f.topics)).Msg("Live feed subscribed")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg := <-merged:
			evt, err := events.DeserializeEvent(msg.Payload)
			if err != nil {
				log.Warn().Err(err).Str("message_uuid", msg.UUID).Msg("Skipping undecodable event")
				msg.Ack()
				continue
			}
			f.hub.Broadcast(MessageTypeDunningEvent, evt)
			msg.Ack()
		}
	}
}

func (f *EventFeed) String() string { return "dunning-event-feed" }
