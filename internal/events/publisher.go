// Reelhouse - Streaming Platform Delivery and Billing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelhouse

package events

import (
	"context"
	"fmt"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/reelhouse/internal/metrics"
)

// Publisher wraps a Watermill publisher with a circuit breaker and the
// dunning topic layout.
type Publisher struct {
	publisher      message.Publisher
	circuitBreaker *gobreaker.CircuitBreaker[interface{}]
	prefix         string

	mu     sync.RWMutex
	closed bool
}

// NewPublisher wraps pub. A nil breaker publishes without protection.
func NewPublisher(pub message.Publisher, prefix string, cb *gobreaker.CircuitBreaker[interface{}]) *Publisher {
	return &Publisher{
		publisher:      pub,
		circuitBreaker: cb,
		prefix:         prefix,
	}
}

// NewMemoryPublisher returns a Publisher backed by an in-process gochannel.
// The returned GoChannel can be used to subscribe to published topics.
func NewMemoryPublisher(prefix string, logger watermill.LoggerAdapter) (*Publisher, *gochannel.GoChannel) {
	if logger == nil {
		logger = watermill.NopLogger{}
	}
	ch := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 256}, logger)
	return NewPublisher(ch, prefix, NewCircuitBreaker(DefaultCircuitBreakerConfig())), ch
}

// PublishDunningEvent validates, serializes and publishes e on its topic.
func (p *Publisher) PublishDunningEvent(ctx context.Context, e *DunningEvent) error {
	if err := e.Validate(); err != nil {
		return err
	}

	data, err := SerializeEvent(e)
	if err != nil {
		return fmt.Errorf("serialize event: %w", err)
	}

	msg := message.NewMessage(e.EventID, data)
	msg.SetContext(ctx)
	msg.Metadata.Set("type", e.Type)
	msg.Metadata.Set("invoice_id", e.InvoiceID)
	msg.Metadata.Set("subscription_id", e.SubscriptionID)

	err = p.Publish(ctx, e.Topic(p.prefix), msg)
	metrics.RecordEventPublished(e.Type, err)
	return err
}

// Publish sends msg on topic through the circuit breaker.
func (p *Publisher) Publish(ctx context.Context, topic string, msg *message.Message) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPublisherClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if p.circuitBreaker == nil {
		return p.publisher.Publish(topic, msg)
	}
	_, err := p.circuitBreaker.Execute(func() (interface{}, error) {
		return nil, p.publisher.Publish(topic, msg)
	})
	return err
}

// Close shuts down the underlying publisher. It is safe to call twice.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	return p.publisher.Close()
}
