// Reelhouse - Streaming Platform Delivery and Billing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelhouse

package audit

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/reelhouse/internal/logging"
)

// Config holds configuration for the audit logger.
type Config struct {
	// Enabled controls whether events are recorded at all.
	Enabled bool

	// RetentionDays is how long Cleanup keeps events.
	RetentionDays int

	// BufferSize is the size of the async write buffer. A full buffer
	// drops events rather than blocking the request path.
	BufferSize int
}

// DefaultConfig returns the production defaults.
func DefaultConfig() *Config {
	return &Config{
		Enabled:       true,
		RetentionDays: 365,
		BufferSize:    1000,
	}
}

// Logger writes audit events to a Store from a background goroutine.
type Logger struct {
	config    *Config
	store     Store
	eventChan chan *Event
	stopChan  chan struct{}
	stopOnce  sync.Once
	wg        sync.WaitGroup
	now       func() time.Time
}

// NewLogger starts the async writer. Call Close to flush and stop it.
func NewLogger(store Store, config *Config) *Logger {
	if config == nil {
		config = DefaultConfig()
	}
	size := config.BufferSize
	if size <= 0 {
		size = DefaultConfig().BufferSize
	}

	l := &Logger{
		config:    config,
		store:     store,
		eventChan: make(chan *Event, size),
		stopChan:  make(chan struct{}),
		now:       func() time.Time { return time.Now().UTC() },
	}

	l.wg.Add(1)
	go l.asyncWriter()

	return l
}

func (l *Logger) asyncWriter() {
	defer l.wg.Done()

	for {
		select {
		case <-l.stopChan:
			for {
				select {
				case event := <-l.eventChan:
					l.writeEvent(event)
				default:
					return
				}
			}
		case event := <-l.eventChan:
			l.writeEvent(event)
		}
	}
}

func (l *Logger) writeEvent(event *Event) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := l.store.Save(ctx, event); err != nil {
		logging.Error().Err(err).
			Str("event_id", event.ID).
			Str("event_type", string(event.Type)).
			Msg("Failed to save audit event")
	}
}

// Log queues an event. ID and Timestamp are filled in when empty.
func (l *Logger) Log(event *Event) {
	if l == nil || !l.config.Enabled {
		return
	}

	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = l.now()
	}

	select {
	case <-l.stopChan:
		logging.Warn().Str("event_id", event.ID).Msg("Audit logger closed, dropping event")
	case l.eventChan <- event:
	default:
		logging.Warn().Str("event_id", event.ID).Msg("Audit event buffer full, dropping event")
	}
}

// Record builds an event from its parts and queues it. The request id is
// taken from ctx; metadata is marshaled to JSON.
func (l *Logger) Record(ctx context.Context, eventType EventType, outcome Outcome, actor Actor, target Target, description string, metadata interface{}) {
	if l == nil {
		return
	}
	event := &Event{
		Type:        eventType,
		Outcome:     outcome,
		Actor:       actor,
		Target:      target,
		Description: description,
		RequestID:   logging.RequestIDFromContext(ctx),
	}
	if metadata != nil {
		event.Metadata = mustJSON(metadata)
	}
	l.Log(event)
}

// Query reads events straight from the store. Events still in the buffer
// are not visible.
func (l *Logger) Query(ctx context.Context, filter QueryFilter) ([]Event, error) {
	return l.store.Query(ctx, filter)
}

// Cleanup deletes events older than the retention window.
func (l *Logger) Cleanup(ctx context.Context) error {
	if l.config.RetentionDays <= 0 {
		return nil
	}
	cutoff := l.now().AddDate(0, 0, -l.config.RetentionDays)
	deleted, err := l.store.DeleteBefore(ctx, cutoff)
	if err != nil {
		return err
	}
	if deleted > 0 {
		logging.Info().Int64("deleted", deleted).Time("cutoff", cutoff).Msg("Audit retention cleanup")
	}
	return nil
}

// Close drains buffered events and stops the writer. Safe to call twice.
func (l *Logger) Close() error {
	l.stopOnce.Do(func() { close(l.stopChan) })
	l.wg.Wait()
	return nil
}
