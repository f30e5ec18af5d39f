// Reelhouse - Streaming Platform Delivery and Billing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelhouse

package events

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestPublishDunningEvent_DeliversToTopic(t *testing.T) {
	pub, ch := NewMemoryPublisher("reelhouse", nil)
	defer pub.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	msgs, err := ch.Subscribe(ctx, "reelhouse.dunning.action.email")
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	evt := NewDunningEvent(ActionType("email"), "sub-1", "inv-1", time.Date(2021, 1, 2, 0, 0, 0, 0, time.UTC))
	evt.Stage = "retry1"
	evt.Action = "email"
	if err := pub.PublishDunningEvent(ctx, evt); err != nil {
		t.Fatalf("PublishDunningEvent() error = %v", err)
	}

	select {
	case msg := <-msgs:
		msg.Ack()
		got, err := DeserializeEvent(msg.Payload)
		if err != nil {
			t.Fatalf("DeserializeEvent() error = %v", err)
		}
		if got.EventID != evt.EventID || got.InvoiceID != "inv-1" || got.Action != "email" {
			t.Errorf("unexpected event: %+v", got)
		}
		if msg.Metadata.Get("type") != "action.email" {
			t.Errorf("metadata type = %q", msg.Metadata.Get("type"))
		}
	case <-ctx.Done():
		t.Fatal("timed out waiting for message")
	}
}

func TestPublishDunningEvent_Invalid(t *testing.T) {
	pub, _ := NewMemoryPublisher("reelhouse", nil)
	defer pub.Close()

	evt := NewDunningEvent(TypeAttemptFailed, "sub-1", "", time.Now())
	if err := pub.PublishDunningEvent(context.Background(), evt); !errors.Is(err, ErrInvalidEvent) {
		t.Errorf("expected ErrInvalidEvent, got %v", err)
	}
}

func TestPublisher_Closed(t *testing.T) {
	pub, _ := NewMemoryPublisher("reelhouse", nil)
	if err := pub.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := pub.Close(); err != nil {
		t.Fatalf("second Close() error = %v", err)
	}

	evt := NewDunningEvent(TypeAttemptFailed, "sub-1", "inv-1", time.Now())
	if err := pub.PublishDunningEvent(context.Background(), evt); !errors.Is(err, ErrPublisherClosed) {
		t.Errorf("expected ErrPublisherClosed, got %v", err)
	}
}

func TestDunningEvent_Topic(t *testing.T) {
	evt := NewDunningEvent(TypeSubscriptionCancel, "sub-1", "inv-1", time.Now())
	if got := evt.Topic("rh"); got != "rh.dunning.subscription.cancel" {
		t.Errorf("Topic() = %q", got)
	}
	if evt.SchemaVersion != SchemaVersion {
		t.Errorf("SchemaVersion = %d", evt.SchemaVersion)
	}
}

func TestDeserializeEvent_DefaultsSchemaVersion(t *testing.T) {
	got, err := DeserializeEvent([]byte(`{"event_id":"e1","type":"attempt.failed","invoice_id":"i1"}`))
	if err != nil {
		t.Fatalf("DeserializeEvent() error = %v", err)
	}
	if got.SchemaVersion != SchemaVersion {
		t.Errorf("SchemaVersion = %d, want %d", got.SchemaVersion, SchemaVersion)
	}
	if _, err := DeserializeEvent([]byte("{")); err == nil {
		t.Error("expected error for truncated payload")
	}
}

func TestTopics(t *testing.T) {
	topics := Topics("rh", []string{"email", "cancel"})
	want := []string{
		"rh.dunning.attempts.scheduled",
		"rh.dunning.attempt.succeeded",
		"rh.dunning.attempt.failed",
		"rh.dunning.subscription.downgrade",
		"rh.dunning.subscription.cancel",
		"rh.dunning.action.email",
		"rh.dunning.action.cancel",
	}
	if len(topics) != len(want) {
		t.Fatalf("Topics() = %v", topics)
	}
	for i := range want {
		if topics[i] != want[i] {
			t.Errorf("Topics()[%d] = %q, want %q", i, topics[i], want[i])
		}
	}
}

func TestDefaultStreamConfig_CoversTopics(t *testing.T) {
	cfg := DefaultStreamConfig("rh")
	if len(cfg.Subjects) != 1 || cfg.Subjects[0] != "rh.dunning.>" {
		t.Errorf("Subjects = %v", cfg.Subjects)
	}
	if cfg.Name == "" || strings.Contains(cfg.Name, ".") {
		t.Errorf("stream name %q must be set and dot free", cfg.Name)
	}
}
