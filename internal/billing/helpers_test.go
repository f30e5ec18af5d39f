// Reelhouse - Streaming Platform Delivery and Billing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelhouse

package billing

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tomtom215/reelhouse/internal/events"
	"github.com/tomtom215/reelhouse/internal/gateway"
)

// stubGateway answers every charge with result or err.
type stubGateway struct {
	mu     sync.Mutex
	calls  int
	keys   []string
	result *gateway.ChargeResult
	err    error
}

func (g *stubGateway) Charge(_ context.Context, req *gateway.ChargeRequest) (*gateway.ChargeResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	g.keys = append(g.keys, req.IdempotencyKey)
	if g.err != nil {
		return nil, g.err
	}
	return g.result, nil
}

func (g *stubGateway) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

func approvingGateway() *stubGateway {
	return &stubGateway{result: &gateway.ChargeResult{Success: true, TransactionID: "txn_1"}}
}

func decliningGateway() *stubGateway {
	return &stubGateway{result: &gateway.ChargeResult{Success: false, DeclineCode: "insufficient_funds", Message: "card declined"}}
}

// recordingPublisher keeps every published event.
type recordingPublisher struct {
	mu     sync.Mutex
	events []*events.DunningEvent
}

func (p *recordingPublisher) PublishDunningEvent(_ context.Context, e *events.DunningEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

func (p *recordingPublisher) has(eventType string) bool {
	for _, t := range p.types() {
		if t == eventType {
			return true
		}
	}
	return false
}

// failingStore returns errStoreDown from every call.
type failingStore struct{ MemoryStore }

var errStoreDown = errors.New("store down")

func (*failingStore) GetAttempt(context.Context, string) (*DunningAttempt, error) {
	return nil, errStoreDown
}

func (*failingStore) CreateBatch(context.Context, []*DunningAttempt) error {
	return errStoreDown
}

func (*failingStore) ListDue(context.Context, time.Time, int) ([]*DunningAttempt, error) {
	return nil, errStoreDown
}

var firstFailure = time.Date(2021, 1, 1, 9, 30, 0, 0, time.UTC)

func testInvoice(id string) Invoice {
	return Invoice{
		ID:             id,
		SubscriptionID: "sub_" + id,
		AmountDue:      decimal.RequireFromString("19.99"),
		Currency:       "USD",
		FirstFailedAt:  firstFailure,
	}
}

func newTestScheduler(gw PaymentGateway) (*Scheduler, *MemoryStore, *recordingPublisher, *FixedClock) {
	store := NewMemoryStore()
	pub := &recordingPublisher{}
	clock := NewFixedClock(firstFailure)
	return NewScheduler(store, gw, pub, clock, DefaultSchedule()), store, pub, clock
}
