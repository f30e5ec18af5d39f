// Reelhouse - Streaming Platform Delivery and Billing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelhouse

package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tomtom215/reelhouse/internal/logging"
)

// PlanChange is a request to move a subscription to another plan
// mid-period. Prices are per billing period.
type PlanChange struct {
	SubscriptionID string          `json:"subscription_id" validate:"required,max=128"`
	OldPlanID      string          `json:"old_plan_id" validate:"required,max=128"`
	NewPlanID      string          `json:"new_plan_id" validate:"required,max=128,nefield=OldPlanID"`
	OldPlanPrice   decimal.Decimal `json:"old_plan_price" validate:"gte=0"`
	NewPlanPrice   decimal.Decimal `json:"new_plan_price" validate:"gte=0"`
	Currency       string          `json:"currency" validate:"required,iso4217"`
	PeriodStart    time.Time       `json:"period_start" validate:"required"`
	PeriodEnd      time.Time       `json:"period_end" validate:"required"`
	// EffectiveDate defaults to the current time.
	EffectiveDate time.Time `json:"effective_date"`
}

// PlanChangeRequest is the audit record of a computed plan change.
type PlanChangeRequest struct {
	ID string `json:"id"`
	PlanChange
	Proration ProrationResult `json:"proration"`
	CreatedAt time.Time       `json:"created_at"`
}

// MarshalProration encodes a proration for the audit record's JSON column.
func MarshalProration(p ProrationResult) ([]byte, error) {
	return json.Marshal(p)
}

// UnmarshalProration decodes a stored proration.
func UnmarshalProration(data []byte) (ProrationResult, error) {
	var p ProrationResult
	if err := json.Unmarshal(data, &p); err != nil {
		return ProrationResult{}, fmt.Errorf("decode proration: %w", err)
	}
	return p, nil
}

// PlanChangeService prices plan changes and keeps their audit trail.
type PlanChangeService struct {
	store PlanChangeStore
	clock Clock
}

// NewPlanChangeService creates a PlanChangeService.
func NewPlanChangeService(store PlanChangeStore, clock Clock) *PlanChangeService {
	if clock == nil {
		clock = SystemClock{}
	}
	return &PlanChangeService{store: store, clock: clock}
}

// RequestPlanChange computes the proration for pc and stores the audit
// record.
func (s *PlanChangeService) RequestPlanChange(ctx context.Context, pc PlanChange) (*PlanChangeRequest, error) {
	now := s.clock.Now()
	if pc.EffectiveDate.IsZero() {
		pc.EffectiveDate = now
	}
	if pc.OldPlanPrice.IsNegative() || pc.NewPlanPrice.IsNegative() {
		return nil, fmt.Errorf("%w: plan prices must not be negative", ErrInvalidProration)
	}

	oldDaily, err := DailyRate(pc.OldPlanPrice, pc.PeriodStart, pc.PeriodEnd)
	if err != nil {
		return nil, err
	}
	newDaily, err := DailyRate(pc.NewPlanPrice, pc.PeriodStart, pc.PeriodEnd)
	if err != nil {
		return nil, err
	}

	proration, err := ComputeProration(ProrationInput{
		OldDailyRate:  oldDaily,
		NewDailyRate:  newDaily,
		PeriodStart:   pc.PeriodStart,
		PeriodEnd:     pc.PeriodEnd,
		EffectiveDate: pc.EffectiveDate,
	})
	if err != nil {
		return nil, err
	}

	req := &PlanChangeRequest{
		ID:         uuid.New().String(),
		PlanChange: pc,
		Proration:  proration,
		CreatedAt:  now,
	}
	if err := s.store.SavePlanChange(ctx, req); err != nil {
		return nil, fmt.Errorf("%w: save plan change: %v", ErrPersistence, err)
	}

	logging.Ctx(ctx).Info().
		Str("plan_change_id", req.ID).
		Str("subscription_id", pc.SubscriptionID).
		Str("old_plan", pc.OldPlanID).
		Str("new_plan", pc.NewPlanID).
		Str("net", proration.Net.StringFixed(centPlaces)).
		Msg("Plan change recorded")
	return req, nil
}

// Get returns a stored plan change.
func (s *PlanChangeService) Get(ctx context.Context, id string) (*PlanChangeRequest, error) {
	pc, err := s.store.GetPlanChange(ctx, id)
	if err != nil {
		if errors.Is(err, ErrPlanChangeNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: get plan change %s: %v", ErrPersistence, id, err)
	}
	return pc, nil
}
