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

	"github.com/google/uuid"

	"github.com/tomtom215/reelhouse/internal/events"
	"github.com/tomtom215/reelhouse/internal/gateway"
	"github.com/tomtom215/reelhouse/internal/logging"
	"github.com/tomtom215/reelhouse/internal/metrics"
)

// PaymentGateway charges a subscription's stored payment method.
type PaymentGateway interface {
	Charge(ctx context.Context, req *gateway.ChargeRequest) (*gateway.ChargeResult, error)
}

// EventPublisher receives dunning lifecycle events.
type EventPublisher interface {
	PublishDunningEvent(ctx context.Context, e *events.DunningEvent) error
}

// Scheduler materializes and settles dunning attempts.
type Scheduler struct {
	store     AttemptStore
	gateway   PaymentGateway
	publisher EventPublisher
	clock     Clock
	schedule  DunningSchedule
	newID     func() string
}

// NewScheduler creates a Scheduler. publisher may be nil. A zero schedule
// is replaced with DefaultSchedule.
func NewScheduler(store AttemptStore, gw PaymentGateway, publisher EventPublisher, clock Clock, schedule DunningSchedule) *Scheduler {
	if clock == nil {
		clock = SystemClock{}
	}
	if schedule.Len() == 0 {
		schedule = DefaultSchedule()
	}
	return &Scheduler{
		store:     store,
		gateway:   gw,
		publisher: publisher,
		clock:     clock,
		schedule:  schedule,
		newID:     func() string { return uuid.New().String() },
	}
}

// Schedule returns the schedule in use.
func (s *Scheduler) Schedule() DunningSchedule { return s.schedule }

// ScheduleDunningAttempts creates one pending attempt per schedule stage
// for inv. All rows are written in one batch. If the invoice already has
// pending attempts nothing is written and ErrAlreadyScheduled is returned.
func (s *Scheduler) ScheduleDunningAttempts(ctx context.Context, inv Invoice) ([]*DunningAttempt, error) {
	if err := inv.Validate(); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	first := inv.FirstFailedAt.UTC()
	rules := s.schedule.Rules()
	attempts := make([]*DunningAttempt, 0, len(rules))
	for i, r := range rules {
		attempts = append(attempts, &DunningAttempt{
			ID:             s.newID(),
			SubscriptionID: inv.SubscriptionID,
			InvoiceID:      inv.ID,
			Stage:          r.Stage,
			AttemptNumber:  i + 1,
			Actions:        r.Actions,
			AmountDue:      inv.AmountDue,
			Currency:       inv.Currency,
			FirstFailedAt:  first,
			NextAttemptAt:  DueAt(first, r.DaysFromFirstFailure),
			Status:         StatusPending,
			CreatedAt:      now,
			UpdatedAt:      now,
		})
	}

	if err := s.store.CreateBatch(ctx, attempts); err != nil {
		if errors.Is(err, ErrAlreadyScheduled) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: create attempts for invoice %s: %v", ErrPersistence, inv.ID, err)
	}

	metrics.RecordDunningScheduled(len(attempts))
	logging.Ctx(ctx).Info().
		Str("invoice_id", inv.ID).
		Str("subscription_id", inv.SubscriptionID).
		Int("attempts", len(attempts)).
		Time("first_failed_at", first).
		Msg("Dunning attempts scheduled")

	e := events.NewDunningEvent(events.TypeAttemptsScheduled, inv.SubscriptionID, inv.ID, now)
	next := attempts[0].NextAttemptAt
	e.NextAttemptAt = &next
	s.publish(ctx, e)

	return attempts, nil
}

// ProcessDunningAttempt charges the invoice behind attempt id and settles
// the attempt. A settled attempt returns its recorded outcome with
// Replayed set and the gateway is not called. Gateway failures are
// recorded on the attempt and reported in the result, not as an error.
func (s *Scheduler) ProcessDunningAttempt(ctx context.Context, id string) (*ProcessResult, error) {
	attempt, err := s.store.GetAttempt(ctx, id)
	if err != nil {
		if errors.Is(err, ErrAttemptNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: get attempt %s: %v", ErrPersistence, id, err)
	}

	if attempt.Status.Settled() {
		metrics.RecordDunningProcessed(string(attempt.Stage), "replayed")
		return s.result(ctx, attempt, true)
	}

	charge, chargeErr := s.gateway.Charge(ctx, &gateway.ChargeRequest{
		IdempotencyKey: attempt.ID,
		SubscriptionID: attempt.SubscriptionID,
		InvoiceID:      attempt.InvoiceID,
		Amount:         attempt.AmountDue,
		Currency:       attempt.Currency,
		AttemptNumber:  attempt.AttemptNumber,
	})
	// A cancelled caller leaves the attempt pending. The next run charges
	// again under the same idempotency key.
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}

	settlement := Settlement{Status: StatusSucceeded, AttemptedAt: s.clock.Now()}
	switch {
	case chargeErr != nil:
		settlement.Status = StatusFailed
		settlement.ErrorMessage = chargeErr.Error()
	case charge.Err() != nil:
		settlement.Status = StatusFailed
		settlement.ErrorMessage = charge.Err().Error()
		settlement.TransactionID = charge.TransactionID
	default:
		settlement.TransactionID = charge.TransactionID
	}

	applied, err := s.store.TransitionStatus(ctx, attempt.ID, StatusPending, settlement)
	if err != nil {
		return nil, fmt.Errorf("%w: settle attempt %s: %v", ErrPersistence, attempt.ID, err)
	}
	if !applied {
		metrics.RecordDunningProcessed(string(attempt.Stage), "conflict")
		return nil, ErrAttemptAlreadySettled
	}

	attemptedAt := settlement.AttemptedAt
	attempt.Status = settlement.Status
	attempt.AttemptedAt = &attemptedAt
	attempt.ErrorMessage = settlement.ErrorMessage
	attempt.TransactionID = settlement.TransactionID
	attempt.UpdatedAt = attemptedAt
	metrics.RecordDunningProcessed(string(attempt.Stage), string(attempt.Status))

	log := logging.Ctx(ctx)
	if attempt.Status == StatusSucceeded {
		superseded, err := s.store.SupersedePending(ctx, attempt.InvoiceID, attemptedAt)
		if err != nil {
			return nil, fmt.Errorf("%w: supersede attempts for invoice %s: %v", ErrPersistence, attempt.InvoiceID, err)
		}
		log.Info().
			Str("attempt_id", attempt.ID).
			Str("invoice_id", attempt.InvoiceID).
			Str("stage", string(attempt.Stage)).
			Int("superseded", superseded).
			Msg("Dunning attempt succeeded")
	} else {
		log.Warn().
			Str("attempt_id", attempt.ID).
			Str("invoice_id", attempt.InvoiceID).
			Str("stage", string(attempt.Stage)).
			Str("error", attempt.ErrorMessage).
			Msg("Dunning attempt failed")
	}

	res, err := s.result(ctx, attempt, false)
	if err != nil {
		return nil, err
	}
	s.publishOutcome(ctx, attempt, res)
	return res, nil
}

// result builds the caller-facing view of a settled attempt.
func (s *Scheduler) result(ctx context.Context, attempt *DunningAttempt, replayed bool) (*ProcessResult, error) {
	res := &ProcessResult{
		AttemptID:    attempt.ID,
		Success:      attempt.Status == StatusSucceeded,
		Status:       attempt.Status,
		Stage:        attempt.Stage,
		ErrorMessage: attempt.ErrorMessage,
		Replayed:     replayed,
	}
	if attempt.Status != StatusFailed || attempt.Stage == StageCancel {
		return res, nil
	}

	next, err := s.nextPending(ctx, attempt)
	if err != nil {
		return nil, err
	}
	if next != nil {
		at := next.NextAttemptAt
		res.NextAttemptScheduled = true
		res.NextAttemptAt = &at
	}
	return res, nil
}

// nextPending returns the first pending attempt after attempt for the same
// invoice, or nil.
func (s *Scheduler) nextPending(ctx context.Context, attempt *DunningAttempt) (*DunningAttempt, error) {
	siblings, err := s.store.ListByInvoice(ctx, attempt.InvoiceID)
	if err != nil {
		return nil, fmt.Errorf("%w: list attempts for invoice %s: %v", ErrPersistence, attempt.InvoiceID, err)
	}
	for _, a := range siblings {
		if a.AttemptNumber > attempt.AttemptNumber && a.Status == StatusPending {
			return a, nil
		}
	}
	return nil, nil
}

func (s *Scheduler) publishOutcome(ctx context.Context, attempt *DunningAttempt, res *ProcessResult) {
	at := *attempt.AttemptedAt
	base := func(eventType string) *events.DunningEvent {
		e := events.NewDunningEvent(eventType, attempt.SubscriptionID, attempt.InvoiceID, at)
		e.AttemptID = attempt.ID
		e.AttemptNumber = attempt.AttemptNumber
		e.Stage = string(attempt.Stage)
		e.Status = string(attempt.Status)
		e.ErrorMessage = attempt.ErrorMessage
		e.NextAttemptAt = res.NextAttemptAt
		return e
	}

	if res.Success {
		s.publish(ctx, base(events.TypeAttemptSucceeded))
		return
	}

	s.publish(ctx, base(events.TypeAttemptFailed))
	for _, a := range attempt.Actions {
		if a == ActionRetry {
			continue
		}
		e := base(events.ActionType(string(a)))
		e.Action = string(a)
		s.publish(ctx, e)
	}
	switch attempt.Stage {
	case StageDowngrade:
		s.publish(ctx, base(events.TypeSubscriptionDowngrade))
	case StageCancel:
		s.publish(ctx, base(events.TypeSubscriptionCancel))
	}
}

// publish sends e. Failures are logged and never undo a settlement.
func (s *Scheduler) publish(ctx context.Context, e *events.DunningEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishDunningEvent(ctx, e); err != nil {
		logging.Ctx(ctx).Warn().Err(err).
			Str("type", e.Type).
			Str("invoice_id", e.InvoiceID).
			Msg("Failed to publish dunning event")
	}
}

// Now returns the scheduler clock's time.
func (s *Scheduler) Now() time.Time { return s.clock.Now() }
