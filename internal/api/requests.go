// Reelhouse - Streaming Platform Delivery and Billing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelhouse

package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/tomtom215/reelhouse/internal/billing"
)

// ScheduleDunningRequest is the body of POST /invoices/{invoiceId}/dunning.
// Currency defaults to the configured billing currency.
type ScheduleDunningRequest struct {
	SubscriptionID string          `json:"subscription_id" validate:"required,max=128"`
	AmountDue      decimal.Decimal `json:"amount_due" validate:"gt=0"`
	Currency       string          `json:"currency" validate:"omitempty,iso4217"`
	FirstFailedAt  time.Time       `json:"first_failed_at" validate:"required"`
}

// ScheduleDunningResponse reports the attempts of an invoice. Created is
// false when the invoice already had a pending schedule.
type ScheduleDunningResponse struct {
	InvoiceID string                    `json:"invoice_id"`
	Created   bool                      `json:"created"`
	Attempts  []*billing.DunningAttempt `json:"attempts"`
}

// ProrationRequest is the body of POST /proration. Rates are per day.
type ProrationRequest struct {
	OldDailyRate  decimal.Decimal `json:"old_daily_rate" validate:"gte=0"`
	NewDailyRate  decimal.Decimal `json:"new_daily_rate" validate:"gte=0"`
	PeriodStart   time.Time       `json:"period_start" validate:"required"`
	PeriodEnd     time.Time       `json:"period_end" validate:"required"`
	EffectiveDate time.Time       `json:"effective_date" validate:"required"`
}

func (p ProrationRequest) input() billing.ProrationInput {
	return billing.ProrationInput{
		OldDailyRate:  p.OldDailyRate,
		NewDailyRate:  p.NewDailyRate,
		PeriodStart:   p.PeriodStart,
		PeriodEnd:     p.PeriodEnd,
		EffectiveDate: p.EffectiveDate,
	}
}
