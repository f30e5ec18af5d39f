// Reelhouse - Streaming Platform Delivery and Billing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelhouse

package billing

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

const (
	// centPlaces is the minor currency unit precision of every amount.
	centPlaces = 2

	// ratePlaces is the precision of period fractions.
	ratePlaces = 6

	// dailyRatePlaces is the precision of derived daily rates.
	dailyRatePlaces = 10
)

// ProrationInput describes a mid-period plan change. Periods are
// half-open: PeriodEnd is the first day of the next period. Only the
// UTC calendar date of each time is used.
type ProrationInput struct {
	OldDailyRate  decimal.Decimal `json:"old_daily_rate"`
	NewDailyRate  decimal.Decimal `json:"new_daily_rate"`
	PeriodStart   time.Time       `json:"period_start"`
	PeriodEnd     time.Time       `json:"period_end"`
	EffectiveDate time.Time       `json:"effective_date"`
}

// LineItem is one month-aligned slice of a credit or charge. PeriodEnd is
// exclusive.
type LineItem struct {
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	PeriodStart time.Time       `json:"period_start"`
	PeriodEnd   time.Time       `json:"period_end"`
	Rate        decimal.Decimal `json:"rate"`
}

// ProrationBreakdown is an amount and the line items that sum to it.
type ProrationBreakdown struct {
	Amount    decimal.Decimal `json:"amount"`
	Breakdown []LineItem      `json:"breakdown"`
}

// ProrationResult is the outcome of ComputeProration.
type ProrationResult struct {
	Credit     ProrationBreakdown `json:"credit"`
	Charge     ProrationBreakdown `json:"charge"`
	Net        decimal.Decimal    `json:"net"`
	Rate       decimal.Decimal    `json:"rate"`
	UnusedDays int                `json:"unused_days"`
	PeriodDays int                `json:"period_days"`
}

// civilDate truncates t to midnight UTC of its calendar date.
func civilDate(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// daysBetween counts calendar days from a to b.
func daysBetween(a, b time.Time) int {
	return int(civilDate(b).Sub(civilDate(a)).Hours() / 24)
}

// DailyRate spreads price over the days of [start, end).
func DailyRate(price decimal.Decimal, start, end time.Time) (decimal.Decimal, error) {
	days := daysBetween(start, end)
	if days <= 0 {
		return decimal.Zero, fmt.Errorf("%w: billing period must span at least one day", ErrInvalidProration)
	}
	return price.DivRound(decimal.NewFromInt(int64(days)), dailyRatePlaces), nil
}

// Validate checks rate signs and period ordering.
func (in ProrationInput) Validate() error {
	start, end, eff := civilDate(in.PeriodStart), civilDate(in.PeriodEnd), civilDate(in.EffectiveDate)
	switch {
	case in.OldDailyRate.IsNegative() || in.NewDailyRate.IsNegative():
		return fmt.Errorf("%w: daily rates must not be negative", ErrInvalidProration)
	case !end.After(start):
		return fmt.Errorf("%w: period end must be after period start", ErrInvalidProration)
	case eff.Before(start) || eff.After(end):
		return fmt.Errorf("%w: effective date must fall within the billing period", ErrInvalidProration)
	}
	return nil
}

// ComputeProration prices the unused days of the period on both plans.
//
// credit = old daily rate × unused days, charge = new daily rate × unused
// days, rate = unused days / period days. Amounts are rounded half away
// from zero to cents. Each breakdown is split at calendar month
// boundaries and the last line item absorbs rounding, so the items
// always sum to the amount exactly.
func ComputeProration(in ProrationInput) (ProrationResult, error) {
	if err := in.Validate(); err != nil {
		return ProrationResult{}, err
	}

	start, end, eff := civilDate(in.PeriodStart), civilDate(in.PeriodEnd), civilDate(in.EffectiveDate)
	length := daysBetween(start, end)
	unused := daysBetween(eff, end)
	lengthDec := decimal.NewFromInt(int64(length))

	res := ProrationResult{
		Rate:       decimal.NewFromInt(int64(unused)).DivRound(lengthDec, ratePlaces),
		UnusedDays: unused,
		PeriodDays: length,
	}
	segments := monthSegments(eff, end)
	res.Credit = breakdown(in.OldDailyRate, unused, length, segments, "Credit for unused time on previous plan")
	res.Charge = breakdown(in.NewDailyRate, unused, length, segments, "Charge for remaining time on new plan")
	res.Net = res.Charge.Amount.Sub(res.Credit.Amount)
	return res, nil
}

type segment struct {
	start, end time.Time
	days       int
}

// monthSegments splits [from, to) at the first day of each month.
func monthSegments(from, to time.Time) []segment {
	var out []segment
	for cur := from; cur.Before(to); {
		next := time.Date(cur.Year(), cur.Month()+1, 1, 0, 0, 0, 0, time.UTC)
		if next.After(to) {
			next = to
		}
		out = append(out, segment{start: cur, end: next, days: daysBetween(cur, next)})
		cur = next
	}
	return out
}

func breakdown(daily decimal.Decimal, unused, length int, segments []segment, label string) ProrationBreakdown {
	amount := daily.Mul(decimal.NewFromInt(int64(unused))).Round(centPlaces)
	b := ProrationBreakdown{Amount: amount, Breakdown: make([]LineItem, 0, len(segments))}
	if unused == 0 {
		return b
	}

	lengthDec := decimal.NewFromInt(int64(length))
	allocated := decimal.Zero
	for i, seg := range segments {
		item := LineItem{
			Description: fmt.Sprintf("%s (%s to %s)", label, seg.start.Format(time.DateOnly), seg.end.AddDate(0, 0, -1).Format(time.DateOnly)),
			PeriodStart: seg.start,
			PeriodEnd:   seg.end,
			Rate:        decimal.NewFromInt(int64(seg.days)).DivRound(lengthDec, ratePlaces),
		}
		if i == len(segments)-1 {
			item.Amount = amount.Sub(allocated)
		} else {
			item.Amount = daily.Mul(decimal.NewFromInt(int64(seg.days))).Round(centPlaces)
			allocated = allocated.Add(item.Amount)
		}
		b.Breakdown = append(b.Breakdown, item)
	}
	return b
}

// Sum adds the line item amounts.
func (b ProrationBreakdown) Sum() decimal.Decimal {
	total := decimal.Zero
	for _, it := range b.Breakdown {
		total = total.Add(it.Amount)
	}
	return total
}
