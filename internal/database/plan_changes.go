// Reelhouse - Streaming Platform Delivery and Billing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelhouse

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/tomtom215/reelhouse/internal/billing"
)

// SavePlanChange stores a plan change audit record. The proration is
// embedded as JSON.
func (db *DB) SavePlanChange(ctx context.Context, pc *billing.PlanChangeRequest) error {
	proration, err := billing.MarshalProration(pc.Proration)
	if err != nil {
		return fmt.Errorf("failed to encode proration: %w", err)
	}
	_, err = db.conn.ExecContext(ctx, `
		INSERT INTO plan_change_requests (
			id, subscription_id, old_plan_id, new_plan_id, old_plan_price, new_plan_price,
			currency, period_start, period_end, effective_date, net_amount, proration, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		pc.ID, pc.SubscriptionID, pc.OldPlanID, pc.NewPlanID,
		pc.OldPlanPrice.String(), pc.NewPlanPrice.String(), pc.Currency,
		pc.PeriodStart.UTC(), pc.PeriodEnd.UTC(), pc.EffectiveDate.UTC(),
		pc.Proration.Net.String(), string(proration), pc.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to insert plan change %s: %w", pc.ID, err)
	}
	return nil
}

// GetPlanChange returns billing.ErrPlanChangeNotFound for an unknown id.
func (db *DB) GetPlanChange(ctx context.Context, id string) (*billing.PlanChangeRequest, error) {
	var (
		pc                 billing.PlanChangeRequest
		oldPrice, newPrice string
		proration          string
	)
	err := db.conn.QueryRowContext(ctx, `
		SELECT id, subscription_id, old_plan_id, new_plan_id, old_plan_price, new_plan_price,
			currency, period_start, period_end, effective_date, proration, created_at
		FROM plan_change_requests WHERE id = ?`, id,
	).Scan(&pc.ID, &pc.SubscriptionID, &pc.OldPlanID, &pc.NewPlanID, &oldPrice, &newPrice,
		&pc.Currency, &pc.PeriodStart, &pc.PeriodEnd, &pc.EffectiveDate, &proration, &pc.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, billing.ErrPlanChangeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get plan change %s: %w", id, err)
	}

	if pc.OldPlanPrice, err = decimal.NewFromString(oldPrice); err != nil {
		return nil, fmt.Errorf("invalid old_plan_price on plan change %s: %w", id, err)
	}
	if pc.NewPlanPrice, err = decimal.NewFromString(newPrice); err != nil {
		return nil, fmt.Errorf("invalid new_plan_price on plan change %s: %w", id, err)
	}
	if pc.Proration, err = billing.UnmarshalProration([]byte(proration)); err != nil {
		return nil, err
	}
	pc.PeriodStart = pc.PeriodStart.UTC()
	pc.PeriodEnd = pc.PeriodEnd.UTC()
	pc.EffectiveDate = pc.EffectiveDate.UTC()
	pc.CreatedAt = pc.CreatedAt.UTC()
	return &pc, nil
}
