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
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tomtom215/reelhouse/internal/billing"
)

const attemptColumns = `id, subscription_id, invoice_id, stage, attempt_number, actions,
	amount_due, currency, first_failed_at, next_attempt_at, attempted_at, status,
	error_message, transaction_id, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAttempt(row rowScanner) (*billing.DunningAttempt, error) {
	var (
		a           billing.DunningAttempt
		stage       string
		actions     string
		amount      string
		status      string
		attemptedAt sql.NullTime
	)
	if err := row.Scan(&a.ID, &a.SubscriptionID, &a.InvoiceID, &stage, &a.AttemptNumber, &actions,
		&amount, &a.Currency, &a.FirstFailedAt, &a.NextAttemptAt, &attemptedAt, &status,
		&a.ErrorMessage, &a.TransactionID, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}

	amt, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount_due %q on attempt %s: %w", amount, a.ID, err)
	}
	a.AmountDue = amt
	a.Stage = billing.Stage(stage)
	a.Status = billing.AttemptStatus(status)
	a.Actions = splitActions(actions)
	if attemptedAt.Valid {
		t := attemptedAt.Time.UTC()
		a.AttemptedAt = &t
	}
	a.FirstFailedAt = a.FirstFailedAt.UTC()
	a.NextAttemptAt = a.NextAttemptAt.UTC()
	a.CreatedAt = a.CreatedAt.UTC()
	a.UpdatedAt = a.UpdatedAt.UTC()
	return &a, nil
}

func joinActions(actions []billing.Action) string {
	parts := make([]string, len(actions))
	for i, a := range actions {
		parts[i] = string(a)
	}
	return strings.Join(parts, ",")
}

func splitActions(s string) []billing.Action {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]billing.Action, len(parts))
	for i, p := range parts {
		out[i] = billing.Action(p)
	}
	return out
}

func (db *DB) queryAttempts(ctx context.Context, query string, args ...interface{}) ([]*billing.DunningAttempt, error) {
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query dunning attempts: %w", err)
	}
	defer rows.Close()

	var out []*billing.DunningAttempt
	for rows.Next() {
		a, err := scanAttempt(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan dunning attempt: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// CreateBatch inserts the attempts of one invoice in a single
// transaction, or returns billing.ErrAlreadyScheduled when the invoice
// still has pending attempts.
func (db *DB) CreateBatch(ctx context.Context, attempts []*billing.DunningAttempt) (err error) {
	if len(attempts) == 0 {
		return nil
	}
	invoiceID := attempts[0].InvoiceID
	for _, a := range attempts[1:] {
		if a.InvoiceID != invoiceID {
			return fmt.Errorf("batch mixes invoices %s and %s", invoiceID, a.InvoiceID)
		}
	}

	mu := db.lockInvoice(invoiceID)
	defer mu.Unlock()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer rollback(tx)

	var pending int
	if err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM dunning_attempts WHERE invoice_id = ? AND status = ?`,
		invoiceID, string(billing.StatusPending),
	).Scan(&pending); err != nil {
		return fmt.Errorf("failed to check pending attempts: %w", err)
	}
	if pending > 0 {
		return billing.ErrAlreadyScheduled
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO dunning_attempts (`+attemptColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer closeWithLog(stmt, "prepared statement")

	for _, a := range attempts {
		var attemptedAt sql.NullTime
		if a.AttemptedAt != nil {
			attemptedAt = sql.NullTime{Time: a.AttemptedAt.UTC(), Valid: true}
		}
		if _, err = stmt.ExecContext(ctx,
			a.ID, a.SubscriptionID, a.InvoiceID, string(a.Stage), a.AttemptNumber, joinActions(a.Actions),
			a.AmountDue.String(), a.Currency, a.FirstFailedAt.UTC(), a.NextAttemptAt.UTC(), attemptedAt, string(a.Status),
			a.ErrorMessage, a.TransactionID, a.CreatedAt.UTC(), a.UpdatedAt.UTC(),
		); err != nil {
			return fmt.Errorf("failed to insert attempt %d: %w", a.AttemptNumber, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetAttempt returns billing.ErrAttemptNotFound for an unknown id.
func (db *DB) GetAttempt(ctx context.Context, id string) (*billing.DunningAttempt, error) {
	row := db.conn.QueryRowContext(ctx, `SELECT `+attemptColumns+` FROM dunning_attempts WHERE id = ?`, id)
	a, err := scanAttempt(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, billing.ErrAttemptNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get dunning attempt %s: %w", id, err)
	}
	return a, nil
}

func (db *DB) ListByInvoice(ctx context.Context, invoiceID string) ([]*billing.DunningAttempt, error) {
	return db.queryAttempts(ctx, `SELECT `+attemptColumns+` FROM dunning_attempts
		WHERE invoice_id = ? ORDER BY attempt_number, created_at`, invoiceID)
}

func (db *DB) ListBySubscription(ctx context.Context, subscriptionID string) ([]*billing.DunningAttempt, error) {
	return db.queryAttempts(ctx, `SELECT `+attemptColumns+` FROM dunning_attempts
		WHERE subscription_id = ? ORDER BY next_attempt_at, attempt_number`, subscriptionID)
}

func (db *DB) HasPending(ctx context.Context, invoiceID string) (bool, error) {
	var n int
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM dunning_attempts WHERE invoice_id = ? AND status = ?`,
		invoiceID, string(billing.StatusPending)).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check pending attempts: %w", err)
	}
	return n > 0, nil
}

func (db *DB) ListDue(ctx context.Context, now time.Time, limit int) ([]*billing.DunningAttempt, error) {
	if limit <= 0 {
		limit = 1000
	}
	return db.queryAttempts(ctx, `SELECT `+attemptColumns+` FROM dunning_attempts
		WHERE status = ? AND next_attempt_at <= ?
		ORDER BY next_attempt_at, attempt_number
		LIMIT ?`, string(billing.StatusPending), now.UTC(), limit)
}

// TransitionStatus settles an attempt only if its status is still from.
// A DuckDB write conflict means a concurrent transaction changed the same
// row, which is reported as not applied.
func (db *DB) TransitionStatus(ctx context.Context, id string, from billing.AttemptStatus, s billing.Settlement) (bool, error) {
	res, err := db.conn.ExecContext(ctx, `
		UPDATE dunning_attempts
		SET status = ?, attempted_at = ?, error_message = ?, transaction_id = ?, updated_at = ?
		WHERE id = ? AND status = ?`,
		string(s.Status), s.AttemptedAt.UTC(), s.ErrorMessage, s.TransactionID, s.AttemptedAt.UTC(),
		id, string(from))
	if err != nil {
		if isTransactionConflict(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to update dunning attempt %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return n == 1, nil
}

func (db *DB) SupersedePending(ctx context.Context, invoiceID string, at time.Time) (int, error) {
	mu := db.lockInvoice(invoiceID)
	defer mu.Unlock()

	res, err := db.conn.ExecContext(ctx, `
		UPDATE dunning_attempts SET status = ?, updated_at = ?
		WHERE invoice_id = ? AND status = ?`,
		string(billing.StatusSuperseded), at.UTC(), invoiceID, string(billing.StatusPending))
	if err != nil {
		return 0, fmt.Errorf("failed to supersede attempts for invoice %s: %w", invoiceID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return int(n), nil
}

var (
	_ billing.AttemptStore    = (*DB)(nil)
	_ billing.PlanChangeStore = (*DB)(nil)
)
