// Reelhouse - Streaming Platform Delivery and Billing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelhouse

package audit

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/tomtom215/reelhouse/internal/database/query"
)

// DuckDBStore persists audit events in the audit_events table.
type DuckDBStore struct {
	db *sql.DB
}

// NewDuckDBStore creates a DuckDB-backed store. Call CreateTable before
// first use.
func NewDuckDBStore(db *sql.DB) *DuckDBStore {
	return &DuckDBStore{db: db}
}

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS audit_events (
		id TEXT PRIMARY KEY,
		timestamp TIMESTAMPTZ NOT NULL,
		type TEXT NOT NULL,
		outcome TEXT NOT NULL,
		actor_id TEXT NOT NULL,
		actor_role TEXT NOT NULL,
		target_id TEXT NOT NULL,
		target_type TEXT NOT NULL,
		description TEXT NOT NULL,
		metadata JSON,
		request_id TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_audit_timestamp ON audit_events(timestamp)`,
	`CREATE INDEX IF NOT EXISTS idx_audit_actor_id ON audit_events(actor_id)`,
	`CREATE INDEX IF NOT EXISTS idx_audit_target_id ON audit_events(target_id)`,
}

// CreateTable creates the audit_events table and its indexes.
func (s *DuckDBStore) CreateTable(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create audit schema: %w", err)
		}
	}
	return nil
}

func (s *DuckDBStore) Save(ctx context.Context, e *Event) error {
	var metadata interface{}
	if len(e.Metadata) > 0 {
		metadata = string(e.Metadata)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_events (id, timestamp, type, outcome, actor_id, actor_role,
			target_id, target_type, description, metadata, request_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Timestamp.UTC(), string(e.Type), string(e.Outcome), e.Actor.ID, e.Actor.Role,
		e.Target.ID, e.Target.Type, e.Description, metadata, e.RequestID)
	if err != nil {
		return fmt.Errorf("failed to insert audit event %s: %w", e.ID, err)
	}
	return nil
}

// buildWhere renders the filter as a WHERE clause.
func buildWhere(f QueryFilter) (string, []interface{}) {
	wb := query.NewWhereBuilder()
	query.AddIn(wb, "type", f.Types)
	wb.AddEquals("actor_id", f.ActorID).
		AddEquals("target_id", f.TargetID).
		AddTimeRange("timestamp", f.Since, f.Until)
	return wb.BuildWithPrefix()
}

func (s *DuckDBStore) Query(ctx context.Context, filter QueryFilter) ([]Event, error) {
	where, args := buildWhere(filter)
	args = append(args, filter.limit())

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, timestamp, type, outcome, actor_id, actor_role, target_id, target_type,
			description, CAST(metadata AS TEXT), request_id
		FROM audit_events `+where+`
		ORDER BY timestamp DESC
		LIMIT ?`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit events: %w", err)
	}
	defer rows.Close()

	events := make([]Event, 0)
	for rows.Next() {
		var (
			e                   Event
			typ, outcome        string
			metadata, requestID sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.Timestamp, &typ, &outcome, &e.Actor.ID, &e.Actor.Role,
			&e.Target.ID, &e.Target.Type, &e.Description, &metadata, &requestID); err != nil {
			return nil, fmt.Errorf("failed to scan audit event: %w", err)
		}
		e.Timestamp = e.Timestamp.UTC()
		e.Type = EventType(typ)
		e.Outcome = Outcome(outcome)
		if metadata.Valid {
			e.Metadata = []byte(metadata.String)
		}
		e.RequestID = requestID.String
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating audit events: %w", err)
	}
	return events, nil
}

func (s *DuckDBStore) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM audit_events WHERE timestamp < ?`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to delete audit events: %w", err)
	}
	return res.RowsAffected()
}
