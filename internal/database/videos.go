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
	"time"

	"github.com/tomtom215/reelhouse/internal/streaming"
)

// GetVideo returns the catalog record for videoID or
// streaming.ErrVideoNotFound.
func (db *DB) GetVideo(ctx context.Context, videoID string) (*streaming.VideoRecord, error) {
	var rec streaming.VideoRecord
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, path, size_bytes FROM videos WHERE id = ?`, videoID,
	).Scan(&rec.ID, &rec.Path, &rec.SizeBytes)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, streaming.ErrVideoNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get video %s: %w", videoID, err)
	}
	return &rec, nil
}

// UpsertVideo adds or replaces a catalog record.
func (db *DB) UpsertVideo(ctx context.Context, rec streaming.VideoRecord, title string) error {
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO videos (id, path, size_bytes, title, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			path = excluded.path,
			size_bytes = excluded.size_bytes,
			title = excluded.title`,
		rec.ID, rec.Path, rec.SizeBytes, title, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to upsert video %s: %w", rec.ID, err)
	}
	return nil
}
