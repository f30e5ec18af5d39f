// Reelhouse - Streaming Platform Delivery and Billing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelhouse

package database

import (
	"database/sql"
	"io"
	"strings"

	"github.com/tomtom215/reelhouse/internal/logging"
)

// closeWithLog closes a resource and logs any error.
func closeWithLog(closer io.Closer, resourceType string) {
	if closer == nil {
		return
	}
	if err := closer.Close(); err != nil {
		logging.Warn().Str("type", resourceType).Err(err).Msg("Failed to close resource")
	}
}

// closeQuietly closes a resource on an error path where the close error
// is not actionable.
func closeQuietly(closer io.Closer) {
	if closer != nil {
		_ = closer.Close()
	}
}

// rollback aborts tx unless it already finished.
func rollback(tx *sql.Tx) {
	if err := tx.Rollback(); err != nil && err != sql.ErrTxDone {
		logging.Error().Err(err).Msg("Transaction rollback failed")
	}
}

// isTransactionConflict reports whether err is a DuckDB write-write
// conflict.
func isTransactionConflict(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "Transaction conflict") ||
		strings.Contains(msg, "Conflict on update")
}
