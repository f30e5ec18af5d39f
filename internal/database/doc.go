// Reelhouse - Streaming Platform Delivery and Billing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelhouse

// Package database is the DuckDB persistence layer for Reelhouse.
//
// # Tables
//
//   - videos: the catalog consulted by the stream handler
//   - dunning_attempts: one row per planned collection attempt
//   - plan_change_requests: proration audit records
//   - schema_migrations: applied migration versions
//
// # Concurrency
//
// DuckDB uses optimistic concurrency control. Attempt settlement relies on
// a conditional UPDATE (WHERE status = 'pending') and treats a write
// conflict as "another worker won". Scheduling a batch checks for pending
// rows and inserts inside one transaction, serialized per invoice by an
// in-process lock; DuckDB allows a single writing process per file, so an
// in-process lock covers every writer.
//
// Monetary amounts are stored as decimal strings so no float conversion
// ever touches them. Timestamps are stored as UTC TIMESTAMP values.
package database
