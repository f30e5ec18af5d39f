// Reelhouse - Streaming Platform Delivery and Billing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelhouse

// Package audit records who changed billing state.
//
// Every dunning schedule, manual attempt run and plan change accepted
// through the API produces an Event carrying the caller's subject and
// role, the affected resource and the request id. Events are written
// asynchronously by Logger to a Store: MemoryStore for tests and
// development, DuckDBStore in production. Retention is enforced by
// Logger.Cleanup, which the server runs as a supervised maintenance job.
package audit
