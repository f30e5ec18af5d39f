// Reelhouse - Streaming Platform Delivery and Billing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelhouse

// Package query builds parameterized SQL WHERE clauses for optional
// filters. Column names are always supplied by code, never by callers, so
// only values travel as bind arguments:
//
//	wb := query.NewWhereBuilder()
//	query.AddIn(wb, "type", filter.Types)
//	wb.AddEquals("actor_id", filter.ActorID).
//		AddTimeRange("timestamp", filter.Since, filter.Until)
//	where, args := wb.BuildWithPrefix()
//	// WHERE type IN (?, ?) AND actor_id = ? AND timestamp >= ? AND timestamp < ?
package query
