// Reelhouse - Streaming Platform Delivery and Billing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelhouse

// Package middleware holds the HTTP middleware shared by every route:
// request ids and Prometheus request metrics.
//
// Both are chi-style func(http.Handler) http.Handler. PrometheusMetrics
// labels requests by chi route pattern, so it must be mounted on a chi
// router and not wrap the router from outside.
package middleware
