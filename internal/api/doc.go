// Reelhouse - Streaming Platform Delivery and Billing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelhouse

// Package api wires the HTTP surface onto a chi router.
//
// Routes:
//
//	GET|HEAD /stream/{videoId}                                   byte-range video delivery
//	GET      /metrics                                            Prometheus
//	GET      /api/v1/health, /api/v1/health/live                 health probes
//	POST     /api/v1/billing/invoices/{invoiceId}/dunning        schedule dunning (billing:write)
//	GET      /api/v1/billing/invoices/{invoiceId}/dunning        attempts of an invoice (billing:read)
//	GET      /api/v1/billing/subscriptions/{subscriptionId}/dunning
//	GET      /api/v1/billing/dunning/attempts/{attemptId}
//	POST     /api/v1/billing/dunning/attempts/{attemptId}/process  (billing:process)
//	POST     /api/v1/billing/proration                           proration preview (billing:read)
//	POST     /api/v1/billing/plan-changes                        (billing:write)
//	GET      /api/v1/billing/plan-changes/{id}                   (billing:read)
//
// Billing responses use the APIResponse envelope. The stream route writes
// raw bytes and its own error body; see internal/streaming.
package api
