// Reelhouse - Streaming Platform Delivery and Billing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelhouse

// Package main is the entry point for the Reelhouse server.
//
// Reelhouse serves catalog videos over HTTP with byte-range support and
// runs the billing side of the platform: dunning schedules for failed
// invoices and proration for mid-cycle plan changes.
//
// # Startup Order
//
//  1. Configuration: defaults, config.yaml, environment (Koanf v2)
//  2. Logging: zerolog with the configured level and format
//  3. Database: DuckDB with schema migrations
//  4. Payment gateway: HTTP client, circuit breaker, idempotency ledger
//  5. Events: in-process gochannel, embedded NATS server, or external
//     NATS JetStream
//  6. Billing: dunning scheduler, cron processor, plan change service
//  7. Audit trail: DuckDB store behind an async logger
//  8. Auth: JWT authentication and Casbin authorization
//  9. Supervisor tree: HTTP server, dunning processor, live event feed,
//     maintenance and audit retention jobs
//
// # Signal Handling
//
// SIGINT and SIGTERM cancel the supervisor tree. The HTTP server drains
// in-flight requests within server.shutdown_timeout, the dunning
// processor waits for a running batch, and the ledger, publisher and
// database are closed last.
//
// # Example
//
//	export JWT_SECRET=$(openssl rand -base64 48)
//	export MEDIA_ROOT=/srv/media
//	export GATEWAY_URL=https://payments.internal
//	export GATEWAY_API_KEY=...
//	./reelhouse
//
// @title Reelhouse API
// @version 1.0
// @description Video delivery with HTTP byte ranges, dunning for failed invoices, and proration for plan changes.
// @description
// @description Billing endpoints require a JWT in the Authorization header. Errors use the envelope
// @description `{"success": false, "error": {"code": "...", "message": "..."}, "meta": {...}}`.
// @description Stream errors use `{"message": "...", "error": "...", "statusCode": 404}`.
//
// @license.name AGPL-3.0-or-later
// @license.url https://www.gnu.org/licenses/agpl-3.0.html
//
// @BasePath /
// @schemes http https
//
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description "Bearer <jwt>". Roles: viewer, support, billing_admin.
//
// @tag.name Streaming
// @tag.description Range-request video delivery
//
// @tag.name Dunning
// @tag.description Failed payment retry schedules and processing
//
// @tag.name Proration
// @tag.description Mid-period plan change pricing
//
// @tag.name Audit
// @tag.description Billing audit trail
package main
