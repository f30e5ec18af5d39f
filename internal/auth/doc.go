// Reelhouse - Streaming Platform Delivery and Billing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelhouse

// Package auth authenticates callers of the billing API.
//
// Billing callers are internal services and operators holding an HS256
// bearer token issued with the shared JWT secret. The token carries a
// subject and a single role. The role is what internal/authz checks
// against the Casbin policy.
//
// With AUTH_MODE=none every request is treated as the anonymous billing
// admin. Configuration validation refuses that mode in production.
package auth
