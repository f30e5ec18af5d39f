// Reelhouse - Streaming Platform Delivery and Billing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelhouse

// Package authz authorizes billing API calls with Casbin RBAC.
//
// The model and default policy are embedded (model.conf, policy.csv). A
// policy file on disk, configured with AUTHZ_POLICY_PATH, replaces the
// embedded policy and is reloaded periodically.
//
// Permissions:
//
//	viewer         billing:read
//	support        billing:read, billing:process
//	billing_admin  billing:read, billing:process, billing:write
package authz
