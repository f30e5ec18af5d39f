// Reelhouse - Streaming Platform Delivery and Billing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelhouse

package authz

import (
	"net/http"

	"github.com/tomtom215/reelhouse/internal/auth"
	"github.com/tomtom215/reelhouse/internal/logging"
	"github.com/tomtom215/reelhouse/internal/metrics"
)

// Middleware provides authorization middleware using Casbin.
type Middleware struct {
	enforcer *Enforcer
}

// NewMiddleware creates a new authorization middleware.
func NewMiddleware(enforcer *Enforcer) *Middleware {
	return &Middleware{enforcer: enforcer}
}

// RequirePermission allows the request through when the authenticated
// role holds object:action. It must run after auth.Middleware.Authenticate.
func (m *Middleware) RequirePermission(object, action string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := auth.ClaimsFromContext(r.Context())
			if claims == nil {
				http.Error(w, "Forbidden: no authentication context", http.StatusForbidden)
				return
			}

			allowed, err := m.enforcer.Enforce(claims.Role, object, action)
			if err != nil {
				logging.Ctx(r.Context()).Error().Err(err).Msg("Authorization error")
				http.Error(w, "Internal server error", http.StatusInternalServerError)
				return
			}
			metrics.RecordAuthzDecision(object, action, allowed)

			if !allowed {
				logging.Ctx(r.Context()).Warn().
					Str("subject", claims.Subject).
					Str("role", claims.Role).
					Str("permission", object+":"+action).
					Msg("Permission denied")
				http.Error(w, "Forbidden: insufficient permissions", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
