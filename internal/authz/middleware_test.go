// Reelhouse - Streaming Platform Delivery and Billing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelhouse

package authz

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/tomtom215/reelhouse/internal/auth"
)

func TestRequirePermission(t *testing.T) {
	mw := NewMiddleware(newTestEnforcer(t, &EnforcerConfig{}))
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	tests := []struct {
		name       string
		role       string
		action     string
		wantStatus int
	}{
		{"viewer reads", auth.RoleViewer, ActionRead, http.StatusNoContent},
		{"viewer writes", auth.RoleViewer, ActionWrite, http.StatusForbidden},
		{"support processes", auth.RoleSupport, ActionProcess, http.StatusNoContent},
		{"support writes", auth.RoleSupport, ActionWrite, http.StatusForbidden},
		{"admin writes", auth.RoleBillingAdmin, ActionWrite, http.StatusNoContent},
		{"no claims", "", ActionRead, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/billing/x", nil)
			if tt.role != "" {
				claims := &auth.Claims{Role: tt.role}
				claims.Subject = "tester"
				req = req.WithContext(auth.ContextWithClaims(req.Context(), claims))
			}
			rec := httptest.NewRecorder()

			mw.RequirePermission(ObjectBilling, tt.action)(ok).ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}
