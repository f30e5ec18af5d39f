// Reelhouse - Streaming Platform Delivery and Billing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelhouse

package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/tomtom215/reelhouse/internal/logging"
)

func TestRequestID(t *testing.T) {
	tests := []struct {
		name     string
		incoming string
		wantSame bool
	}{
		{"generated when absent", "", false},
		{"upstream id reused", "req-abc_123.4", true},
		{"malformed id replaced", "bad id\nwith newline", false},
		{"oversized id replaced", strings.Repeat("a", 129), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ctxRequestID, ctxCorrelationID string
			h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				ctxRequestID = logging.RequestIDFromContext(r.Context())
				ctxCorrelationID = logging.CorrelationIDFromContext(r.Context())
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.incoming != "" {
				req.Header.Set(RequestIDHeader, tt.incoming)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			got := rec.Header().Get(RequestIDHeader)
			if got == "" {
				t.Fatal("response has no request id")
			}
			if got != ctxRequestID {
				t.Errorf("header id %q != context id %q", got, ctxRequestID)
			}
			if (got == tt.incoming) != tt.wantSame {
				t.Errorf("request id = %q, incoming %q, wantSame %v", got, tt.incoming, tt.wantSame)
			}
			if ctxCorrelationID == "" {
				t.Error("correlation id missing from context")
			}
		})
	}
}
