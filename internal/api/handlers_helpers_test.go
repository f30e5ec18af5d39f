// Reelhouse - Streaming Platform Delivery and Billing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelhouse

package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/tomtom215/reelhouse/internal/billing"
)

func TestSanitizeLogValue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"inv_123", "inv_123"},
		{"inv\nFAKE log line", `inv\x0aFAKE log line`},
		{"a\tb", `a\x09b`},
		{"", ""},
	}
	for _, tt := range tests {
		if got := sanitizeLogValue(tt.in); got != tt.want {
			t.Errorf("sanitizeLogValue(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestWriteBillingError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"attempt not found", billing.ErrAttemptNotFound, http.StatusNotFound, ErrCodeNotFound},
		{"plan change not found", billing.ErrPlanChangeNotFound, http.StatusNotFound, ErrCodeNotFound},
		{"invalid invoice", fmt.Errorf("%w: amount", billing.ErrInvalidInvoice), http.StatusBadRequest, ErrCodeValidationFailed},
		{"invalid proration", fmt.Errorf("%w: period", billing.ErrInvalidProration), http.StatusBadRequest, ErrCodeValidationFailed},
		{"already settled", billing.ErrAttemptAlreadySettled, http.StatusConflict, ErrCodeConflict},
		{"already scheduled", billing.ErrAlreadyScheduled, http.StatusConflict, ErrCodeConflict},
		{"cancelled", context.Canceled, http.StatusServiceUnavailable, ErrCodeServiceUnavailable},
		{"persistence", fmt.Errorf("%w: disk full", billing.ErrPersistence), http.StatusInternalServerError, ErrCodeDatabaseError},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, ErrCodeInternalError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rec := httptest.NewRecorder()
			writeBillingError(rec, httptest.NewRequest(http.MethodPost, "/", nil), tt.err)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			resp := decodeEnvelope(t, rec, nil)
			if resp.Error == nil || resp.Error.Code != tt.wantCode {
				t.Errorf("error = %+v, want %s", resp.Error, tt.wantCode)
			}
		})
	}
}

func TestDecodeAndValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		body   string
		wantOK bool
		code   string
	}{
		{"valid", `{"subscription_id":"s","amount_due":"5","first_failed_at":"2021-01-01T00:00:00Z"}`, true, ""},
		{"malformed", `{"subscription_id":`, false, ErrCodeBadRequest},
		{"unknown field", `{"subscription_id":"s","amount_due":"5","first_failed_at":"2021-01-01T00:00:00Z","x":1}`, false, ErrCodeBadRequest},
		{"invalid", `{"subscription_id":"","amount_due":"5","first_failed_at":"2021-01-01T00:00:00Z"}`, false, ErrCodeValidationFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))

			var dst ScheduleDunningRequest
			if ok := decodeAndValidate(rec, req, &dst); ok != tt.wantOK {
				t.Fatalf("decodeAndValidate() = %v, want %v; body=%s", ok, tt.wantOK, rec.Body.String())
			}
			if tt.wantOK {
				return
			}
			resp := decodeEnvelope(t, rec, nil)
			if resp.Error == nil || resp.Error.Code != tt.code {
				t.Errorf("error = %+v, want %s", resp.Error, tt.code)
			}
		})
	}
}
