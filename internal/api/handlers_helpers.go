// Reelhouse - Streaming Platform Delivery and Billing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelhouse

package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/goccy/go-json"

	"github.com/tomtom215/reelhouse/internal/billing"
	"github.com/tomtom215/reelhouse/internal/logging"
	"github.com/tomtom215/reelhouse/internal/validation"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// sanitizeLogValue escapes control characters so path parameters cannot
// forge log lines.
func sanitizeLogValue(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r < 0x20 || r == 0x7F {
			fmt.Fprintf(&b, "\\x%02x", r)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// decodeAndValidate reads a JSON body into dst and validates it. On
// failure it writes the error response and returns false.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	rw := NewResponseWriter(w, r)

	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		rw.BadRequest("Invalid JSON body: " + err.Error())
		return false
	}

	if verr := validation.ValidateStruct(dst); verr != nil {
		apiErr := verr.ToAPIError()
		rw.ValidationError(apiErr.Message, apiErr.Details)
		return false
	}
	return true
}

// writeBillingError maps billing errors to HTTP responses.
func writeBillingError(w http.ResponseWriter, r *http.Request, err error) {
	rw := NewResponseWriter(w, r)

	switch {
	case errors.Is(err, billing.ErrAttemptNotFound), errors.Is(err, billing.ErrPlanChangeNotFound):
		rw.NotFound(err.Error())
	case errors.Is(err, billing.ErrInvalidInvoice), errors.Is(err, billing.ErrInvalidProration):
		rw.Error(http.StatusBadRequest, ErrCodeValidationFailed, err.Error())
	case errors.Is(err, billing.ErrAttemptAlreadySettled), errors.Is(err, billing.ErrAlreadyScheduled):
		rw.Conflict(err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		rw.ServiceUnavailable("Request cancelled before the attempt was settled")
	case errors.Is(err, billing.ErrPersistence):
		rw.DatabaseError(err)
	default:
		logging.Ctx(r.Context()).Error().Err(err).Str("path", sanitizeLogValue(r.URL.Path)).Msg("Unhandled billing error")
		rw.InternalError("Internal server error")
	}
}
