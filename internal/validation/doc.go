// Reelhouse - Streaming Platform Delivery and Billing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelhouse

// Package validation validates API request bodies with go-playground/validator v10.
//
// A single validator instance is shared process-wide. Field names in error
// messages come from the json tag, so clients see the names they sent.
// shopspring/decimal values are validated as numbers, which lets money
// fields use the ordinary comparison tags:
//
//	type ProrationRequest struct {
//	    OldPlanPrice decimal.Decimal `json:"old_plan_price" validate:"gte=0"`
//	    Currency     string          `json:"currency" validate:"required,iso4217"`
//	}
//
//	if verr := validation.ValidateStruct(&req); verr != nil {
//	    apiErr := verr.ToAPIError()
//	    respondError(w, r, http.StatusBadRequest, apiErr.Code, apiErr.Message, apiErr.Details)
//	    return
//	}
package validation
