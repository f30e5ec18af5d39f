// Reelhouse - Streaming Platform Delivery and Billing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelhouse

package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/reelhouse/internal/audit"
	"github.com/tomtom215/reelhouse/internal/auth"
	"github.com/tomtom215/reelhouse/internal/billing"
	"github.com/tomtom215/reelhouse/internal/logging"
)

// maxIDLength bounds path identifiers.
const maxIDLength = 128

// pathID reads a chi URL parameter. It writes a 400 and returns false for
// empty or oversized ids.
func pathID(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	id := strings.TrimSpace(chi.URLParam(r, name))
	if id == "" || len(id) > maxIDLength {
		NewResponseWriter(w, r).BadRequest(fmt.Sprintf("Invalid %s", name))
		return "", false
	}
	return id, true
}

func subject(r *http.Request) string {
	if claims := auth.ClaimsFromContext(r.Context()); claims != nil {
		return claims.Subject
	}
	return ""
}

// ScheduleDunning materializes the dunning plan of a failed invoice.
// A second call for the same invoice returns the existing plan with 200.
//
// @Summary Schedule dunning for a failed invoice
// @Description Creates the five dunning attempts (retry1..cancel) for an invoice whose payment failed. Idempotent per invoice.
// @Tags Dunning
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param invoiceId path string true "Invoice ID"
// @Param request body ScheduleDunningRequest true "Failed payment"
// @Success 201 {object} APIResponse{data=ScheduleDunningResponse} "Plan created"
// @Success 200 {object} APIResponse{data=ScheduleDunningResponse} "Plan already existed"
// @Failure 400 {object} APIResponse "Invalid request"
// @Failure 500 {object} APIResponse "Internal server error"
// @Router /api/v1/billing/invoices/{invoiceId}/dunning [post]
func (h *Handler) ScheduleDunning(w http.ResponseWriter, r *http.Request) {
	invoiceID, ok := pathID(w, r, "invoiceId")
	if !ok {
		return
	}

	var req ScheduleDunningRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	if req.Currency == "" {
		req.Currency = h.defaultCurrency
	}

	attempts, err := h.dunning.ScheduleDunningAttempts(r.Context(), billing.Invoice{
		ID:             invoiceID,
		SubscriptionID: req.SubscriptionID,
		AmountDue:      req.AmountDue,
		Currency:       strings.ToUpper(req.Currency),
		FirstFailedAt:  req.FirstFailedAt,
	})
	if errors.Is(err, billing.ErrAlreadyScheduled) {
		existing, listErr := h.attempts.ListByInvoice(r.Context(), invoiceID)
		if listErr != nil {
			NewResponseWriter(w, r).DatabaseError(listErr)
			return
		}
		NewResponseWriter(w, r).Success(ScheduleDunningResponse{
			InvoiceID: invoiceID,
			Created:   false,
			Attempts:  existing,
		})
		return
	}
	if err != nil {
		writeBillingError(w, r, err)
		return
	}

	h.record(r, audit.EventTypeDunningScheduled, audit.OutcomeSuccess,
		audit.Target{ID: invoiceID, Type: "invoice"},
		"Dunning plan scheduled",
		map[string]interface{}{"subscription_id": req.SubscriptionID, "attempts": len(attempts)})

	logging.Ctx(r.Context()).Info().
		Str("invoice_id", sanitizeLogValue(invoiceID)).
		Str("requested_by", subject(r)).
		Msg("Dunning scheduled via API")

	NewResponseWriter(w, r).Created(ScheduleDunningResponse{
		InvoiceID: invoiceID,
		Created:   true,
		Attempts:  attempts,
	})
}

// ListInvoiceDunning returns the attempts of an invoice in stage order.
//
// @Summary List dunning attempts of an invoice
// @Tags Dunning
// @Produce json
// @Security BearerAuth
// @Param invoiceId path string true "Invoice ID"
// @Success 200 {object} APIResponse{data=[]billing.DunningAttempt}
// @Router /api/v1/billing/invoices/{invoiceId}/dunning [get]
func (h *Handler) ListInvoiceDunning(w http.ResponseWriter, r *http.Request) {
	invoiceID, ok := pathID(w, r, "invoiceId")
	if !ok {
		return
	}
	attempts, err := h.attempts.ListByInvoice(r.Context(), invoiceID)
	if err != nil {
		NewResponseWriter(w, r).DatabaseError(err)
		return
	}
	NewResponseWriter(w, r).List(attempts, len(attempts))
}

// ListSubscriptionDunning returns the attempts of every invoice of a
// subscription ordered by due time.
//
// @Summary List dunning attempts of a subscription
// @Tags Dunning
// @Produce json
// @Security BearerAuth
// @Param subscriptionId path string true "Subscription ID"
// @Success 200 {object} APIResponse{data=[]billing.DunningAttempt}
// @Router /api/v1/billing/subscriptions/{subscriptionId}/dunning [get]
func (h *Handler) ListSubscriptionDunning(w http.ResponseWriter, r *http.Request) {
	subscriptionID, ok := pathID(w, r, "subscriptionId")
	if !ok {
		return
	}
	attempts, err := h.attempts.ListBySubscription(r.Context(), subscriptionID)
	if err != nil {
		NewResponseWriter(w, r).DatabaseError(err)
		return
	}
	NewResponseWriter(w, r).List(attempts, len(attempts))
}

// GetDunningAttempt returns one attempt.
//
// @Summary Get a dunning attempt
// @Tags Dunning
// @Produce json
// @Security BearerAuth
// @Param attemptId path string true "Attempt ID"
// @Success 200 {object} APIResponse{data=billing.DunningAttempt}
// @Failure 404 {object} APIResponse "Attempt not found"
// @Router /api/v1/billing/dunning/attempts/{attemptId} [get]
func (h *Handler) GetDunningAttempt(w http.ResponseWriter, r *http.Request) {
	attemptID, ok := pathID(w, r, "attemptId")
	if !ok {
		return
	}
	attempt, err := h.attempts.GetAttempt(r.Context(), attemptID)
	if err != nil {
		if errors.Is(err, billing.ErrAttemptNotFound) {
			NewResponseWriter(w, r).NotFound(err.Error())
			return
		}
		NewResponseWriter(w, r).DatabaseError(err)
		return
	}
	NewResponseWriter(w, r).Success(attempt)
}

// ProcessDunningAttempt charges a due attempt now. Processing a settled
// attempt returns its recorded outcome with replayed=true.
//
// @Summary Process a dunning attempt
// @Description Charges the payment gateway for the attempt and settles it. A gateway decline is a 200 with success=false.
// @Tags Dunning
// @Produce json
// @Security BearerAuth
// @Param attemptId path string true "Attempt ID"
// @Success 200 {object} APIResponse{data=billing.ProcessResult}
// @Failure 404 {object} APIResponse "Attempt not found"
// @Failure 409 {object} APIResponse "Attempt was settled concurrently"
// @Router /api/v1/billing/dunning/attempts/{attemptId}/process [post]
func (h *Handler) ProcessDunningAttempt(w http.ResponseWriter, r *http.Request) {
	attemptID, ok := pathID(w, r, "attemptId")
	if !ok {
		return
	}

	res, err := h.dunning.ProcessDunningAttempt(r.Context(), attemptID)
	if err != nil {
		writeBillingError(w, r, err)
		return
	}

	if !res.Replayed {
		outcome := audit.OutcomeSuccess
		if !res.Success {
			outcome = audit.OutcomeFailure
		}
		h.record(r, audit.EventTypeDunningProcessed, outcome,
			audit.Target{ID: res.AttemptID, Type: "dunning_attempt"},
			"Dunning attempt processed",
			res)
	}

	logging.Ctx(r.Context()).Info().
		Str("attempt_id", res.AttemptID).
		Str("status", string(res.Status)).
		Bool("replayed", res.Replayed).
		Str("requested_by", subject(r)).
		Msg("Dunning attempt processed via API")

	NewResponseWriter(w, r).Success(res)
}

// PreviewProration computes a proration without storing anything.
//
// @Summary Preview a proration
// @Tags Proration
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body ProrationRequest true "Rates and period"
// @Success 200 {object} APIResponse{data=billing.ProrationResult}
// @Failure 400 {object} APIResponse "Invalid request"
// @Router /api/v1/billing/proration [post]
func (h *Handler) PreviewProration(w http.ResponseWriter, r *http.Request) {
	var req ProrationRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	res, err := billing.ComputeProration(req.input())
	if err != nil {
		writeBillingError(w, r, err)
		return
	}
	NewResponseWriter(w, r).Success(res)
}

// RequestPlanChange prices a plan change and stores its audit record.
//
// @Summary Request a plan change
// @Tags Proration
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body billing.PlanChange true "Plan change"
// @Success 201 {object} APIResponse{data=billing.PlanChangeRequest}
// @Failure 400 {object} APIResponse "Invalid request"
// @Router /api/v1/billing/plan-changes [post]
func (h *Handler) RequestPlanChange(w http.ResponseWriter, r *http.Request) {
	var req billing.PlanChange
	if !decodeAndValidate(w, r, &req) {
		return
	}
	req.Currency = strings.ToUpper(req.Currency)

	pc, err := h.planChanges.RequestPlanChange(r.Context(), req)
	if err != nil {
		writeBillingError(w, r, err)
		return
	}

	h.record(r, audit.EventTypePlanChangeRecorded, audit.OutcomeSuccess,
		audit.Target{ID: req.SubscriptionID, Type: "subscription"},
		"Plan change recorded",
		map[string]interface{}{"plan_change_id": pc.ID, "net": pc.Proration.Net})

	NewResponseWriter(w, r).Created(pc)
}

// GetPlanChange returns a stored plan change.
//
// @Summary Get a plan change
// @Tags Proration
// @Produce json
// @Security BearerAuth
// @Param id path string true "Plan change ID"
// @Success 200 {object} APIResponse{data=billing.PlanChangeRequest}
// @Failure 404 {object} APIResponse "Plan change not found"
// @Router /api/v1/billing/plan-changes/{id} [get]
func (h *Handler) GetPlanChange(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	pc, err := h.planChanges.Get(r.Context(), id)
	if err != nil {
		writeBillingError(w, r, err)
		return
	}
	NewResponseWriter(w, r).Success(pc)
}
