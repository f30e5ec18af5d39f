// Reelhouse - Streaming Platform Delivery and Billing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelhouse

package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/tomtom215/reelhouse/internal/audit"
	"github.com/tomtom215/reelhouse/internal/auth"
)

// record adds an event to the audit trail, attributing it to the caller.
func (h *Handler) record(r *http.Request, eventType audit.EventType, outcome audit.Outcome, target audit.Target, description string, metadata interface{}) {
	if h.audit == nil {
		return
	}
	actor := audit.Actor{ID: "anonymous"}
	if claims := auth.ClaimsFromContext(r.Context()); claims != nil {
		actor = audit.Actor{ID: claims.Subject, Role: claims.Role}
	}
	h.audit.Record(r.Context(), eventType, outcome, actor, target, description, metadata)
}

// ListAuditEvents returns audit events, newest first.
//
// Query parameters: type (comma separated), actor, target, since and until
// (RFC 3339), limit.
//
// @Summary List audit events
// @Tags Audit
// @Produce json
// @Security BearerAuth
// @Param type query string false "Comma-separated event types"
// @Param actor query string false "Actor ID"
// @Param target query string false "Target ID"
// @Param since query string false "Inclusive lower bound (RFC3339)"
// @Param until query string false "Exclusive upper bound (RFC3339)"
// @Param limit query int false "Maximum events (1-1000)" default(100) minimum(1) maximum(1000)
// @Success 200 {object} APIResponse{data=[]audit.Event}
// @Failure 400 {object} APIResponse "Invalid parameters"
// @Failure 503 {object} APIResponse "Audit trail disabled"
// @Router /api/v1/billing/audit [get]
func (h *Handler) ListAuditEvents(w http.ResponseWriter, r *http.Request) {
	if h.audit == nil {
		NewResponseWriter(w, r).ServiceUnavailable("Audit trail is disabled")
		return
	}

	filter, msg := parseAuditFilter(r)
	if msg != "" {
		NewResponseWriter(w, r).BadRequest(msg)
		return
	}

	events, err := h.audit.Query(r.Context(), filter)
	if err != nil {
		NewResponseWriter(w, r).DatabaseError(err)
		return
	}
	NewResponseWriter(w, r).List(events, len(events))
}

// parseAuditFilter returns a non-empty message for invalid parameters.
func parseAuditFilter(r *http.Request) (audit.QueryFilter, string) {
	q := r.URL.Query()
	filter := audit.QueryFilter{
		ActorID:  q.Get("actor"),
		TargetID: q.Get("target"),
	}

	if types := q.Get("type"); types != "" {
		for _, t := range strings.Split(types, ",") {
			if t = strings.TrimSpace(t); t != "" {
				filter.Types = append(filter.Types, audit.EventType(t))
			}
		}
	}

	for name, dst := range map[string]*time.Time{"since": &filter.Since, "until": &filter.Until} {
		v := q.Get(name)
		if v == "" {
			continue
		}
		ts, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return filter, "Invalid " + name + ": expected RFC 3339 timestamp"
		}
		*dst = ts.UTC()
	}

	if v := q.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 1 || limit > 1000 {
			return filter, "Invalid limit: must be between 1 and 1000"
		}
		filter.Limit = limit
	}
	return filter, ""
}
