// Reelhouse - Streaming Platform Delivery and Billing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelhouse

package api

import (
	"context"
	"net/http"
	"time"
)

const healthPingTimeout = 2 * time.Second

// HealthStatus is the body of GET /api/v1/health.
type HealthStatus struct {
	Status            string  `json:"status"`
	DatabaseConnected bool    `json:"database_connected"`
	UptimeSeconds     float64 `json:"uptime_seconds"`
}

// Health reports database connectivity. It answers 503 when the database
// does not respond.
//
// @Summary Health check
// @Tags Health
// @Produce json
// @Success 200 {object} APIResponse{data=HealthStatus}
// @Failure 503 {object} APIResponse{data=HealthStatus}
// @Router /api/v1/health [get]
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthPingTimeout)
	defer cancel()

	dbConnected := h.db != nil && h.db.Ping(ctx) == nil
	status := HealthStatus{
		Status:            "healthy",
		DatabaseConnected: dbConnected,
		UptimeSeconds:     time.Since(h.startTime).Seconds(),
	}

	rw := NewResponseWriter(w, r)
	if !dbConnected {
		status.Status = "degraded"
		rw.writeJSON(http.StatusServiceUnavailable, APIResponse{Success: false, Data: status, Meta: rw.meta()})
		return
	}
	rw.Success(status)
}

// HealthLive answers 200 while the process is running.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(map[string]interface{}{
		"alive":          true,
		"uptime_seconds": time.Since(h.startTime).Seconds(),
	})
}
