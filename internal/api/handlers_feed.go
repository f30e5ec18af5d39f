// Reelhouse - Streaming Platform Delivery and Billing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelhouse

package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tomtom215/reelhouse/internal/logging"
	ws "github.com/tomtom215/reelhouse/internal/websocket"
)

func (h *Handler) upgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		CheckOrigin:      h.checkWebSocketOrigin,
		HandshakeTimeout: 10 * time.Second,
	}
}

// checkWebSocketOrigin accepts configured origins only. Browsers always
// send Origin on websocket handshakes, so a missing header is rejected.
func (h *Handler) checkWebSocketOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		logging.Warn().Msg("Websocket connection rejected: missing Origin header")
		return false
	}
	for _, allowed := range h.allowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	logging.Warn().Str("origin", sanitizeLogValue(origin)).Msg("Websocket connection rejected: origin not allowed")
	return false
}

// BillingEventsWS upgrades to a websocket that streams dunning events.
//
// @Summary Live dunning event feed
// @Description Upgrades to a WebSocket that streams dunning events as {"type":"dunning_event","data":...}.
// @Tags Dunning
// @Security BearerAuth
// @Success 101 "Switching Protocols"
// @Failure 503 {object} APIResponse "Live feed disabled"
// @Router /api/v1/billing/events/ws [get]
func (h *Handler) BillingEventsWS(w http.ResponseWriter, r *http.Request) {
	if h.liveFeed == nil {
		NewResponseWriter(w, r).ServiceUnavailable("Live feed is disabled")
		return
	}

	upgrader := h.upgrader()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the error response.
		logging.Ctx(r.Context()).Warn().Err(err).Msg("Websocket upgrade failed")
		return
	}

	client := ws.NewClient(h.liveFeed, conn, subject(r))
	h.liveFeed.Register(client)
	client.Start()
}
