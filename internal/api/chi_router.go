// Reelhouse - Streaming Platform Delivery and Billing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelhouse

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/tomtom215/reelhouse/internal/auth"
	"github.com/tomtom215/reelhouse/internal/authz"
	"github.com/tomtom215/reelhouse/internal/middleware"
	"github.com/tomtom215/reelhouse/internal/streaming"
)

// Router holds the handlers and middleware mounted by SetupChi.
type Router struct {
	handler       *Handler
	stream        http.Handler
	authn         *auth.Middleware
	authz         *authz.Middleware
	chiMiddleware *ChiMiddleware
}

// NewRouter creates a Router. stream serves /stream/{videoId}.
func NewRouter(handler *Handler, stream http.Handler, authn *auth.Middleware, authzMw *authz.Middleware, chiMw *ChiMiddleware) *Router {
	if chiMw == nil {
		chiMw = NewChiMiddleware(nil)
	}
	return &Router{
		handler:       handler,
		stream:        stream,
		authn:         authn,
		authz:         authzMw,
		chiMiddleware: chiMw,
	}
}

// SetupChi configures all HTTP routes.
func (router *Router) SetupChi() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS()) // global so OPTIONS preflight is answered
	r.Use(middleware.PrometheusMetrics)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, r, http.StatusNotFound, ErrCodeNotFound, "Route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, r, http.StatusMethodNotAllowed, ErrCodeMethodNotAllowed, "Method not allowed")
	})

	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
		httpSwagger.DeepLinking(true),
		httpSwagger.DocExpansion("list"),
		httpSwagger.DomID("swagger-ui"),
	))

	// Video delivery is public; ids are unguessable catalog keys.
	r.Route("/stream", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())
		r.Method(http.MethodGet, "/{"+streaming.VideoIDParam+"}", router.stream)
		r.Method(http.MethodHead, "/{"+streaming.VideoIDParam+"}", router.stream)
	})

	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(APISecurityHeaders())
		r.Get("/", router.handler.Health)
		r.Get("/live", router.handler.HealthLive)
	})

	r.Route("/api/v1/billing", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())
		r.Use(APISecurityHeaders())
		r.Use(router.authn.Authenticate)

		read := router.authz.RequirePermission(authz.ObjectBilling, authz.ActionRead)
		process := router.authz.RequirePermission(authz.ObjectBilling, authz.ActionProcess)
		write := router.authz.RequirePermission(authz.ObjectBilling, authz.ActionWrite)

		r.With(write).Post("/invoices/{invoiceId}/dunning", router.handler.ScheduleDunning)
		r.With(read).Get("/invoices/{invoiceId}/dunning", router.handler.ListInvoiceDunning)
		r.With(read).Get("/subscriptions/{subscriptionId}/dunning", router.handler.ListSubscriptionDunning)
		r.With(read).Get("/dunning/attempts/{attemptId}", router.handler.GetDunningAttempt)
		r.With(process).Post("/dunning/attempts/{attemptId}/process", router.handler.ProcessDunningAttempt)

		r.With(read).Post("/proration", router.handler.PreviewProration)
		r.With(write).Post("/plan-changes", router.handler.RequestPlanChange)
		r.With(read).Get("/plan-changes/{id}", router.handler.GetPlanChange)

		auditRead := router.authz.RequirePermission(authz.ObjectAudit, authz.ActionRead)
		r.With(auditRead).Get("/audit", router.handler.ListAuditEvents)

		r.With(read).Get("/events/ws", router.handler.BillingEventsWS)
	})

	return r
}
