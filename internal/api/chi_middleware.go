// Reelhouse - Streaming Platform Delivery and Billing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelhouse

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/tomtom215/reelhouse/internal/config"
)

// ChiMiddlewareConfig holds configuration for Chi middleware factories.
type ChiMiddlewareConfig struct {
	CORSAllowedOrigins   []string
	CORSAllowedMethods   []string
	CORSAllowedHeaders   []string
	CORSExposedHeaders   []string
	CORSAllowCredentials bool
	CORSMaxAge           int // seconds

	RateLimitRequests int
	RateLimitWindow   time.Duration
	RateLimitDisabled bool
	RateLimitKeyFunc  httprate.KeyFunc
}

// DefaultChiMiddlewareConfig returns the defaults. CORS origins are empty
// and must be configured explicitly.
func DefaultChiMiddlewareConfig() *ChiMiddlewareConfig {
	return &ChiMiddlewareConfig{
		CORSAllowedOrigins: []string{},
		CORSAllowedMethods: []string{"GET", "HEAD", "POST", "OPTIONS"},
		// Range is needed by browser video players on another origin.
		CORSAllowedHeaders: []string{"Content-Type", "Authorization", "Range", "X-Request-ID"},
		CORSExposedHeaders: []string{"Content-Range", "Accept-Ranges", "Content-Length", "X-Request-ID"},
		CORSMaxAge:         86400,

		RateLimitRequests: 100,
		RateLimitWindow:   time.Minute,
	}
}

// ChiMiddlewareConfigFromSecurity applies the security section to the defaults.
func ChiMiddlewareConfigFromSecurity(cfg *config.SecurityConfig) *ChiMiddlewareConfig {
	c := DefaultChiMiddlewareConfig()
	c.CORSAllowedOrigins = cfg.CORSOrigins
	c.RateLimitRequests = cfg.RateLimitReqs
	c.RateLimitWindow = cfg.RateLimitWindow
	c.RateLimitDisabled = cfg.RateLimitDisabled
	return c
}

// ChiMiddleware provides Chi-compatible middleware factories.
type ChiMiddleware struct {
	config *ChiMiddlewareConfig
	cors   func(http.Handler) http.Handler
}

// NewChiMiddleware creates a new Chi middleware factory with the given configuration.
func NewChiMiddleware(config *ChiMiddlewareConfig) *ChiMiddleware {
	if config == nil {
		config = DefaultChiMiddlewareConfig()
	}

	corsHandler := cors.Handler(cors.Options{
		AllowedOrigins:   config.CORSAllowedOrigins,
		AllowedMethods:   config.CORSAllowedMethods,
		AllowedHeaders:   config.CORSAllowedHeaders,
		ExposedHeaders:   config.CORSExposedHeaders,
		AllowCredentials: config.CORSAllowCredentials,
		MaxAge:           config.CORSMaxAge,
	})

	return &ChiMiddleware{
		config: config,
		cors:   corsHandler,
	}
}

// CORS returns the go-chi/cors handler.
func (m *ChiMiddleware) CORS() func(http.Handler) http.Handler {
	return m.cors
}

// RateLimit returns a per-client rate limiter using go-chi/httprate, or
// a no-op when rate limiting is disabled. Each call creates an independent
// limiter, so route groups do not share budgets.
func (m *ChiMiddleware) RateLimit() func(http.Handler) http.Handler {
	if m.config.RateLimitDisabled {
		return func(next http.Handler) http.Handler {
			return next
		}
	}

	keyFunc := m.config.RateLimitKeyFunc
	if keyFunc == nil {
		keyFunc = httprate.KeyByIP
	}

	return httprate.Limit(
		m.config.RateLimitRequests,
		m.config.RateLimitWindow,
		httprate.WithKeyFuncs(keyFunc),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			WriteError(w, r, http.StatusTooManyRequests, ErrCodeTooManyRequests, "Rate limit exceeded")
		}),
	)
}

// APISecurityHeaders adds the headers every JSON API response carries.
func APISecurityHeaders() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

			if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
				w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
			}

			next.ServeHTTP(w, r)
		})
	}
}
