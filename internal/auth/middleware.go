// Reelhouse - Streaming Platform Delivery and Billing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelhouse

package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/tomtom215/reelhouse/internal/logging"
)

type contextKey string

// ClaimsContextKey holds the *Claims of an authenticated request.
const ClaimsContextKey contextKey = "claims"

// AnonymousSubject is the subject given to requests when auth is disabled.
const AnonymousSubject = "anonymous"

// Middleware authenticates requests with a bearer token.
type Middleware struct {
	jwtManager *JWTManager
	authMode   string
}

// NewMiddleware creates the middleware. jwtManager may be nil when
// authMode is "none".
func NewMiddleware(jwtManager *JWTManager, authMode string) *Middleware {
	return &Middleware{
		jwtManager: jwtManager,
		authMode:   authMode,
	}
}

// Authenticate rejects requests without a valid token and stores the
// claims of valid ones in the request context.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.authMode == "none" {
			claims := &Claims{Role: RoleBillingAdmin}
			claims.Subject = AnonymousSubject
			next.ServeHTTP(w, r.WithContext(ContextWithClaims(r.Context(), claims)))
			return
		}

		token, err := extractBearerToken(r)
		if err != nil {
			unauthorized(w, "Unauthorized: missing token")
			return
		}

		claims, err := m.jwtManager.ValidateToken(token)
		if err != nil {
			logging.Ctx(r.Context()).Warn().Err(err).Str("path", r.URL.Path).Msg("Token validation failed")
			unauthorized(w, "Unauthorized: invalid token")
			return
		}

		next.ServeHTTP(w, r.WithContext(ContextWithClaims(r.Context(), claims)))
	})
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="reelhouse"`)
	http.Error(w, message, http.StatusUnauthorized)
}

// extractBearerToken reads the token from "Authorization: Bearer <token>".
func extractBearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", ErrMissingToken
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", ErrMissingToken
	}
	return strings.TrimSpace(parts[1]), nil
}

// ContextWithClaims returns a context carrying claims.
func ContextWithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, ClaimsContextKey, claims)
}

// ClaimsFromContext returns nil for unauthenticated contexts.
func ClaimsFromContext(ctx context.Context) *Claims {
	claims, _ := ctx.Value(ClaimsContextKey).(*Claims)
	return claims
}
