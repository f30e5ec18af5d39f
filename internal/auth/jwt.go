// Reelhouse - Streaming Platform Delivery and Billing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelhouse

package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/tomtom215/reelhouse/internal/config"
)

// Roles known to the authorization policy.
const (
	RoleBillingAdmin = "billing_admin"
	RoleSupport      = "support"
	RoleViewer       = "viewer"
)

// DefaultTokenTTL is used when GenerateToken is given a zero ttl.
const DefaultTokenTTL = time.Hour

var (
	ErrMissingToken = errors.New("missing bearer token")
	ErrInvalidToken = errors.New("invalid token")
)

var knownRoles = map[string]bool{
	RoleBillingAdmin: true,
	RoleSupport:      true,
	RoleViewer:       true,
}

// IsKnownRole reports whether role appears in the policy.
func IsKnownRole(role string) bool {
	return knownRoles[role]
}

// Claims represents JWT claims. The caller identity is the registered
// subject claim.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// JWTManager handles JWT token creation and validation
type JWTManager struct {
	secret []byte
	issuer string
	now    func() time.Time
}

// NewJWTManager creates a token manager from the security configuration.
// The secret must be non-empty; config validation enforces its length.
func NewJWTManager(cfg *config.SecurityConfig) (*JWTManager, error) {
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required but was empty")
	}
	return &JWTManager{
		secret: []byte(cfg.JWTSecret),
		issuer: cfg.JWTIssuer,
		now:    time.Now,
	}, nil
}

// GenerateToken signs a token for subject with role, valid for ttl.
//
//	token, err := jwtManager.GenerateToken("dunning-worker", auth.RoleSupport, 0)
func (m *JWTManager) GenerateToken(subject, role string, ttl time.Duration) (string, error) {
	if subject == "" {
		return "", fmt.Errorf("%w: subject is required", ErrInvalidToken)
	}
	if !IsKnownRole(role) {
		return "", fmt.Errorf("%w: unknown role %q", ErrInvalidToken, role)
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}

	now := m.now()
	claims := &Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    m.issuer,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken parses tokenString and returns its claims. Tokens signed
// with anything but HMAC, from another issuer, or without a known role
// are rejected with ErrInvalidToken.
func (m *JWTManager) ValidateToken(tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
	}
	if m.issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("%w: invalid token claims", ErrInvalidToken)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	if !IsKnownRole(claims.Role) {
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidToken, claims.Role)
	}
	return claims, nil
}
