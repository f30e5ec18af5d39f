// Reelhouse - Streaming Platform Delivery and Billing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelhouse

package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/tomtom215/reelhouse/internal/config"
)

const testSecret = "this_is_a_very_long_secret_key_for_testing_purposes_12345"

func newTestManager(t *testing.T) *JWTManager {
	t.Helper()
	m, err := NewJWTManager(&config.SecurityConfig{JWTSecret: testSecret, JWTIssuer: "reelhouse"})
	if err != nil {
		t.Fatalf("NewJWTManager() error = %v", err)
	}
	return m
}

func TestNewJWTManager(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *config.SecurityConfig
		wantErr bool
	}{
		{"valid secret", &config.SecurityConfig{JWTSecret: testSecret}, false},
		{"empty secret", &config.SecurityConfig{JWTSecret: ""}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			manager, err := NewJWTManager(tt.cfg)
			if tt.wantErr {
				if err == nil {
					t.Error("NewJWTManager() expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("NewJWTManager() unexpected error = %v", err)
			}
			if manager == nil {
				t.Error("NewJWTManager() returned nil manager")
			}
		})
	}
}

func TestGenerateAndValidateToken(t *testing.T) {
	manager := newTestManager(t)

	for _, role := range []string{RoleBillingAdmin, RoleSupport, RoleViewer} {
		t.Run(role, func(t *testing.T) {
			token, err := manager.GenerateToken("dunning-worker", role, time.Hour)
			if err != nil {
				t.Fatalf("GenerateToken() error = %v", err)
			}

			claims, err := manager.ValidateToken(token)
			if err != nil {
				t.Fatalf("ValidateToken() error = %v", err)
			}
			if claims.Subject != "dunning-worker" {
				t.Errorf("Subject = %q, want dunning-worker", claims.Subject)
			}
			if claims.Role != role {
				t.Errorf("Role = %q, want %q", claims.Role, role)
			}
			if claims.Issuer != "reelhouse" {
				t.Errorf("Issuer = %q, want reelhouse", claims.Issuer)
			}
		})
	}
}

func TestGenerateToken_Rejects(t *testing.T) {
	manager := newTestManager(t)

	if _, err := manager.GenerateToken("", RoleViewer, 0); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("empty subject: err = %v, want ErrInvalidToken", err)
	}
	if _, err := manager.GenerateToken("svc", "admin", 0); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("unknown role: err = %v, want ErrInvalidToken", err)
	}
}

func TestValidateToken_Invalid(t *testing.T) {
	manager := newTestManager(t)

	expiredManager := newTestManager(t)
	expiredManager.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expired, err := expiredManager.GenerateToken("svc", RoleViewer, time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	otherSecret, err := NewJWTManager(&config.SecurityConfig{
		JWTSecret: "a_completely_different_secret_of_sufficient_length",
		JWTIssuer: "reelhouse",
	})
	if err != nil {
		t.Fatalf("NewJWTManager() error = %v", err)
	}
	forged, err := otherSecret.GenerateToken("svc", RoleBillingAdmin, time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	otherIssuer, err := NewJWTManager(&config.SecurityConfig{JWTSecret: testSecret, JWTIssuer: "someone-else"})
	if err != nil {
		t.Fatalf("NewJWTManager() error = %v", err)
	}
	wrongIssuer, err := otherIssuer.GenerateToken("svc", RoleViewer, time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	noneToken, err := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{
		Role:             RoleBillingAdmin,
		RegisteredClaims: jwt.RegisteredClaims{Subject: "svc", Issuer: "reelhouse"},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("SignedString(none) error = %v", err)
	}

	unknownRole, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		Role: "root",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "svc",
			Issuer:    "reelhouse",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("SignedString() error = %v", err)
	}

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not.a.token"},
		{"expired", expired},
		{"wrong secret", forged},
		{"wrong issuer", wrongIssuer},
		{"alg none", noneToken},
		{"unknown role", unknownRole},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := manager.ValidateToken(tt.token); !errors.Is(err, ErrInvalidToken) {
				t.Errorf("ValidateToken() err = %v, want ErrInvalidToken", err)
			}
		})
	}
}
