// Reelhouse - Streaming Platform Delivery and Billing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelhouse

package gateway

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"

	"github.com/tomtom215/reelhouse/internal/config"
)

func testRequest() *ChargeRequest {
	return &ChargeRequest{
		IdempotencyKey: "att-1",
		SubscriptionID: "sub-1",
		InvoiceID:      "inv-1",
		Amount:         decimal.RequireFromString("19.99"),
		Currency:       "usd",
		AttemptNumber:  2,
	}
}

func newTestClient(url string) *Client {
	return NewClient(&config.GatewayConfig{URL: url, APIKey: "sk_test", Timeout: 2 * time.Second})
}

func TestClient_Charge_Succeeded(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != chargePath {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Idempotency-Key"); got != "att-1" {
			t.Errorf("Idempotency-Key = %q", got)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk_test" {
			t.Errorf("Authorization = %q", got)
		}
		var body chargeBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if body.Amount != "19.99" || body.Currency != "USD" || body.Metadata["attempt_number"] != "2" {
			t.Errorf("unexpected body: %+v", body)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"ch_123","status":"succeeded"}`))
	}))
	defer server.Close()

	result, err := newTestClient(server.URL).Charge(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("Charge() error = %v", err)
	}
	if !result.Success || result.TransactionID != "ch_123" {
		t.Errorf("unexpected result: %+v", result)
	}
	if result.Err() != nil {
		t.Errorf("Err() = %v, want nil", result.Err())
	}
}

func TestClient_Charge_Declined(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		_, _ = w.Write([]byte(`{"id":"ch_124","status":"declined","decline_code":"insufficient_funds","message":"Card has insufficient funds"}`))
	}))
	defer server.Close()

	result, err := newTestClient(server.URL).Charge(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("Charge() error = %v", err)
	}
	if result.Success {
		t.Fatal("expected declined result")
	}
	if !errors.Is(result.Err(), ErrDeclined) {
		t.Errorf("Err() = %v, want ErrDeclined", result.Err())
	}
}

func TestClient_Charge_ErrorClasses(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   error
	}{
		{"server error", http.StatusBadGateway, ErrUnavailable},
		{"rate limited", http.StatusTooManyRequests, ErrUnavailable},
		{"key in flight", http.StatusConflict, ErrUnavailable},
		{"bad request", http.StatusBadRequest, ErrRejected},
		{"unauthorized", http.StatusUnauthorized, ErrRejected},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "nope", tt.status)
			}))
			defer server.Close()

			_, err := newTestClient(server.URL).Charge(context.Background(), testRequest())
			if !errors.Is(err, tt.want) {
				t.Errorf("Charge() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestClient_Charge_Validation(t *testing.T) {
	c := newTestClient("http://127.0.0.1:1")
	req := testRequest()
	req.Amount = decimal.Zero
	if _, err := c.Charge(context.Background(), req); !errors.Is(err, ErrRejected) {
		t.Errorf("expected ErrRejected for zero amount, got %v", err)
	}

	unconfigured := NewClient(&config.GatewayConfig{})
	if _, err := unconfigured.Charge(context.Background(), testRequest()); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("expected ErrNotConfigured, got %v", err)
	}
}

func TestClient_Charge_TransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	if _, err := newTestClient(url).Charge(context.Background(), testRequest()); !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable, got %v", err)
	}
}

type stubCharger struct {
	calls  atomic.Int32
	result *ChargeResult
	err    error
}

func (s *stubCharger) Charge(context.Context, *ChargeRequest) (*ChargeResult, error) {
	s.calls.Add(1)
	return s.result, s.err
}

func TestCircuitBreakerClient_OpensOnUnavailable(t *testing.T) {
	stub := &stubCharger{err: ErrUnavailable}
	cb := NewCircuitBreakerClient(stub, &config.GatewayConfig{
		BreakerMaxRequests:      1,
		BreakerInterval:         time.Minute,
		BreakerTimeout:          time.Minute,
		BreakerFailureThreshold: 3,
	})

	for i := 0; i < 3; i++ {
		if _, err := cb.Charge(context.Background(), testRequest()); !errors.Is(err, ErrUnavailable) {
			t.Fatalf("call %d: expected ErrUnavailable, got %v", i, err)
		}
	}
	if cb.State() != "open" {
		t.Fatalf("State() = %q, want open", cb.State())
	}

	if _, err := cb.Charge(context.Background(), testRequest()); !errors.Is(err, ErrUnavailable) {
		t.Errorf("open circuit should surface ErrUnavailable, got %v", err)
	}
	if got := stub.calls.Load(); got != 3 {
		t.Errorf("open circuit should not call through, calls = %d", got)
	}
}

func TestCircuitBreakerClient_DeclinesDoNotTrip(t *testing.T) {
	stub := &stubCharger{result: &ChargeResult{Success: false, DeclineCode: "do_not_honor"}}
	cb := NewCircuitBreakerClient(stub, &config.GatewayConfig{BreakerFailureThreshold: 2})

	for i := 0; i < 5; i++ {
		if _, err := cb.Charge(context.Background(), testRequest()); err != nil {
			t.Fatalf("Charge() error = %v", err)
		}
	}
	if cb.State() != "closed" {
		t.Errorf("State() = %q, want closed", cb.State())
	}
}
