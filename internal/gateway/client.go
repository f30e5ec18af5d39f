// Reelhouse - Streaming Platform Delivery and Billing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelhouse

package gateway

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/tomtom215/reelhouse/internal/config"
	"github.com/tomtom215/reelhouse/internal/metrics"
)

const chargePath = "/v1/charges"

// chargeBody is the wire format of POST /v1/charges.
type chargeBody struct {
	Amount      string            `json:"amount"`
	Currency    string            `json:"currency"`
	CustomerRef string            `json:"customer_reference"`
	InvoiceRef  string            `json:"invoice_reference,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// chargeResponse is the gateway's reply for 200, 201 and 402.
type chargeResponse struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	DeclineCode string `json:"decline_code"`
	Message     string `json:"message"`
}

// Client talks to the payment gateway over HTTP.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
	limiter *rate.Limiter
	now     func() time.Time
}

// NewClient creates a gateway client. A zero RequestsPerSecond disables
// outbound throttling.
func NewClient(cfg *config.GatewayConfig) *Client {
	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.URL, "/"),
		apiKey:  cfg.APIKey,
		client:  &http.Client{Timeout: timeout},
		limiter: limiter,
		now:     time.Now,
	}
}

// Charge submits req. Declines come back as a result with Success=false
// and a nil error; transient problems return an ErrUnavailable-wrapping
// error.
func (c *Client) Charge(ctx context.Context, req *ChargeRequest) (*ChargeResult, error) {
	if c.baseURL == "" {
		return nil, ErrNotConfigured
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: rate limiter: %v", ErrUnavailable, err)
	}

	payload, err := json.Marshal(chargeBody{
		Amount:      req.Amount.StringFixed(2),
		Currency:    strings.ToUpper(req.Currency),
		CustomerRef: req.SubscriptionID,
		InvoiceRef:  req.InvoiceID,
		Metadata: map[string]string{
			"attempt_number": strconv.Itoa(req.AttemptNumber),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode charge: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+chargePath, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Idempotency-Key", req.IdempotencyKey)
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	start := time.Now()
	resp, err := c.client.Do(httpReq)
	if err != nil {
		metrics.RecordGatewayRequest("transport_error", time.Since(start))
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	result, err := c.decode(resp)
	outcome := "error"
	switch {
	case err == nil && result.Success:
		outcome = "succeeded"
	case err == nil:
		outcome = "declined"
	}
	metrics.RecordGatewayRequest(outcome, time.Since(start))
	return result, err
}

func (c *Client) decode(resp *http.Response) (*ChargeResult, error) {
	switch {
	case resp.StatusCode == http.StatusOK, resp.StatusCode == http.StatusCreated, resp.StatusCode == http.StatusPaymentRequired:
		var body chargeResponse
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			return nil, fmt.Errorf("%w: undecodable response: %v", ErrUnavailable, err)
		}
		return &ChargeResult{
			Success:       body.Status == "succeeded",
			TransactionID: body.ID,
			DeclineCode:   body.DeclineCode,
			Message:       body.Message,
			ProcessedAt:   c.now().UTC(),
		}, nil
	case resp.StatusCode == http.StatusConflict, resp.StatusCode == http.StatusTooManyRequests, resp.StatusCode >= 500:
		// 409 means a request with the same idempotency key is still in flight.
		return nil, fmt.Errorf("%w: status %d: %s", ErrUnavailable, resp.StatusCode, readBodyForError(resp.Body))
	default:
		return nil, fmt.Errorf("%w: status %d: %s", ErrRejected, resp.StatusCode, readBodyForError(resp.Body))
	}
}

// readBodyForError reads at most 512 bytes of an error body.
func readBodyForError(r io.Reader) string {
	b, _ := io.ReadAll(io.LimitReader(r, 512))
	return strings.TrimSpace(string(b))
}
