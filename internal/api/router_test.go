// Reelhouse - Streaming Platform Delivery and Billing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelhouse

package api

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/goccy/go-json"

	_ "github.com/tomtom215/reelhouse/docs"
)

func TestStreamRoute(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name         string
		method       string
		path         string
		rangeHeader  string
		wantStatus   int
		wantRange    string
		wantLength   int64
		wantBodyFrom int64
	}{
		{"full file", http.MethodGet, "/stream/v1", "", http.StatusOK, "", testVideoSize, 0},
		{"open range", http.MethodGet, "/stream/v1", "bytes=20-", http.StatusPartialContent, "bytes 20-4095/4096", 4076, 20},
		{"closed range", http.MethodGet, "/stream/v1", "bytes=100-199", http.StatusPartialContent, "bytes 100-199/4096", 100, 100},
		{"suffix range", http.MethodGet, "/stream/v1", "bytes=-96", http.StatusPartialContent, "bytes 4000-4095/4096", 96, 4000},
		{"end clamped", http.MethodGet, "/stream/v1", "bytes=4000-9999", http.StatusPartialContent, "bytes 4000-4095/4096", 96, 4000},
		{"start past end", http.MethodGet, "/stream/v1", "bytes=4096-", http.StatusRequestedRangeNotSatisfiable, "bytes */4096", -1, -1},
		{"unknown video", http.MethodGet, "/stream/nope", "", http.StatusNotFound, "", -1, -1},
		{"unknown video ranged", http.MethodGet, "/stream/nope", "bytes=0-1", http.StatusNotFound, "", -1, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.rangeHeader != "" {
				req.Header.Set("Range", tt.rangeHeader)
			}
			rec := httptest.NewRecorder()
			env.server.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d; body=%s", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if got := rec.Header().Get("Content-Range"); got != tt.wantRange {
				t.Errorf("Content-Range = %q, want %q", got, tt.wantRange)
			}
			if tt.wantLength < 0 {
				return
			}
			if got := rec.Header().Get("Content-Length"); got != strconv.FormatInt(tt.wantLength, 10) {
				t.Errorf("Content-Length = %q, want %d", got, tt.wantLength)
			}
			if got := rec.Header().Get("Content-Type"); got != "video/mp4" {
				t.Errorf("Content-Type = %q, want video/mp4", got)
			}
			want := env.video[tt.wantBodyFrom : tt.wantBodyFrom+tt.wantLength]
			if !bytes.Equal(rec.Body.Bytes(), want) {
				t.Errorf("body differs from file window starting at %d", tt.wantBodyFrom)
			}
		})
	}
}

func TestStreamRoute_NotFoundBody(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/stream/missing", "", nil)
	var body struct {
		Message    string `json:"message"`
		Error      string `json:"error"`
		StatusCode int    `json:"statusCode"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.StatusCode != http.StatusNotFound || body.Error != "Not Found" || body.Message == "" {
		t.Errorf("body = %+v", body)
	}
}

func TestStreamRoute_Head(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodHead, "/stream/v1", nil)
	req.Header.Set("Range", "bytes=0-9")
	rec := httptest.NewRecorder()
	env.server.ServeHTTP(rec, req)

	if rec.Code != http.StatusPartialContent {
		t.Fatalf("status = %d, want 206", rec.Code)
	}
	if got := rec.Header().Get("Content-Length"); got != "10" {
		t.Errorf("Content-Length = %q, want 10", got)
	}
	if rec.Body.Len() != 0 {
		t.Errorf("HEAD wrote %d body bytes", rec.Body.Len())
	}
}

func TestRouter_NotFoundAndMethodNotAllowed(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/v1/nothing-here", "", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
	resp := decodeEnvelope(t, rec, nil)
	if resp.Error == nil || resp.Error.Code != ErrCodeNotFound {
		t.Errorf("error = %+v, want NOT_FOUND", resp.Error)
	}

	rec = env.do(t, http.MethodDelete, "/stream/v1", "", nil)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("DELETE /stream status = %d, want 405", rec.Code)
	}
}

func TestRouter_RequestIDPropagates(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health/live", nil)
	req.Header.Set("X-Request-ID", "req-abc-123")
	rec := httptest.NewRecorder()
	env.server.ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Request-ID"); got != "req-abc-123" {
		t.Errorf("X-Request-ID = %q, want req-abc-123", got)
	}
	resp := decodeEnvelope(t, rec, nil)
	if resp.Meta == nil || resp.Meta.RequestID != "req-abc-123" {
		t.Errorf("meta = %+v, want request id echoed", resp.Meta)
	}
}

func TestRouter_CORSPreflight(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodOptions, "/stream/v1", nil)
	req.Header.Set("Origin", "https://player.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	req.Header.Set("Access-Control-Request-Headers", "Range")
	rec := httptest.NewRecorder()
	env.server.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://player.example.com" {
		t.Errorf("Allow-Origin = %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/stream/v1", nil)
	req.Header.Set("Origin", "https://player.example.com")
	rec = httptest.NewRecorder()
	env.server.ServeHTTP(rec, req)

	exposed := rec.Header().Get("Access-Control-Expose-Headers")
	for _, h := range []string{"Content-Range", "Accept-Ranges"} {
		if !strings.Contains(exposed, h) {
			t.Errorf("Expose-Headers %q missing %s", exposed, h)
		}
	}
}

func TestRouter_Metrics(t *testing.T) {
	env := newTestEnv(t)

	env.do(t, http.MethodGet, "/api/v1/health/live", "", nil)
	rec := env.do(t, http.MethodGet, "/metrics", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "reelhouse_api_requests_total") {
		t.Error("metrics output missing reelhouse_api_requests_total")
	}
}

func TestRouter_SwaggerDoc(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/swagger/doc.json", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var doc struct {
		Swagger string                     `json:"swagger"`
		Paths   map[string]json.RawMessage `json:"paths"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &doc); err != nil {
		t.Fatalf("doc.json is not valid JSON: %v", err)
	}
	for _, path := range []string{"/stream/{videoId}", "/api/v1/billing/dunning/attempts/{attemptId}/process", "/api/v1/billing/proration"} {
		if _, ok := doc.Paths[path]; !ok {
			t.Errorf("doc.json missing path %s", path)
		}
	}
}

func TestHealth(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		ping       pingFunc
		wantStatus int
		wantState  string
	}{
		{"healthy", func(context.Context) error { return nil }, http.StatusOK, "healthy"},
		{"degraded", func(context.Context) error { return errPingFailed }, http.StatusServiceUnavailable, "degraded"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			h := NewHandler(HandlerDeps{DB: tt.ping})

			rec := httptest.NewRecorder()
			h.Health(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			var status HealthStatus
			resp := decodeEnvelope(t, rec, &status)
			if status.Status != tt.wantState {
				t.Errorf("status = %q, want %q", status.Status, tt.wantState)
			}
			if resp.Success != (tt.wantStatus == http.StatusOK) {
				t.Errorf("success = %v", resp.Success)
			}
		})
	}
}
