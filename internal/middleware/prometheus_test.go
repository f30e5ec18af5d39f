// Reelhouse - Streaming Platform Delivery and Billing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelhouse

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tomtom215/reelhouse/internal/metrics"
)

func TestPrometheusMetrics_RoutePatternLabel(t *testing.T) {
	r := chi.NewRouter()
	r.Use(PrometheusMetrics)
	r.Get("/stream/{videoId}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusPartialContent)
	})
	r.Post("/api/v1/billing/dunning/attempts/{attemptId}/process", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	streamCounter := metrics.APIRequestsTotal.WithLabelValues(http.MethodGet, "/stream/{videoId}", "206")
	processCounter := metrics.APIRequestsTotal.WithLabelValues(http.MethodPost, "/api/v1/billing/dunning/attempts/{attemptId}/process", "200")
	streamBefore := testutil.ToFloat64(streamCounter)
	processBefore := testutil.ToFloat64(processCounter)

	for _, id := range []string{"a", "b", "c"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stream/"+id, nil))
		if rec.Code != http.StatusPartialContent {
			t.Fatalf("status = %d, want 206", rec.Code)
		}
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/billing/dunning/attempts/x/process", nil))

	if got := testutil.ToFloat64(streamCounter) - streamBefore; got != 3 {
		t.Errorf("stream requests recorded = %v, want 3", got)
	}
	if got := testutil.ToFloat64(processCounter) - processBefore; got != 1 {
		t.Errorf("process requests recorded = %v, want 1 (implicit 200)", got)
	}
}

func TestPrometheusMetrics_Unmatched(t *testing.T) {
	r := chi.NewRouter()
	r.Use(PrometheusMetrics)
	r.Get("/known", func(w http.ResponseWriter, _ *http.Request) {})

	counter := metrics.APIRequestsTotal.WithLabelValues(http.MethodGet, unmatchedRoute, "404")
	before := testutil.ToFloat64(counter)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/no/such/path", nil))

	if got := testutil.ToFloat64(counter) - before; got != 1 {
		t.Errorf("unmatched requests recorded = %v, want 1", got)
	}
}

func TestPrometheusMetrics_ActiveGaugeReturnsToBaseline(t *testing.T) {
	before := testutil.ToFloat64(metrics.APIActiveRequests)

	var during float64
	h := PrometheusMetrics(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		during = testutil.ToFloat64(metrics.APIActiveRequests)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if during != before+1 {
		t.Errorf("in-flight gauge during request = %v, want %v", during, before+1)
	}
	if after := testutil.ToFloat64(metrics.APIActiveRequests); after != before {
		t.Errorf("in-flight gauge after request = %v, want %v", after, before)
	}
}
