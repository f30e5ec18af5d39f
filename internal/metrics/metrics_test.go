// Reelhouse - Streaming Platform Delivery and Billing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelhouse

package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	io_prometheus_client "github.com/prometheus/client_model/go"
)

// histogramCount returns how many observations a histogram has recorded.
func histogramCount(t *testing.T, h prometheus.Histogram) uint64 {
	t.Helper()
	var m io_prometheus_client.Metric
	if err := h.Write(&m); err != nil {
		t.Fatalf("failed to write metric: %v", err)
	}
	return m.GetHistogram().GetSampleCount()
}

func TestRecordAPIRequest(t *testing.T) {
	before := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", "/stream/{videoId}", "206"))
	RecordAPIRequest("GET", "/stream/{videoId}", 206, 15*time.Millisecond)
	after := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", "/stream/{videoId}", "206"))
	if after-before != 1 {
		t.Errorf("expected counter to increase by 1, got %v", after-before)
	}
}

func TestRecordStream(t *testing.T) {
	bytesBefore := testutil.ToFloat64(StreamBytesServed)
	abortedBefore := testutil.ToFloat64(StreamAborted)

	RecordStream(206, 1024, false)
	RecordStream(206, 10, true)
	RecordStream(404, 0, false)

	if got := testutil.ToFloat64(StreamBytesServed) - bytesBefore; got != 1034 {
		t.Errorf("bytes served delta = %v, want 1034", got)
	}
	if got := testutil.ToFloat64(StreamAborted) - abortedBefore; got != 1 {
		t.Errorf("aborted delta = %v, want 1", got)
	}
}

func TestRecordEventPublished(t *testing.T) {
	okBefore := testutil.ToFloat64(EventsPublished.WithLabelValues("attempt.failed", "success"))
	errBefore := testutil.ToFloat64(EventsPublished.WithLabelValues("attempt.failed", "error"))

	RecordEventPublished("attempt.failed", nil)
	RecordEventPublished("attempt.failed", errors.New("closed"))

	if testutil.ToFloat64(EventsPublished.WithLabelValues("attempt.failed", "success"))-okBefore != 1 {
		t.Error("expected one successful publish")
	}
	if testutil.ToFloat64(EventsPublished.WithLabelValues("attempt.failed", "error"))-errBefore != 1 {
		t.Error("expected one failed publish")
	}
}

func TestTrackActiveRequest(t *testing.T) {
	before := testutil.ToFloat64(APIActiveRequests)
	TrackActiveRequest(true)
	if testutil.ToFloat64(APIActiveRequests) != before+1 {
		t.Error("gauge should increase on start")
	}
	TrackActiveRequest(false)
	if testutil.ToFloat64(APIActiveRequests) != before {
		t.Error("gauge should return to previous value")
	}
}

func TestRecordDunningRun(t *testing.T) {
	before := histogramCount(t, DunningRunDuration)
	RecordDunningRun(250 * time.Millisecond)
	if got := histogramCount(t, DunningRunDuration) - before; got != 1 {
		t.Errorf("sample count delta = %d, want 1", got)
	}
}

func TestRecordGatewayRequest_ObservesLatency(t *testing.T) {
	before := histogramCount(t, GatewayLatency)
	okBefore := testutil.ToFloat64(GatewayRequests.WithLabelValues("success"))

	RecordGatewayRequest("success", 40*time.Millisecond)

	if got := histogramCount(t, GatewayLatency) - before; got != 1 {
		t.Errorf("latency sample count delta = %d, want 1", got)
	}
	if testutil.ToFloat64(GatewayRequests.WithLabelValues("success"))-okBefore != 1 {
		t.Error("expected one successful gateway request")
	}
}
