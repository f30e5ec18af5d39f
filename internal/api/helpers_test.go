// Reelhouse - Streaming Platform Delivery and Billing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelhouse

package api

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/reelhouse/internal/audit"
	"github.com/tomtom215/reelhouse/internal/auth"
	"github.com/tomtom215/reelhouse/internal/authz"
	"github.com/tomtom215/reelhouse/internal/billing"
	"github.com/tomtom215/reelhouse/internal/config"
	"github.com/tomtom215/reelhouse/internal/events"
	"github.com/tomtom215/reelhouse/internal/gateway"
	"github.com/tomtom215/reelhouse/internal/streaming"
	ws "github.com/tomtom215/reelhouse/internal/websocket"
)

const (
	testJWTSecret = "api_test_secret_that_is_long_enough_1234567890"
	testVideoSize = 4096
)

// scriptedCharger approves or declines every charge and counts calls.
type scriptedCharger struct {
	mu      sync.Mutex
	approve bool
	calls   int
}

func (c *scriptedCharger) Charge(_ context.Context, req *gateway.ChargeRequest) (*gateway.ChargeResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	if c.approve {
		return &gateway.ChargeResult{Success: true, TransactionID: "txn_" + req.IdempotencyKey}, nil
	}
	return &gateway.ChargeResult{Success: false, DeclineCode: "insufficient_funds", Message: "card declined"}, nil
}

func (c *scriptedCharger) setApprove(v bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.approve = v
}

func (c *scriptedCharger) callCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

// syncAudit writes events straight to a memory store.
type syncAudit struct {
	store *audit.MemoryStore
}

func (a *syncAudit) Record(ctx context.Context, eventType audit.EventType, outcome audit.Outcome, actor audit.Actor, target audit.Target, description string, metadata interface{}) {
	_ = a.store.Save(ctx, &audit.Event{
		ID:          target.ID + "/" + string(eventType),
		Timestamp:   time.Now().UTC(),
		Type:        eventType,
		Outcome:     outcome,
		Actor:       actor,
		Target:      target,
		Description: description,
	})
}

func (a *syncAudit) Query(ctx context.Context, filter audit.QueryFilter) ([]audit.Event, error) {
	return a.store.Query(ctx, filter)
}

type testEnv struct {
	server  http.Handler
	store   *billing.MemoryStore
	charger *scriptedCharger
	clock   *billing.FixedClock
	jwt     *auth.JWTManager
	audit   *audit.MemoryStore
	hub     *ws.Hub
	feed    *ws.EventFeed
	video   []byte
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store := billing.NewMemoryStore()
	clock := billing.NewFixedClock(time.Date(2021, 1, 2, 12, 0, 0, 0, time.UTC))
	charger := &scriptedCharger{}
	publisher, channel := events.NewMemoryPublisher("reelhouse", nil)
	t.Cleanup(func() { _ = publisher.Close() })
	scheduler := billing.NewScheduler(store, charger, publisher, clock, billing.DefaultSchedule())

	hub := ws.NewHub()
	feed := ws.NewEventFeed(hub, channel, events.Topics("reelhouse", billing.DefaultSchedule().ActionNames()))
	feedCtx, stopFeed := context.WithCancel(context.Background())
	go func() { _ = hub.Serve(feedCtx) }()
	go func() { _ = feed.Serve(feedCtx) }()
	t.Cleanup(stopFeed)
	plans := billing.NewPlanChangeService(store, clock)

	dir := t.TempDir()
	video := make([]byte, testVideoSize)
	for i := range video {
		video[i] = byte(i % 251)
	}
	if err := os.WriteFile(filepath.Join(dir, "movie.mp4"), video, 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	resolver, err := streaming.NewCatalogResolver(
		streaming.NewMemoryVideoStore(streaming.VideoRecord{ID: "v1", Path: "movie.mp4", SizeBytes: testVideoSize}),
		dir,
	)
	if err != nil {
		t.Fatalf("NewCatalogResolver() error = %v", err)
	}

	jwtManager, err := auth.NewJWTManager(&config.SecurityConfig{JWTSecret: testJWTSecret, JWTIssuer: "reelhouse"})
	if err != nil {
		t.Fatalf("NewJWTManager() error = %v", err)
	}
	enforcer, err := authz.NewEnforcer(&authz.EnforcerConfig{})
	if err != nil {
		t.Fatalf("NewEnforcer() error = %v", err)
	}
	t.Cleanup(enforcer.Close)

	mwCfg := DefaultChiMiddlewareConfig()
	mwCfg.CORSAllowedOrigins = []string{"https://player.example.com"}
	mwCfg.RateLimitDisabled = true

	auditStore := audit.NewMemoryStore(100)

	handler := NewHandler(HandlerDeps{
		Dunning:         scheduler,
		Attempts:        store,
		PlanChanges:     plans,
		DB:              pingFunc(func(context.Context) error { return nil }),
		Audit:           &syncAudit{store: auditStore},
		LiveFeed:        hub,
		DefaultCurrency: "USD",
		AllowedOrigins:  mwCfg.CORSAllowedOrigins,
	})
	router := NewRouter(
		handler,
		streaming.NewResponder(resolver, streaming.FileOpener{}),
		auth.NewMiddleware(jwtManager, "jwt"),
		authz.NewMiddleware(enforcer),
		NewChiMiddleware(mwCfg),
	)

	return &testEnv{
		server:  router.SetupChi(),
		store:   store,
		charger: charger,
		clock:   clock,
		jwt:     jwtManager,
		audit:   auditStore,
		hub:     hub,
		feed:    feed,
		video:   video,
	}
}

func (e *testEnv) token(t *testing.T, role string) string {
	t.Helper()
	tok, err := e.jwt.GenerateToken("tester", role, time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}
	return tok
}

// do sends a request as role. An empty role sends no token.
func (e *testEnv) do(t *testing.T, method, path, role string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("Marshal() error = %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if role != "" {
		req.Header.Set("Authorization", "Bearer "+e.token(t, role))
	}
	rec := httptest.NewRecorder()
	e.server.ServeHTTP(rec, req)
	return rec
}

// decodeEnvelope decodes an APIResponse and its data into data.
func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder, data interface{}) APIResponse {
	t.Helper()
	var raw struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
		Error   *APIError       `json:"error"`
		Meta    *APIMeta        `json:"meta"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &raw); err != nil {
		t.Fatalf("decode envelope: %v; body=%s", err, rec.Body.String())
	}
	if data != nil && len(raw.Data) > 0 {
		if err := json.Unmarshal(raw.Data, data); err != nil {
			t.Fatalf("decode data: %v; body=%s", err, rec.Body.String())
		}
	}
	return APIResponse{Success: raw.Success, Error: raw.Error, Meta: raw.Meta}
}

func scheduleBody() map[string]interface{} {
	return map[string]interface{}{
		"subscription_id": "sub_1",
		"amount_due":      "19.99",
		"first_failed_at": "2021-01-01T09:30:00Z",
	}
}

var errPingFailed = errors.New("database is down")
