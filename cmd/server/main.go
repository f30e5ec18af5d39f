// Reelhouse - Streaming Platform Delivery and Billing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelhouse

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/tomtom215/reelhouse/docs" // registers the swagger spec
	"github.com/tomtom215/reelhouse/internal/api"
	"github.com/tomtom215/reelhouse/internal/audit"
	"github.com/tomtom215/reelhouse/internal/auth"
	"github.com/tomtom215/reelhouse/internal/authz"
	"github.com/tomtom215/reelhouse/internal/billing"
	"github.com/tomtom215/reelhouse/internal/config"
	"github.com/tomtom215/reelhouse/internal/database"
	"github.com/tomtom215/reelhouse/internal/events"
	"github.com/tomtom215/reelhouse/internal/logging"
	"github.com/tomtom215/reelhouse/internal/streaming"
	"github.com/tomtom215/reelhouse/internal/supervisor"
	"github.com/tomtom215/reelhouse/internal/supervisor/services"
	ws "github.com/tomtom215/reelhouse/internal/websocket"
)

//nolint:gocyclo // sequential startup
func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logCfg := logging.DefaultConfig()
	logCfg.Level = cfg.Logging.Level
	logCfg.Format = cfg.Logging.Format
	logCfg.Caller = cfg.Logging.Caller
	logging.Init(logCfg)

	logging.Info().
		Str("environment", cfg.Server.Environment).
		Str("db_path", cfg.Database.Path).
		Str("media_root", cfg.Media.Root).
		Str("auth_mode", cfg.Security.AuthMode).
		Msg("Starting Reelhouse")

	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()

	// Streaming: catalog rows in DuckDB, files under the media root.
	resolver, err := streaming.NewCatalogResolver(db, cfg.Media.Root)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize video resolver")
	}
	var streamOpts []streaming.Option
	if cfg.Media.ChunkSize > 0 {
		streamOpts = append(streamOpts, streaming.WithChunkSize(cfg.Media.ChunkSize))
	}
	if cfg.Media.ContentType != "" {
		streamOpts = append(streamOpts, streaming.WithContentType(cfg.Media.ContentType))
	}
	responder := streaming.NewResponder(resolver, streaming.FileOpener{}, streamOpts...)

	// Billing
	gw, err := newPaymentGateway(cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize payment gateway")
	}
	defer gw.Close()

	bus, err := newEventBus(&cfg.Events)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize event bus")
	}
	defer bus.Close()

	schedule := billing.DefaultSchedule()
	scheduler := billing.NewScheduler(db, gw.charger, bus.publisher, billing.SystemClock{}, schedule)

	var (
		hub  *ws.Hub
		feed *ws.EventFeed
	)
	if bus.feed != nil {
		hub = ws.NewHub()
		feed = ws.NewEventFeed(hub, bus.feed, events.Topics(cfg.Events.SubjectPrefix, schedule.ActionNames()))
	}
	processor := billing.NewProcessor(scheduler, db, billing.ProcessorConfig{
		Schedule:   cfg.Billing.DunningSchedule,
		BatchSize:  cfg.Billing.BatchSize,
		RunTimeout: cfg.Billing.RunTimeout,
	})
	planChanges := billing.NewPlanChangeService(db, billing.SystemClock{})

	// Audit trail, stored next to the billing tables. Closed after the
	// supervisor tree so in-flight requests can still record.
	var auditLog *audit.Logger
	if cfg.Audit.Enabled {
		auditStore := audit.NewDuckDBStore(db.Conn())
		if err := auditStore.CreateTable(context.Background()); err != nil {
			logging.Fatal().Err(err).Msg("Failed to initialize audit store")
		}
		auditLog = audit.NewLogger(auditStore, &audit.Config{
			Enabled:       true,
			RetentionDays: cfg.Audit.RetentionDays,
			BufferSize:    cfg.Audit.BufferSize,
		})
		defer auditLog.Close()
	}

	// Auth
	var jwtManager *auth.JWTManager
	if cfg.Security.AuthMode != "none" {
		jwtManager, err = auth.NewJWTManager(&cfg.Security)
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to initialize JWT manager")
		}
	}
	enforcerCfg := authz.DefaultEnforcerConfig()
	enforcerCfg.PolicyPath = cfg.Security.PolicyPath
	enforcer, err := authz.NewEnforcer(enforcerCfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize authorization")
	}
	defer enforcer.Close()

	deps := api.HandlerDeps{
		Dunning:         scheduler,
		Attempts:        db,
		PlanChanges:     planChanges,
		DB:              db,
		DefaultCurrency: cfg.Billing.Currency,
	}
	if auditLog != nil {
		deps.Audit = auditLog
	}
	if hub != nil {
		deps.LiveFeed = hub
		deps.AllowedOrigins = cfg.Security.CORSOrigins
	}
	handler := api.NewHandler(deps)
	router := api.NewRouter(
		handler,
		responder,
		auth.NewMiddleware(jwtManager, cfg.Security.AuthMode),
		authz.NewMiddleware(enforcer),
		api.NewChiMiddleware(api.ChiMiddlewareConfigFromSecurity(&cfg.Security)),
	)

	// No WriteTimeout: long video responses are bounded by the client
	// disconnecting, which cancels the request context.
	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router.SetupChi(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.ReadTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))
	if cfg.Billing.DunningEnabled {
		tree.AddBillingService(services.NewStartStopService("dunning-processor", processor))
		logging.Info().Str("schedule", cfg.Billing.DunningSchedule).Msg("Dunning processor added to supervisor tree")
	}
	if hub != nil {
		tree.AddBillingService(hub)
		tree.AddBillingService(feed)
	}
	if gw.badger != nil {
		tree.AddDataService(services.NewMaintenanceService("ledger-gc", cfg.Idempotency.GCInterval, func(context.Context) error {
			return gw.badger.RunGC()
		}))
	}
	tree.AddDataService(services.NewMaintenanceService("duckdb-checkpoint", 15*time.Minute, db.Checkpoint))
	if auditLog != nil {
		tree.AddDataService(services.NewMaintenanceService("audit-retention", cfg.Audit.CleanupInterval, auditLog.Cleanup))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Str("addr", server.Addr).Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	if unstopped, _ := tree.UnstoppedServiceReport(); len(unstopped) > 0 {
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	logging.Info().Msg("Reelhouse stopped")
}
