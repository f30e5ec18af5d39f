// Reelhouse - Streaming Platform Delivery and Billing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelhouse

/*
Package supervisor runs the long-lived Reelhouse services under a suture v4
supervisor tree.

The tree has three layers so a failing background job cannot take down
video delivery:

	RootSupervisor ("reelhouse")
	├── DataSupervisor ("data-layer")
	│   ├── MaintenanceService "ledger-gc" (badger idempotency ledger)
	│   └── MaintenanceService "duckdb-checkpoint"
	├── BillingSupervisor ("billing-layer")
	│   └── StartStopService "dunning-processor"
	└── APISupervisor ("api-layer")
	    └── HTTPServerService

Crashed services are restarted with suture's backoff. Supervisor events
are logged through sutureslog on the zerolog-backed slog handler.

# Usage

	tree, err := supervisor.NewSupervisorTree(slog.New(logging.NewSlogHandler()), supervisor.TreeConfig{
	    ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	tree.AddAPIService(services.NewHTTPServerService(srv, cfg.Server.ShutdownTimeout))
	tree.AddBillingService(services.NewStartStopService("dunning-processor", processor))
	err = tree.Serve(ctx)

Implementations of the services live in the services subpackage.
*/
package supervisor
