// Reelhouse - Streaming Platform Delivery and Billing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelhouse

/*
Package services adapts Reelhouse components to suture.Service.

Each wrapper turns a component's own lifecycle into suture's
Serve(ctx) error contract and implements fmt.Stringer so supervisor
events name the service:

  - HTTPServerService: ListenAndServe / Shutdown of *http.Server
  - StartStopService: Start(ctx) / Stop() components such as
    billing.Processor
  - MaintenanceService: a function run on a fixed interval, used for
    badger value log GC and DuckDB checkpoints
*/
package services
