// Reelhouse - Streaming Platform Delivery and Billing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelhouse

// Package websocket streams dunning events to connected operator
// dashboards.
//
// A Hub tracks clients and fans each message out to all of them. An
// EventFeed subscribes to the dunning topics on the event broker and feeds
// the hub. Both implement suture.Service and run in the billing layer of
// the supervisor tree.
//
// Messages are JSON objects with a type and a data field:
//
//	{"type":"dunning_event","data":{"event_id":"...","type":"attempt.failed",...}}
//
// Clients may send {"type":"ping"} and receive {"type":"pong"}. Anything
// else a client sends is ignored. Slow clients whose send buffer fills up
// are disconnected rather than allowed to hold back the others.
package websocket
