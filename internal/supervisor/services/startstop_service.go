// Reelhouse - Streaming Platform Delivery and Billing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelhouse

package services

import (
	"context"
	"fmt"
)

// StartStopper is a component with its own goroutines, started once and
// stopped once. *billing.Processor satisfies it.
type StartStopper interface {
	Start(ctx context.Context) error
	Stop()
}

// StartStopService adapts a StartStopper to suture's Serve pattern:
// Start, wait for cancellation, then Stop.
type StartStopService struct {
	component StartStopper
	name      string
}

// NewStartStopService creates a wrapper named name.
func NewStartStopService(name string, component StartStopper) *StartStopService {
	return &StartStopService{component: component, name: name}
}

// Serve implements suture.Service. A failed Start is returned so suture
// restarts the service with backoff.
func (s *StartStopService) Serve(ctx context.Context) error {
	if err := s.component.Start(ctx); err != nil {
		return fmt.Errorf("%s start failed: %w", s.name, err)
	}

	<-ctx.Done()

	// Stop blocks until in-flight work finishes.
	s.component.Stop()
	return ctx.Err()
}

func (s *StartStopService) String() string {
	return s.name
}
