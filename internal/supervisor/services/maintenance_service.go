// Reelhouse - Streaming Platform Delivery and Billing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelhouse

package services

import (
	"context"
	"time"

	"github.com/tomtom215/reelhouse/internal/logging"
)

// MaintenanceService calls task every interval until canceled. Task
// errors are logged and do not stop the service.
type MaintenanceService struct {
	name     string
	interval time.Duration
	task     func(ctx context.Context) error
}

// NewMaintenanceService creates a periodic task service. A non-positive
// interval defaults to five minutes.
func NewMaintenanceService(name string, interval time.Duration, task func(ctx context.Context) error) *MaintenanceService {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &MaintenanceService{name: name, interval: interval, task: task}
}

// Serve implements suture.Service.
func (m *MaintenanceService) Serve(ctx context.Context) error {
	logger := logging.WithComponent(m.name)
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			start := time.Now()
			if err := m.task(ctx); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				logger.Warn().Err(err).Msg("Maintenance task failed")
				continue
			}
			logger.Debug().Dur("duration", time.Since(start)).Msg("Maintenance task complete")
		}
	}
}

func (m *MaintenanceService) String() string {
	return m.name
}
