// Reelhouse - Streaming Platform Delivery and Billing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelhouse

package billing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/tomtom215/reelhouse/internal/logging"
	"github.com/tomtom215/reelhouse/internal/metrics"
)

// ProcessorConfig controls the scheduled dunning run.
type ProcessorConfig struct {
	// Schedule is a cron spec, e.g. "@every 5m" or "*/10 * * * *".
	Schedule string

	// BatchSize caps the attempts processed per run.
	BatchSize int

	// RunTimeout bounds one run. Zero means no limit.
	RunTimeout time.Duration
}

// RunSummary counts the outcomes of one RunDue call.
type RunSummary struct {
	Due       int `json:"due"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
	Skipped   int `json:"skipped"`
	Errors    int `json:"errors"`
}

// Processor is the external trigger that settles due dunning attempts.
type Processor struct {
	scheduler *Scheduler
	store     AttemptStore
	config    ProcessorConfig
	logger    zerolog.Logger

	mu   sync.Mutex
	cron *cron.Cron
}

// NewProcessor creates a Processor for scheduler's attempts.
func NewProcessor(scheduler *Scheduler, store AttemptStore, cfg ProcessorConfig) *Processor {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.Schedule == "" {
		cfg.Schedule = "@every 5m"
	}
	return &Processor{
		scheduler: scheduler,
		store:     store,
		config:    cfg,
		logger:    logging.WithComponent("dunning-processor"),
	}
}

// RunDue processes every pending attempt due at or before the current
// time, up to the batch size. Each attempt is processed once per run;
// errors on one attempt are logged and the run continues. Only a failure
// to list due attempts is returned.
func (p *Processor) RunDue(ctx context.Context) (RunSummary, error) {
	start := time.Now()
	defer func() { metrics.RecordDunningRun(time.Since(start)) }()

	if p.config.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.config.RunTimeout)
		defer cancel()
	}
	ctx = logging.ContextWithNewCorrelationID(ctx)

	var summary RunSummary
	due, err := p.store.ListDue(ctx, p.scheduler.Now(), p.config.BatchSize)
	if err != nil {
		return summary, fmt.Errorf("%w: list due attempts: %v", ErrPersistence, err)
	}
	summary.Due = len(due)

	for _, a := range due {
		if ctx.Err() != nil {
			break
		}
		res, err := p.scheduler.ProcessDunningAttempt(ctx, a.ID)
		switch {
		case errors.Is(err, ErrAttemptAlreadySettled):
			summary.Skipped++
		case err != nil:
			summary.Errors++
			logging.Ctx(ctx).Error().Err(err).Str("attempt_id", a.ID).Msg("Failed to process dunning attempt")
		case res.Replayed:
			summary.Skipped++
		case res.Success:
			summary.Succeeded++
		default:
			summary.Failed++
		}
	}

	if summary.Due > 0 {
		logging.Ctx(ctx).Info().
			Int("due", summary.Due).
			Int("succeeded", summary.Succeeded).
			Int("failed", summary.Failed).
			Int("skipped", summary.Skipped).
			Int("errors", summary.Errors).
			Dur("duration", time.Since(start)).
			Msg("Dunning run complete")
	}
	return summary, nil
}

// Start registers RunDue on the cron schedule and starts the cron runner.
// Overlapping runs are skipped.
func (p *Processor) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cron != nil {
		return fmt.Errorf("dunning processor already running")
	}

	cronLogger := cron.PrintfLogger(slog.NewLogLogger(logging.NewSlogHandler(), slog.LevelInfo))
	c := cron.New(cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)))
	if _, err := c.AddFunc(p.config.Schedule, func() {
		if _, err := p.RunDue(ctx); err != nil {
			p.logger.Error().Err(err).Msg("Dunning run failed")
		}
	}); err != nil {
		return fmt.Errorf("invalid dunning schedule %q: %w", p.config.Schedule, err)
	}

	c.Start()
	p.cron = c
	p.logger.Info().
		Str("schedule", p.config.Schedule).
		Int("batch_size", p.config.BatchSize).
		Msg("Dunning processor started")
	return nil
}

// Stop stops the cron runner and waits for an in-flight run to finish.
func (p *Processor) Stop() {
	p.mu.Lock()
	c := p.cron
	p.cron = nil
	p.mu.Unlock()
	if c == nil {
		return
	}
	<-c.Stop().Done()
	p.logger.Info().Msg("Dunning processor stopped")
}
