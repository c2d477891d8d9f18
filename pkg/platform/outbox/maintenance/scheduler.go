// Package maintenance runs periodic outbox housekeeping on a gocron scheduler.
package maintenance

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"

	"tenancy/pkg/platform/outbox"
	"tenancy/pkg/platform/outbox/metrics"
)

const (
	jobCleanup      = "outbox-cleanup"
	jobPendingDepth = "outbox-pending-depth"
)

// Config controls job cadence and how long relayed entries are kept.
type Config struct {
	CleanupInterval time.Duration
	Retention       time.Duration
	DepthInterval   time.Duration
}

// Scheduler owns the gocron scheduler and its outbox jobs.
type Scheduler struct {
	scheduler gocron.Scheduler
	store     outbox.Store
	metrics   *metrics.Metrics
	logger    *slog.Logger
	retention time.Duration
	now       func() time.Time
}

func New(store outbox.Store, cfg Config, m *metrics.Metrics, logger *slog.Logger) (*Scheduler, error) {
	if cfg.CleanupInterval <= 0 || cfg.DepthInterval <= 0 || cfg.Retention <= 0 {
		return nil, fmt.Errorf("outbox maintenance intervals and retention must be positive")
	}
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}

	s := &Scheduler{
		scheduler: scheduler,
		store:     store,
		metrics:   m,
		logger:    logger,
		retention: cfg.Retention,
		now:       time.Now,
	}

	if _, err := scheduler.NewJob(
		gocron.DurationJob(cfg.CleanupInterval),
		gocron.NewTask(s.Cleanup, context.Background()),
		gocron.WithName(jobCleanup),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	); err != nil {
		return nil, fmt.Errorf("register %s: %w", jobCleanup, err)
	}
	if _, err := scheduler.NewJob(
		gocron.DurationJob(cfg.DepthInterval),
		gocron.NewTask(s.RecordPendingDepth, context.Background()),
		gocron.WithName(jobPendingDepth),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	); err != nil {
		return nil, fmt.Errorf("register %s: %w", jobPendingDepth, err)
	}
	return s, nil
}

func (s *Scheduler) Start() {
	s.scheduler.Start()
}

func (s *Scheduler) Stop() error {
	return s.scheduler.Shutdown()
}

// JobNames lists the registered jobs.
func (s *Scheduler) JobNames() []string {
	jobs := s.scheduler.Jobs()
	names := make([]string, 0, len(jobs))
	for _, j := range jobs {
		names = append(names, j.Name())
	}
	return names
}

// Cleanup deletes entries relayed longer ago than the retention window.
func (s *Scheduler) Cleanup(ctx context.Context) error {
	deleted, err := s.store.DeleteProcessedBefore(ctx, s.now().Add(-s.retention))
	if err != nil {
		if s.logger != nil {
			s.logger.ErrorContext(ctx, "outbox cleanup failed", "error", err)
		}
		return err
	}
	if s.metrics != nil {
		s.metrics.AddCleaned(deleted)
	}
	if deleted > 0 && s.logger != nil {
		s.logger.InfoContext(ctx, "outbox cleanup", "deleted", deleted)
	}
	return nil
}

// RecordPendingDepth refreshes the pending depth gauge.
func (s *Scheduler) RecordPendingDepth(ctx context.Context) error {
	count, err := s.store.CountPending(ctx)
	if err != nil {
		if s.logger != nil {
			s.logger.ErrorContext(ctx, "outbox pending count failed", "error", err)
		}
		return err
	}
	if s.metrics != nil {
		s.metrics.SetPendingDepth(count)
	}
	return nil
}
