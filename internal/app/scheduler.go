/**
 * @description
 * Cron scheduler setup for the payment reconciliation job.
 */
package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler runs the periodic reconciliation sweep.
type Scheduler struct {
	cron     *cron.Cron
	service  *Service
	logger   *slog.Logger
	schedule string
	maxAge   time.Duration
	batch    int
}

// NewScheduler creates a scheduler that reconciles pending payments on the
// given cron schedule. Payments stay eligible once pending for longer than maxAge.
func NewScheduler(service *Service, logger *slog.Logger, schedule string, maxAge time.Duration, batchSize int) *Scheduler {
	cronLogger := cron.PrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelInfo))
	c := cron.New(cron.WithChain(cron.Recover(cronLogger)))

	return &Scheduler{
		cron:     c,
		service:  service,
		logger:   logger,
		schedule: schedule,
		maxAge:   maxAge,
		batch:    batchSize,
	}
}

// Start registers the reconciliation job and starts the cron scheduler.
func (s *Scheduler) Start() {
	if _, err := s.cron.AddFunc(s.schedule, s.runReconciliation); err != nil {
		s.logger.Error("failed to schedule payment reconciliation job", "error", err)
	} else {
		s.logger.Info("scheduled payment reconciliation job", "schedule", s.schedule)
	}

	s.cron.Start()
}

// Stop gracefully stops the cron scheduler.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

func (s *Scheduler) runReconciliation() {
	s.logger.Info("starting payment reconciliation job")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if err := s.service.ReconcilePendingPayments(ctx, s.maxAge, s.batch); err != nil {
		s.logger.Error("payment reconciliation job failed", "error", err)
		return
	}

	s.logger.Info("payment reconciliation job finished")
}
