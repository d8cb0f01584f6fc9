package scheduler

import (
	"context"
	"log/slog"
	"time"

	"eventreminders/internal/domain"
)

// Scheduler drives the reminder dispatcher on a fixed interval. Ticks run
// sequentially on a single goroutine, so two ticks can never overlap; a tick
// that outruns the interval only delays the next one and logs a warning.
type Scheduler struct {
	reminders domain.ReminderService
	interval  time.Duration
	clock     func() time.Time
	logger    *slog.Logger
}

func New(reminders domain.ReminderService, interval time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		reminders: reminders,
		interval:  interval,
		clock:     time.Now,
		logger:    logger,
	}
}

// Run blocks until ctx is cancelled. No state is persisted between ticks;
// eligibility is recomputed from the store each time, so the scheduler
// resumes correctly after downtime.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("reminder scheduler started", "interval", s.interval)
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("reminder scheduler stopped")
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	start := s.clock()
	if _, err := s.reminders.DispatchDueReminders(ctx, start); err != nil {
		s.logger.Error("dispatch tick failed", "err", err)
	}
	if elapsed := s.clock().Sub(start); elapsed > s.interval {
		s.logger.Warn("slow dispatch tick", "elapsed", elapsed, "interval", s.interval)
	}
}
