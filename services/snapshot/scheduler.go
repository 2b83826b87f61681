package snapshot

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Scheduler runs a Collector on a cron schedule.
type Scheduler struct {
	collector *Collector
	schedule  string
	cron      *cron.Cron
	mu        sync.Mutex
	logger    *zap.Logger
	running   bool
}

// NewScheduler creates a scheduler for a standard five-field cron expression
// (for example "*/5 * * * *"). An empty schedule disables it.
func NewScheduler(collector *Collector, schedule string, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		collector: collector,
		schedule:  schedule,
		cron:      cron.New(cron.WithLocation(time.UTC)),
		logger:    logger.With(zap.String("component", "snapshot.scheduler")),
	}
}

// Start schedules collection and stops it once ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.schedule == "" {
		s.logger.Info("snapshot schedule not configured, skipping scheduler")
		return nil
	}

	if _, err := cron.ParseStandard(s.schedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", s.schedule, err)
	}

	if _, err := s.cron.AddFunc(s.schedule, func() { s.run(ctx) }); err != nil {
		return fmt.Errorf("failed to schedule snapshot: %w", err)
	}

	s.cron.Start()
	s.running = true
	s.logger.Info("snapshot scheduler started", zap.String("schedule", s.schedule))

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

func (s *Scheduler) run(ctx context.Context) {
	if _, err := s.collector.Collect(ctx); err != nil {
		s.logger.Error("scheduled snapshot failed", zap.Error(err))
	}
}

// Stop stops the scheduler and waits for a running collection to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		<-s.cron.Stop().Done()
		s.running = false
		s.logger.Info("snapshot scheduler stopped")
	}
}

// IsRunning returns true if the scheduler is running.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.running
}

// NextRun returns the next scheduled collection, or nil when not scheduled.
func (s *Scheduler) NextRun() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.cron.Entries()
	if len(entries) == 0 {
		return nil
	}
	next := entries[0].Next
	return &next
}
