package jobs

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Scheduler manages cron job scheduling.
type Scheduler struct {
	cron   *cron.Cron
	jobs   *JobRunner
	logger *zap.Logger
}

// NewScheduler creates a scheduler and registers the completion job on
// completionSpec, a six-field cron expression.
func NewScheduler(jobRunner *JobRunner, completionSpec string, logger *zap.Logger) (*Scheduler, error) {
	c := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithSeconds(),
	)

	s := &Scheduler{cron: c, jobs: jobRunner, logger: logger}
	if _, err := s.cron.AddFunc(completionSpec, s.jobs.CompleteElapsedBookings); err != nil {
		return nil, fmt.Errorf("register CompleteElapsedBookings job: %w", err)
	}
	return s, nil
}

// Start begins the cron scheduler.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("cron scheduler started", zap.Int("jobs", len(s.cron.Entries())))
}

// Stop waits for running jobs and stops the scheduler.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("cron scheduler stopped")
}
