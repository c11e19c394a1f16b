package jobs

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// BookingCompleter completes bookings whose rental period has ended.
type BookingCompleter interface {
	CompleteElapsedBookings(ctx context.Context, now time.Time) (int, error)
}

// JobRunner holds the dependencies of the scheduled jobs.
type JobRunner struct {
	bookings BookingCompleter
	logger   *zap.Logger
	now      func() time.Time
	timeout  time.Duration
}

// NewJobRunner creates a new JobRunner.
func NewJobRunner(bookings BookingCompleter, logger *zap.Logger) *JobRunner {
	return &JobRunner{
		bookings: bookings,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
		timeout:  2 * time.Minute,
	}
}

// runWithRecovery wraps job execution with panic recovery.
func (jr *JobRunner) runWithRecovery(jobName string, jobFunc func(ctx context.Context)) {
	defer func() {
		if r := recover(); r != nil {
			jr.logger.Error("job panicked", zap.String("job", jobName), zap.Any("panic", r))
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), jr.timeout)
	defer cancel()

	start := time.Now()
	jr.logger.Debug("starting job", zap.String("job", jobName))
	jobFunc(ctx)
	jr.logger.Debug("job finished", zap.String("job", jobName), zap.Duration("took", time.Since(start)))
}

// CompleteElapsedBookings marks CONFIRMED bookings past their end date as COMPLETED.
func (jr *JobRunner) CompleteElapsedBookings() {
	jr.runWithRecovery("CompleteElapsedBookings", func(ctx context.Context) {
		n, err := jr.bookings.CompleteElapsedBookings(ctx, jr.now())
		if err != nil {
			jr.logger.Error("failed to complete elapsed bookings", zap.Int("completed", n), zap.Error(err))
			return
		}
		if n > 0 {
			jr.logger.Info("completed elapsed bookings", zap.Int("count", n))
		}
	})
}
