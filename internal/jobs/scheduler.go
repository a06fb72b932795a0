// AngelaMos | 2026
// scheduler.go

// Package jobs runs periodic maintenance on cron schedules.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/coachforge/platform/internal/observability"
)

const defaultTimeout = 5 * time.Minute

// Job is one maintenance task. Run returns the number of rows it touched.
type Job struct {
	Name     string
	Schedule string
	Timeout  time.Duration
	Run      func(ctx context.Context) (int64, error)
}

// Scheduler wraps a cron instance. Runs of the same job never overlap and
// a panicking job is reported as a failed run.
type Scheduler struct {
	cron   *cron.Cron
	logger *slog.Logger
	ctx    context.Context
	cancel context.CancelFunc
}

func NewScheduler(logger *slog.Logger) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
		),
		logger: logger.With("component", "jobs"),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Add registers a job. An empty schedule disables it.
func (s *Scheduler) Add(job Job) error {
	if job.Schedule == "" {
		s.logger.Info("job disabled", "job", job.Name)
		return nil
	}

	if _, err := s.cron.AddFunc(job.Schedule, func() { s.execute(s.ctx, job) }); err != nil {
		return fmt.Errorf("schedule %s %q: %w", job.Name, job.Schedule, err)
	}

	s.logger.Info("job scheduled", "job", job.Name, "schedule", job.Schedule)
	return nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop prevents new runs, cancels running ones and waits for them or ctx.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	s.cancel()

	select {
	case <-done.Done():
	case <-ctx.Done():
		s.logger.Warn("jobs still running at shutdown")
	}
}

// RunOnce executes a job immediately, outside the schedule.
func (s *Scheduler) RunOnce(ctx context.Context, job Job) error {
	return s.execute(ctx, job)
}

func (s *Scheduler) execute(ctx context.Context, job Job) (err error) {
	timeout := job.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	log := s.logger.With("job", job.Name)

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job %s panicked: %v", job.Name, r)
			observability.JobRuns.WithLabelValues(job.Name, "panic").Inc()
			log.Error("job panicked", "panic", r)
		}
	}()

	affected, err := job.Run(ctx)
	if err != nil {
		observability.JobRuns.WithLabelValues(job.Name, "error").Inc()
		log.Error("job failed", "error", err, "duration", time.Since(start))
		return err
	}

	observability.JobRuns.WithLabelValues(job.Name, "ok").Inc()
	log.Info("job finished", "affected", affected, "duration", time.Since(start))
	return nil
}
