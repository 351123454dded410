// Package scheduler runs recurring jobs on a cron schedule.
// taskchat uses it to deliver reminder digests.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/marcus/taskchat/internal/config"
	"github.com/marcus/taskchat/internal/logging"
)

var (
	ErrNoSchedule     = errors.New("scheduler: no schedule configured")
	ErrNoJobs         = errors.New("scheduler: no jobs registered")
	ErrAlreadyRunning = errors.New("scheduler: already running")
	ErrNotRunning     = errors.New("scheduler: not running")
)

// Job is a unit of scheduled work.
type Job func(ctx context.Context) error

// Scheduler fires its jobs, in registration order, each time the schedule
// activates.
type Scheduler struct {
	mu       sync.Mutex
	cronExpr string
	schedule cron.Schedule
	jobs     []Job
	log      *logging.Logger

	cron    *cron.Cron
	entryID cron.EntryID
	cancel  context.CancelFunc
	running bool
}

// New creates a scheduler with no schedule.
func New() *Scheduler {
	return &Scheduler{log: logging.Component("scheduler")}
}

// NewFromConfig creates a scheduler from the reminders config.
func NewFromConfig(cfg *config.RemindersConfig) (*Scheduler, error) {
	if cfg == nil || cfg.Cron == "" {
		return nil, ErrNoSchedule
	}
	s := New()
	if err := s.SetCron(cfg.Cron); err != nil {
		return nil, err
	}
	return s, nil
}

// SetCron sets a standard 5-field cron expression (descriptors such as
// @daily are accepted too).
func (s *Scheduler) SetCron(expr string) error {
	sched, err := cron.ParseStandard(expr)
	if err != nil {
		return fmt.Errorf("parse cron %q: %w", expr, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cronExpr = expr
	s.schedule = sched
	return nil
}

// SetInterval schedules jobs at a fixed interval. Intervals below one
// second are rounded up to one second.
func (s *Scheduler) SetInterval(d time.Duration) error {
	if d <= 0 {
		return fmt.Errorf("interval must be positive, got %v", d)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cronExpr = "@every " + d.String()
	s.schedule = cron.Every(d)
	return nil
}

// AddJob registers a job.
func (s *Scheduler) AddJob(job Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs = append(s.jobs, job)
}

// Start begins firing jobs. The scheduler stops when ctx is cancelled or
// Stop is called.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return ErrAlreadyRunning
	}
	if s.schedule == nil {
		return ErrNoSchedule
	}
	if len(s.jobs) == 0 {
		return ErrNoJobs
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.cron = cron.New()
	s.entryID = s.cron.Schedule(s.schedule, cron.FuncJob(func() {
		s.runJobs(runCtx)
	}))
	s.cron.Start()
	s.running = true

	go func() {
		<-runCtx.Done()
		_ = s.Stop()
	}()

	s.log.InfoCtx("scheduler started", map[string]any{
		"schedule": s.cronExpr,
		"next_run": s.cron.Entry(s.entryID).Next.Format(time.RFC3339),
	})
	return nil
}

// Stop halts the scheduler and waits for running jobs to finish.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return ErrNotRunning
	}
	s.running = false
	c, cancel := s.cron, s.cancel
	s.mu.Unlock()

	<-c.Stop().Done()
	cancel()
	s.log.Info("scheduler stopped")
	return nil
}

// IsRunning reports whether the scheduler has been started and not stopped.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// NextRun returns the next activation time, or zero without a schedule.
func (s *Scheduler) NextRun() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return s.cron.Entry(s.entryID).Next
	}
	if s.schedule == nil {
		return time.Time{}
	}
	return s.schedule.Next(time.Now())
}

// RunNow runs all jobs once, synchronously.
func (s *Scheduler) RunNow(ctx context.Context) {
	s.runJobs(ctx)
}

func (s *Scheduler) runJobs(ctx context.Context) {
	s.mu.Lock()
	jobs := make([]Job, len(s.jobs))
	copy(jobs, s.jobs)
	s.mu.Unlock()

	for i, job := range jobs {
		if ctx.Err() != nil {
			return
		}
		if err := job(ctx); err != nil {
			s.log.Err(err).Int("job", i).Msg("scheduled job failed")
		}
	}
}
