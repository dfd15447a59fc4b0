// Package scheduler runs recurring jobs on cron schedules in a fixed time zone.
// Ticks are serialised: at most one job body runs at a time across all tasks.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/GregMSThompson/spendwise/pkg/logger"
)

// Cron expressions for the automation jobs, evaluated in the scheduler's zone.
const (
	ProcessEmailsSpec = "0 8-22/2 * * *"
	DailySummarySpec  = "0 21 * * *"
	WeeklyReportSpec  = "0 10 * * 0"
)

type Job func(ctx context.Context) error

type Task struct {
	Name string
	Spec string
	Run  Job

	schedule cron.Schedule
}

type Scheduler struct {
	log   *slog.Logger
	loc   *time.Location
	tasks []Task
	mu    sync.Mutex

	now   func() time.Time
	after func(time.Duration) <-chan time.Time
}

// New parses every task's Spec up front so a bad expression fails at startup.
func New(log *slog.Logger, loc *time.Location, tasks ...Task) (*Scheduler, error) {
	if loc == nil {
		loc = time.UTC
	}
	parsed := make([]Task, 0, len(tasks))
	for _, t := range tasks {
		sched, err := cron.ParseStandard(t.Spec)
		if err != nil {
			return nil, fmt.Errorf("task %s: parse %q: %w", t.Name, t.Spec, err)
		}
		t.schedule = sched
		parsed = append(parsed, t)
	}
	return &Scheduler{
		log:   log,
		loc:   loc,
		tasks: parsed,
		now:   time.Now,
		after: time.After,
	}, nil
}

// Run blocks until ctx is cancelled and every task loop has returned. A tick
// already running is allowed to finish.
func (s *Scheduler) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for _, t := range s.tasks {
		wg.Add(1)
		go func(t Task) {
			defer wg.Done()
			s.loop(ctx, t)
		}(t)
	}
	s.log.Info("scheduler started", "tasks", len(s.tasks), "timezone", s.loc.String())
	wg.Wait()
	s.log.Info("scheduler stopped")
}

// NextRun is the first activation of t strictly after from.
func (s *Scheduler) NextRun(t Task, from time.Time) time.Time {
	return t.schedule.Next(from.In(s.loc))
}

func (s *Scheduler) loop(ctx context.Context, t Task) {
	for {
		now := s.now()
		next := s.NextRun(t, now)
		s.log.Debug("task scheduled", "task", t.Name, "next", next)

		select {
		case <-ctx.Done():
			return
		case <-s.after(next.Sub(now)):
		}
		s.tick(ctx, t)
	}
}

func (s *Scheduler) tick(ctx context.Context, t Task) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ctx.Err() != nil {
		return
	}

	log := s.log.With("task", t.Name)
	ctx = logger.ToContext(ctx, log)
	start := s.now()
	log.Info("task started")
	if err := t.Run(ctx); err != nil {
		log.Error("task failed", "error", err, "duration", s.now().Sub(start))
		return
	}
	log.Info("task finished", "duration", s.now().Sub(start))
}
