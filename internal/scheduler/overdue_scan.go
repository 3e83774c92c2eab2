// Package scheduler enqueues recurring background jobs on cron schedules.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/mikestefanello/backlite"
	"github.com/robfig/cron/v3"

	"github.com/mrlokans/lendingdesk/internal/tasks"
)

// Enqueuer adds a task to the background queue.
type Enqueuer interface {
	Enqueue(ctx context.Context, task backlite.Task) (string, error)
}

// Config holds the schedules. An empty schedule disables that job.
type Config struct {
	OverdueScanSchedule  string
	AuditCleanupSchedule string
	AuditRetentionDays   int
}

// OverdueScanScheduler enqueues the overdue scan and the audit cleanup on
// their cron schedules. The jobs themselves run on the task queue.
type OverdueScanScheduler struct {
	queue Enqueuer
	cfg   Config

	cron       *cron.Cron
	mu         sync.Mutex
	isRunning  bool
	cancelFunc context.CancelFunc
}

// NewOverdueScanScheduler creates a new scheduler instance.
func NewOverdueScanScheduler(queue Enqueuer, cfg Config) *OverdueScanScheduler {
	return &OverdueScanScheduler{
		queue: queue,
		cfg:   cfg,
		cron:  cron.New(cron.WithParser(scheduleParser)),
	}
}

// Start validates the schedules and starts the cron loop. It stops when ctx
// is cancelled or Stop is called.
func (s *OverdueScanScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	jobs := 0
	if s.cfg.OverdueScanSchedule != "" {
		if err := s.add(s.cfg.OverdueScanSchedule, "overdue scan", func() backlite.Task {
			return tasks.OverdueScanTask{}
		}); err != nil {
			return err
		}
		jobs++
	}
	if s.cfg.AuditCleanupSchedule != "" {
		if err := s.add(s.cfg.AuditCleanupSchedule, "audit cleanup", func() backlite.Task {
			return tasks.CleanupAuditEventsTask{RetentionDays: s.cfg.AuditRetentionDays}
		}); err != nil {
			return err
		}
		jobs++
	}

	if jobs == 0 {
		log.Printf("Scheduler: no schedules configured")
		return nil
	}

	var cancelCtx context.Context
	cancelCtx, s.cancelFunc = context.WithCancel(ctx)

	s.cron.Start()
	s.isRunning = true

	go func() {
		<-cancelCtx.Done()
		s.Stop()
	}()

	return nil
}

func (s *OverdueScanScheduler) add(schedule, name string, build func() backlite.Task) error {
	if err := ValidateCronSchedule(schedule); err != nil {
		return fmt.Errorf("invalid cron schedule '%s' for %s: %w", schedule, name, err)
	}

	if _, err := s.cron.AddFunc(schedule, func() {
		s.enqueue(name, build())
	}); err != nil {
		return fmt.Errorf("failed to schedule %s: %w", name, err)
	}

	log.Printf("Scheduler: %s scheduled '%s' (%s)", name, schedule, CronDescription(schedule))
	return nil
}

func (s *OverdueScanScheduler) enqueue(name string, task backlite.Task) {
	id, err := s.queue.Enqueue(context.Background(), task)
	if err != nil {
		log.Printf("Scheduler: failed to enqueue %s: %v", name, err)
		return
	}
	log.Printf("Scheduler: enqueued %s as task %s", name, id)
}

// Stop stops the cron loop and waits for running enqueue jobs. It is safe
// to call more than once.
func (s *OverdueScanScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	ctx := s.cron.Stop()
	<-ctx.Done()

	if s.cancelFunc != nil {
		s.cancelFunc()
		s.cancelFunc = nil
	}
	s.isRunning = false

	log.Printf("Scheduler: stopped")
}

// RunNow enqueues an overdue scan immediately.
func (s *OverdueScanScheduler) RunNow(ctx context.Context) (string, error) {
	return s.queue.Enqueue(ctx, tasks.OverdueScanTask{})
}

// IsRunning returns whether the cron loop is active.
func (s *OverdueScanScheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}
