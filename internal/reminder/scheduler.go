package reminder

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"geotask-backend/internal/task/domain"
	"geotask-backend/internal/task/repository"

	"github.com/jmhodges/clock"
)

const (
	// MinDelay is the scheduling substrate's minimum supported delay for a
	// one-shot unit
	MinDelay = time.Minute

	// DefaultSweepInterval is how often the safety-net sweep scans all tasks
	DefaultSweepInterval = 15 * time.Minute

	// SweepWindow is the forward-looking window a sweep considers "due soon"
	SweepWindow = 15 * time.Minute

	// BackoffStep is the linear backoff increment applied per consecutive
	// sweep failure
	BackoffStep = 10 * time.Second

	fireTimeout = 30 * time.Second
)

// ErrScheduleInPast is returned when a one-shot is requested for an instant
// that is not in the future. Callers log it and carry on; it never surfaces
// as a user-facing error.
var ErrScheduleInPast = errors.New("reminder time already in the past")

// Notifier delivers the due-time reminder once a one-shot or sweep fires
type Notifier interface {
	NotifyDue(ctx context.Context, task *domain.Task) error
}

// unit is one live one-shot trigger: a timer plus a cancel channel that
// releases the waiting goroutine when the unit is replaced or cancelled
type unit struct {
	timer  *clock.Timer
	cancel chan struct{}
}

// Scheduler owns time-based triggers: at most one pending one-shot unit per
// task, plus a periodic sweep across all tasks that catches one-shots lost to
// process restarts. Deduplication between the two paths is the dispatcher's
// job, not the scheduler's.
type Scheduler struct {
	tasks         repository.TaskRepository
	notifier      Notifier
	clk           clock.Clock
	sweepInterval time.Duration

	mu      sync.Mutex
	pending map[int64]*unit

	stopOnce sync.Once
	stopChan chan struct{}

	sweepMu        sync.Mutex
	sweepFailures  int
	sweepNotBefore time.Time
}

// NewScheduler creates a Scheduler. clk is injected so tests can drive time.
func NewScheduler(tasks repository.TaskRepository, notifier Notifier, clk clock.Clock) *Scheduler {
	return &Scheduler{
		tasks:         tasks,
		notifier:      notifier,
		clk:           clk,
		sweepInterval: DefaultSweepInterval,
		pending:       make(map[int64]*unit),
		stopChan:      make(chan struct{}),
	}
}

// SetSweepInterval overrides the sweep cadence, used by composition wiring
func (s *Scheduler) SetSweepInterval(d time.Duration) {
	if d > 0 {
		s.sweepInterval = d
	}
}

// Start launches the periodic sweep loop
func (s *Scheduler) Start() {
	log.Printf("[Scheduler] Starting periodic reminder sweep (interval: %s)", s.sweepInterval)

	go func() {
		for {
			select {
			case <-s.stopChan:
				log.Println("[Scheduler] Sweep loop stopped")
				return
			case <-s.clk.After(s.sweepInterval):
				s.sweep()
			}
		}
	}()
}

// Stop halts the sweep loop and cancels every pending one-shot
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stopChan) })

	s.mu.Lock()
	defer s.mu.Unlock()
	for taskID := range s.pending {
		s.stopLocked(taskID)
	}
}

// ScheduleForTime schedules a one-shot reminder for the task's combined
// due date and due time. A non-future instant is refused.
func (s *Scheduler) ScheduleForTime(taskID int64, dueDate, dueTime time.Time) error {
	fireAt := domain.CombineDateAndTime(dueDate, dueTime)
	now := s.clk.Now()

	if !fireAt.After(now) {
		log.Printf("[Scheduler] Refusing to schedule past reminder: taskID=%d fireAt=%v now=%v",
			taskID, fireAt, now)
		return ErrScheduleInPast
	}

	s.Schedule(taskID, fireAt.Sub(now))
	return nil
}

// Schedule enqueues a one-shot unit for taskID after delay, replacing any
// pending unit for the same task. The delay is floored at MinDelay.
func (s *Scheduler) Schedule(taskID int64, delay time.Duration) {
	if delay < MinDelay {
		delay = MinDelay
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopLocked(taskID)
	u := &unit{timer: s.clk.NewTimer(delay), cancel: make(chan struct{})}
	s.pending[taskID] = u
	go s.await(taskID, u)

	log.Printf("[Scheduler] One-shot scheduled: taskID=%d delay=%s", taskID, delay)
}

// Cancel removes the pending one-shot for taskID, if any. If the unit is
// already in flight the fire wins the race; it will never half-cancel.
func (s *Scheduler) Cancel(taskID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopLocked(taskID) {
		log.Printf("[Scheduler] One-shot cancelled: taskID=%d", taskID)
	}
}

// stopLocked releases the pending unit for taskID. Caller holds s.mu.
func (s *Scheduler) stopLocked(taskID int64) bool {
	u, ok := s.pending[taskID]
	if !ok {
		return false
	}
	u.timer.Stop()
	close(u.cancel)
	delete(s.pending, taskID)
	return true
}

// PendingCount returns the number of live one-shot units
func (s *Scheduler) PendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// RescheduleAll cancels every pending one-shot and schedules afresh for each
// eligible task. This is the recovery path invoked once at process start;
// it is idempotent and safe to call with zero tasks.
func (s *Scheduler) RescheduleAll(tasks []*domain.Task) {
	s.mu.Lock()
	for taskID := range s.pending {
		s.stopLocked(taskID)
	}
	s.mu.Unlock()

	scheduled := 0
	for _, task := range tasks {
		if !task.ReminderEnabled || task.Completed {
			continue
		}
		if err := s.ScheduleForTime(task.ID, task.DueDate, task.DueTime); err == nil {
			scheduled++
		}
	}

	log.Printf("[Scheduler] Rescheduled %d task reminders", scheduled)
}

// await parks until the unit elapses or is released
func (s *Scheduler) await(taskID int64, u *unit) {
	select {
	case <-u.timer.C:
		s.fire(taskID, u)
	case <-u.cancel:
	}
}

// fire runs when a one-shot unit elapses. The task is re-read to catch
// last-minute edits; an ineligible task is a no-op success. A unit whose
// table entry was replaced while its fire was in flight backs off without
// touching the replacement: only the unit that still owns its entry may
// delete it and notify.
func (s *Scheduler) fire(taskID int64, u *unit) {
	s.mu.Lock()
	if current, ok := s.pending[taskID]; !ok || current != u {
		s.mu.Unlock()
		return
	}
	delete(s.pending, taskID)
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), fireTimeout)
	defer cancel()

	task, err := s.tasks.FindByID(taskID)
	if err != nil {
		log.Printf("[Scheduler] Failed to load task on fire: taskID=%d err=%v", taskID, err)
		return
	}
	if task == nil {
		log.Printf("[Scheduler] Task gone on fire, skipping: taskID=%d", taskID)
		return
	}
	if !task.ReminderEnabled || task.Completed {
		log.Printf("[Scheduler] Task no longer eligible on fire, skipping: taskID=%d", taskID)
		return
	}

	if err := s.notifier.NotifyDue(ctx, task); err != nil {
		log.Printf("[Scheduler] Failed to deliver due reminder: taskID=%d err=%v", taskID, err)
	}
}

// sweep scans all tasks and fires a reminder for any whose due instant falls
// within the forward-looking window. It backs off linearly on store failure.
func (s *Scheduler) sweep() {
	now := s.clk.Now()

	s.sweepMu.Lock()
	if now.Before(s.sweepNotBefore) {
		s.sweepMu.Unlock()
		return
	}
	s.sweepMu.Unlock()

	tasks, err := s.tasks.FindAll()
	if err != nil {
		s.sweepMu.Lock()
		s.sweepFailures++
		s.sweepNotBefore = now.Add(time.Duration(s.sweepFailures) * BackoffStep)
		failures := s.sweepFailures
		s.sweepMu.Unlock()

		log.Printf("[Scheduler] Sweep failed (%d consecutive), backing off: %v", failures, err)
		return
	}

	s.sweepMu.Lock()
	s.sweepFailures = 0
	s.sweepNotBefore = time.Time{}
	s.sweepMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), fireTimeout)
	defer cancel()

	fired := 0
	for _, task := range tasks {
		if !task.ReminderEnabled || task.Completed {
			continue
		}
		until := task.DueAt().Sub(now)
		if until <= 0 || until > SweepWindow {
			continue
		}
		if err := s.notifier.NotifyDue(ctx, task); err != nil {
			log.Printf("[Scheduler] Sweep failed to deliver reminder: taskID=%d err=%v", task.ID, err)
			continue
		}
		fired++
	}

	if fired > 0 {
		log.Printf("[Scheduler] Sweep fired %d reminders", fired)
	}
}
