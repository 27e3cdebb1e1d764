package usecase

import (
	"context"
	"errors"
	"log"
	"sort"
	"strings"
	"time"

	"geotask-backend/internal/geofence"
	"geotask-backend/internal/reminder"
	"geotask-backend/internal/task/domain"
	"geotask-backend/internal/task/repository"
	"geotask-backend/pkg/fuzzy"
)

// ErrTaskNotFound is returned for operations on an id with no stored task
var ErrTaskNotFound = errors.New("task not found")

// taskUsecase implements TaskUsecase interface
type taskUsecase struct {
	taskRepo      repository.TaskRepository
	geofences     GeofenceSyncer
	scheduler     ReminderScheduler
	notifications NotificationCanceller
}

// NewTaskUsecase creates a new instance of taskUsecase
func NewTaskUsecase(taskRepo repository.TaskRepository) TaskUsecase {
	return &taskUsecase{
		taskRepo: taskRepo,
	}
}

// SetGeofenceSyncer wires the zone registry; optional
func (u *taskUsecase) SetGeofenceSyncer(syncer GeofenceSyncer) {
	u.geofences = syncer
}

// SetReminderScheduler wires the one-shot scheduler; optional
func (u *taskUsecase) SetReminderScheduler(scheduler ReminderScheduler) {
	u.scheduler = scheduler
}

// SetNotificationCanceller wires delivered-notification cleanup; optional
func (u *taskUsecase) SetNotificationCanceller(canceller NotificationCanceller) {
	u.notifications = canceller
}

func (u *taskUsecase) CreateTask(ctx context.Context, req TaskCreateRequest) (*domain.Task, error) {
	if strings.TrimSpace(req.Title) == "" {
		return nil, errors.New("title is required")
	}

	task := &domain.Task{
		Title:           strings.TrimSpace(req.Title),
		Description:     req.Description,
		DueDate:         req.DueDate,
		DueTime:         req.DueTime,
		ReminderEnabled: req.ReminderEnabled,
		Location:        req.Location,
		Latitude:        req.Latitude,
		Longitude:       req.Longitude,
		GeofenceRadius:  geofence.ClampRadius(req.GeofenceRadius),
		CreatedAt:       time.Now(),
		UpdatedAt:       time.Now(),
	}

	if err := u.taskRepo.Create(task); err != nil {
		return nil, err
	}

	u.syncTriggers(ctx, task)
	return task, nil
}

func (u *taskUsecase) GetTaskByID(id int64) (*domain.Task, error) {
	task, err := u.taskRepo.FindByID(id)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, ErrTaskNotFound
	}
	return task, nil
}

func (u *taskUsecase) GetTasks(completed *bool) ([]*domain.Task, error) {
	if completed != nil {
		return u.taskRepo.FindByCompletion(*completed)
	}
	return u.taskRepo.FindAll()
}

func (u *taskUsecase) UpdateTask(ctx context.Context, id int64, updates TaskUpdateRequest) (*domain.Task, error) {
	task, err := u.GetTaskByID(id)
	if err != nil {
		return nil, err
	}

	if updates.Title != nil {
		if strings.TrimSpace(*updates.Title) == "" {
			return nil, errors.New("title is required")
		}
		task.Title = strings.TrimSpace(*updates.Title)
	}
	if updates.Description != nil {
		task.Description = *updates.Description
	}
	if updates.DueDate != nil {
		task.DueDate = *updates.DueDate
	}
	if updates.DueTime != nil {
		task.DueTime = *updates.DueTime
	}
	if updates.ClearZone {
		task.Location = nil
		task.Latitude = nil
		task.Longitude = nil
	} else {
		if updates.Location != nil {
			task.Location = updates.Location
		}
		if updates.Latitude != nil {
			task.Latitude = updates.Latitude
		}
		if updates.Longitude != nil {
			task.Longitude = updates.Longitude
		}
	}
	if updates.GeofenceRadius != nil {
		task.GeofenceRadius = geofence.ClampRadius(*updates.GeofenceRadius)
	}

	task.UpdatedAt = time.Now()
	if err := u.taskRepo.Update(task); err != nil {
		return nil, err
	}

	u.syncTriggers(ctx, task)
	return task, nil
}

func (u *taskUsecase) DeleteTask(ctx context.Context, id int64) error {
	task, err := u.GetTaskByID(id)
	if err != nil {
		return err
	}

	if err := u.taskRepo.Delete(task.ID); err != nil {
		return err
	}

	u.teardownTriggers(ctx, task.ID)
	return nil
}

func (u *taskUsecase) SetCompleted(ctx context.Context, id int64, completed bool) (*domain.Task, error) {
	task, err := u.GetTaskByID(id)
	if err != nil {
		return nil, err
	}

	task.Completed = completed
	task.UpdatedAt = time.Now()
	if err := u.taskRepo.Update(task); err != nil {
		return nil, err
	}

	if completed {
		u.teardownTriggers(ctx, task.ID)
	} else {
		u.syncTriggers(ctx, task)
	}
	return task, nil
}

func (u *taskUsecase) SetReminderEnabled(ctx context.Context, id int64, enabled bool) (*domain.Task, error) {
	task, err := u.GetTaskByID(id)
	if err != nil {
		return nil, err
	}

	task.ReminderEnabled = enabled
	task.UpdatedAt = time.Now()
	if err := u.taskRepo.Update(task); err != nil {
		return nil, err
	}

	u.syncTriggers(ctx, task)
	return task, nil
}

func (u *taskUsecase) SearchTasks(query string) ([]*domain.Task, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return u.taskRepo.FindAll()
	}

	tasks, err := u.taskRepo.FindAll()
	if err != nil {
		return nil, err
	}

	type scored struct {
		task  *domain.Task
		score float64
	}
	var matches []scored
	for _, task := range tasks {
		location := ""
		if task.Location != nil {
			location = *task.Location
		}
		if !fuzzy.MatchTask(query, task.Title, task.Description, location) {
			continue
		}
		matches = append(matches, scored{
			task:  task,
			score: fuzzy.RelevanceScore(query, task.Title, task.Description, location),
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].score > matches[j].score
	})

	results := make([]*domain.Task, len(matches))
	for i, m := range matches {
		results[i] = m.task
	}
	return results, nil
}

// RecoverTriggers re-arms reminders and zones for every eligible task.
// A process restart loses in-memory one-shot units and zone registrations;
// this rebuilds both from the store.
func (u *taskUsecase) RecoverTriggers(ctx context.Context) error {
	tasks, err := u.taskRepo.FindAll()
	if err != nil {
		return err
	}

	recovered := 0
	for _, task := range tasks {
		if task.Completed || !task.ReminderEnabled {
			continue
		}
		u.syncTriggers(ctx, task)
		recovered++
	}

	log.Printf("[TaskUsecase] Recovered triggers for %d tasks", recovered)
	return nil
}

// syncTriggers re-arms both trigger channels for the task's current state.
// Trigger failures never fail the save that caused them; the task stays
// stored and triggers catch up on the next sync.
func (u *taskUsecase) syncTriggers(ctx context.Context, task *domain.Task) {
	if u.scheduler != nil {
		u.scheduler.Cancel(task.ID)
		if task.ReminderEnabled && !task.Completed {
			if err := u.scheduler.ScheduleForTime(task.ID, task.DueDate, task.DueTime); err != nil {
				if !errors.Is(err, reminder.ErrScheduleInPast) {
					log.Printf("[TaskUsecase] Failed to schedule reminder: taskID=%d err=%v", task.ID, err)
				}
			}
		}
	}

	if u.geofences != nil {
		if err := u.geofences.Sync(ctx, task); err != nil {
			log.Printf("[TaskUsecase] Zone sync failed, task saved without location trigger: taskID=%d err=%v",
				task.ID, err)
		}
	}
}

// teardownTriggers clears every trigger and delivered notification for id
func (u *taskUsecase) teardownTriggers(ctx context.Context, id int64) {
	if u.scheduler != nil {
		u.scheduler.Cancel(id)
	}
	if u.geofences != nil {
		u.geofences.Remove(ctx, id)
	}
	if u.notifications != nil {
		u.notifications.Cancel(id)
	}
}
