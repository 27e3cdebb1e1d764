package usecase

import (
	"context"
	"time"

	"geotask-backend/internal/task/domain"
)

// TaskUsecase defines the interface for task business logic
type TaskUsecase interface {
	// CreateTask creates a new task and arms its reminder triggers
	CreateTask(ctx context.Context, req TaskCreateRequest) (*domain.Task, error)

	// GetTaskByID retrieves a task by ID
	GetTaskByID(id int64) (*domain.Task, error)

	// GetTasks retrieves all tasks, optionally filtered by completion
	GetTasks(completed *bool) ([]*domain.Task, error)

	// UpdateTask updates an existing task and re-arms its triggers
	UpdateTask(ctx context.Context, id int64, updates TaskUpdateRequest) (*domain.Task, error)

	// DeleteTask deletes a task and tears down its triggers
	DeleteTask(ctx context.Context, id int64) error

	// SetCompleted flips completion and arms or disarms triggers accordingly
	SetCompleted(ctx context.Context, id int64, completed bool) (*domain.Task, error)

	// SetReminderEnabled flips the reminder flag and re-arms triggers
	SetReminderEnabled(ctx context.Context, id int64, enabled bool) (*domain.Task, error)

	// SearchTasks returns tasks fuzzily matching query, best matches first
	SearchTasks(query string) ([]*domain.Task, error)

	// RecoverTriggers re-arms every eligible task's triggers, invoked once
	// at process start
	RecoverTriggers(ctx context.Context) error

	// SetGeofenceSyncer wires the zone registry
	SetGeofenceSyncer(syncer GeofenceSyncer)

	// SetReminderScheduler wires the one-shot scheduler
	SetReminderScheduler(scheduler ReminderScheduler)

	// SetNotificationCanceller wires delivered-notification cleanup
	SetNotificationCanceller(canceller NotificationCanceller)
}

// TaskCreateRequest carries the fields of a new task
type TaskCreateRequest struct {
	Title           string    `json:"title" binding:"required"`
	Description     string    `json:"description"`
	DueDate         time.Time `json:"due_date" binding:"required"`
	DueTime         time.Time `json:"due_time" binding:"required"`
	ReminderEnabled bool      `json:"reminder_enabled"`
	Location        *string   `json:"location"`
	Latitude        *float64  `json:"latitude"`
	Longitude       *float64  `json:"longitude"`
	GeofenceRadius  float64   `json:"geofence_radius"`
}

// TaskUpdateRequest represents the fields that can be updated. Nil fields
// are left untouched; ClearZone drops the trigger zone entirely.
type TaskUpdateRequest struct {
	Title          *string    `json:"title,omitempty"`
	Description    *string    `json:"description,omitempty"`
	DueDate        *time.Time `json:"due_date,omitempty"`
	DueTime        *time.Time `json:"due_time,omitempty"`
	Location       *string    `json:"location,omitempty"`
	Latitude       *float64   `json:"latitude,omitempty"`
	Longitude      *float64   `json:"longitude,omitempty"`
	GeofenceRadius *float64   `json:"geofence_radius,omitempty"`
	ClearZone      bool       `json:"clear_zone,omitempty"`
}

// GeofenceSyncer keeps provider zone registrations in line with task state.
// *geofence.Registry satisfies it.
type GeofenceSyncer interface {
	Sync(ctx context.Context, task *domain.Task) error
	Remove(ctx context.Context, taskID int64)
}

// ReminderScheduler owns the one-shot time triggers. *reminder.Scheduler
// satisfies it.
type ReminderScheduler interface {
	ScheduleForTime(taskID int64, dueDate, dueTime time.Time) error
	Cancel(taskID int64)
}

// NotificationCanceller clears delivered notifications for a task.
// *notification.Dispatcher satisfies it.
type NotificationCanceller interface {
	Cancel(taskID int64)
}
