package repository

import (
	"geotask-backend/internal/task/domain"
)

// TaskRepository defines the interface for task data access
type TaskRepository interface {
	// Create creates a new task and assigns its ID
	Create(task *domain.Task) error

	// FindByID finds a task by its ID; returns (nil, nil) when absent
	FindByID(id int64) (*domain.Task, error)

	// FindAll returns every task, used by the periodic sweep and by
	// startup recovery
	FindAll() ([]*domain.Task, error)

	// FindByCompletion returns tasks filtered by completion status
	FindByCompletion(completed bool) ([]*domain.Task, error)

	// Update updates an existing task
	Update(task *domain.Task) error

	// Delete deletes a task by ID
	Delete(id int64) error
}
