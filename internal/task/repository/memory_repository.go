package repository

import (
	"sort"
	"sync"
	"time"

	"geotask-backend/internal/task/domain"
)

// memoryTaskRepository is an in-memory TaskRepository, used in tests and
// for running without a database
type memoryTaskRepository struct {
	mu     sync.RWMutex
	nextID int64
	tasks  map[int64]domain.Task
}

// NewMemoryTaskRepository creates an empty in-memory TaskRepository
func NewMemoryTaskRepository() TaskRepository {
	return &memoryTaskRepository{
		nextID: 1,
		tasks:  make(map[int64]domain.Task),
	}
}

func (r *memoryTaskRepository) Create(task *domain.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if task.ID == 0 {
		task.ID = r.nextID
		r.nextID++
	} else if task.ID >= r.nextID {
		r.nextID = task.ID + 1
	}
	task.CreatedAt = time.Now()
	task.UpdatedAt = time.Now()
	r.tasks[task.ID] = *task
	return nil
}

func (r *memoryTaskRepository) FindByID(id int64) (*domain.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	task, ok := r.tasks[id]
	if !ok {
		return nil, nil
	}
	copied := task
	return &copied, nil
}

func (r *memoryTaskRepository) FindAll() ([]*domain.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tasks := make([]*domain.Task, 0, len(r.tasks))
	for _, task := range r.tasks {
		copied := task
		tasks = append(tasks, &copied)
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].ID < tasks[j].ID })
	return tasks, nil
}

func (r *memoryTaskRepository) FindByCompletion(completed bool) ([]*domain.Task, error) {
	all, _ := r.FindAll()
	filtered := make([]*domain.Task, 0, len(all))
	for _, task := range all {
		if task.Completed == completed {
			filtered = append(filtered, task)
		}
	}
	return filtered, nil
}

func (r *memoryTaskRepository) Update(task *domain.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	task.UpdatedAt = time.Now()
	r.tasks[task.ID] = *task
	return nil
}

func (r *memoryTaskRepository) Delete(id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.tasks, id)
	return nil
}
