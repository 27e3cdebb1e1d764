package repository

import (
	"time"

	"geotask-backend/internal/task/domain"

	"gorm.io/gorm"
)

// gormTaskRepository implements TaskRepository using GORM
type gormTaskRepository struct {
	db *gorm.DB
}

// NewGormTaskRepository creates a new GORM-based TaskRepository
func NewGormTaskRepository(db *gorm.DB) TaskRepository {
	return &gormTaskRepository{db: db}
}

func (r *gormTaskRepository) Create(task *domain.Task) error {
	task.CreatedAt = time.Now()
	task.UpdatedAt = time.Now()
	return r.db.Create(task).Error
}

func (r *gormTaskRepository) FindByID(id int64) (*domain.Task, error) {
	var task domain.Task
	err := r.db.Where("id = ?", id).First(&task).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &task, nil
}

func (r *gormTaskRepository) FindAll() ([]*domain.Task, error) {
	var tasks []*domain.Task
	err := r.db.Order("due_date ASC, due_time ASC").Find(&tasks).Error
	return tasks, err
}

func (r *gormTaskRepository) FindByCompletion(completed bool) ([]*domain.Task, error) {
	var tasks []*domain.Task
	err := r.db.Where("completed = ?", completed).
		Order("due_date ASC, due_time ASC").Find(&tasks).Error
	return tasks, err
}

func (r *gormTaskRepository) Update(task *domain.Task) error {
	task.UpdatedAt = time.Now()
	return r.db.Save(task).Error
}

func (r *gormTaskRepository) Delete(id int64) error {
	return r.db.Delete(&domain.Task{}, "id = ?", id).Error
}
