package delivery

import (
	"errors"
	"net/http"
	"strconv"

	"geotask-backend/internal/task/usecase"

	"github.com/gin-gonic/gin"
)

// TaskHandler handles task-related HTTP requests
type TaskHandler struct {
	taskUsecase usecase.TaskUsecase
}

// NewTaskHandler creates a new TaskHandler
func NewTaskHandler(taskUsecase usecase.TaskUsecase) *TaskHandler {
	return &TaskHandler{
		taskUsecase: taskUsecase,
	}
}

// CompletionRequest represents the body for toggling completion
type CompletionRequest struct {
	Completed bool `json:"completed"`
}

// ReminderRequest represents the body for toggling the reminder flag
type ReminderRequest struct {
	Enabled bool `json:"enabled"`
}

// GetTasks returns all tasks, optionally filtered by completion
// GET /api/tasks?completed=true
func (h *TaskHandler) GetTasks(c *gin.Context) {
	var completedFilter *bool
	if v := c.Query("completed"); v != "" {
		completed, err := strconv.ParseBool(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "completed must be a boolean"})
			return
		}
		completedFilter = &completed
	}

	tasks, err := h.taskUsecase.GetTasks(completedFilter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"tasks": tasks,
		"total": len(tasks),
	})
}

// SearchTasks returns tasks fuzzily matching the query, best matches first
// GET /api/tasks/search?q=grocery
func (h *TaskHandler) SearchTasks(c *gin.Context) {
	tasks, err := h.taskUsecase.SearchTasks(c.Query("q"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"tasks": tasks,
		"total": len(tasks),
	})
}

// GetTaskByID returns a specific task
// GET /api/tasks/:id
func (h *TaskHandler) GetTaskByID(c *gin.Context) {
	id, ok := h.taskID(c)
	if !ok {
		return
	}

	task, err := h.taskUsecase.GetTaskByID(id)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, task)
}

// CreateTask creates a new task and arms its reminder triggers
// POST /api/tasks
func (h *TaskHandler) CreateTask(c *gin.Context) {
	var req usecase.TaskCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	task, err := h.taskUsecase.CreateTask(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, task)
}

// UpdateTask updates an existing task
// PUT /api/tasks/:id
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	id, ok := h.taskID(c)
	if !ok {
		return
	}

	var updates usecase.TaskUpdateRequest
	if err := c.ShouldBindJSON(&updates); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	task, err := h.taskUsecase.UpdateTask(c.Request.Context(), id, updates)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, task)
}

// DeleteTask deletes a task and tears down its triggers
// DELETE /api/tasks/:id
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	id, ok := h.taskID(c)
	if !ok {
		return
	}

	if err := h.taskUsecase.DeleteTask(c.Request.Context(), id); err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Task deleted"})
}

// SetCompleted toggles task completion
// PATCH /api/tasks/:id/complete
func (h *TaskHandler) SetCompleted(c *gin.Context) {
	id, ok := h.taskID(c)
	if !ok {
		return
	}

	var req CompletionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	task, err := h.taskUsecase.SetCompleted(c.Request.Context(), id, req.Completed)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, task)
}

// SetReminder toggles the reminder flag
// PATCH /api/tasks/:id/reminder
func (h *TaskHandler) SetReminder(c *gin.Context) {
	id, ok := h.taskID(c)
	if !ok {
		return
	}

	var req ReminderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	task, err := h.taskUsecase.SetReminderEnabled(c.Request.Context(), id, req.Enabled)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, task)
}

func (h *TaskHandler) taskID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id must be an integer"})
		return 0, false
	}
	return id, true
}

func (h *TaskHandler) writeError(c *gin.Context, err error) {
	if errors.Is(err, usecase.ErrTaskNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
