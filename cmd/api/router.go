package api

import (
	"net/http"

	taskDelivery "geotask-backend/internal/task/delivery"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(r *gin.Engine, taskHandler *taskDelivery.TaskHandler, engineHandler *EngineHandler) {
	api := r.Group("/api")
	{
		// Health check
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})

		// Task routes
		tasks := api.Group("/tasks")
		{
			tasks.GET("", taskHandler.GetTasks)
			tasks.GET("/search", taskHandler.SearchTasks)
			tasks.POST("", taskHandler.CreateTask)
			tasks.GET("/:id", taskHandler.GetTaskByID)
			tasks.PUT("/:id", taskHandler.UpdateTask)
			tasks.DELETE("/:id", taskHandler.DeleteTask)
			tasks.PATCH("/:id/complete", taskHandler.SetCompleted)
			tasks.PATCH("/:id/reminder", taskHandler.SetReminder)
		}

		// Device token routes
		devices := api.Group("/devices")
		{
			devices.POST("", engineHandler.RegisterDevice)
			devices.DELETE("/:token", engineHandler.UnregisterDevice)
		}

		// Position reports
		api.POST("/position", engineHandler.ReportPosition)

		// Raw geofence transition events
		api.POST("/geofence/events", engineHandler.GeofenceEvent)
	}
}
