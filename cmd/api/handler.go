package api

import (
	"geotask-backend/internal/geofence"
	"geotask-backend/internal/notification"
	"geotask-backend/internal/position"
	taskDelivery "geotask-backend/internal/task/delivery"
	taskUsecasePkg "geotask-backend/internal/task/usecase"
	"geotask-backend/pkg/config"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	config        *config.Config
	taskHandler   *taskDelivery.TaskHandler
	engineHandler *EngineHandler
}

func NewHandler(taskUc taskUsecasePkg.TaskUsecase, tokens notification.TokenRepository, tracker *position.Tracker, validator *geofence.Validator, cfg *config.Config) *Handler {
	return &Handler{
		config:        cfg,
		taskHandler:   taskDelivery.NewTaskHandler(taskUc),
		engineHandler: NewEngineHandler(tokens, tracker, validator),
	}
}

func (h *Handler) Start(addr string) error {
	r := gin.Default()
	gin.SetMode(gin.ReleaseMode)

	// CORS middleware
	r.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		} else {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// Setup routes
	SetupRoutes(r, h.taskHandler, h.engineHandler)

	return r.Run(addr)
}
