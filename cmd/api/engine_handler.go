package api

import (
	"net/http"
	"time"

	"geotask-backend/internal/geofence"
	"geotask-backend/internal/notification"
	"geotask-backend/internal/position"
	"geotask-backend/pkg/geo"

	"github.com/gin-gonic/gin"
)

// EngineHandler handles the device-facing endpoints of the reminder engine:
// token registration, position reports, and raw geofence transition events.
type EngineHandler struct {
	tokens    notification.TokenRepository
	tracker   *position.Tracker
	validator *geofence.Validator
}

// NewEngineHandler creates a new EngineHandler
func NewEngineHandler(tokens notification.TokenRepository, tracker *position.Tracker, validator *geofence.Validator) *EngineHandler {
	return &EngineHandler{
		tokens:    tokens,
		tracker:   tracker,
		validator: validator,
	}
}

// RegisterDeviceRequest represents the body for registering a push target
type RegisterDeviceRequest struct {
	Token      string `json:"token" binding:"required"`
	DeviceInfo string `json:"device_info"`
}

// PositionReportRequest represents a device-reported position fix.
// Latitude and longitude are pointers so a fix on the equator or the prime
// meridian still binds; zero is a legal coordinate.
type PositionReportRequest struct {
	Latitude       *float64 `json:"latitude" binding:"required"`
	Longitude      *float64 `json:"longitude" binding:"required"`
	AccuracyMeters float64  `json:"accuracy_meters"`
	Provider       string   `json:"provider"`
}

// RegisterDevice registers or refreshes a device token
// POST /api/devices
func (h *EngineHandler) RegisterDevice(c *gin.Context) {
	var req RegisterDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.tokens.SaveToken(req.Token, req.DeviceInfo); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Device registered"})
}

// UnregisterDevice removes a device token
// DELETE /api/devices/:token
func (h *EngineHandler) UnregisterDevice(c *gin.Context) {
	if err := h.tokens.DeleteToken(c.Param("token")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Device unregistered"})
}

// ReportPosition records a device-reported position fix
// POST /api/position
func (h *EngineHandler) ReportPosition(c *gin.Context) {
	var req PositionReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	provider := req.Provider
	if provider == "" {
		provider = position.ProviderNetwork
	}

	h.tracker.Report(position.Sample{
		Point:          geo.Point{Latitude: *req.Latitude, Longitude: *req.Longitude},
		AccuracyMeters: req.AccuracyMeters,
		Provider:       provider,
		ReportedAt:     time.Now(),
	})

	c.JSON(http.StatusOK, gin.H{"message": "Position recorded"})
}

// GeofenceEvent ingests a raw transition event from a device. Validation
// happens before any notification fires, so a rejected event still gets a
// 202: it was received and handled.
// POST /api/geofence/events
func (h *EngineHandler) GeofenceEvent(c *gin.Context) {
	var event geofence.Event
	if err := c.ShouldBindJSON(&event); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.validator.HandleTransition(c.Request.Context(), event); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"message": "Event processed"})
}
