package handlers

import (
	"govee_monitor/internal/logger"
	"govee_monitor/internal/service"

	"github.com/gin-gonic/gin"
)

// Handler wires the read-only HTTP layer to services and logging.
type Handler struct {
	services *service.Service
	log      *logger.Logger
}

// NewHandler constructs a new HTTP handler with dependencies.
func NewHandler(services *service.Service, log *logger.Logger) *Handler {
	return &Handler{services: services, log: log}
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	// Health endpoint
	router.GET("/health", h.health)

	// Versioned API endpoints
	api := router.Group("/api/v1")
	{
		api.GET("/session", h.getSession)
		api.GET("/readings", h.getReadings)
		api.GET("/logs", h.getLogs)
	}

	// Live readings feed (HTTP upgrade)
	router.GET("/ws", h.wsConnect)

	return router
}
