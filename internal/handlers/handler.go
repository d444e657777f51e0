package handlers

import (
	"logsift/internal/logger"
	"logsift/internal/service"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Handler wires HTTP layer to services and logging.
type Handler struct {
	services      *service.Service
	log           *logger.Logger
	uploadLimiter *clientLimiter
}

// UploadRateLimit shapes the per-client token bucket guarding uploads.
type UploadRateLimit struct {
	PerSecond float64
	Burst     int
}

// NewHandler constructs a new HTTP handler with dependencies.
func NewHandler(services *service.Service, log *logger.Logger, limit UploadRateLimit) *Handler {
	if limit.PerSecond <= 0 {
		limit.PerSecond = 1
	}
	if limit.Burst <= 0 {
		limit.Burst = 3
	}
	return &Handler{
		services:      services,
		log:           log,
		uploadLimiter: newClientLimiter(rate.Limit(limit.PerSecond), limit.Burst),
	}
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health endpoint
	router.GET("/health", h.health)

	// Auth endpoints
	h.registerAuthRoutes(router)

	// Versioned API endpoints (protected)
	h.registerAPIRoutes(router)

	// Job status stream (HTTP upgrade) on the same port
	router.GET("/ws", h.wsJobStatus)

	return router
}

func (h *Handler) registerAuthRoutes(r *gin.Engine) {
	auth := r.Group("/auth")
	{
		auth.POST("/sign-up", h.signUp)
		auth.POST("/sign-in", h.signIn)
	}
}

func (h *Handler) registerAPIRoutes(r *gin.Engine) {
	api := r.Group("/api/v1", h.userIdMiddleware)
	{
		logs := api.Group("/logs")
		{
			logs.POST("/upload", h.rateLimitMiddleware, h.uploadLogs)
			logs.GET("", h.getLogs)
		}
		api.GET("/jobs/:id", h.getJob)
		api.GET("/analytics", h.getAnalytics)
		api.POST("/ai/ask", h.askAI)
	}
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(200, gin.H{"status": "ok"})
}
