package handlers

import (
	"net/http"

	"heat_sequencing/internal/logger"
	"heat_sequencing/internal/service"

	"github.com/gin-gonic/gin"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Handler wires HTTP layer to services and logging.
type Handler struct {
	services *service.Service
	metrics  http.Handler
	log      *logger.Logger
}

// NewHandler constructs a new HTTP handler with dependencies. A nil metrics handler
// leaves /metrics unregistered.
func NewHandler(services *service.Service, metrics http.Handler, log *logger.Logger) *Handler {
	return &Handler{services: services, metrics: metrics, log: log}
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.MaxMultipartMemory = maxUploadBytes

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health endpoint
	router.GET("/health", h.health)
	if h.metrics != nil {
		router.GET("/metrics", gin.WrapH(h.metrics))
	}

	// Auth endpoints
	h.registerAuthRoutes(router)

	// Versioned API endpoints (protected)
	h.registerAPIRoutes(router)

	// Latest batch summary stream, same port
	router.GET("/ws", h.wsConnect)

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
	api := r.Group("/api/v1", h.operatorIDMiddleware)
	{
		h.registerBatchRoutes(api)
		h.registerCasterRoutes(api)
	}
}

func (h *Handler) registerBatchRoutes(api *gin.RouterGroup) {
	batches := api.Group("/batches")
	{
		// multipart form, field "file" (.csv or .xlsx)
		batches.POST("", h.uploadBatch)
		// Body example: {"source":"mes","rows":[{"heat_id":"H1","unit":"BOF1","start_time":"08:00","end_time":"08:40"}]}
		batches.POST("/rows", h.submitRows)
		batches.GET("", h.listBatches)
		batches.GET("/latest", h.latestBatch)
		batches.GET("/:id", h.getBatch)
		batches.GET("/:id/errors", h.batchErrors)
	}
}

func (h *Handler) registerCasterRoutes(api *gin.RouterGroup) {
	casters := api.Group("/casters")
	{
		casters.GET("/:unit/sequence", h.casterSequence)
	}
}
