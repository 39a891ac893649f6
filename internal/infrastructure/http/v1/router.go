// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	appctx "govdoc/internal/core/context"
	"govdoc/internal/domain/annotation"
	"govdoc/internal/domain/issuance"
	"govdoc/internal/domain/numbering"
	"govdoc/internal/infrastructure/http/v1/handlers"
	"govdoc/internal/infrastructure/http/v1/middleware"
	"govdoc/pkg/logger"
)

// RouterConfig holds router dependencies. Nil services leave their routes
// unregistered.
type RouterConfig struct {
	// Logger for request logging
	Logger *logger.Logger

	// TokenValidator turns bearer tokens into callers
	TokenValidator middleware.TokenValidator

	Numbers     *numbering.Service
	Issuance    *issuance.Service
	Annotations *annotation.Service
	Assets      handlers.AssetStore

	// HealthChecks are probed by /health/ready
	HealthChecks map[string]handlers.Pinger
	Version      string
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	healthHandler := handlers.NewHealthHandler(cfg.Version, cfg.HealthChecks)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	v1 := router.Group("/api/v1")
	v1.Use(middleware.Auth(cfg.TokenValidator))
	{
		registerNumberRoutes(v1, cfg)
		registerDocumentRoutes(v1, cfg)
		registerAnnotationRoutes(v1, cfg)
		registerAssetRoutes(v1, cfg)
	}

	return router
}

// writers may allocate numbers and issue documents.
var writers = middleware.RequireRole(appctx.RoleEditor, appctx.RoleAdmin)

// registerNumberRoutes registers number allocation and format endpoints.
func registerNumberRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	if cfg.Numbers == nil {
		return
	}
	handler := handlers.NewNumberHandler(handlers.NewBaseHandler(), cfg.Numbers)

	numbers := rg.Group("/numbers")
	numbers.GET("/validate", handler.Validate)
	numbers.GET("/parse", handler.Parse)
	numbers.GET("/owners/:ownerId", handler.Lookup)
	numbers.POST("/ministry", writers, handler.AllocateMinistry)
	numbers.POST("/correlative", writers, handler.AllocateCorrelative)
	numbers.PUT("/sequences", middleware.RequireRole(appctx.RoleAdmin), handler.SetNext)
}

// registerDocumentRoutes registers rendering and conversion endpoints.
func registerDocumentRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	if cfg.Issuance == nil {
		return
	}
	handler := handlers.NewDocumentHandler(handlers.NewBaseHandler(), cfg.Issuance)

	docs := rg.Group("/documents", writers)
	docs.POST("/render", handler.Render)
	docs.POST("/markup", handler.Markup)
	docs.POST("/convert", handler.Convert)
}

// registerAnnotationRoutes registers margin note endpoints. Ownership is
// enforced by the service.
func registerAnnotationRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	if cfg.Annotations == nil {
		return
	}
	handler := handlers.NewAnnotationHandler(handlers.NewBaseHandler(), cfg.Annotations)

	rg.GET("/documents/:documentId/annotations", handler.List)
	rg.POST("/documents/:documentId/annotations", handler.Create)

	notes := rg.Group("/annotations")
	notes.GET("/:id", handler.Get)
	notes.PATCH("/:id", handler.Update)
	notes.DELETE("/:id", handler.Delete)
}

// registerAssetRoutes registers image upload endpoints.
func registerAssetRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	if cfg.Assets == nil {
		return
	}
	handler := handlers.NewAssetHandler(handlers.NewBaseHandler(), cfg.Assets)

	assets := rg.Group("/assets")
	assets.POST("", writers, handler.Upload)
	assets.DELETE("/:key", middleware.RequireRole(appctx.RoleAdmin), handler.Delete)
}
