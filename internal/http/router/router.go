package router

import (
	"github.com/gin-gonic/gin"

	"basegraph.app/suggestbox/internal/http/handler"
	"basegraph.app/suggestbox/internal/http/middleware"
	"basegraph.app/suggestbox/internal/service"
)

type RouterConfig struct {
	IsProduction bool
	Extractor    middleware.PrincipalExtractor
	Readiness    handler.Pinger
	// UploadDir is served at UploadPublicPath when uploads go to local disk.
	// Leave empty when a blob store is configured.
	UploadDir        string
	UploadPublicPath string
}

func SetupRoutes(router *gin.Engine, services *service.Services, cfg RouterConfig) {
	health := handler.NewHealthHandler(cfg.Readiness, cfg.IsProduction)
	router.GET("/health", health.Live)
	router.GET("/ready", health.Ready)

	if cfg.UploadDir != "" && cfg.UploadPublicPath != "" {
		router.Static(cfg.UploadPublicPath, cfg.UploadDir)
	}

	api := router.Group("/api")
	api.Use(middleware.RequirePrincipal(cfg.Extractor))
	{
		api.GET("/me", health.Me)

		suggestionHandler := handler.NewSuggestionHandler(services.Suggestions(), services.Search(), cfg.IsProduction)
		commentHandler := handler.NewCommentHandler(services.Comments(), cfg.IsProduction)
		mergeHandler := handler.NewMergeHandler(services.Merge(), cfg.IsProduction)
		SuggestionRouter(api.Group("/suggestions"), suggestionHandler, commentHandler, mergeHandler)

		metricsHandler := handler.NewMetricsHandler(services.Metrics(), cfg.IsProduction)
		api.GET("/metrics", metricsHandler.Dashboard)

		uploadHandler := handler.NewUploadHandler(services.Attachments(), cfg.IsProduction)
		api.POST("/upload", uploadHandler.Upload)
	}
}
