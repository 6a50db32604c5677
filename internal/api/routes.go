package api

import (
	"research_copilot_go_backend/internal/services"

	"github.com/gin-gonic/gin"
)

type RouteConfig struct {
	MaxUploadBytes int64
	// UploadLimiter guards the upload route only; nil disables limiting.
	UploadLimiter gin.HandlerFunc
}

func SetupRoutes(r *gin.Engine, pipeline *services.UploadPipeline, paperService *services.PaperService, exportService *services.ExportService, cfg RouteConfig) {
	uploadChain := []gin.HandlerFunc{}
	if cfg.UploadLimiter != nil {
		uploadChain = append(uploadChain, cfg.UploadLimiter)
	}
	uploadChain = append(uploadChain, uploadPaperHandler(pipeline, cfg.MaxUploadBytes))

	r.GET("/health", healthHandler)

	api := r.Group("/api")
	{
		api.POST("/papers/upload", uploadChain...)
		api.GET("/papers", listPapersHandler(paperService))
		api.GET("/papers/:id", getPaperHandler(paperService))
		api.GET("/papers/:id/download", downloadPaperHandler(paperService))
		api.GET("/papers/:id/export", exportSummaryHandler(paperService, exportService))
		api.GET("/papers/:id/citations", exportCitationsHandler(paperService, exportService))
		if paperService.ShareLinksEnabled() {
			api.GET("/papers/:id/link", shareLinkHandler(paperService))
		}
	}
}
