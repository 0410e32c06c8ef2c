package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// SetupRoutes configures all HTTP routes on the router.
func (s *Server) SetupRoutes(router *gin.Engine) {
	router.Use(RecoveryMiddleware())
	router.Use(SecurityHeadersMiddleware())
	router.Use(CORSMiddleware())
	router.Use(LoggingMiddleware())

	api := router.Group("/api")
	{
		api.GET("/health", s.HealthHandler)
		api.GET("/models", s.ModelsHandler)

		api.POST("/runs", s.StartRunHandler)

		api.GET("/jobs", s.ListJobsHandler)
		api.GET("/jobs/:jobId", s.GetJobHandler)
		api.GET("/jobs/:jobId/stream", s.StreamJobProgressHandler)
		api.GET("/jobs/:jobId/export/csv", s.ExportCSVHandler)
		api.GET("/jobs/:jobId/export/html", s.ExportHTMLHandler)
	}

	router.GET("/ws/jobs/:jobId", s.StreamJobProgressWSHandler)
	router.GET("/metrics", gin.WrapH(s.metrics.Handler()))

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "Model Comparison API",
			"status":  "ok",
			"endpoints": gin.H{
				"health":  "/api/health",
				"models":  "/api/models",
				"runs":    "POST /api/runs",
				"jobs":    "/api/jobs",
				"stream":  "/api/jobs/:jobId/stream",
				"export": gin.H{
					"csv":  "/api/jobs/:jobId/export/csv",
					"html": "/api/jobs/:jobId/export/html",
				},
				"metrics": "/metrics",
			},
		})
	})

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "Not Found",
			Message: "The requested endpoint does not exist",
			Code:    http.StatusNotFound,
		})
	})
}
