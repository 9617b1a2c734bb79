package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sahilgala1234/SlideScribe/internal/api/handler"
)

// SetupRouter configures and returns the Gin router with all routes
func SetupRouter(deps *handler.Dependencies) *gin.Engine {
	r := gin.New()

	// Middleware
	r.Use(gin.Recovery())
	r.Use(LoggerMiddleware(deps.Logger))
	r.Use(CORSMiddleware())

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "slidescribe",
		})
	})

	jobHandler := handler.NewJobHandler(deps)

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		jobs := v1.Group("/jobs")
		{
			// POST /api/v1/jobs - Submit a video for slide extraction
			jobs.POST("", jobHandler.SubmitJob)

			// GET /api/v1/jobs/:job_id - Poll job status
			jobs.GET("/:job_id", jobHandler.GetJob)

			// GET /api/v1/jobs/:job_id/result - Download the rendered document
			jobs.GET("/:job_id/result", jobHandler.GetResult)

			// POST /api/v1/jobs/:job_id/cancel - Cancel a running job
			jobs.POST("/:job_id/cancel", jobHandler.CancelJob)
		}
	}

	return r
}
