package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/quangpb/metrics-dashboard-be/internal/api/handler"
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
			"service": "metrics-api-service",
		})
	})

	jobHandler := handler.NewJobHandler(deps)
	metricHandler := handler.NewMetricHandler(deps)
	statusHandler := handler.NewStatusHandler(deps)

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		jobs := v1.Group("/jobs")
		{
			// POST /api/v1/jobs - Submit a job and schedule its delivery
			jobs.POST("", jobHandler.CreateJob)

			// GET /api/v1/jobs - List jobs with cursor pagination
			jobs.GET("", jobHandler.ListJobs)

			// GET /api/v1/jobs/:job_id - Get the full job snapshot
			jobs.GET("/:job_id", jobHandler.GetJob)

			// POST /api/v1/jobs/:job_id/deliveries - Schedule a re-delivery
			jobs.POST("/:job_id/deliveries", jobHandler.CreateDelivery)

			// DELETE /api/v1/jobs/:job_id - Delete a job
			jobs.DELETE("/:job_id", jobHandler.DeleteJob)
		}

		metrics := v1.Group("/metrics")
		{
			// GET /api/v1/metrics - List metric definitions
			metrics.GET("", metricHandler.ListMetrics)

			// POST /api/v1/metrics/:name - Register a metric definition
			metrics.POST("/:name", metricHandler.CreateMetric)

			// GET /api/v1/metrics/:name - Get one metric definition
			metrics.GET("/:name", metricHandler.GetMetric)
		}

		// GET /api/v1/status/:run_id - Poll a delivery run
		v1.GET("/status/:run_id", statusHandler.GetStatus)

		// GET /api/v1/blobs/:identifier - Get a blob reference
		v1.GET("/blobs/:identifier", jobHandler.GetBlob)
	}

	return r
}
