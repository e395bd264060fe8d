package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/quangpb/metrics-dashboard-be/internal/api/domain"
	"github.com/quangpb/metrics-dashboard-be/internal/api/dto"
	"github.com/quangpb/metrics-dashboard-be/internal/api/model"
	"github.com/quangpb/metrics-dashboard-be/internal/api/storage"
	"github.com/quangpb/metrics-dashboard-be/internal/transform"
	workerdomain "github.com/quangpb/metrics-dashboard-be/internal/worker/domain"
)

// CreateJob handles POST /api/v1/jobs
// Persists a job submission and schedules a delivery run for it
func (h *JobHandler) CreateJob(c *gin.Context) {
	h.logger.Info("CreateJob called",
		slog.String("method", c.Request.Method),
		slog.String("path", c.Request.URL.Path),
	)

	var req dto.CreateJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request body",
		})
		return
	}

	envName, err := extractEnvName(req.Meta)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	packages, err := extractPackages(req.Meta)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	metricNames := make([]string, 0, len(req.Measurements))
	for _, m := range req.Measurements {
		if m.Metric == "" {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Each measurement must name its metric.",
			})
			return
		}
		metricNames = append(metricNames, m.Metric)
	}

	resolved, err := h.storage.ResolveMetrics(c.Request.Context(), metricNames)
	if err != nil {
		h.logger.Error("Failed to resolve metrics", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to resolve metrics",
		})
		return
	}

	jobID := uuid.New().String()
	job := storage.NewJob{
		JobID:    jobID,
		EnvName:  envName,
		Packages: packages,
	}
	for i := range job.Packages {
		job.Packages[i].JobID = jobID
	}

	metaBytes, err := json.Marshal(req.Meta)
	if err != nil {
		h.logger.Error("Failed to encode job meta", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to encode job meta",
		})
		return
	}
	job.Meta = metaBytes

	for _, m := range req.Measurements {
		if !resolved[m.Metric] {
			h.logger.Warn("Measurement references an unknown metric, skipping",
				slog.String("metric", m.Metric),
				slog.String("job_id", jobID),
			)
			continue
		}

		meas := model.Measurement{JobID: jobID, MetricName: m.Metric}
		if m.Value != nil {
			meas.Value.Float64 = *m.Value
			meas.Value.Valid = true
		}
		if len(m.BlobRefs) > 0 {
			refs, err := json.Marshal(m.BlobRefs)
			if err != nil {
				h.logger.Error("Failed to encode blob refs", slog.String("error", err.Error()))
				c.JSON(http.StatusInternalServerError, gin.H{
					"error": "Failed to encode blob refs",
				})
				return
			}
			meas.BlobRefs = refs
		}
		job.Measurements = append(job.Measurements, meas)
	}

	for _, b := range req.Blobs {
		if b.Identifier == "" || b.Name == "" {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Each blob must carry an identifier and a name.",
			})
			return
		}
		job.Blobs = append(job.Blobs, model.Blob{
			JobID:      jobID,
			Identifier: b.Identifier,
			Name:       b.Name,
		})
	}

	if err := h.storage.CreateJob(c.Request.Context(), &job); err != nil {
		h.logger.Error("Failed to create job", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to create job",
		})
		return
	}

	runID, err := h.scheduleRun(c, jobID)
	if err != nil {
		return
	}

	c.JSON(http.StatusAccepted, dto.CreateJobResponse{
		Message: "Job created.",
		JobID:   jobID,
		RunID:   runID,
		Status:  h.statusURL(runID),
	})
}

// CreateDelivery handles POST /api/v1/jobs/:job_id/deliveries
// Schedules a fresh delivery run for an already persisted job
func (h *JobHandler) CreateDelivery(c *gin.Context) {
	jobID := c.Param("job_id")

	h.logger.Info("CreateDelivery called",
		slog.String("method", c.Request.Method),
		slog.String("path", c.Request.URL.Path),
		slog.String("job_id", jobID),
	)

	if _, err := uuid.Parse(jobID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "job_id must be a valid UUID",
		})
		return
	}

	if _, err := h.storage.GetJob(c.Request.Context(), jobID); err != nil {
		if errors.Is(err, domain.ErrJobNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Job not found",
			})
			return
		}
		h.logger.Error("Failed to get job", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to get job",
		})
		return
	}

	runID, err := h.scheduleRun(c, jobID)
	if err != nil {
		return
	}

	c.JSON(http.StatusAccepted, dto.CreateDeliveryResponse{
		Message: "Delivery run scheduled.",
		RunID:   runID,
		Status:  h.statusURL(runID),
	})
}

// scheduleRun records a PENDING run and enqueues it. It writes the error
// response itself and returns a non-nil error when scheduling failed.
func (h *JobHandler) scheduleRun(c *gin.Context, jobID string) (string, error) {
	runID := uuid.New().String()

	if err := h.storage.CreateRun(c.Request.Context(), runID, jobID); err != nil {
		h.logger.Error("Failed to create delivery run", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to create delivery run",
		})
		return "", err
	}

	msg := workerdomain.RunMessage{RunID: runID, JobID: jobID}
	body, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("Failed to encode run message", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to encode run message",
		})
		return "", err
	}

	if err := h.rabbitClient.PublishWithRetry(c.Request.Context(), body, "application/json"); err != nil {
		h.logger.Error("Failed to enqueue delivery run",
			slog.String("run_id", runID),
			slog.String("error", err.Error()),
		)
		if delErr := h.storage.DeleteRun(c.Request.Context(), runID); delErr != nil {
			h.logger.Error("Failed to clean up unenqueued run",
				slog.String("run_id", runID),
				slog.String("error", delErr.Error()),
			)
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to enqueue delivery run",
		})
		return "", err
	}

	return runID, nil
}

func (h *JobHandler) statusURL(runID string) string {
	return h.baseURL + "/api/v1/status/" + runID
}

// GetJob handles GET /api/v1/jobs/:job_id
// Returns the full job snapshot the delivery worker consumes
func (h *JobHandler) GetJob(c *gin.Context) {
	jobID := c.Param("job_id")

	h.logger.Info("GetJob called",
		slog.String("method", c.Request.Method),
		slog.String("path", c.Request.URL.Path),
		slog.String("job_id", jobID),
	)

	if _, err := uuid.Parse(jobID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "job_id must be a valid UUID",
		})
		return
	}

	data, err := h.storage.GetJobData(c.Request.Context(), jobID)
	if err != nil {
		if errors.Is(err, domain.ErrJobNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Job not found",
			})
			return
		}
		h.logger.Error("Failed to get job", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to get job",
		})
		return
	}

	c.JSON(http.StatusOK, data)
}

// ListJobs handles GET /api/v1/jobs
// Lists jobs newest first with cursor pagination
func (h *JobHandler) ListJobs(c *gin.Context) {
	h.logger.Info("ListJobs called",
		slog.String("method", c.Request.Method),
		slog.String("path", c.Request.URL.Path),
		slog.String("query", c.Request.URL.RawQuery),
	)

	var req dto.ListJobsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.logger.Error("Invalid query parameters", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid query parameters",
		})
		return
	}

	if req.PageSize <= 0 {
		req.PageSize = 20
	}
	if req.PageSize > 100 {
		req.PageSize = 100
	}

	cursor, err := DecodeJobCursor(req.Cursor)
	if err != nil {
		h.logger.Error("Invalid cursor", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid cursor",
		})
		return
	}

	filter := storage.JobFilter{
		PageSize: req.PageSize,
		Cursor:   cursor,
	}

	jobs, err := h.storage.ListJobs(c.Request.Context(), filter)
	if err != nil {
		h.logger.Error("Failed to list jobs", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to list jobs",
		})
		return
	}

	hasMore := len(jobs) > req.PageSize
	if hasMore {
		jobs = jobs[:req.PageSize]
	}

	jobResponse := make([]dto.JobSummary, len(jobs))
	for i, job := range jobs {
		jobResponse[i] = dto.JobSummary{
			JobID:     job.JobID,
			Env:       job.EnvName,
			CreatedAt: job.CreatedAt.Format(time.RFC3339),
		}
	}

	var nextCursor string
	if hasMore {
		lastJob := jobs[len(jobs)-1]
		cursorObj := storage.JobCursor{
			CreatedAt: lastJob.CreatedAt,
			JobID:     lastJob.JobID,
		}
		nextCursor, err = EncodeJobCursor(&cursorObj)
		if err != nil {
			h.logger.Error("Failed to encode next cursor", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to encode next cursor",
			})
			return
		}
	}

	c.JSON(http.StatusOK, dto.ListJobsResponse{
		Jobs:       jobResponse,
		NextCursor: nextCursor,
	})
}

// DeleteJob handles DELETE /api/v1/jobs/:job_id
// Removes a job with its measurements, packages and blob references
func (h *JobHandler) DeleteJob(c *gin.Context) {
	jobID := c.Param("job_id")

	h.logger.Info("DeleteJob called",
		slog.String("method", c.Request.Method),
		slog.String("path", c.Request.URL.Path),
		slog.String("job_id", jobID),
	)

	if _, err := uuid.Parse(jobID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "job_id must be a valid UUID",
		})
		return
	}

	if err := h.storage.DeleteJob(c.Request.Context(), jobID); err != nil {
		if errors.Is(err, domain.ErrJobNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Job not found",
			})
			return
		}
		h.logger.Error("Failed to delete job", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to delete job",
		})
		return
	}

	c.Status(http.StatusNoContent)
}

// GetBlob handles GET /api/v1/blobs/:identifier
// Returns the blob reference record behind an identifier
func (h *JobHandler) GetBlob(c *gin.Context) {
	identifier := c.Param("identifier")

	h.logger.Info("GetBlob called",
		slog.String("method", c.Request.Method),
		slog.String("path", c.Request.URL.Path),
		slog.String("identifier", identifier),
	)

	blob, err := h.storage.GetBlob(c.Request.Context(), identifier)
	if err != nil {
		if errors.Is(err, domain.ErrBlobNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Blob not found",
			})
			return
		}
		h.logger.Error("Failed to get blob", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to get blob",
		})
		return
	}

	c.JSON(http.StatusOK, dto.BlobResponse{
		Identifier: blob.Identifier,
		Name:       blob.Name,
		JobID:      blob.JobID,
	})
}

// extractEnvName pulls the environment name out of the job metadata. A
// missing env mapping falls back to "unknown"; a present one must carry
// env_name.
func extractEnvName(meta map[string]any) (string, error) {
	raw, ok := meta["env"]
	if !ok {
		return "unknown", nil
	}

	env, err := transform.ExpectMapping(raw, "meta.env")
	if err != nil {
		return "", err
	}

	name, ok := env["env_name"]
	if !ok {
		return "", transform.NewValidationError("Missing env_name in env metadata.")
	}

	return transform.ExpectString(name, "meta.env.env_name")
}

// extractPackages pulls the packages mapping out of the job metadata.
// Submissions without it are rejected.
func extractPackages(meta map[string]any) ([]model.Package, error) {
	raw, ok := meta["packages"]
	if !ok {
		return nil, transform.NewValidationError("Missing packages metadata.")
	}

	mapping, err := transform.ExpectMapping(raw, "meta.packages")
	if err != nil {
		return nil, err
	}

	packages := make([]model.Package, 0, len(mapping))
	for name, entry := range mapping {
		pkg := model.Package{Name: name}
		if entryMap, ok := entry.(map[string]any); ok {
			pkg.Version = transform.OptionalString(entryMap, "version")
			pkg.GitSHA = transform.OptionalString(entryMap, "git_sha")
		}
		packages = append(packages, pkg)
	}

	return packages, nil
}
