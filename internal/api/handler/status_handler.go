package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/quangpb/metrics-dashboard-be/internal/api/domain"
	"github.com/quangpb/metrics-dashboard-be/internal/api/dto"
	workerdomain "github.com/quangpb/metrics-dashboard-be/internal/worker/domain"
)

// GetStatus handles GET /api/v1/status/:run_id
// Reports the current state of a delivery run. Terminal runs carry the
// outcome message and the upstream status code.
func (h *StatusHandler) GetStatus(c *gin.Context) {
	runID := c.Param("run_id")

	h.logger.Info("GetStatus called",
		slog.String("method", c.Request.Method),
		slog.String("path", c.Request.URL.Path),
		slog.String("run_id", runID),
	)

	// An unparseable id cannot name a run, so it gets the same answer as
	// a missing one.
	if _, err := uuid.Parse(runID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Delivery run not found",
		})
		return
	}

	run, err := h.storage.GetRun(c.Request.Context(), runID)
	if err != nil {
		if errors.Is(err, domain.ErrRunNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Delivery run not found",
			})
			return
		}
		h.logger.Error("Failed to get delivery run", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to get delivery run",
		})
		return
	}

	resp := dto.StatusResponse{Status: run.State}

	if run.State == workerdomain.RunStateSucceeded || run.State == workerdomain.RunStateFailed {
		resp.Message = run.Message.String
		if run.StatusCode.Valid {
			code := int(run.StatusCode.Int32)
			resp.StatusCode = &code
		}
	}

	c.JSON(http.StatusOK, resp)
}
