package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/quangpb/metrics-dashboard-be/internal/api/domain"
	"github.com/quangpb/metrics-dashboard-be/internal/api/dto"
	"github.com/quangpb/metrics-dashboard-be/internal/api/model"
)

// CreateMetric handles POST /api/v1/metrics/:name
// Registers a metric definition in the catalog
func (h *MetricHandler) CreateMetric(c *gin.Context) {
	name := c.Param("name")

	h.logger.Info("CreateMetric called",
		slog.String("method", c.Request.Method),
		slog.String("path", c.Request.URL.Path),
		slog.String("name", name),
	)

	pkg, displayName, ok := strings.Cut(name, ".")
	if !ok || pkg == "" || displayName == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Metric name must be of the form <package>.<metric>",
		})
		return
	}

	var req dto.CreateMetricRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request body",
		})
		return
	}

	metric := model.Metric{
		Name:        name,
		Package:     pkg,
		DisplayName: displayName,
		Description: req.Description,
		Unit:        req.Unit,
	}

	if len(req.Tags) > 0 {
		tags, err := json.Marshal(req.Tags)
		if err != nil {
			h.logger.Error("Failed to encode tags", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to encode tags",
			})
			return
		}
		metric.Tags = tags
	}

	if len(req.Reference) > 0 {
		ref, err := json.Marshal(req.Reference)
		if err != nil {
			h.logger.Error("Failed to encode reference", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to encode reference",
			})
			return
		}
		metric.Reference = ref
	}

	if err := h.storage.CreateMetric(c.Request.Context(), &metric); err != nil {
		if errors.Is(err, domain.ErrMetricExists) {
			c.JSON(http.StatusConflict, gin.H{
				"error": "Metric already exists",
			})
			return
		}
		h.logger.Error("Failed to create metric", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to create metric",
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Metric created.",
		"name":    name,
	})
}

// GetMetric handles GET /api/v1/metrics/:name
// Returns one metric definition
func (h *MetricHandler) GetMetric(c *gin.Context) {
	name := c.Param("name")

	h.logger.Info("GetMetric called",
		slog.String("method", c.Request.Method),
		slog.String("path", c.Request.URL.Path),
		slog.String("name", name),
	)

	metric, err := h.storage.GetMetric(c.Request.Context(), name)
	if err != nil {
		if errors.Is(err, domain.ErrMetricNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Metric not found",
			})
			return
		}
		h.logger.Error("Failed to get metric", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to get metric",
		})
		return
	}

	resp, err := metricResponse(metric)
	if err != nil {
		h.logger.Error("Failed to decode metric", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to decode metric",
		})
		return
	}

	c.JSON(http.StatusOK, resp)
}

// ListMetrics handles GET /api/v1/metrics
// Lists all metric definitions
func (h *MetricHandler) ListMetrics(c *gin.Context) {
	h.logger.Info("ListMetrics called",
		slog.String("method", c.Request.Method),
		slog.String("path", c.Request.URL.Path),
	)

	metrics, err := h.storage.ListMetrics(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to list metrics", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to list metrics",
		})
		return
	}

	response := make([]dto.MetricResponse, 0, len(metrics))
	for i := range metrics {
		resp, err := metricResponse(&metrics[i])
		if err != nil {
			h.logger.Error("Failed to decode metric",
				slog.String("name", metrics[i].Name),
				slog.String("error", err.Error()),
			)
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to decode metric",
			})
			return
		}
		response = append(response, resp)
	}

	c.JSON(http.StatusOK, gin.H{
		"metrics": response,
	})
}

func metricResponse(m *model.Metric) (dto.MetricResponse, error) {
	resp := dto.MetricResponse{
		Name:        m.Name,
		Package:     m.Package,
		DisplayName: m.DisplayName,
		Description: m.Description,
		Unit:        m.Unit,
	}

	if len(m.Tags) > 0 {
		if err := json.Unmarshal(m.Tags, &resp.Tags); err != nil {
			return resp, err
		}
	}

	if len(m.Reference) > 0 {
		if err := json.Unmarshal(m.Reference, &resp.Reference); err != nil {
			return resp, err
		}
	}

	return resp, nil
}
