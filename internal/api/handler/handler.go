package handler

import (
	"context"
	"log/slog"

	"github.com/quangpb/metrics-dashboard-be/internal/api/model"
	"github.com/quangpb/metrics-dashboard-be/internal/api/storage"
	"github.com/quangpb/metrics-dashboard-be/internal/transform"
	"github.com/quangpb/metrics-dashboard-be/shared/rabbitmq"
)

// JobStorage is the persistence surface the job handlers depend on.
type JobStorage interface {
	CreateJob(ctx context.Context, job *storage.NewJob) error
	GetJob(ctx context.Context, jobID string) (*model.Job, error)
	GetJobData(ctx context.Context, jobID string) (*transform.JobData, error)
	ListJobs(ctx context.Context, filter storage.JobFilter) ([]model.Job, error)
	DeleteJob(ctx context.Context, jobID string) error
	ResolveMetrics(ctx context.Context, names []string) (map[string]bool, error)
	GetBlob(ctx context.Context, identifier string) (*model.Blob, error)
	CreateRun(ctx context.Context, runID, jobID string) error
	DeleteRun(ctx context.Context, runID string) error
}

// MetricStorage is the persistence surface the metric catalog depends on.
type MetricStorage interface {
	CreateMetric(ctx context.Context, m *model.Metric) error
	GetMetric(ctx context.Context, name string) (*model.Metric, error)
	ListMetrics(ctx context.Context) ([]model.Metric, error)
}

// RunStorage is the read surface the status reporter depends on.
type RunStorage interface {
	GetRun(ctx context.Context, runID string) (*model.DeliveryRun, error)
}

// Dependencies holds all dependencies needed by handlers
type Dependencies struct {
	Logger       *slog.Logger
	Storage      *storage.Storage
	RabbitClient *rabbitmq.Client
	BaseURL      string
}

// JobHandler handles job submission and retrieval requests
type JobHandler struct {
	logger       *slog.Logger
	storage      JobStorage
	rabbitClient *rabbitmq.Client
	baseURL      string
}

// NewJobHandler creates a new JobHandler instance
func NewJobHandler(deps *Dependencies) *JobHandler {
	return &JobHandler{
		logger:       deps.Logger,
		storage:      deps.Storage,
		rabbitClient: deps.RabbitClient,
		baseURL:      deps.BaseURL,
	}
}

// MetricHandler handles metric catalog requests
type MetricHandler struct {
	logger  *slog.Logger
	storage MetricStorage
}

// NewMetricHandler creates a new MetricHandler instance
func NewMetricHandler(deps *Dependencies) *MetricHandler {
	return &MetricHandler{
		logger:  deps.Logger,
		storage: deps.Storage,
	}
}

// StatusHandler handles delivery-run status polling requests
type StatusHandler struct {
	logger  *slog.Logger
	storage RunStorage
}

// NewStatusHandler creates a new StatusHandler instance
func NewStatusHandler(deps *Dependencies) *StatusHandler {
	return &StatusHandler{
		logger:  deps.Logger,
		storage: deps.Storage,
	}
}
