package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/quangpb/metrics-dashboard-be/internal/transform"
	"github.com/quangpb/metrics-dashboard-be/internal/worker/domain"
	"github.com/quangpb/metrics-dashboard-be/shared/rabbitmq"
)

// TimeSeriesStore is the append-only sink delivery runs write to.
type TimeSeriesStore interface {
	CreateDatabase(ctx context.Context) (int, error)
	Write(ctx context.Context, line string) (int, error)
}

// JobStore serves immutable job snapshots by identifier.
type JobStore interface {
	GetJob(ctx context.Context, jobID string) (*transform.JobData, int, error)
}

// RunStore persists delivery-run state transitions.
type RunStore interface {
	ClaimRun(ctx context.Context, runID, workerID string) (*domain.Run, error)
	FinishRun(ctx context.Context, runID string, result *domain.RunResult) error
}

// Config holds worker configuration.
type Config struct {
	Logger        *slog.Logger
	RabbitClient  *rabbitmq.Client
	Runs          RunStore
	Jobs          JobStore
	TimeSeries    TimeSeriesStore
	Transformer   *transform.Transformer
	Concurrency   int
	PrefetchCount int
	RunTimeout    time.Duration
}

// Worker consumes delivery-run messages and executes the delivery pipeline.
type Worker struct {
	logger        *slog.Logger
	rabbitClient  *rabbitmq.Client
	runs          RunStore
	jobs          JobStore
	tsdb          TimeSeriesStore
	transformer   *transform.Transformer
	concurrency   int
	prefetchCount int
	runTimeout    time.Duration
	workerID      string
	runsChan      chan *domain.RunMessage
	wg            sync.WaitGroup
	stopChan      chan struct{}
}

// NewWorker creates a new worker instance.
func NewWorker(cfg *Config) *Worker {
	return &Worker{
		logger:        cfg.Logger,
		rabbitClient:  cfg.RabbitClient,
		runs:          cfg.Runs,
		jobs:          cfg.Jobs,
		tsdb:          cfg.TimeSeries,
		transformer:   cfg.Transformer,
		concurrency:   cfg.Concurrency,
		prefetchCount: cfg.PrefetchCount,
		runTimeout:    cfg.RunTimeout,
		workerID:      fmt.Sprintf("delivery-worker-%s", uuid.New().String()[:8]),
		runsChan:      make(chan *domain.RunMessage, cfg.Concurrency),
		stopChan:      make(chan struct{}),
	}
}

// Start begins consuming and processing delivery runs. It blocks until the
// context is canceled or the delivery channel closes.
func (w *Worker) Start(ctx context.Context) error {
	w.logger.Info("Starting worker",
		slog.String("worker_id", w.workerID),
		slog.Int("concurrency", w.concurrency),
		slog.Duration("run_timeout", w.runTimeout),
	)

	deliveries, err := w.setupConsumer()
	if err != nil {
		return fmt.Errorf("failed to set up consumer: %w", err)
	}

	w.spawnWorkerPool(ctx)
	w.startMessageDispatcher(ctx, deliveries)

	return nil
}

// Stop gracefully stops the worker pool.
func (w *Worker) Stop() {
	w.logger.Info("Stopping worker...")
	close(w.stopChan)
	w.wg.Wait()
	w.logger.Info("Worker stopped")
}
