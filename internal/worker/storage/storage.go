package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	"github.com/quangpb/metrics-dashboard-be/internal/worker/domain"
)

// Storage handles delivery-run state transitions for the worker.
type Storage struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStorage creates a new Storage instance.
func NewStorage(db *sqlx.DB, logger *slog.Logger) *Storage {
	return &Storage{
		db:     db,
		logger: logger,
	}
}

// ClaimRun attempts to move a run PENDING → STARTED using optimistic
// locking, so exactly one worker executes a given run. Returns
// ErrRunAlreadyClaimed when the run is missing or already past PENDING.
func (s *Storage) ClaimRun(ctx context.Context, runID, workerID string) (*domain.Run, error) {
	query := `
		UPDATE delivery_runs
		SET state = $1,
		    worker_id = $2,
		    started_at = NOW(),
		    updated_at = NOW()
		WHERE run_id = $3
		  AND state = $4
		RETURNING run_id, job_id
	`

	var run domain.Run
	err := s.db.QueryRowContext(ctx, query, domain.RunStateStarted, workerID, runID, domain.RunStatePending).Scan(
		&run.RunID,
		&run.JobID,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.logger.Warn("Failed to claim run - already claimed or not found",
				slog.String("run_id", runID),
				slog.String("worker_id", workerID),
			)
			return nil, domain.ErrRunAlreadyClaimed
		}
		return nil, fmt.Errorf("failed to claim run: %w", err)
	}

	run.State = domain.RunStateStarted
	run.WorkerID = workerID

	s.logger.Info("Delivery run claimed",
		slog.String("run_id", runID),
		slog.String("job_id", run.JobID),
		slog.String("worker_id", workerID),
	)

	return &run, nil
}

// FinishRun records the terminal state of a run together with the cause,
// status code and message captured at the terminal transition.
func (s *Storage) FinishRun(ctx context.Context, runID string, result *domain.RunResult) error {
	query := `
		UPDATE delivery_runs
		SET state = $1,
		    cause = NULLIF($2, ''),
		    status_code = $3,
		    message = $4,
		    finished_at = NOW(),
		    updated_at = NOW()
		WHERE run_id = $5
	`

	_, err := s.db.ExecContext(ctx, query,
		result.State,
		result.Cause,
		result.StatusCode,
		result.Message,
		runID,
	)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}

	s.logger.Info("Delivery run finished",
		slog.String("run_id", runID),
		slog.String("state", result.State),
		slog.Int("status_code", result.StatusCode),
	)

	return nil
}
