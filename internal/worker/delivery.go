package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/quangpb/metrics-dashboard-be/internal/worker/domain"
)

// processRun executes one delivery run end to end: claim, deliver, record
// the terminal state. The returned error only drives the ACK/NACK
// decision; run outcomes themselves are reported through the runs store.
func (w *Worker) processRun(ctx context.Context, msg *domain.RunMessage) error {
	w.logger.Info("Processing delivery run",
		slog.String("run_id", msg.RunID),
		slog.String("job_id", msg.JobID),
		slog.String("worker_id", w.workerID),
	)

	run, err := w.runs.ClaimRun(ctx, msg.RunID, w.workerID)
	if err != nil {
		if errors.Is(err, domain.ErrRunAlreadyClaimed) {
			return fmt.Errorf("run not claimable: %w", err)
		}
		// The runs store itself is unreachable and no state has been
		// recorded yet, so redelivery is safe.
		return domain.NewRetryableError(fmt.Errorf("failed to claim run: %w", err))
	}

	runCtx := ctx
	if w.runTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, w.runTimeout)
		defer cancel()
	}

	result := w.deliver(runCtx, run.JobID)

	if err := w.runs.FinishRun(ctx, run.RunID, result); err != nil {
		w.logger.Error("Failed to record run result",
			slog.String("run_id", run.RunID),
			slog.String("state", result.State),
			slog.String("error", err.Error()),
		)
	}

	w.logger.Info("Delivery run completed",
		slog.String("run_id", run.RunID),
		slog.String("job_id", run.JobID),
		slog.String("state", result.State),
		slog.String("cause", result.Cause),
		slog.Int("status_code", result.StatusCode),
	)

	return nil
}

// deliver runs the fetch → transform → write pipeline for one job and
// returns the terminal result. All store failures are caught here and
// converted into a terminal state; no error crosses the run boundary.
func (w *Worker) deliver(ctx context.Context, jobID string) *domain.RunResult {
	// The database create is idempotent; nothing is written before it
	// succeeds.
	code, err := w.tsdb.CreateDatabase(ctx)
	if err != nil {
		return failed(domain.CauseStoreUnavailable, code,
			"could not reach the time-series store to create the database")
	}
	if code != http.StatusOK {
		return failed(domain.CauseStoreRejected, code,
			"the time-series store rejected database creation")
	}

	job, code, err := w.jobs.GetJob(ctx, jobID)
	if err != nil {
		return failed(domain.CauseJobFetchError, code,
			fmt.Sprintf("failed to fetch job %s from the job store", jobID))
	}
	if code != http.StatusOK {
		return failed(domain.CauseJobNotFound, code,
			fmt.Sprintf("job %s not found in the job store", jobID))
	}

	lines := w.transformer.ToLines(job)

	// Writes are strictly sequential; on the first non-success the run
	// stops immediately. Lines already written stay written.
	for _, line := range lines {
		code, err = w.tsdb.Write(ctx, line)
		if err != nil || code != http.StatusNoContent {
			return failed(domain.CauseWriteError, code,
				fmt.Sprintf("failed to write job %s line %q to the time-series store", jobID, line))
		}
	}

	return &domain.RunResult{
		State:      domain.RunStateSucceeded,
		StatusCode: http.StatusNoContent,
		Message:    fmt.Sprintf("job %s successfully written to the time-series store", jobID),
	}
}

func failed(cause string, statusCode int, message string) *domain.RunResult {
	return &domain.RunResult{
		State:      domain.RunStateFailed,
		Cause:      cause,
		StatusCode: statusCode,
		Message:    message,
	}
}
