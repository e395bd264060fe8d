package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/quangpb/metrics-dashboard-be/internal/api/domain"
	"github.com/quangpb/metrics-dashboard-be/internal/api/model"
	"github.com/quangpb/metrics-dashboard-be/internal/transform"
	workerdomain "github.com/quangpb/metrics-dashboard-be/internal/worker/domain"
	"github.com/quangpb/metrics-dashboard-be/shared/postgresql"
)

// Storage handles relational persistence for the api-service.
type Storage struct {
	db *sqlx.DB
}

// NewStorage creates a Storage backed by the given PostgreSQL client.
func NewStorage(pg *postgresql.Client) *Storage {
	return &Storage{
		db: pg.GetDB(),
	}
}

// EnsureSchema creates the tables the api-service needs when they do not
// exist yet.
func (s *Storage) EnsureSchema(ctx context.Context) error {
	schema := `
		CREATE TABLE IF NOT EXISTS jobs (
			job_id     UUID PRIMARY KEY,
			env_name   TEXT NOT NULL,
			meta       JSONB NOT NULL DEFAULT '{}',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS packages (
			id      BIGSERIAL PRIMARY KEY,
			job_id  UUID NOT NULL REFERENCES jobs (job_id) ON DELETE CASCADE,
			name    TEXT NOT NULL,
			version TEXT NOT NULL DEFAULT '',
			git_sha TEXT NOT NULL DEFAULT ''
		);

		CREATE TABLE IF NOT EXISTS metrics (
			name         TEXT PRIMARY KEY,
			package      TEXT NOT NULL,
			display_name TEXT NOT NULL,
			description  TEXT NOT NULL DEFAULT '',
			unit         TEXT NOT NULL DEFAULT '',
			tags         JSONB,
			reference    JSONB
		);

		CREATE TABLE IF NOT EXISTS measurements (
			id          BIGSERIAL PRIMARY KEY,
			job_id      UUID NOT NULL REFERENCES jobs (job_id) ON DELETE CASCADE,
			metric_name TEXT NOT NULL REFERENCES metrics (name),
			value       DOUBLE PRECISION,
			blob_refs   JSONB
		);

		CREATE TABLE IF NOT EXISTS blobs (
			id         BIGSERIAL PRIMARY KEY,
			job_id     UUID NOT NULL REFERENCES jobs (job_id) ON DELETE CASCADE,
			identifier TEXT NOT NULL,
			name       TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS delivery_runs (
			run_id      UUID PRIMARY KEY,
			job_id      UUID NOT NULL,
			state       TEXT NOT NULL,
			worker_id   TEXT,
			cause       TEXT,
			status_code INT,
			message     TEXT,
			created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			started_at  TIMESTAMPTZ,
			finished_at TIMESTAMPTZ
		);
	`

	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}

	return nil
}

// NewJob aggregates everything a job submission persists in one
// transaction.
type NewJob struct {
	JobID        string
	EnvName      string
	Meta         []byte
	Packages     []model.Package
	Measurements []model.Measurement
	Blobs        []model.Blob
}

// CreateJob persists a job with its packages, measurements and blob
// references atomically.
func (s *Storage) CreateJob(ctx context.Context, job *NewJob) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO jobs (job_id, env_name, meta, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $4)
	`, job.JobID, job.EnvName, job.Meta, now)
	if err != nil {
		return fmt.Errorf("failed to create job: %w", err)
	}

	for _, p := range job.Packages {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO packages (job_id, name, version, git_sha)
			VALUES ($1, $2, $3, $4)
		`, job.JobID, p.Name, p.Version, p.GitSHA)
		if err != nil {
			return fmt.Errorf("failed to insert package %q: %w", p.Name, err)
		}
	}

	for _, m := range job.Measurements {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO measurements (job_id, metric_name, value, blob_refs)
			VALUES ($1, $2, $3, $4)
		`, job.JobID, m.MetricName, m.Value, m.BlobRefs)
		if err != nil {
			return fmt.Errorf("failed to insert measurement %q: %w", m.MetricName, err)
		}
	}

	for _, b := range job.Blobs {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO blobs (job_id, identifier, name)
			VALUES ($1, $2, $3)
		`, job.JobID, b.Identifier, b.Name)
		if err != nil {
			return fmt.Errorf("failed to insert blob %q: %w", b.Identifier, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit job: %w", err)
	}

	return nil
}

// GetJob fetches the bare job record.
func (s *Storage) GetJob(ctx context.Context, jobID string) (*model.Job, error) {
	var job model.Job
	err := s.db.GetContext(ctx, &job, `
		SELECT job_id, env_name, meta, created_at, updated_at
		FROM jobs
		WHERE job_id = $1
	`, jobID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}

	return &job, nil
}

// GetJobData assembles the full job snapshot served to the delivery
// worker. Measurements keep their insertion order.
func (s *Storage) GetJobData(ctx context.Context, jobID string) (*transform.JobData, error) {
	job, err := s.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}

	data := &transform.JobData{
		ID:  job.JobID,
		Env: job.EnvName,
	}

	if len(job.Meta) > 0 {
		if err := json.Unmarshal(job.Meta, &data.Meta); err != nil {
			return nil, fmt.Errorf("failed to decode job meta: %w", err)
		}
	}

	var measurements []model.Measurement
	err = s.db.SelectContext(ctx, &measurements, `
		SELECT job_id, metric_name, value, blob_refs
		FROM measurements
		WHERE job_id = $1
		ORDER BY id ASC
	`, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to select measurements: %w", err)
	}

	for _, m := range measurements {
		meas := transform.Measurement{Metric: m.MetricName}
		if m.Value.Valid {
			v := m.Value.Float64
			meas.Value = &v
		}
		if len(m.BlobRefs) > 0 {
			if err := json.Unmarshal(m.BlobRefs, &meas.BlobRefs); err != nil {
				return nil, fmt.Errorf("failed to decode blob refs: %w", err)
			}
		}
		data.Measurements = append(data.Measurements, meas)
	}

	var packages []model.Package
	err = s.db.SelectContext(ctx, &packages, `
		SELECT job_id, name, version, git_sha
		FROM packages
		WHERE job_id = $1
		ORDER BY name ASC
	`, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to select packages: %w", err)
	}

	for _, p := range packages {
		data.Packages = append(data.Packages, transform.Package{
			Name:    p.Name,
			Version: p.Version,
			GitSHA:  p.GitSHA,
		})
	}

	var blobs []model.Blob
	err = s.db.SelectContext(ctx, &blobs, `
		SELECT job_id, identifier, name
		FROM blobs
		WHERE job_id = $1
		ORDER BY id ASC
	`, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to select blobs: %w", err)
	}

	for _, b := range blobs {
		data.Blobs = append(data.Blobs, transform.Blob{
			Identifier: b.Identifier,
			Name:       b.Name,
		})
	}

	return data, nil
}

// JobFilter narrows and paginates a job listing.
type JobFilter struct {
	PageSize int
	Cursor   *JobCursor
}

// JobCursor is an opaque pagination position over (created_at, job_id).
type JobCursor struct {
	CreatedAt time.Time
	JobID     string
}

// ListJobs returns up to PageSize+1 jobs after the cursor, newest first.
// The extra row tells the caller whether more results exist.
func (s *Storage) ListJobs(ctx context.Context, filter JobFilter) ([]model.Job, error) {
	query := `
		SELECT job_id, env_name, meta, created_at, updated_at
		FROM jobs
	`
	args := []interface{}{}

	if filter.Cursor != nil {
		query += " WHERE (created_at, job_id) < ($1, $2)"
		args = append(args, filter.Cursor.CreatedAt, filter.Cursor.JobID)
	}

	query += " ORDER BY created_at DESC, job_id DESC"
	query += fmt.Sprintf(" LIMIT $%d", len(args)+1)
	args = append(args, filter.PageSize+1)

	var jobs []model.Job
	if err := s.db.SelectContext(ctx, &jobs, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}

	return jobs, nil
}

// DeleteJob removes a job and its associated measurements, packages and
// blob references.
func (s *Storage) DeleteJob(ctx context.Context, jobID string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM jobs WHERE job_id = $1`, jobID)
	if err != nil {
		return fmt.Errorf("failed to delete job: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrJobNotFound
	}

	return nil
}

// ResolveMetrics returns the subset of names present in the metric
// catalog.
func (s *Storage) ResolveMetrics(ctx context.Context, names []string) (map[string]bool, error) {
	resolved := make(map[string]bool, len(names))
	if len(names) == 0 {
		return resolved, nil
	}

	var found []string
	err := s.db.SelectContext(ctx, &found, `
		SELECT name FROM metrics WHERE name = ANY($1)
	`, pq.Array(names))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve metrics: %w", err)
	}

	for _, name := range found {
		resolved[name] = true
	}

	return resolved, nil
}

// CreateMetric inserts a metric definition.
func (s *Storage) CreateMetric(ctx context.Context, m *model.Metric) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO metrics (name, package, display_name, description, unit, tags, reference)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, m.Name, m.Package, m.DisplayName, m.Description, m.Unit, m.Tags, m.Reference)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return domain.ErrMetricExists
		}
		return fmt.Errorf("failed to create metric: %w", err)
	}

	return nil
}

// GetMetric fetches a metric definition by its fully qualified name.
func (s *Storage) GetMetric(ctx context.Context, name string) (*model.Metric, error) {
	var m model.Metric
	err := s.db.GetContext(ctx, &m, `
		SELECT name, package, display_name, description, unit, tags, reference
		FROM metrics
		WHERE name = $1
	`, name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrMetricNotFound
		}
		return nil, fmt.Errorf("failed to get metric: %w", err)
	}

	return &m, nil
}

// ListMetrics returns all metric definitions ordered by name.
func (s *Storage) ListMetrics(ctx context.Context) ([]model.Metric, error) {
	var metrics []model.Metric
	err := s.db.SelectContext(ctx, &metrics, `
		SELECT name, package, display_name, description, unit, tags, reference
		FROM metrics
		ORDER BY name ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list metrics: %w", err)
	}

	return metrics, nil
}

// GetBlob fetches a blob reference by identifier.
func (s *Storage) GetBlob(ctx context.Context, identifier string) (*model.Blob, error) {
	var b model.Blob
	err := s.db.GetContext(ctx, &b, `
		SELECT job_id, identifier, name
		FROM blobs
		WHERE identifier = $1
	`, identifier)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrBlobNotFound
		}
		return nil, fmt.Errorf("failed to get blob: %w", err)
	}

	return &b, nil
}

// CreateRun records a new PENDING delivery run for a job.
func (s *Storage) CreateRun(ctx context.Context, runID, jobID string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO delivery_runs (run_id, job_id, state)
		VALUES ($1, $2, $3)
	`, runID, jobID, workerdomain.RunStatePending)
	if err != nil {
		return fmt.Errorf("failed to create delivery run: %w", err)
	}

	return nil
}

// DeleteRun removes a run that could not be enqueued.
func (s *Storage) DeleteRun(ctx context.Context, runID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM delivery_runs WHERE run_id = $1`, runID); err != nil {
		return fmt.Errorf("failed to delete delivery run: %w", err)
	}

	return nil
}

// GetRun fetches a delivery run by its identifier.
func (s *Storage) GetRun(ctx context.Context, runID string) (*model.DeliveryRun, error) {
	var run model.DeliveryRun
	err := s.db.GetContext(ctx, &run, `
		SELECT run_id, job_id, state, worker_id, cause, status_code, message, created_at, updated_at
		FROM delivery_runs
		WHERE run_id = $1
	`, runID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrRunNotFound
		}
		return nil, fmt.Errorf("failed to get delivery run: %w", err)
	}

	return &run, nil
}
