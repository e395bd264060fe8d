package model

import (
	"database/sql"
	"time"
)

// Job is a persisted verification job.
type Job struct {
	JobID     string    `db:"job_id"`
	EnvName   string    `db:"env_name"`
	Meta      []byte    `db:"meta"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// Package is a software package associated with one job.
type Package struct {
	JobID   string `db:"job_id"`
	Name    string `db:"name"`
	Version string `db:"version"`
	GitSHA  string `db:"git_sha"`
}

// Measurement is one metric value recorded within a job. BlobRefs is a
// JSON array of blob identifiers.
type Measurement struct {
	JobID      string          `db:"job_id"`
	MetricName string          `db:"metric_name"`
	Value      sql.NullFloat64 `db:"value"`
	BlobRefs   []byte          `db:"blob_refs"`
}

// Blob is a data-blob reference uploaded with a job.
type Blob struct {
	JobID      string `db:"job_id"`
	Identifier string `db:"identifier"`
	Name       string `db:"name"`
}

// Metric is a metric definition from the catalog. The fully qualified name
// splits into Package and DisplayName on the first `.`.
type Metric struct {
	Name        string `db:"name"`
	Package     string `db:"package"`
	DisplayName string `db:"display_name"`
	Description string `db:"description"`
	Unit        string `db:"unit"`
	Tags        []byte `db:"tags"`
	Reference   []byte `db:"reference"`
}

// DeliveryRun is the persisted state of one delivery run.
type DeliveryRun struct {
	RunID      string         `db:"run_id"`
	JobID      string         `db:"job_id"`
	State      string         `db:"state"`
	WorkerID   sql.NullString `db:"worker_id"`
	Cause      sql.NullString `db:"cause"`
	StatusCode sql.NullInt32  `db:"status_code"`
	Message    sql.NullString `db:"message"`
	CreatedAt  time.Time      `db:"created_at"`
	UpdatedAt  time.Time      `db:"updated_at"`
}
