package dto

// MeasurementPayload is one measurement in a job submission.
type MeasurementPayload struct {
	Metric   string   `json:"metric"`
	Value    *float64 `json:"value"`
	BlobRefs []string `json:"blob_refs"`
}

// BlobPayload is one blob reference in a job submission.
type BlobPayload struct {
	Identifier string `json:"identifier"`
	Name       string `json:"name"`
}

// CreateJobRequest is the body of POST /api/v1/jobs. Meta carries the
// arbitrary job metadata plus the env and packages mappings.
type CreateJobRequest struct {
	Meta         map[string]any       `json:"meta" binding:"required"`
	Measurements []MeasurementPayload `json:"measurements" binding:"required"`
	Blobs        []BlobPayload        `json:"blobs"`
}

// CreateJobResponse acknowledges an accepted job submission. Status is the
// URL to poll for the delivery run outcome.
type CreateJobResponse struct {
	Message string `json:"message"`
	JobID   string `json:"job_id"`
	RunID   string `json:"run_id"`
	Status  string `json:"status"`
}

// CreateDeliveryResponse acknowledges a re-delivery request.
type CreateDeliveryResponse struct {
	Message string `json:"message"`
	RunID   string `json:"run_id"`
	Status  string `json:"status"`
}

// ListJobsRequest holds the query parameters of GET /api/v1/jobs.
type ListJobsRequest struct {
	PageSize int    `form:"page_size"`
	Cursor   string `form:"cursor"`
}

// JobSummary is one entry of a job listing.
type JobSummary struct {
	JobID     string `json:"job_id"`
	Env       string `json:"env"`
	CreatedAt string `json:"created_at"`
}

// ListJobsResponse is the body of GET /api/v1/jobs.
type ListJobsResponse struct {
	Jobs       []JobSummary `json:"jobs"`
	NextCursor string       `json:"next_cursor,omitempty"`
}

// CreateMetricRequest is the body of POST /api/v1/metrics/:name.
type CreateMetricRequest struct {
	Description string         `json:"description" binding:"required"`
	Unit        string         `json:"unit"`
	Tags        []string       `json:"tags"`
	Reference   map[string]any `json:"reference"`
}

// MetricResponse is a metric definition as served by the API.
type MetricResponse struct {
	Name        string         `json:"name"`
	Package     string         `json:"package"`
	DisplayName string         `json:"display_name"`
	Description string         `json:"description"`
	Unit        string         `json:"unit"`
	Tags        []string       `json:"tags,omitempty"`
	Reference   map[string]any `json:"reference,omitempty"`
}

// StatusResponse reports the state of a delivery run. Message and
// StatusCode are only present for terminal states.
type StatusResponse struct {
	Status     string `json:"status"`
	Message    string `json:"message,omitempty"`
	StatusCode *int   `json:"status_code,omitempty"`
}

// BlobResponse is a blob reference record.
type BlobResponse struct {
	Identifier string `json:"identifier"`
	Name       string `json:"name"`
	JobID      string `json:"job_id"`
}
