package transform

// Measurement is one metric value recorded within a job. The metric name is
// fully qualified (`<package>.<metric>`). A nil Value means the measurement
// carries no numeric result.
type Measurement struct {
	Metric   string   `json:"metric"`
	Value    *float64 `json:"value"`
	BlobRefs []string `json:"blob_refs,omitempty"`
}

// Package describes a software package associated with a job.
type Package struct {
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
	GitSHA  string `json:"git_sha,omitempty"`
}

// Blob is a reference to a data blob uploaded with a job.
type Blob struct {
	Identifier string `json:"identifier"`
	Name       string `json:"name"`
}

// JobData is the job snapshot fetched from the job store at the start of a
// delivery run. It is read once and never mutated by the pipeline.
type JobData struct {
	ID           string         `json:"id"`
	Env          string         `json:"env"`
	Meta         map[string]any `json:"meta,omitempty"`
	Measurements []Measurement  `json:"measurements"`
	Packages     []Package      `json:"packages"`
	Blobs        []Blob         `json:"blobs,omitempty"`
}
