package domain

// Run ties a delivery run to the job it delivers.
type Run struct {
	RunID    string
	JobID    string
	State    string
	WorkerID string
}

// RunMessage is the queue payload scheduling a delivery run.
type RunMessage struct {
	RunID       string `json:"run_id"`
	JobID       string `json:"job_id"`
	DeliveryTag uint64 `json:"-"`
}

// RunResult is the terminal outcome of a delivery run. Cause is empty on
// success; StatusCode carries the status code captured at the boundary
// where the terminal transition happened.
type RunResult struct {
	State      string
	Cause      string
	StatusCode int
	Message    string
}
