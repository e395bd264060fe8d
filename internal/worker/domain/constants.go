package domain

// Delivery run states. Transitions are monotonic:
// PENDING → STARTED → (SUCCEEDED | FAILED).
const (
	RunStatePending   = "PENDING"
	RunStateStarted   = "STARTED"
	RunStateSucceeded = "SUCCEEDED"
	RunStateFailed    = "FAILED"
)

// Failure causes recorded at the terminal transition of a run.
const (
	CauseStoreUnavailable = "StoreUnavailable"
	CauseStoreRejected    = "StoreRejected"
	CauseJobFetchError    = "JobFetchError"
	CauseJobNotFound      = "JobNotFound"
	CauseWriteError       = "WriteError"
)
