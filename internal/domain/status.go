package domain

// Status represents the outcome of one test case or of a whole submission
type Status string

const (
	StatusAccepted            Status = "ACCEPTED"
	StatusWrongAnswer         Status = "WRONG_ANSWER"
	StatusCompileError        Status = "COMPILE_ERROR"
	StatusRuntimeError        Status = "RUNTIME_ERROR"
	StatusTimeLimitExceeded   Status = "TIME_LIMIT_EXCEEDED"
	StatusMemoryLimitExceeded Status = "MEMORY_LIMIT_EXCEEDED"
	StatusInternalError       Status = "INTERNAL_ERROR"
)

// SubmissionState represents the lifecycle state of a submission inside the
// engine. State is scoped to one submission and discarded after the verdict
// is emitted.
type SubmissionState string

const (
	StateQueued      SubmissionState = "QUEUED"
	StateCompiling   SubmissionState = "COMPILING"
	StateRunning     SubmissionState = "RUNNING"
	StateAggregating SubmissionState = "AGGREGATING"
	StateCompleted   SubmissionState = "COMPLETED"
)
