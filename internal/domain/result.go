package domain

import (
	"time"

	"github.com/google/uuid"
)

// ExecutionResult represents the judged outcome of a single test case.
// Immutable once written.
type ExecutionResult struct {
	TestCaseID uuid.UUID
	Index      int
	Status     Status
	RuntimeMs  int64
	MemoryKb   int64
	Stdout     string
	Stderr     string
	ExitCode   int
}

// SubmissionVerdict aggregates per-test-case results into the client-visible
// outcome of a submission. Computed exactly once per submission.
type SubmissionVerdict struct {
	SubmissionID   uuid.UUID
	OverallStatus  Status
	Score          int
	TotalRuntimeMs int64
	PeakMemoryKb   int64
	CompletedAt    time.Time
}

// JudgedCase pairs a test case with its execution result and the test data
// that produced it, so callers can shape responses per mode
type JudgedCase struct {
	Case     *TestCase
	Result   ExecutionResult
	Input    string
	Expected string
}

// JudgeReport is the full outcome of a test or submit run. Cases is always
// ordered by test case index. Compile is set only when compilation failed,
// in which case Cases is empty.
type JudgeReport struct {
	SubmissionID uuid.UUID
	Compile      *CompileDiagnostic
	Verdict      *SubmissionVerdict
	Cases        []JudgedCase
}

// ExecuteReport is the outcome of an ad hoc execute run with no test cases
// compared
type ExecuteReport struct {
	SubmissionID uuid.UUID
	Compile      *CompileDiagnostic
	Status       Status
	Stdout       string
	Stderr       string
	RuntimeMs    int64
	MemoryKb     int64
	ExitCode     int
}
