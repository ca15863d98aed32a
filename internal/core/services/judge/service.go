package judge

import (
	"context"

	"gitlab.com/judgecore-2025.net/internal/domain"
)

// IJudgeService is the primary port of the judging engine
type IJudgeService interface {
	// Execute runs the submission once ad hoc, without test cases
	Execute(ctx context.Context, sub *domain.Submission) (*domain.ExecuteReport, error)

	// Judge compiles the submission once and runs it against every test case
	// of its question, producing an index-ordered report. Used for both test
	// and submit modes; submit-mode verdicts are handed to the external
	// submission store.
	Judge(ctx context.Context, sub *domain.Submission) (*domain.JudgeReport, error)
}
