package secondary

import (
	"context"

	"gitlab.com/judgecore-2025.net/internal/domain"
)

// SubmissionRepository persists graded submissions for submit mode. The
// engine only writes; reading back is the business layer's concern.
type SubmissionRepository interface {
	// SaveVerdict saves a submission together with its verdict and results
	SaveVerdict(ctx context.Context, sub *domain.Submission, report *domain.JudgeReport) error
}
