package judge

import (
	"time"

	"gitlab.com/judgecore-2025.net/internal/domain"
)

// aggregate folds the index-ordered judged cases into a verdict. Overall
// status is the status of the first failing test case by index, not the
// first to finish.
func aggregate(sub *domain.Submission, judged []domain.JudgedCase) *domain.JudgeReport {
	verdict := &domain.SubmissionVerdict{
		SubmissionID:  sub.ID,
		OverallStatus: domain.StatusAccepted,
		CompletedAt:   time.Now(),
	}
	for i := range judged {
		r := judged[i].Result
		verdict.TotalRuntimeMs += r.RuntimeMs
		if r.MemoryKb > verdict.PeakMemoryKb {
			verdict.PeakMemoryKb = r.MemoryKb
		}
		if r.Status == domain.StatusAccepted {
			verdict.Score += judged[i].Case.Points
		} else if verdict.OverallStatus == domain.StatusAccepted {
			verdict.OverallStatus = r.Status
		}
	}
	return &domain.JudgeReport{
		SubmissionID: sub.ID,
		Verdict:      verdict,
		Cases:        judged,
	}
}

// compileErrorReport is the terminal report for a submission that never ran:
// zero results, CompileError verdict
func compileErrorReport(sub *domain.Submission, diag *domain.CompileDiagnostic) *domain.JudgeReport {
	return &domain.JudgeReport{
		SubmissionID: sub.ID,
		Compile:      diag,
		Verdict: &domain.SubmissionVerdict{
			SubmissionID:  sub.ID,
			OverallStatus: domain.StatusCompileError,
			CompletedAt:   time.Now(),
		},
	}
}
