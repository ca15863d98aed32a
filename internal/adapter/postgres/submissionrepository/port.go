// package submissionrepository persists graded submissions to PostgreSQL
package submissionrepository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"gitlab.com/judgecore-2025.net/internal/core/ports/primary"
	"gitlab.com/judgecore-2025.net/internal/domain"
)

// SubmissionRepository implements the SubmissionRepository port with PostgreSQL
type SubmissionRepository struct {
	db     *sqlx.DB
	logger primary.Logger
}

// NewSubmissionRepository creates a new PostgreSQL submission repository
func NewSubmissionRepository(db *sqlx.DB, logger primary.Logger) *SubmissionRepository {
	return &SubmissionRepository{
		db:     db,
		logger: logger,
	}
}

// SaveVerdict saves the submission and its verdict in one transaction
func (r *SubmissionRepository) SaveVerdict(ctx context.Context, sub *domain.Submission, report *domain.JudgeReport) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	submissionQuery := `
		INSERT INTO submissions (
			id, room_id, question_id, student_id, language, source_code,
			status, score, total_runtime_ms, peak_memory_kb, submitted_at, completed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			score = EXCLUDED.score,
			total_runtime_ms = EXCLUDED.total_runtime_ms,
			peak_memory_kb = EXCLUDED.peak_memory_kb,
			completed_at = EXCLUDED.completed_at
	`
	verdict := report.Verdict
	_, err = tx.ExecContext(
		ctx,
		submissionQuery,
		sub.ID,
		sub.RoomID,
		sub.QuestionID,
		sub.StudentID,
		sub.Language,
		sub.Code,
		verdict.OverallStatus,
		verdict.Score,
		verdict.TotalRuntimeMs,
		verdict.PeakMemoryKb,
		sub.SubmittedAt,
		verdict.CompletedAt,
	)
	if err != nil {
		r.logger.Error("Failed to save submission", "submissionId", sub.ID, "error", err)
		return fmt.Errorf("failed to save submission: %w", err)
	}

	resultQuery := `
		INSERT INTO submission_results (
			submission_id, test_case_id, case_index, status,
			runtime_ms, memory_kb, exit_code
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (submission_id, case_index) DO UPDATE SET
			status = EXCLUDED.status,
			runtime_ms = EXCLUDED.runtime_ms,
			memory_kb = EXCLUDED.memory_kb,
			exit_code = EXCLUDED.exit_code
	`
	for _, jc := range report.Cases {
		res := jc.Result
		_, err = tx.ExecContext(
			ctx,
			resultQuery,
			sub.ID,
			res.TestCaseID,
			res.Index,
			res.Status,
			res.RuntimeMs,
			res.MemoryKb,
			res.ExitCode,
		)
		if err != nil {
			r.logger.Error("Failed to save case result", "submissionId", sub.ID, "caseIndex", res.Index, "error", err)
			return fmt.Errorf("failed to save case result: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit verdict: %w", err)
	}
	return nil
}
