// package questionrepository reads the external question catalog from PostgreSQL
package questionrepository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"gitlab.com/judgecore-2025.net/internal/core/ports/primary"
	"gitlab.com/judgecore-2025.net/internal/domain"
	"gitlab.com/judgecore-2025.net/internal/static/errs"
)

// QuestionRepository implements the QuestionRepository port with PostgreSQL
type QuestionRepository struct {
	db     *sqlx.DB
	logger primary.Logger
}

// NewQuestionRepository creates a new PostgreSQL question repository
func NewQuestionRepository(db *sqlx.DB, logger primary.Logger) *QuestionRepository {
	return &QuestionRepository{
		db:     db,
		logger: logger,
	}
}

// GetQuestion retrieves judging parameters for a question
func (r *QuestionRepository) GetQuestion(ctx context.Context, questionID string) (*domain.Question, error) {
	query := `
		SELECT id, time_limit_ms, memory_limit_kb
		FROM questions
		WHERE id = $1
	`

	var question domain.Question
	if err := r.db.GetContext(ctx, &question, query, questionID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", errs.ErrQuestionNotFound, questionID)
		}
		r.logger.Error("Failed to get question", "questionId", questionID, "error", err)
		return nil, fmt.Errorf("failed to get question: %w", err)
	}
	return &question, nil
}

// GetTestCases retrieves the test cases of a question ordered by index
func (r *QuestionRepository) GetTestCases(ctx context.Context, questionID string) ([]*domain.TestCase, error) {
	query := `
		SELECT id, question_id, case_index, input_path, output_path, is_hidden, points
		FROM test_cases
		WHERE question_id = $1
		ORDER BY case_index ASC
	`

	var cases []*domain.TestCase
	if err := r.db.SelectContext(ctx, &cases, query, questionID); err != nil {
		r.logger.Error("Failed to get test cases", "questionId", questionID, "error", err)
		return nil, fmt.Errorf("failed to get test cases: %w", err)
	}
	return cases, nil
}
