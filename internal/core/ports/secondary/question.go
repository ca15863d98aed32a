package secondary

import (
	"context"

	"gitlab.com/judgecore-2025.net/internal/domain"
)

// QuestionRepository reads question and test-case metadata from the external
// question catalog
type QuestionRepository interface {
	// GetQuestion retrieves judging parameters for a question
	GetQuestion(ctx context.Context, questionID string) (*domain.Question, error)

	// GetTestCases retrieves the test cases of a question ordered by index
	GetTestCases(ctx context.Context, questionID string) ([]*domain.TestCase, error)
}
