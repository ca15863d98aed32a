package domain

import "github.com/google/uuid"

// TestCase represents one test case of a question. Index is unique per
// question and defines both display order and point weighting.
type TestCase struct {
	ID         uuid.UUID `db:"id"`
	QuestionID string    `db:"question_id"`
	Index      int       `db:"case_index"`
	InputPath  string    `db:"input_path"`
	OutputPath string    `db:"output_path"`
	IsHidden   bool      `db:"is_hidden"`
	Points     int       `db:"points"`
}

// MaxPoints returns the highest score the given test cases can award
func MaxPoints(cases []*TestCase) int {
	total := 0
	for _, tc := range cases {
		total += tc.Points
	}
	return total
}
