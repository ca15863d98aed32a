package domain

import (
	"time"

	"github.com/google/uuid"
)

// Mode selects how a submission is judged
type Mode string

const (
	ModeExecute Mode = "execute"
	ModeTest    Mode = "test"
	ModeSubmit  Mode = "submit"
)

// Submission represents a code submission to be executed
type Submission struct {
	ID          uuid.UUID
	RoomID      string
	QuestionID  string
	StudentID   string
	Code        string
	Language    string
	Mode        Mode
	SubmittedAt time.Time
}

// NewSubmission creates a new submission
func NewSubmission(roomID, questionID, studentID, code, language string, mode Mode) *Submission {
	return &Submission{
		ID:          uuid.New(),
		RoomID:      roomID,
		QuestionID:  questionID,
		StudentID:   studentID,
		Code:        code,
		Language:    language,
		Mode:        mode,
		SubmittedAt: time.Now(),
	}
}
