package errs

import "errors"

var (
	ErrValidation          = errors.New("validation failed")
	ErrEmptyCode           = errors.New("answer code is empty")
	ErrCodeTooLarge        = errors.New("answer code exceeds size limit")
	ErrQuestionNotFound    = errors.New("question not found")
	ErrNoTestCases         = errors.New("no test cases for question")
	ErrUnsupportedLanguage = errors.New("unsupported language")
	ErrOverloaded          = errors.New("judge overloaded")
	ErrSuperseded          = errors.New("submission superseded by a newer one")
	ErrInternal            = errors.New("internal judge error")
)
