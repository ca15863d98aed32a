package student

// JudgeRequest is the shared body of the execute, test and submission
// endpoints
type JudgeRequest struct {
	RoomID     string `json:"roomId"`
	QuestionID string `json:"questionId"`
	AnswerCode string `json:"answerCode"`
	Language   string `json:"language"`
}

// Numeric fields are milliseconds (runTime) and kilobytes (memoryUsed);
// not-applicable values are encoded as null, never omitted.

type ExecuteCaseEntry struct {
	CurrentTestCase *string `json:"currentTestCase"`
	ExampleTestCase *string `json:"exampleTestCase"`
}

type ExecuteResponse struct {
	Results      []ExecuteCaseEntry `json:"results"`
	Error        *string            `json:"error"`
	ErrorCode    *string            `json:"errorCode"`
	LineNumber   *int               `json:"lineNumber"`
	ColumnNumber *int               `json:"columnNumber"`
	ErrorDetails *string            `json:"errorDetails"`
}

type TestCaseEntry struct {
	Index          int     `json:"index"`
	Input          *string `json:"input"`
	ExpectedOutput *string `json:"expectedOutput"`
	ActualOutput   *string `json:"actualOutput"`
	Passed         bool    `json:"passed"`
	Error          *string `json:"error"`
}

type TestResponse struct {
	// CompileStatus is "success" or the literal false, matching the client
	// contract
	CompileStatus interface{}     `json:"compileStatus"`
	Results       []TestCaseEntry `json:"results"`
	OverallPassed bool            `json:"overallPassed"`
	ErrorCode     *string         `json:"errorCode"`
	ErrorDetails  *string         `json:"errorDetails"`
}

type SubmissionDetail struct {
	TestCaseIndex int     `json:"testCaseIndex"`
	Status        string  `json:"status"`
	RunTime       *int64  `json:"runTime"`
	MemoryUsed    *int64  `json:"memoryUsed"`
	Stdout        *string `json:"stdout"`
	Stderr        *string `json:"stderr"`
}

type SubmissionResponse struct {
	Status       string             `json:"status"`
	Score        int                `json:"score"`
	TotalRunTime *int64             `json:"totalRunTime"`
	MemoryUsed   *int64             `json:"memoryUsed"`
	Details      []SubmissionDetail `json:"details"`
}
