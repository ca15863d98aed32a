package student

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"gitlab.com/judgecore-2025.net/internal/core/ports/primary"
	"gitlab.com/judgecore-2025.net/internal/core/services/judge"
	"gitlab.com/judgecore-2025.net/internal/domain"
	"gitlab.com/judgecore-2025.net/internal/handlers"
	"gitlab.com/judgecore-2025.net/internal/handlers/response"
	"gitlab.com/judgecore-2025.net/internal/static/errs"
)

const defaultLanguage = "c"

// StudentHandler serves the student-facing judging endpoints
type StudentHandler struct {
	judgeService judge.IJudgeService
	logger       primary.Logger
}

// NewStudentHandler creates a new student handler
func NewStudentHandler(judgeService judge.IJudgeService, logger primary.Logger) *StudentHandler {
	return &StudentHandler{
		judgeService: judgeService,
		logger:       logger,
	}
}

// RegisterRoutes registers the API routes for StudentHandler
func (h *StudentHandler) RegisterRoutes(router *mux.Router, mw *handlers.MiddlewareProvider) {
	sr := router.PathPrefix("/student").Subrouter()
	sr.Use(mw.StudentAuthMiddleware)
	sr.HandleFunc("/questions/execute", h.Execute).Methods("POST")
	sr.HandleFunc("/questions/test", h.Test).Methods("POST")
	sr.HandleFunc("/questions/submission", h.Submit).Methods("POST")
}

func (h *StudentHandler) decode(w http.ResponseWriter, r *http.Request, mode domain.Mode) *domain.Submission {
	var req JudgeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("Failed to decode request", "error", err)
		response.WriteError(w, response.ErrorMessage{Message: "Invalid request", StatusCode: http.StatusBadRequest})
		return nil
	}
	language := req.Language
	if language == "" {
		language = defaultLanguage
	}
	return domain.NewSubmission(req.RoomID, req.QuestionID, handlers.StudentID(r.Context()), req.AnswerCode, language, mode)
}

// Execute handles ad hoc runs with no test case comparison
func (h *StudentHandler) Execute(w http.ResponseWriter, r *http.Request) {
	sub := h.decode(w, r, domain.ModeExecute)
	if sub == nil {
		return
	}

	report, err := h.judgeService.Execute(r.Context(), sub)
	if err != nil {
		h.writeJudgeError(w, sub, err)
		return
	}

	resp := ExecuteResponse{Results: []ExecuteCaseEntry{}}
	if report.Compile != nil {
		resp.Error = strPtr("Compilation failed")
		resp.ErrorCode = strPtr(string(domain.StatusCompileError))
		resp.LineNumber = report.Compile.LineNumber
		resp.ColumnNumber = report.Compile.ColumnNumber
		resp.ErrorDetails = strPtr(report.Compile.ErrorDetails)
		response.WriteSuccess(w, resp)
		return
	}

	resp.Results = append(resp.Results, ExecuteCaseEntry{CurrentTestCase: strPtr(report.Stdout)})
	if report.Status != domain.StatusAccepted {
		resp.Error = strPtr("Execution failed")
		resp.ErrorCode = strPtr(string(report.Status))
		resp.ErrorDetails = strPtr(report.Stderr)
	}
	response.WriteSuccess(w, resp)
}

// Test handles runs against the question's test cases with hidden-case
// redaction
func (h *StudentHandler) Test(w http.ResponseWriter, r *http.Request) {
	sub := h.decode(w, r, domain.ModeTest)
	if sub == nil {
		return
	}

	report, err := h.judgeService.Judge(r.Context(), sub)
	if err != nil {
		h.writeJudgeError(w, sub, err)
		return
	}

	if report.Compile != nil {
		response.WriteSuccess(w, TestResponse{
			CompileStatus: false,
			Results:       []TestCaseEntry{},
			OverallPassed: false,
			ErrorCode:     strPtr(string(domain.StatusCompileError)),
			ErrorDetails:  strPtr(report.Compile.ErrorDetails),
		})
		return
	}

	resp := TestResponse{
		CompileStatus: "success",
		Results:       make([]TestCaseEntry, 0, len(report.Cases)),
		OverallPassed: report.Verdict.OverallStatus == domain.StatusAccepted,
	}
	for i := range report.Cases {
		resp.Results = append(resp.Results, testEntry(&report.Cases[i]))
	}
	response.WriteSuccess(w, resp)
}

// Submit handles graded runs over all test cases, hidden ones included
func (h *StudentHandler) Submit(w http.ResponseWriter, r *http.Request) {
	sub := h.decode(w, r, domain.ModeSubmit)
	if sub == nil {
		return
	}

	report, err := h.judgeService.Judge(r.Context(), sub)
	if err != nil {
		h.writeJudgeError(w, sub, err)
		return
	}

	verdict := report.Verdict
	resp := SubmissionResponse{
		Status:  string(verdict.OverallStatus),
		Score:   verdict.Score,
		Details: make([]SubmissionDetail, 0, len(report.Cases)),
	}
	if report.Compile == nil {
		resp.TotalRunTime = int64Ptr(verdict.TotalRuntimeMs)
		resp.MemoryUsed = int64Ptr(verdict.PeakMemoryKb)
	}
	for i := range report.Cases {
		resp.Details = append(resp.Details, submissionDetail(&report.Cases[i]))
	}
	response.WriteSuccess(w, resp)
}

// testEntry shapes one case for the test endpoint. Hidden cases expose only
// pass/fail; their input, expected and actual output stay null.
func testEntry(jc *domain.JudgedCase) TestCaseEntry {
	entry := TestCaseEntry{
		Index:  jc.Case.Index,
		Passed: jc.Result.Status == domain.StatusAccepted,
	}
	if jc.Case.IsHidden {
		return entry
	}
	entry.Input = strPtr(jc.Input)
	entry.ExpectedOutput = strPtr(jc.Expected)
	entry.ActualOutput = strPtr(jc.Result.Stdout)
	switch jc.Result.Status {
	case domain.StatusRuntimeError:
		entry.Error = strPtr(jc.Result.Stderr)
	case domain.StatusTimeLimitExceeded, domain.StatusMemoryLimitExceeded:
		entry.Error = strPtr(string(jc.Result.Status))
	}
	return entry
}

// submissionDetail shapes one case for the submission endpoint. Timing and
// memory are reported for every case; hidden cases never expose output.
func submissionDetail(jc *domain.JudgedCase) SubmissionDetail {
	detail := SubmissionDetail{
		TestCaseIndex: jc.Case.Index,
		Status:        string(jc.Result.Status),
		RunTime:       int64Ptr(jc.Result.RuntimeMs),
		MemoryUsed:    int64Ptr(jc.Result.MemoryKb),
	}
	if !jc.Case.IsHidden {
		detail.Stdout = strPtr(jc.Result.Stdout)
		detail.Stderr = strPtr(jc.Result.Stderr)
	}
	return detail
}

func (h *StudentHandler) writeJudgeError(w http.ResponseWriter, sub *domain.Submission, err error) {
	switch {
	case errors.Is(err, errs.ErrEmptyCode),
		errors.Is(err, errs.ErrCodeTooLarge),
		errors.Is(err, errs.ErrUnsupportedLanguage),
		errors.Is(err, errs.ErrQuestionNotFound),
		errors.Is(err, errs.ErrNoTestCases):
		response.WriteError(w, response.ErrorMessage{Message: err.Error(), StatusCode: http.StatusBadRequest})
	case errors.Is(err, errs.ErrOverloaded):
		response.WriteError(w, response.ErrorMessage{Message: "Judge is busy, retry shortly", StatusCode: http.StatusTooManyRequests})
	case errors.Is(err, errs.ErrSuperseded):
		response.WriteError(w, response.ErrorMessage{Message: "Submission superseded by a newer one", StatusCode: http.StatusConflict})
	default:
		h.logger.Error("Judging failed", "submissionId", sub.ID, "error", err)
		response.WriteError(w, response.ErrorMessage{Message: "Internal server error", StatusCode: http.StatusInternalServerError})
	}
}

func strPtr(s string) *string {
	return &s
}

func int64Ptr(v int64) *int64 {
	return &v
}
