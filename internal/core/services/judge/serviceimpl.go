package judge

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"gitlab.com/judgecore-2025.net/internal/config"
	"gitlab.com/judgecore-2025.net/internal/core/ports/primary"
	"gitlab.com/judgecore-2025.net/internal/core/ports/secondary"
	"gitlab.com/judgecore-2025.net/internal/domain"
	"gitlab.com/judgecore-2025.net/internal/schedulerengine"
	"gitlab.com/judgecore-2025.net/internal/static/errs"
)

// JudgeService drives a submission through the pipeline:
// QUEUED -> COMPILING -> {COMPILE_ERROR | RUNNING} -> AGGREGATING -> COMPLETED.
// All job state is scoped to one submission and discarded after the verdict
// is emitted.
type JudgeService struct {
	cfg         *config.EngineConfig
	questions   secondary.QuestionRepository
	testData    secondary.TestDataStore
	compiler    secondary.CodeCompiler
	executor    secondary.CodeExecutor
	submissions secondary.SubmissionRepository
	scheduler   *schedulerengine.Engine
	logger      primary.Logger
}

var _ IJudgeService = &JudgeService{}

// NewJudgeService creates a new judge service
func NewJudgeService(
	cfg *config.EngineConfig,
	questions secondary.QuestionRepository,
	testData secondary.TestDataStore,
	compiler secondary.CodeCompiler,
	executor secondary.CodeExecutor,
	submissions secondary.SubmissionRepository,
	scheduler *schedulerengine.Engine,
	logger primary.Logger,
) *JudgeService {
	return &JudgeService{
		cfg:         cfg,
		questions:   questions,
		testData:    testData,
		compiler:    compiler,
		executor:    executor,
		submissions: submissions,
		scheduler:   scheduler,
		logger:      logger,
	}
}

// Execute runs the submission ad hoc with empty stdin and no comparison
func (s *JudgeService) Execute(ctx context.Context, sub *domain.Submission) (*domain.ExecuteReport, error) {
	question, _, err := s.validate(ctx, sub, false)
	if err != nil {
		return nil, err
	}

	resCh := make(chan executeOutcome, 1)
	if err := s.scheduler.Submit(ctx, sub, func(jctx context.Context) {
		report, runErr := s.runExecute(jctx, sub, question)
		resCh <- executeOutcome{report: report, err: runErr}
	}); err != nil {
		return nil, err
	}
	s.transition(sub, domain.StateQueued)

	select {
	case out := <-resCh:
		return out.report, out.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Judge compiles once and runs every test case, then aggregates. Submit-mode
// verdicts are persisted through the external submission store.
func (s *JudgeService) Judge(ctx context.Context, sub *domain.Submission) (*domain.JudgeReport, error) {
	question, cases, err := s.validate(ctx, sub, true)
	if err != nil {
		return nil, err
	}

	resCh := make(chan judgeOutcome, 1)
	if err := s.scheduler.Submit(ctx, sub, func(jctx context.Context) {
		report, runErr := s.runJudge(jctx, sub, question, cases)
		resCh <- judgeOutcome{report: report, err: runErr}
	}); err != nil {
		return nil, err
	}
	s.transition(sub, domain.StateQueued)

	select {
	case out := <-resCh:
		if out.err != nil {
			return nil, out.err
		}
		if sub.Mode == domain.ModeSubmit && s.submissions != nil {
			if err := s.submissions.SaveVerdict(ctx, sub, out.report); err != nil {
				// the verdict is still valid; persistence is the external
				// store's concern
				s.logger.Error("Failed to persist verdict", "submissionId", sub.ID, "error", err)
			}
		}
		return out.report, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

type executeOutcome struct {
	report *domain.ExecuteReport
	err    error
}

type judgeOutcome struct {
	report *domain.JudgeReport
	err    error
}

// validate checks the request and resolves question metadata before anything
// is scheduled. needCases is true for test/submit modes.
func (s *JudgeService) validate(ctx context.Context, sub *domain.Submission, needCases bool) (*domain.Question, []*domain.TestCase, error) {
	if strings.TrimSpace(sub.Code) == "" {
		return nil, nil, errs.ErrEmptyCode
	}
	if s.cfg.SourceSizeCap > 0 && len(sub.Code) > s.cfg.SourceSizeCap {
		return nil, nil, fmt.Errorf("%w: %d bytes", errs.ErrCodeTooLarge, len(sub.Code))
	}

	question, err := s.questions.GetQuestion(ctx, sub.QuestionID)
	if err != nil {
		return nil, nil, err
	}
	if question.TimeLimitMs <= 0 {
		question.TimeLimitMs = s.cfg.DefaultTimeLimitMs
	}
	if question.MemoryLimitKb <= 0 {
		question.MemoryLimitKb = s.cfg.DefaultMemoryLimitKb
	}

	if !needCases {
		return question, nil, nil
	}
	cases, err := s.questions.GetTestCases(ctx, sub.QuestionID)
	if err != nil {
		return nil, nil, err
	}
	if len(cases) == 0 {
		return nil, nil, fmt.Errorf("%w: question %s", errs.ErrNoTestCases, sub.QuestionID)
	}
	sort.Slice(cases, func(i, j int) bool { return cases[i].Index < cases[j].Index })
	return question, cases, nil
}

func (s *JudgeService) runExecute(ctx context.Context, sub *domain.Submission, question *domain.Question) (*domain.ExecuteReport, error) {
	var report *domain.ExecuteReport
	err := s.withRetry(ctx, sub, func() error {
		var attemptErr error
		report, attemptErr = s.executeOnce(ctx, sub, question)
		return attemptErr
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}

func (s *JudgeService) executeOnce(ctx context.Context, sub *domain.Submission, question *domain.Question) (*domain.ExecuteReport, error) {
	s.transition(sub, domain.StateCompiling)
	artifact, diag, err := s.compiler.Compile(ctx, sub)
	if err != nil {
		return nil, err
	}
	if diag != nil {
		s.transition(sub, domain.StateCompleted)
		return &domain.ExecuteReport{
			SubmissionID: sub.ID,
			Compile:      diag,
			Status:       domain.StatusCompileError,
		}, nil
	}
	defer s.compiler.Cleanup(artifact)

	s.transition(sub, domain.StateRunning)
	outcome, err := s.executor.Run(ctx, artifact, domain.RunSpec{
		TimeLimitMs:   question.TimeLimitMs,
		MemoryLimitKb: question.MemoryLimitKb,
	})
	if err != nil {
		return nil, err
	}
	s.transition(sub, domain.StateCompleted)
	return &domain.ExecuteReport{
		SubmissionID: sub.ID,
		Status:       runStatus(outcome),
		Stdout:       string(outcome.Stdout),
		Stderr:       string(outcome.Stderr),
		RuntimeMs:    outcome.RuntimeMs,
		MemoryKb:     outcome.MemoryKb,
		ExitCode:     outcome.ExitCode,
	}, nil
}

func (s *JudgeService) runJudge(ctx context.Context, sub *domain.Submission, question *domain.Question, cases []*domain.TestCase) (*domain.JudgeReport, error) {
	var report *domain.JudgeReport
	err := s.withRetry(ctx, sub, func() error {
		var attemptErr error
		report, attemptErr = s.judgeOnce(ctx, sub, question, cases)
		return attemptErr
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}

func (s *JudgeService) judgeOnce(ctx context.Context, sub *domain.Submission, question *domain.Question, cases []*domain.TestCase) (*domain.JudgeReport, error) {
	s.transition(sub, domain.StateCompiling)
	artifact, diag, err := s.compiler.Compile(ctx, sub)
	if err != nil {
		return nil, err
	}
	if diag != nil {
		// compile failure short-circuits the submission; no test case runs
		s.transition(sub, domain.StateCompleted)
		return compileErrorReport(sub, diag), nil
	}
	defer s.compiler.Cleanup(artifact)

	s.transition(sub, domain.StateRunning)
	judged := make([]domain.JudgedCase, len(cases))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.caseParallelism())
	for i, tc := range cases {
		g.Go(func() error {
			jc, caseErr := s.judgeCase(gctx, question, artifact, tc)
			if caseErr != nil {
				return caseErr
			}
			judged[i] = *jc
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.transition(sub, domain.StateAggregating)
	report := aggregate(sub, judged)
	s.transition(sub, domain.StateCompleted)
	return report, nil
}

// judgeCase runs one test case in its own sandbox and decides its status.
// Limit breaches and runtime failures short-circuit the comparison and are
// never reinterpreted as WrongAnswer.
func (s *JudgeService) judgeCase(ctx context.Context, question *domain.Question, artifact *domain.Artifact, tc *domain.TestCase) (*domain.JudgedCase, error) {
	input, err := s.testData.Read(ctx, tc.InputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read input of case %d: %w", tc.Index, err)
	}
	expected, err := s.testData.Read(ctx, tc.OutputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read expected output of case %d: %w", tc.Index, err)
	}

	outcome, err := s.executor.Run(ctx, artifact, domain.RunSpec{
		Stdin:         input,
		TimeLimitMs:   question.TimeLimitMs,
		MemoryLimitKb: question.MemoryLimitKb,
	})
	if err != nil {
		return nil, err
	}

	result := domain.ExecutionResult{
		TestCaseID: tc.ID,
		Index:      tc.Index,
		RuntimeMs:  outcome.RuntimeMs,
		MemoryKb:   outcome.MemoryKb,
		Stdout:     string(outcome.Stdout),
		Stderr:     string(outcome.Stderr),
		ExitCode:   outcome.ExitCode,
	}
	if status := runStatus(outcome); status != domain.StatusAccepted {
		result.Status = status
	} else if CompareOutputs(string(expected), string(outcome.Stdout)) {
		result.Status = domain.StatusAccepted
	} else {
		result.Status = domain.StatusWrongAnswer
	}

	return &domain.JudgedCase{
		Case:     tc,
		Result:   result,
		Input:    string(input),
		Expected: string(expected),
	}, nil
}

// withRetry runs fn, retrying infrastructure faults with backoff up to the
// configured bound. Grading outcomes never reach here as errors.
func (s *JudgeService) withRetry(ctx context.Context, sub *domain.Submission, fn func() error) error {
	if err := taskErr(ctx); err != nil {
		return err
	}
	var lastErr error
	for attempt := 0; attempt <= s.cfg.RetryLimit; attempt++ {
		if attempt > 0 {
			s.logger.Warn("Retrying submission after internal error",
				"submissionId", sub.ID, "attempt", attempt, "error", lastErr)
			select {
			case <-time.After(time.Duration(attempt) * s.cfg.RetryBackoff):
			case <-ctx.Done():
				return taskErr(ctx)
			}
		}
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if err := taskErr(ctx); err != nil {
			return err
		}
	}
	s.logger.Error("Submission failed after retries", "submissionId", sub.ID, "error", lastErr)
	return fmt.Errorf("%w: %v", errs.ErrInternal, lastErr)
}

func (s *JudgeService) caseParallelism() int {
	if s.cfg.CaseParallelism > 0 {
		return s.cfg.CaseParallelism
	}
	return 1
}

func (s *JudgeService) transition(sub *domain.Submission, state domain.SubmissionState) {
	s.logger.Debug("Submission state changed", "submissionId", sub.ID, "state", state)
}

// runStatus classifies a raw run outcome without output comparison
func runStatus(outcome *domain.RunOutcome) domain.Status {
	switch {
	case outcome.KilledReason == domain.KilledTime:
		return domain.StatusTimeLimitExceeded
	case outcome.KilledReason == domain.KilledMemory:
		return domain.StatusMemoryLimitExceeded
	case outcome.ExitCode != 0:
		return domain.StatusRuntimeError
	default:
		return domain.StatusAccepted
	}
}

// taskErr surfaces why a task context ended, preferring the cancellation
// cause (e.g. superseded) over the bare context error
func taskErr(ctx context.Context) error {
	if ctx.Err() == nil {
		return nil
	}
	if cause := context.Cause(ctx); cause != nil && !errors.Is(cause, context.Canceled) {
		return cause
	}
	return ctx.Err()
}
