package judge

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/judgecore-2025.net/internal/config"
	"gitlab.com/judgecore-2025.net/internal/domain"
	"gitlab.com/judgecore-2025.net/internal/schedulerengine"
	"gitlab.com/judgecore-2025.net/internal/static/errs"
)

type nopLogger struct{}

func (nopLogger) Info(msg string, args ...interface{})  {}
func (nopLogger) Error(msg string, args ...interface{}) {}
func (nopLogger) Debug(msg string, args ...interface{}) {}
func (nopLogger) Warn(msg string, args ...interface{})  {}

type fakeQuestions struct {
	question *domain.Question
	cases    []*domain.TestCase
}

func (f *fakeQuestions) GetQuestion(ctx context.Context, questionID string) (*domain.Question, error) {
	if f.question == nil || f.question.ID != questionID {
		return nil, errs.ErrQuestionNotFound
	}
	q := *f.question
	return &q, nil
}

func (f *fakeQuestions) GetTestCases(ctx context.Context, questionID string) ([]*domain.TestCase, error) {
	return f.cases, nil
}

type fakeTestData map[string]string

func (f fakeTestData) Read(ctx context.Context, path string) ([]byte, error) {
	content, ok := f[path]
	if !ok {
		return nil, errors.New("no such test data: " + path)
	}
	return []byte(content), nil
}

type fakeCompiler struct {
	calls    int32
	cleanups int32
	fn       func(sub *domain.Submission) (*domain.Artifact, *domain.CompileDiagnostic, error)
}

func (f *fakeCompiler) Compile(ctx context.Context, sub *domain.Submission) (*domain.Artifact, *domain.CompileDiagnostic, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.fn != nil {
		return f.fn(sub)
	}
	return &domain.Artifact{BinPath: "/fake/app", Language: sub.Language}, nil, nil
}

func (f *fakeCompiler) Cleanup(artifact *domain.Artifact) {
	atomic.AddInt32(&f.cleanups, 1)
}

type fakeExecutor struct {
	calls int32
	fn    func(spec domain.RunSpec) (*domain.RunOutcome, error)
}

func (f *fakeExecutor) Run(ctx context.Context, artifact *domain.Artifact, spec domain.RunSpec) (*domain.RunOutcome, error) {
	atomic.AddInt32(&f.calls, 1)
	return f.fn(spec)
}

type fakeSubmissions struct {
	saved int32
	last  *domain.JudgeReport
}

func (f *fakeSubmissions) SaveVerdict(ctx context.Context, sub *domain.Submission, report *domain.JudgeReport) error {
	atomic.AddInt32(&f.saved, 1)
	f.last = report
	return nil
}

func testEngineConfig() *config.EngineConfig {
	return &config.EngineConfig{
		Parallelism:          2,
		QueueCapacity:        8,
		CaseParallelism:      2,
		DefaultTimeLimitMs:   2000,
		DefaultMemoryLimitKb: 262144,
		RetryLimit:           2,
		RetryBackoff:         time.Millisecond,
		SourceSizeCap:        64 * 1024,
	}
}

func acceptedOutcome(stdout string) *domain.RunOutcome {
	return &domain.RunOutcome{
		Stdout:    []byte(stdout),
		RuntimeMs: 10,
		MemoryKb:  1024,
	}
}

// echoExecutor replies with the expected output registered for the case input
func echoExecutor(outputs map[string]string) *fakeExecutor {
	return &fakeExecutor{fn: func(spec domain.RunSpec) (*domain.RunOutcome, error) {
		return acceptedOutcome(outputs[string(spec.Stdin)]), nil
	}}
}

func testCase(questionID string, index, points int, hidden bool) *domain.TestCase {
	return &domain.TestCase{
		ID:         uuid.New(),
		QuestionID: questionID,
		Index:      index,
		InputPath:  questionID + "/in" + string(rune('0'+index)),
		OutputPath: questionID + "/out" + string(rune('0'+index)),
		IsHidden:   hidden,
		Points:     points,
	}
}

type serviceFixture struct {
	svc       *JudgeService
	scheduler *schedulerengine.Engine
	compiler  *fakeCompiler
	executor  *fakeExecutor
	store     *fakeSubmissions
}

func newFixture(t *testing.T, cfg *config.EngineConfig, questions *fakeQuestions, data fakeTestData, executor *fakeExecutor) *serviceFixture {
	t.Helper()
	compiler := &fakeCompiler{}
	store := &fakeSubmissions{}
	scheduler := schedulerengine.NewEngine(cfg, nopLogger{})
	scheduler.Start()
	t.Cleanup(scheduler.Shutdown)
	svc := NewJudgeService(cfg, questions, data, compiler, executor, store, scheduler, nopLogger{})
	return &serviceFixture{svc: svc, scheduler: scheduler, compiler: compiler, executor: executor, store: store}
}

func helloFixture(t *testing.T) (*serviceFixture, *domain.Submission) {
	questions := &fakeQuestions{
		question: &domain.Question{ID: "q1", TimeLimitMs: 1000, MemoryLimitKb: 65536},
		cases:    []*domain.TestCase{testCase("q1", 0, 100, false)},
	}
	data := fakeTestData{"q1/in0": "", "q1/out0": "Hello\n"}
	executor := echoExecutor(map[string]string{"": "Hello\n"})
	fx := newFixture(t, testEngineConfig(), questions, data, executor)
	sub := domain.NewSubmission("room-1", "q1", "student-1", "int main(){}", "c", domain.ModeTest)
	return fx, sub
}

func TestJudgeAllPassing(t *testing.T) {
	fx, sub := helloFixture(t)

	report, err := fx.svc.Judge(context.Background(), sub)
	require.NoError(t, err)

	assert.Nil(t, report.Compile)
	assert.Equal(t, domain.StatusAccepted, report.Verdict.OverallStatus)
	assert.Equal(t, 100, report.Verdict.Score)
	require.Len(t, report.Cases, 1)
	assert.Equal(t, domain.StatusAccepted, report.Cases[0].Result.Status)
	assert.Equal(t, int32(1), atomic.LoadInt32(&fx.compiler.calls))
	assert.Equal(t, int32(1), atomic.LoadInt32(&fx.compiler.cleanups))
}

func TestJudgeCompileErrorShortCircuits(t *testing.T) {
	fx, sub := helloFixture(t)
	line := 3
	fx.compiler.fn = func(sub *domain.Submission) (*domain.Artifact, *domain.CompileDiagnostic, error) {
		return nil, &domain.CompileDiagnostic{ErrorDetails: "main.c:3:1: error: expected ';'", LineNumber: &line}, nil
	}

	report, err := fx.svc.Judge(context.Background(), sub)
	require.NoError(t, err)

	assert.Equal(t, domain.StatusCompileError, report.Verdict.OverallStatus)
	assert.Equal(t, 0, report.Verdict.Score)
	assert.Empty(t, report.Cases)
	require.NotNil(t, report.Compile)
	assert.Equal(t, 3, *report.Compile.LineNumber)
	// no test case may run when compilation fails
	assert.Equal(t, int32(0), atomic.LoadInt32(&fx.executor.calls))
}

func TestJudgeLimitBreachDoesNotAffectSiblings(t *testing.T) {
	questions := &fakeQuestions{
		question: &domain.Question{ID: "q1", TimeLimitMs: 1000, MemoryLimitKb: 65536},
		cases: []*domain.TestCase{
			testCase("q1", 0, 30, false),
			testCase("q1", 1, 30, false),
			testCase("q1", 2, 40, true),
		},
	}
	data := fakeTestData{
		"q1/in0": "a", "q1/out0": "A",
		"q1/in1": "b", "q1/out1": "B",
		"q1/in2": "c", "q1/out2": "C",
	}
	executor := &fakeExecutor{fn: func(spec domain.RunSpec) (*domain.RunOutcome, error) {
		if string(spec.Stdin) == "b" {
			return &domain.RunOutcome{
				ExitCode:     137,
				RuntimeMs:    40,
				MemoryKb:     70000,
				KilledReason: domain.KilledMemory,
			}, nil
		}
		out := map[string]string{"a": "A", "c": "C"}
		return acceptedOutcome(out[string(spec.Stdin)]), nil
	}}
	fx := newFixture(t, testEngineConfig(), questions, data, executor)

	sub := domain.NewSubmission("room-1", "q1", "student-1", "int main(){}", "c", domain.ModeSubmit)
	report, err := fx.svc.Judge(context.Background(), sub)
	require.NoError(t, err)

	require.Len(t, report.Cases, 3)
	assert.Equal(t, domain.StatusAccepted, report.Cases[0].Result.Status)
	assert.Equal(t, domain.StatusMemoryLimitExceeded, report.Cases[1].Result.Status)
	assert.Equal(t, domain.StatusAccepted, report.Cases[2].Result.Status)
	assert.Equal(t, domain.StatusMemoryLimitExceeded, report.Verdict.OverallStatus)
	assert.Equal(t, 70, report.Verdict.Score)
}

func TestJudgeResultsOrderedByIndex(t *testing.T) {
	questions := &fakeQuestions{
		question: &domain.Question{ID: "q1", TimeLimitMs: 1000, MemoryLimitKb: 65536},
		// catalog returns the cases shuffled; the report must not
		cases: []*domain.TestCase{
			testCase("q1", 2, 10, false),
			testCase("q1", 0, 10, false),
			testCase("q1", 1, 10, false),
		},
	}
	data := fakeTestData{
		"q1/in0": "0", "q1/out0": "0",
		"q1/in1": "1", "q1/out1": "1",
		"q1/in2": "2", "q1/out2": "2",
	}
	executor := &fakeExecutor{fn: func(spec domain.RunSpec) (*domain.RunOutcome, error) {
		// earlier cases finish later
		switch string(spec.Stdin) {
		case "0":
			time.Sleep(20 * time.Millisecond)
		case "1":
			time.Sleep(10 * time.Millisecond)
		}
		return acceptedOutcome(string(spec.Stdin)), nil
	}}
	fx := newFixture(t, testEngineConfig(), questions, data, executor)

	sub := domain.NewSubmission("room-1", "q1", "student-1", "int main(){}", "c", domain.ModeTest)
	report, err := fx.svc.Judge(context.Background(), sub)
	require.NoError(t, err)

	require.Len(t, report.Cases, 3)
	for i := range report.Cases {
		assert.Equal(t, i, report.Cases[i].Case.Index)
		assert.Equal(t, i, report.Cases[i].Result.Index)
	}
}

func TestJudgeDeterministicAcrossRuns(t *testing.T) {
	fx, _ := helloFixture(t)

	var statuses []domain.Status
	for i := 0; i < 3; i++ {
		sub := domain.NewSubmission("room-1", "q1", "student-1", "int main(){}", "c", domain.ModeTest)
		report, err := fx.svc.Judge(context.Background(), sub)
		require.NoError(t, err)
		statuses = append(statuses, report.Verdict.OverallStatus)
	}
	assert.Equal(t, []domain.Status{domain.StatusAccepted, domain.StatusAccepted, domain.StatusAccepted}, statuses)
}

func TestJudgeRetriesInfrastructureFaults(t *testing.T) {
	fx, sub := helloFixture(t)
	var attempts int32
	fx.executor.fn = func(spec domain.RunSpec) (*domain.RunOutcome, error) {
		if atomic.AddInt32(&attempts, 1) == 1 {
			return nil, errors.New("sandbox setup failed")
		}
		return acceptedOutcome("Hello\n"), nil
	}

	report, err := fx.svc.Judge(context.Background(), sub)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusAccepted, report.Verdict.OverallStatus)
	assert.Equal(t, int32(2), atomic.LoadInt32(&attempts))
}

func TestJudgeInternalErrorAfterRetriesExhausted(t *testing.T) {
	fx, sub := helloFixture(t)
	fx.executor.fn = func(spec domain.RunSpec) (*domain.RunOutcome, error) {
		return nil, errors.New("sandbox setup failed")
	}

	_, err := fx.svc.Judge(context.Background(), sub)
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrInternal)
	// initial attempt plus RetryLimit retries
	assert.Equal(t, int32(3), atomic.LoadInt32(&fx.executor.calls))
}

func TestJudgeSubmitModePersistsVerdict(t *testing.T) {
	fx, sub := helloFixture(t)
	sub.Mode = domain.ModeSubmit

	report, err := fx.svc.Judge(context.Background(), sub)
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&fx.store.saved))
	assert.Equal(t, report, fx.store.last)
}

func TestJudgeTestModeDoesNotPersist(t *testing.T) {
	fx, sub := helloFixture(t)

	_, err := fx.svc.Judge(context.Background(), sub)
	require.NoError(t, err)
	assert.Equal(t, int32(0), atomic.LoadInt32(&fx.store.saved))
}

func TestJudgeValidation(t *testing.T) {
	fx, _ := helloFixture(t)

	tests := []struct {
		name string
		sub  *domain.Submission
		want error
	}{
		{
			name: "empty code",
			sub:  domain.NewSubmission("room-1", "q1", "student-1", "   \n\t", "c", domain.ModeTest),
			want: errs.ErrEmptyCode,
		},
		{
			name: "unknown question",
			sub:  domain.NewSubmission("room-1", "nope", "student-1", "int main(){}", "c", domain.ModeTest),
			want: errs.ErrQuestionNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := fx.svc.Judge(context.Background(), tt.sub)
			assert.ErrorIs(t, err, tt.want)
			// rejected before anything is scheduled
			assert.Equal(t, int32(0), atomic.LoadInt32(&fx.compiler.calls))
		})
	}
}

func TestJudgeSourceSizeCap(t *testing.T) {
	cfg := testEngineConfig()
	cfg.SourceSizeCap = 16
	questions := &fakeQuestions{question: &domain.Question{ID: "q1"}}
	fx := newFixture(t, cfg, questions, fakeTestData{}, echoExecutor(nil))

	sub := domain.NewSubmission("room-1", "q1", "student-1", "int main(){return 0;}", "c", domain.ModeTest)
	_, err := fx.svc.Judge(context.Background(), sub)
	assert.ErrorIs(t, err, errs.ErrCodeTooLarge)
}

func TestJudgeNoTestCases(t *testing.T) {
	questions := &fakeQuestions{question: &domain.Question{ID: "q1", TimeLimitMs: 1000, MemoryLimitKb: 65536}}
	fx := newFixture(t, testEngineConfig(), questions, fakeTestData{}, echoExecutor(nil))

	sub := domain.NewSubmission("room-1", "q1", "student-1", "int main(){}", "c", domain.ModeTest)
	_, err := fx.svc.Judge(context.Background(), sub)
	assert.ErrorIs(t, err, errs.ErrNoTestCases)
}

func TestJudgeDefaultLimitsApplied(t *testing.T) {
	questions := &fakeQuestions{
		// catalog has no explicit limits for this question
		question: &domain.Question{ID: "q1"},
		cases:    []*domain.TestCase{testCase("q1", 0, 100, false)},
	}
	data := fakeTestData{"q1/in0": "", "q1/out0": "ok"}
	var gotSpec domain.RunSpec
	executor := &fakeExecutor{fn: func(spec domain.RunSpec) (*domain.RunOutcome, error) {
		gotSpec = spec
		return acceptedOutcome("ok"), nil
	}}
	fx := newFixture(t, testEngineConfig(), questions, data, executor)

	sub := domain.NewSubmission("room-1", "q1", "student-1", "int main(){}", "c", domain.ModeTest)
	_, err := fx.svc.Judge(context.Background(), sub)
	require.NoError(t, err)
	assert.Equal(t, int64(2000), gotSpec.TimeLimitMs)
	assert.Equal(t, int64(262144), gotSpec.MemoryLimitKb)
}

func TestExecuteReturnsRawOutput(t *testing.T) {
	questions := &fakeQuestions{question: &domain.Question{ID: "q1", TimeLimitMs: 1000, MemoryLimitKb: 65536}}
	executor := &fakeExecutor{fn: func(spec domain.RunSpec) (*domain.RunOutcome, error) {
		return &domain.RunOutcome{
			Stdout:    []byte("Hello\n"),
			Stderr:    []byte("warn\n"),
			RuntimeMs: 7,
			MemoryKb:  512,
		}, nil
	}}
	fx := newFixture(t, testEngineConfig(), questions, fakeTestData{}, executor)

	sub := domain.NewSubmission("room-1", "q1", "student-1", "int main(){}", "c", domain.ModeExecute)
	report, err := fx.svc.Execute(context.Background(), sub)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusAccepted, report.Status)
	assert.Equal(t, "Hello\n", report.Stdout)
	assert.Equal(t, "warn\n", report.Stderr)
	assert.Equal(t, int64(7), report.RuntimeMs)
}

func TestExecuteRuntimeError(t *testing.T) {
	questions := &fakeQuestions{question: &domain.Question{ID: "q1", TimeLimitMs: 1000, MemoryLimitKb: 65536}}
	executor := &fakeExecutor{fn: func(spec domain.RunSpec) (*domain.RunOutcome, error) {
		return &domain.RunOutcome{
			Stderr:   []byte("segmentation fault"),
			ExitCode: 139,
		}, nil
	}}
	fx := newFixture(t, testEngineConfig(), questions, fakeTestData{}, executor)

	sub := domain.NewSubmission("room-1", "q1", "student-1", "int main(){}", "c", domain.ModeExecute)
	report, err := fx.svc.Execute(context.Background(), sub)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRuntimeError, report.Status)
	assert.Equal(t, 139, report.ExitCode)
}
