package schedulerengine

import (
	"context"
	"fmt"
	"sync"

	"github.com/pbnjay/memory"

	"gitlab.com/judgecore-2025.net/internal/config"
	"gitlab.com/judgecore-2025.net/internal/core/ports/primary"
	"gitlab.com/judgecore-2025.net/internal/domain"
	"gitlab.com/judgecore-2025.net/internal/static/errs"
)

// RunFunc is the unit of work dispatched to an execution slot. The engine
// invokes it exactly once per admitted submission, possibly with an already
// cancelled context when the submission was superseded; implementations must
// check the context before doing real work.
type RunFunc func(ctx context.Context)

type flightKey struct {
	studentID  string
	questionID string
}

type task struct {
	sub    *domain.Submission
	run    RunFunc
	ctx    context.Context
	cancel context.CancelCauseFunc
	key    flightKey
}

// Engine is the single point of dispatch for the judging pipeline: a bounded
// admission queue feeding a fixed pool of execution slots, FIFO by arrival.
type Engine struct {
	cfg    *config.EngineConfig
	logger primary.Logger

	startOnce sync.Once
	stopOnce  sync.Once
	wg        sync.WaitGroup
	queue     chan *task
	done      chan struct{}

	mu          sync.Mutex
	roomLoad    map[string]int
	studentLoad map[string]int
	inflight    map[flightKey]*task
}

// NewEngine creates a new scheduler engine
func NewEngine(cfg *config.EngineConfig, logger primary.Logger) *Engine {
	return &Engine{
		cfg:         cfg,
		logger:      logger,
		queue:       make(chan *task, cfg.QueueCapacity),
		done:        make(chan struct{}),
		roomLoad:    make(map[string]int),
		studentLoad: make(map[string]int),
		inflight:    make(map[flightKey]*task),
	}
}

// Start launches the execution slots
func (e *Engine) Start() {
	e.startOnce.Do(func() {
		e.wg.Add(e.cfg.Parallelism)
		for i := 0; i < e.cfg.Parallelism; i++ {
			go e.loop()
		}
		e.logger.Info("Scheduler engine started",
			"parallelism", e.cfg.Parallelism,
			"queueCapacity", e.cfg.QueueCapacity)
	})
}

// Submit admits a submission for dispatch. It returns ErrOverloaded without
// consuming a slot when the queue is full, a concurrency ceiling is reached
// or host memory is low. A newer submission for the same (student, question)
// pair cancels the older one: the latest submission always wins.
func (e *Engine) Submit(ctx context.Context, sub *domain.Submission, run RunFunc) error {
	if min := e.cfg.MinFreeMemoryMb * 1024 * 1024; min > 0 && memory.FreeMemory() < min {
		e.logger.Warn("Rejecting submission, host memory low", "submissionId", sub.ID)
		return fmt.Errorf("%w: host memory low", errs.ErrOverloaded)
	}

	tctx, cancel := context.WithCancelCause(ctx)
	t := &task{
		sub:    sub,
		run:    run,
		ctx:    tctx,
		cancel: cancel,
		key:    flightKey{studentID: sub.StudentID, questionID: sub.QuestionID},
	}

	e.mu.Lock()
	if c := e.cfg.RoomCeiling; c > 0 && e.roomLoad[sub.RoomID] >= c {
		e.mu.Unlock()
		cancel(nil)
		return fmt.Errorf("%w: room %s concurrency ceiling reached", errs.ErrOverloaded, sub.RoomID)
	}
	if c := e.cfg.StudentCeiling; c > 0 && e.studentLoad[sub.StudentID] >= c {
		e.mu.Unlock()
		cancel(nil)
		return fmt.Errorf("%w: student concurrency ceiling reached", errs.ErrOverloaded)
	}
	// latest submission wins for the same (student, question) pair
	if prev := e.inflight[t.key]; prev != nil {
		e.logger.Info("Superseding older submission",
			"old", prev.sub.ID, "new", sub.ID, "studentId", sub.StudentID)
		prev.cancel(errs.ErrSuperseded)
	}
	e.inflight[t.key] = t
	e.roomLoad[sub.RoomID]++
	e.studentLoad[sub.StudentID]++
	e.mu.Unlock()

	select {
	case e.queue <- t:
		return nil
	default:
		e.release(t)
		return fmt.Errorf("%w: admission queue full", errs.ErrOverloaded)
	}
}

// Shutdown waits for all execution slots to drain
func (e *Engine) Shutdown() {
	e.stopOnce.Do(func() {
		close(e.done)
		e.wg.Wait()
		e.logger.Info("Scheduler engine stopped")
	})
}

func (e *Engine) loop() {
	defer e.wg.Done()
	for {
		select {
		case t := <-e.queue:
			t.run(t.ctx)
			e.release(t)
		case <-e.done:
			return
		}
	}
}

func (e *Engine) release(t *task) {
	t.cancel(nil)
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.roomLoad[t.sub.RoomID]--; e.roomLoad[t.sub.RoomID] <= 0 {
		delete(e.roomLoad, t.sub.RoomID)
	}
	if e.studentLoad[t.sub.StudentID]--; e.studentLoad[t.sub.StudentID] <= 0 {
		delete(e.studentLoad, t.sub.StudentID)
	}
	if e.inflight[t.key] == t {
		delete(e.inflight, t.key)
	}
}
