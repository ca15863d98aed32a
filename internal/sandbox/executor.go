package sandbox

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sync/atomic"
	"time"

	"gitlab.com/judgecore-2025.net/internal/config"
	"gitlab.com/judgecore-2025.net/internal/core/ports/primary"
	"gitlab.com/judgecore-2025.net/internal/domain"
)

// Runner implements the secondary.CodeExecutor port. Each run gets a private
// scratch directory, its own process group and its own resource limits, and
// is torn down unconditionally on every exit path.
type Runner struct {
	cfg    *config.EngineConfig
	logger primary.Logger
}

// NewRunner creates a new sandboxed executor
func NewRunner(cfg *config.EngineConfig, logger primary.Logger) *Runner {
	return &Runner{
		cfg:    cfg,
		logger: logger,
	}
}

// Run executes the artifact once with the given input under the spec's time
// and memory ceilings. A returned error is an infrastructure fault; limit
// breaches and abnormal exits are reported inside the outcome.
func (r *Runner) Run(ctx context.Context, artifact *domain.Artifact, spec domain.RunSpec) (*domain.RunOutcome, error) {
	runDir, err := os.MkdirTemp(r.cfg.WorkDir, "judge-run-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create run directory: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(runDir); err != nil {
			r.logger.Warn("Failed to remove run directory", "dir", runDir, "error", err)
		}
	}()

	stdout := newCappedBuffer(r.cfg.OutputCapBytes)
	stderr := newCappedBuffer(r.cfg.OutputCapBytes)

	cmd := exec.Command(artifact.BinPath)
	cmd.Dir = runDir
	cmd.Stdin = bytes.NewReader(spec.Stdin)
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	cmd.Env = []string{"PATH=/usr/bin:/bin"}
	cmd.SysProcAttr = sandboxProcAttr(r.cfg)

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start sandboxed process: %w", err)
	}
	pid := cmd.Process.Pid

	if err := applyLimits(pid, spec, r.cfg.SandboxUID > 0); err != nil {
		killProcessGroup(pid)
		_ = cmd.Wait()
		return nil, fmt.Errorf("failed to apply resource limits: %w", err)
	}

	// wall-clock watchdog; the CPU rlimit alone cannot catch a sleeping
	// process
	var wallKilled atomic.Bool
	wall := time.Duration(spec.TimeLimitMs)*time.Millisecond + r.cfg.EffectiveTeardownGrace()
	watchdog := time.AfterFunc(wall, func() {
		wallKilled.Store(true)
		killProcessGroup(pid)
	})
	defer watchdog.Stop()

	waitDone := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			killProcessGroup(pid)
		case <-waitDone:
		}
	}()

	waitErr := cmd.Wait()
	close(waitDone)
	killProcessGroup(pid) // reap any forked children before the dir is removed

	if ctx.Err() != nil && !wallKilled.Load() {
		return nil, ctx.Err()
	}
	if waitErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(waitErr, &exitErr) {
			return nil, fmt.Errorf("failed to wait for sandboxed process: %w", waitErr)
		}
	}

	outcome := &domain.RunOutcome{
		Stdout:    stdout.Bytes(),
		Stderr:    stderr.Bytes(),
		RuntimeMs: time.Since(start).Milliseconds(),
		MemoryKb:  maxRSSKb(cmd.ProcessState),
	}

	exitCode, sig, signaled := termination(cmd.ProcessState)
	outcome.ExitCode = exitCode
	switch {
	case wallKilled.Load() || (signaled && isCPUTimeSignal(sig)):
		outcome.KilledReason = domain.KilledTime
	case spec.MemoryLimitKb > 0 && outcome.MemoryKb >= spec.MemoryLimitKb && (signaled || exitCode != 0):
		outcome.KilledReason = domain.KilledMemory
	}
	return outcome, nil
}
