//go:build !linux

package sandbox

import (
	"os"
	"syscall"

	"gitlab.com/judgecore-2025.net/internal/config"
	"gitlab.com/judgecore-2025.net/internal/domain"
)

// Non-linux hosts get best-effort isolation only: the wall-clock watchdog
// still applies but rlimits and process-group kills do not.

func sandboxProcAttr(cfg *config.EngineConfig) *syscall.SysProcAttr {
	return nil
}

func applyLimits(pid int, spec domain.RunSpec, restrictProcs bool) error {
	return nil
}

func isCPUTimeSignal(sig syscall.Signal) bool {
	return false
}

func killProcessGroup(pid int) {
	if p, err := os.FindProcess(pid); err == nil {
		_ = p.Kill()
	}
}

func maxRSSKb(ps *os.ProcessState) int64 {
	return 0
}

func termination(ps *os.ProcessState) (exitCode int, sig syscall.Signal, signaled bool) {
	if ps == nil {
		return -1, 0, false
	}
	return ps.ExitCode(), 0, false
}
