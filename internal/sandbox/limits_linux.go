//go:build linux

package sandbox

import (
	"fmt"
	"os"
	"syscall"

	"golang.org/x/sys/unix"

	"gitlab.com/judgecore-2025.net/internal/config"
	"gitlab.com/judgecore-2025.net/internal/domain"
)

const fsizeLimitBytes = 16 * 1024 * 1024

func sandboxProcAttr(cfg *config.EngineConfig) *syscall.SysProcAttr {
	attr := &syscall.SysProcAttr{Setpgid: true}
	if cfg.SandboxUID > 0 {
		attr.Credential = &syscall.Credential{
			Uid: uint32(cfg.SandboxUID),
			Gid: uint32(cfg.SandboxGID),
		}
	}
	return attr
}

// applyLimits sets POSIX rlimits on the already-started child. restrictProcs
// is only safe when the child runs under a dedicated uid, since RLIMIT_NPROC
// counts processes per uid.
func applyLimits(pid int, spec domain.RunSpec, restrictProcs bool) error {
	cpuSec := uint64((spec.TimeLimitMs + 999) / 1000)
	limits := []struct {
		res      int
		cur, max uint64
	}{
		{unix.RLIMIT_CPU, cpuSec, cpuSec + 1},
		{unix.RLIMIT_FSIZE, fsizeLimitBytes, fsizeLimitBytes},
		{unix.RLIMIT_CORE, 0, 0},
	}
	if spec.MemoryLimitKb > 0 {
		as := uint64(spec.MemoryLimitKb) * 1024
		limits = append(limits, struct {
			res      int
			cur, max uint64
		}{unix.RLIMIT_AS, as, as})
	}
	if restrictProcs {
		limits = append(limits, struct {
			res      int
			cur, max uint64
		}{unix.RLIMIT_NPROC, 16, 16})
	}
	for _, l := range limits {
		rl := &unix.Rlimit{Cur: l.cur, Max: l.max}
		if err := unix.Prlimit(pid, l.res, rl, nil); err != nil {
			return fmt.Errorf("prlimit resource %d: %w", l.res, err)
		}
	}
	return nil
}

func isCPUTimeSignal(sig syscall.Signal) bool {
	return sig == syscall.SIGXCPU
}

func killProcessGroup(pid int) {
	_ = syscall.Kill(-pid, syscall.SIGKILL)
}

// maxRSSKb reads the peak resident set size; linux reports it in kilobytes
func maxRSSKb(ps *os.ProcessState) int64 {
	if ps == nil {
		return 0
	}
	if ru, ok := ps.SysUsage().(*syscall.Rusage); ok && ru != nil {
		return ru.Maxrss
	}
	return 0
}

func termination(ps *os.ProcessState) (exitCode int, sig syscall.Signal, signaled bool) {
	if ps == nil {
		return -1, 0, false
	}
	if ws, ok := ps.Sys().(syscall.WaitStatus); ok {
		if ws.Signaled() {
			return 128 + int(ws.Signal()), ws.Signal(), true
		}
		return ws.ExitStatus(), 0, false
	}
	return ps.ExitCode(), 0, false
}
