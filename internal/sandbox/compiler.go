package sandbox

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gitlab.com/judgecore-2025.net/internal/config"
	"gitlab.com/judgecore-2025.net/internal/core/ports/primary"
	"gitlab.com/judgecore-2025.net/internal/domain"
	"gitlab.com/judgecore-2025.net/internal/languages"
)

const artifactName = "app"

// diagRe matches gcc-style "<file>:<line>:<col>: error:" prefixes
var diagRe = regexp.MustCompile(`(?m)^[^:\n]+:(\d+):(\d+):\s+(?:fatal\s+)?error`)

// Compiler implements the secondary.CodeCompiler port by invoking the
// language's toolchain in a private scratch directory
type Compiler struct {
	cfg    *config.EngineConfig
	langs  *languages.Registry
	logger primary.Logger
}

// NewCompiler creates a new compiler stage
func NewCompiler(cfg *config.EngineConfig, langs *languages.Registry, logger primary.Logger) *Compiler {
	return &Compiler{
		cfg:    cfg,
		langs:  langs,
		logger: logger,
	}
}

// Compile builds the submission's source into a runnable artifact. A non-nil
// diagnostic means the student's source failed to compile; an error means the
// toolchain itself failed.
func (c *Compiler) Compile(ctx context.Context, sub *domain.Submission) (*domain.Artifact, *domain.CompileDiagnostic, error) {
	lang, err := c.langs.Get(sub.Language)
	if err != nil {
		return nil, nil, err
	}

	box, err := os.MkdirTemp(c.cfg.WorkDir, "judge-build-*")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create build directory: %w", err)
	}

	srcPath := filepath.Join(box, lang.SourceFile)
	if err := os.WriteFile(srcPath, []byte(sub.Code), 0600); err != nil {
		os.RemoveAll(box)
		return nil, nil, fmt.Errorf("failed to write source file: %w", err)
	}
	binPath := filepath.Join(box, artifactName)

	timeout := c.cfg.CompileTimeout
	if lang.CompileTimeoutSec > 0 {
		timeout = time.Duration(lang.CompileTimeoutSec) * time.Second
	}
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	argv := make([]string, len(lang.CompileCmd))
	for i, arg := range lang.CompileCmd {
		arg = strings.ReplaceAll(arg, "{src}", lang.SourceFile)
		arg = strings.ReplaceAll(arg, "{bin}", artifactName)
		argv[i] = arg
	}

	cmd := exec.CommandContext(cctx, argv[0], argv[1:]...)
	cmd.Dir = box
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	if errors.Is(cctx.Err(), context.DeadlineExceeded) {
		os.RemoveAll(box)
		c.logger.Warn("Compilation timed out", "submissionId", sub.ID, "language", lang.Name)
		return nil, &domain.CompileDiagnostic{ErrorDetails: "compilation timed out"}, nil
	}
	if runErr != nil {
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			os.RemoveAll(box)
			return nil, ParseDiagnostic(stderr.String()), nil
		}
		os.RemoveAll(box)
		return nil, nil, fmt.Errorf("failed to run compiler: %w", runErr)
	}
	if _, err := os.Stat(binPath); err != nil {
		os.RemoveAll(box)
		return nil, nil, fmt.Errorf("compiler produced no executable: %w", err)
	}

	return &domain.Artifact{
		WorkDir:  box,
		BinPath:  binPath,
		Language: lang.Name,
	}, nil, nil
}

// Cleanup releases the artifact's scratch directory
func (c *Compiler) Cleanup(artifact *domain.Artifact) {
	if artifact == nil || artifact.WorkDir == "" {
		return
	}
	if err := os.RemoveAll(artifact.WorkDir); err != nil {
		c.logger.Warn("Failed to remove build directory", "dir", artifact.WorkDir, "error", err)
	}
}

// ParseDiagnostic extracts line and column numbers from gcc-style compiler
// output. The full stderr becomes the error details.
func ParseDiagnostic(stderr string) *domain.CompileDiagnostic {
	diag := &domain.CompileDiagnostic{ErrorDetails: stderr}
	if diag.ErrorDetails == "" {
		diag.ErrorDetails = "compilation failed"
	}
	if m := diagRe.FindStringSubmatch(stderr); m != nil {
		if line, err := strconv.Atoi(m[1]); err == nil {
			diag.LineNumber = &line
		}
		if col, err := strconv.Atoi(m[2]); err == nil {
			diag.ColumnNumber = &col
		}
	}
	return diag
}
