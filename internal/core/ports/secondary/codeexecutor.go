package secondary

import (
	"context"

	"gitlab.com/judgecore-2025.net/internal/domain"
)

// CodeCompiler turns submitted source into a runnable artifact.
// A non-nil diagnostic means the source failed to compile; an error means
// the compiler infrastructure itself failed.
type CodeCompiler interface {
	Compile(ctx context.Context, sub *domain.Submission) (*domain.Artifact, *domain.CompileDiagnostic, error)

	// Cleanup releases the artifact's scratch directory
	Cleanup(artifact *domain.Artifact)
}

// CodeExecutor runs a compiled artifact once against one test case's input,
// isolated from the host and from sibling runs
type CodeExecutor interface {
	Run(ctx context.Context, artifact *domain.Artifact, spec domain.RunSpec) (*domain.RunOutcome, error)
}
