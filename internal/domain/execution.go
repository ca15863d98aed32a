package domain

// Artifact is an opaque handle to a compiled executable, reused for every
// test case of its submission
type Artifact struct {
	WorkDir  string
	BinPath  string
	Language string
}

// CompileDiagnostic carries structured compiler output for a failed build
type CompileDiagnostic struct {
	ErrorDetails string
	LineNumber   *int
	ColumnNumber *int
}

// KillReason records why the sandbox terminated a process early
type KillReason string

const (
	KilledNone   KillReason = ""
	KilledTime   KillReason = "TIME_LIMIT"
	KilledMemory KillReason = "MEMORY_LIMIT"
)

// RunSpec describes one sandboxed run of an artifact
type RunSpec struct {
	Stdin         []byte
	TimeLimitMs   int64
	MemoryLimitKb int64
}

// RunOutcome is the raw observation of one sandboxed run
type RunOutcome struct {
	Stdout       []byte
	Stderr       []byte
	ExitCode     int
	RuntimeMs    int64
	MemoryKb     int64
	KilledReason KillReason
}
