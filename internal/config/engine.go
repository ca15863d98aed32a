package config

import (
	"os"
	"strconv"
	"time"
)

// EngineConfig holds the judging engine's tunables
type EngineConfig struct {
	// Parallelism is the number of execution slots; each slot runs exactly
	// one sandboxed process at a time
	Parallelism int
	// QueueCapacity bounds the admission queue; a full queue rejects with
	// ErrOverloaded
	QueueCapacity int
	// RoomCeiling and StudentCeiling cap in-flight submissions per exam room
	// and per student
	RoomCeiling    int
	StudentCeiling int
	// CaseParallelism bounds concurrent test-case runs within one submission
	CaseParallelism int

	DefaultTimeLimitMs   int64
	DefaultMemoryLimitKb int64
	CompileTimeout       time.Duration
	// TeardownGrace is added on top of the time limit before the wall-clock
	// watchdog hard kills the sandbox
	TeardownGrace time.Duration

	RetryLimit   int
	RetryBackoff time.Duration

	SourceSizeCap  int
	OutputCapBytes int64
	// MinFreeMemoryMb refuses admission when host free memory drops below it
	MinFreeMemoryMb uint64

	WorkDir          string
	LanguagesFile    string
	TestDataRoot     string
	TestDataCacheTTL time.Duration

	// SandboxUID/SandboxGID run student processes unprivileged when non-zero
	SandboxUID int
	SandboxGID int
}

func NewEngineConfig() *EngineConfig {
	return &EngineConfig{
		Parallelism:          intEnv("ENGINE_PARALLELISM", 4),
		QueueCapacity:        intEnv("ENGINE_QUEUE_CAPACITY", 64),
		RoomCeiling:          intEnv("ENGINE_ROOM_CEILING", 16),
		StudentCeiling:       intEnv("ENGINE_STUDENT_CEILING", 2),
		CaseParallelism:      intEnv("ENGINE_CASE_PARALLELISM", 2),
		DefaultTimeLimitMs:   int64(intEnv("ENGINE_DEFAULT_TIME_LIMIT_MS", 2000)),
		DefaultMemoryLimitKb: int64(intEnv("ENGINE_DEFAULT_MEMORY_LIMIT_KB", 262144)),
		CompileTimeout:       durationEnv("ENGINE_COMPILE_TIMEOUT_SEC", 10*time.Second),
		TeardownGrace:        durationEnv("ENGINE_TEARDOWN_GRACE_SEC", 0),
		RetryLimit:           intEnv("ENGINE_RETRY_LIMIT", 2),
		RetryBackoff:         durationEnv("ENGINE_RETRY_BACKOFF_SEC", 1*time.Second),
		SourceSizeCap:        intEnv("ENGINE_SOURCE_SIZE_CAP", 64*1024),
		OutputCapBytes:       int64(intEnv("ENGINE_OUTPUT_CAP_BYTES", 64*1024)),
		MinFreeMemoryMb:      uint64(intEnv("ENGINE_MIN_FREE_MEMORY_MB", 128)),
		WorkDir:              strEnv("ENGINE_WORK_DIR", os.TempDir()),
		LanguagesFile:        strEnv("ENGINE_LANGUAGES_FILE", ""),
		TestDataRoot:         strEnv("ENGINE_TEST_DATA_ROOT", "./testdata"),
		TestDataCacheTTL:     durationEnv("ENGINE_TEST_DATA_CACHE_TTL_SEC", 10*time.Minute),
		SandboxUID:           intEnv("ENGINE_SANDBOX_UID", 0),
		SandboxGID:           intEnv("ENGINE_SANDBOX_GID", 0),
	}
}

func strEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func intEnv(key string, fallback int) int {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return value
}

func durationEnv(key string, fallback time.Duration) time.Duration {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return time.Duration(value) * time.Second
}

// TeardownGrace defaults to 500ms when unset so a hung process cannot hold a
// slot much past its time limit
func (c *EngineConfig) EffectiveTeardownGrace() time.Duration {
	if c.TeardownGrace <= 0 {
		return 500 * time.Millisecond
	}
	return c.TeardownGrace
}
