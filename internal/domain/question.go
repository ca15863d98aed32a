package domain

// Question represents the judging parameters of a question, owned by the
// external question catalog
type Question struct {
	ID            string `db:"id"`
	TimeLimitMs   int64  `db:"time_limit_ms"`
	MemoryLimitKb int64  `db:"memory_limit_kb"`
}
