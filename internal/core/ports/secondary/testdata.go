package secondary

import "context"

// TestDataStore reads test-case input and expected-output content by the
// paths recorded in the question catalog
type TestDataStore interface {
	Read(ctx context.Context, path string) ([]byte, error)
}
