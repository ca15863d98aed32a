// package localfs reads test-case data from the local filesystem
package localfs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Store resolves catalog paths under a fixed root directory
type Store struct {
	root string
}

// NewStore creates a store rooted at dir
func NewStore(dir string) *Store {
	return &Store{root: dir}
}

// Read returns the content of the file at the given catalog path. Paths that
// escape the root are rejected.
func (s *Store) Read(ctx context.Context, path string) ([]byte, error) {
	full := filepath.Join(s.root, filepath.Clean("/"+path))
	if !strings.HasPrefix(full, filepath.Clean(s.root)+string(os.PathSeparator)) {
		return nil, fmt.Errorf("test data path escapes root: %s", path)
	}
	data, err := os.ReadFile(full)
	if err != nil {
		return nil, fmt.Errorf("failed to read test data %s: %w", path, err)
	}
	return data, nil
}
