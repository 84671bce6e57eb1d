package archive

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Local writes uploads into a directory on disk.
type Local struct {
	dir string
	now func() time.Time
}

// NewLocal creates dir if needed and returns an archiver writing into it.
func NewLocal(dir string) (*Local, error) {
	if dir == "" {
		return nil, fmt.Errorf("archive directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create archive directory: %w", err)
	}
	return &Local{dir: dir, now: time.Now}, nil
}

// Save writes data and returns the file path.
func (l *Local) Save(_ context.Context, fileName string, data []byte) (string, error) {
	path := filepath.Join(l.dir, StoredName(l.now(), fileName))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write archive file: %w", err)
	}
	return path, nil
}
