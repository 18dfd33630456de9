package storage

import (
	"context"
	"os"
)

// File is a Store over the local filesystem, used for offline runs and
// testing against a workbook copy on disk.
type File struct{}

// Download reads the file at path.
func (File) Download(_ context.Context, path string) ([]byte, error) {
	return os.ReadFile(path)
}

// Upload overwrites the file at path.
func (File) Upload(_ context.Context, path string, data []byte) error {
	return os.WriteFile(path, data, 0o644)
}
