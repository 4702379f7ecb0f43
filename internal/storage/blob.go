// Package storage abstracts the object store that holds snapshot
// documents.  Production uses Alibaba Cloud OSS; a filesystem
// implementation backs local development and tests.
package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// BlobStore is a path-addressed object store.  Paths use forward
// slashes regardless of backend.
type BlobStore interface {
	// Upload stores data at path, overwriting any existing object.
	Upload(ctx context.Context, path string, data []byte) error
	// Download returns the object at path.
	Download(ctx context.Context, path string) ([]byte, error)
	// Delete removes the object at path.  Deleting a missing object
	// is not an error.
	Delete(ctx context.Context, path string) error
}

// FileStore is a filesystem-backed BlobStore rooted at a directory.
type FileStore struct {
	root string
}

// NewFileStore creates the root directory if needed and returns a
// FileStore.
func NewFileStore(root string) (*FileStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create blob root: %w", err)
	}
	return &FileStore{root: root}, nil
}

func (s *FileStore) resolve(path string) string {
	clean := filepath.Clean("/" + strings.ReplaceAll(path, "\\", "/"))
	return filepath.Join(s.root, clean)
}

// Upload writes data to the rooted path, creating parent directories.
func (s *FileStore) Upload(_ context.Context, path string, data []byte) error {
	full := s.resolve(path)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("create blob dir: %w", err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return fmt.Errorf("write blob: %w", err)
	}
	return nil
}

// Download reads the object at the rooted path.
func (s *FileStore) Download(_ context.Context, path string) ([]byte, error) {
	data, err := os.ReadFile(s.resolve(path))
	if err != nil {
		return nil, fmt.Errorf("read blob %s: %w", path, err)
	}
	return data, nil
}

// Delete removes the object; a missing file is ignored.
func (s *FileStore) Delete(_ context.Context, path string) error {
	err := os.Remove(s.resolve(path))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete blob %s: %w", path, err)
	}
	return nil
}
