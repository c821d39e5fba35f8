package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// DocumentStore reads and writes whole documents below a root directory.
// It does no locking; callers serialize writers.
type DocumentStore struct {
	root string
}

// NewDocumentStore creates a store rooted at root.
func NewDocumentStore(root string) *DocumentStore {
	return &DocumentStore{root: filepath.Clean(root)}
}

// Root returns the store's root directory.
func (s *DocumentStore) Root() string {
	return s.root
}

// Resolve maps a root-relative path to an absolute one, rejecting paths that
// escape the root.
func (s *DocumentStore) Resolve(rel string) (string, error) {
	if rel == "" {
		return "", fmt.Errorf("path is required")
	}
	clean := filepath.Clean(rel)
	if filepath.IsAbs(clean) || !filepath.IsLocal(clean) {
		return "", fmt.Errorf("path %q escapes repository root", rel)
	}
	return filepath.Join(s.root, clean), nil
}

// Read returns the document content and whether it exists. A missing file is
// reported through the bool, not as an error.
func (s *DocumentStore) Read(rel string) (string, bool, error) {
	path, err := s.Resolve(rel)
	if err != nil {
		return "", false, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to read %s: %w", rel, err)
	}
	return string(data), true, nil
}

// Exists reports whether rel exists below the root.
func (s *DocumentStore) Exists(rel string) bool {
	path, err := s.Resolve(rel)
	if err != nil {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}

// Write replaces the document at rel, creating parent directories.
func (s *DocumentStore) Write(rel, content string) error {
	path, err := s.Resolve(rel)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", rel, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", rel, err)
	}
	return nil
}
