package modelstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// FileStore persists artifacts as files under a root directory. Writes go
// through a temp file followed by a rename, so readers never observe a
// half-written artifact.
type FileStore struct {
	root string
}

// NewFileStore creates a file-backed store rooted at dir, creating the
// directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("NewFileStore: create %q: %w", dir, err)
	}
	return &FileStore{root: dir}, nil
}

// Load implements Store.
func (s *FileStore) Load(_ context.Context, name string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(s.root, name))
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("load %q: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load %q: %w", name, err)
	}
	return data, nil
}

// Save implements Store.
func (s *FileStore) Save(_ context.Context, name string, data []byte) error {
	target := filepath.Join(s.root, name)
	tmp, err := os.CreateTemp(s.root, name+".tmp-*")
	if err != nil {
		return fmt.Errorf("save %q: create temp: %w", name, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("save %q: write: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("save %q: close: %w", name, err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("save %q: rename: %w", name, err)
	}
	return nil
}

// Exists implements Store.
func (s *FileStore) Exists(_ context.Context, name string) (bool, error) {
	_, err := os.Stat(filepath.Join(s.root, name))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("exists %q: %w", name, err)
	}
	return true, nil
}

var _ Store = (*FileStore)(nil)
