package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ErrObjectNotFound indicates the requested object key does not exist.
var ErrObjectNotFound = errors.New("storage: object not found")

// BlobStore persists opaque document content under generated keys.
type BlobStore interface {
	Save(r io.Reader) (key string, size int64, err error)
	Open(key string) (io.ReadCloser, error)
	Delete(key string) error
}

// DiskStore is a filesystem-backed BlobStore. Keys are UUIDs sharded by their
// first two characters to keep directory fan-out bounded.
type DiskStore struct {
	root string
}

// NewDiskStore creates the root directory and returns a DiskStore.
func NewDiskStore(root string) (*DiskStore, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, errors.New("storage: root directory is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create root: %w", err)
	}
	return &DiskStore{root: root}, nil
}

// Save streams the reader to a new object and returns its key and size.
func (s *DiskStore) Save(r io.Reader) (string, int64, error) {
	key := uuid.NewString()
	path, err := s.pathFor(key)
	if err != nil {
		return "", 0, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", 0, fmt.Errorf("storage: create shard dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", 0, fmt.Errorf("storage: create object: %w", err)
	}

	size, err := io.Copy(f, r)
	if err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", 0, fmt.Errorf("storage: write object: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return "", 0, fmt.Errorf("storage: close object: %w", err)
	}

	return key, size, nil
}

// Open returns a reader for the stored object.
func (s *DiskStore) Open(key string) (io.ReadCloser, error) {
	path, err := s.pathFor(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrObjectNotFound
		}
		return nil, fmt.Errorf("storage: open object: %w", err)
	}
	return f, nil
}

// Delete removes the stored object. Missing objects are not an error.
func (s *DiskStore) Delete(key string) error {
	path, err := s.pathFor(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("storage: delete object: %w", err)
	}
	return nil
}

func (s *DiskStore) pathFor(key string) (string, error) {
	if _, err := uuid.Parse(key); err != nil {
		return "", fmt.Errorf("storage: invalid object key %q", key)
	}
	return filepath.Join(s.root, key[:2], key), nil
}
