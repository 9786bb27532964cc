package storage

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
)

type fileStore struct {
	dir string
}

// NewFileStore returns a KeyValueStore keeping one file per key in dir.
// The directory is created on first write.
func NewFileStore(dir string) (KeyValueStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("opening file store: directory must not be empty")
	}
	return &fileStore{dir: dir}, nil
}

func (s *fileStore) path(key string) string {
	return filepath.Join(s.dir, url.PathEscape(key)+".json")
}

func (s *fileStore) Get(key string) ([]byte, bool, error) {
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("reading %s: %w", key, err)
	}
	return data, true, nil
}

func (s *fileStore) Put(key string, value []byte) error {
	return s.Update(key, func([]byte, bool) ([]byte, bool, error) {
		return value, true, nil
	})
}

// Update holds the directory lock from the read to the rename, so processes
// sharing dir never write back a value computed from a stale read. The new
// value goes to a temporary file first; a crash never leaves a half-written
// file behind.
func (s *fileStore) Update(key string, fn UpdateFunc) error {
	if err := os.MkdirAll(s.dir, 0o750); err != nil {
		return fmt.Errorf("writing %s: creating directory: %w", key, err)
	}
	unlock, err := lockFile(filepath.Join(s.dir, lockFileName))
	if err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}
	defer func() { _ = unlock() }()

	current, found, err := s.Get(key)
	if err != nil {
		return err
	}
	next, write, err := fn(current, found)
	if err != nil {
		return fmt.Errorf("updating %s: %w", key, err)
	}
	if !write {
		return nil
	}
	return s.writeLocked(key, next)
}

func (s *fileStore) writeLocked(key string, value []byte) error {
	tmp, err := os.CreateTemp(s.dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(value); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("writing %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}
	if err := os.Rename(tmpName, s.path(key)); err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}
	return nil
}

func (s *fileStore) Close() error { return nil }
