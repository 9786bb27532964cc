// Package storage persists FlowBoard state in a local key-value store: the
// task collection under "flowboard-tasks" and the theme under
// "flowboard-theme".
package storage

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/valter-silva-au/flowboard/pkg/models"
)

// Keys used in the key-value store.
const (
	TasksKey = "flowboard-tasks"
	ThemeKey = "flowboard-theme"
)

// ErrUnknownBackend is returned by Open for an unrecognised backend name.
var ErrUnknownBackend = errors.New("unknown storage backend")

// KeyValueStore is a minimal local key-value store.
type KeyValueStore interface {
	// Get returns the value for key. found is false when the key is absent.
	Get(key string) (value []byte, found bool, err error)
	Put(key string, value []byte) error
	// Update reads key, passes the value to fn and stores what fn returns,
	// as one step with respect to every other writer of the store. fn
	// returning write=false leaves the value untouched.
	Update(key string, fn UpdateFunc) error
	Close() error
}

// UpdateFunc computes the new value of a key from its current one.
type UpdateFunc func(current []byte, found bool) (next []byte, write bool, err error)

// Open returns the backend named in the config, rooted at dir.
func Open(backend, dir string, log logrus.FieldLogger) (KeyValueStore, error) {
	switch backend {
	case models.BackendFile, "":
		return NewFileStore(dir)
	case models.BackendBadger:
		cfg := DefaultBadgerConfig()
		cfg.Path = filepath.Join(dir, "badger")
		cfg.Logger = log
		return NewBadgerStore(cfg)
	case models.BackendMemory:
		return NewMemoryStore(), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
}

type memoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryStore returns a KeyValueStore that keeps everything in memory.
func NewMemoryStore() KeyValueStore {
	return &memoryStore{data: make(map[string][]byte)}
}

func (m *memoryStore) Get(key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (m *memoryStore) Put(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte(nil), value...)
	return nil
}

func (m *memoryStore) Update(key string, fn UpdateFunc) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	current, found := m.data[key]
	next, write, err := fn(append([]byte(nil), current...), found)
	if err != nil {
		return fmt.Errorf("updating %s: %w", key, err)
	}
	if write {
		m.data[key] = append([]byte(nil), next...)
	}
	return nil
}

func (m *memoryStore) Close() error { return nil }
