package storage

import (
	"errors"
	"fmt"
	"os"

	"github.com/dgraph-io/badger/v4"
	"github.com/sirupsen/logrus"
)

// BadgerConfig holds configuration for the badger backend.
type BadgerConfig struct {
	// Path is the directory for BadgerDB files. Ignored when InMemory is true.
	Path string

	// InMemory keeps everything in RAM. Useful for tests.
	InMemory bool

	// SyncWrites fsyncs every write.
	SyncWrites bool

	// Logger receives BadgerDB's internal logging. Nil disables it.
	Logger logrus.FieldLogger
}

// DefaultBadgerConfig returns durable defaults; Path must still be set.
func DefaultBadgerConfig() BadgerConfig {
	return BadgerConfig{SyncWrites: true}
}

// InMemoryBadgerConfig returns a configuration for tests.
func InMemoryBadgerConfig() BadgerConfig {
	return BadgerConfig{InMemory: true}
}

// badgerLogger adapts a logrus logger to BadgerDB's Logger interface.
// Badger's info chatter is demoted to debug.
type badgerLogger struct {
	log logrus.FieldLogger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.log.Errorf(format, args...)
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.log.Warnf(format, args...)
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.log.Debugf(format, args...)
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.log.Debugf(format, args...)
}

type badgerStore struct {
	db *badger.DB
}

const badgerUpdateAttempts = 3

// NewBadgerStore opens a BadgerDB-backed KeyValueStore.
// The caller must Close it.
func NewBadgerStore(cfg BadgerConfig) (KeyValueStore, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("opening badger store: path is required")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0o750); err != nil {
			return nil, fmt.Errorf("opening badger store: creating directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites).WithNumVersionsToKeep(1)
	if cfg.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{log: cfg.Logger.WithField("component", "badger")})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening badger store: %w", err)
	}
	return &badgerStore{db: db}, nil
}

func (s *badgerStore) Get(key string) ([]byte, bool, error) {
	var value []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading %s: %w", key, err)
	}
	return value, true, nil
}

func (s *badgerStore) Put(key string, value []byte) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), value)
	})
	if err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}
	return nil
}

// Update runs fn inside one read-write transaction, retrying when a
// concurrent transaction on the same key wins the commit.
func (s *badgerStore) Update(key string, fn UpdateFunc) error {
	var err error
	for range badgerUpdateAttempts {
		err = s.db.Update(func(txn *badger.Txn) error {
			var current []byte
			found := true
			item, err := txn.Get([]byte(key))
			switch {
			case errors.Is(err, badger.ErrKeyNotFound):
				found = false
			case err != nil:
				return err
			default:
				if current, err = item.ValueCopy(nil); err != nil {
					return err
				}
			}
			next, write, err := fn(current, found)
			if err != nil || !write {
				return err
			}
			return txn.Set([]byte(key), next)
		})
		if !errors.Is(err, badger.ErrConflict) {
			break
		}
	}
	if err != nil {
		return fmt.Errorf("updating %s: %w", key, err)
	}
	return nil
}

func (s *badgerStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("closing badger store: %w", err)
	}
	return nil
}
