package storage

import (
	"fmt"
	"os"
	"syscall"
)

// lockFileName guards read-modify-write cycles on a file store directory
// shared by several flowboard processes (for example the terminal board and
// "mcp serve").
const lockFileName = ".flowboard.lock"

// lockFile acquires an exclusive flock on path, creating it if needed.
// The returned func releases the lock.
func lockFile(path string) (unlock func() error, err error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o600)
	if err != nil {
		return nil, fmt.Errorf("opening lock file: %w", err)
	}

	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX); err != nil {
		f.Close()
		return nil, fmt.Errorf("acquiring file lock: %w", err)
	}

	return func() error {
		defer f.Close()
		return syscall.Flock(int(f.Fd()), syscall.LOCK_UN)
	}, nil
}
