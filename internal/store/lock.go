package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

// ImportLockFile is the name of the lock file guarding index writes.
const ImportLockFile = ".import.lock"

// lockRetryDelay is the polling interval while waiting for the import lock.
const lockRetryDelay = 100 * time.Millisecond

// ImportLock is a cross-process lock held while writing to the indexes of a data dir.
type ImportLock struct {
	path   string
	flock  *flock.Flock
	locked bool
}

// NewImportLock creates the import lock for a data dir.
// The lock file is created at <dir>/.import.lock
func NewImportLock(dir string) *ImportLock {
	lockPath := filepath.Join(dir, ImportLockFile)
	return &ImportLock{
		path:  lockPath,
		flock: flock.New(lockPath),
	}
}

// Lock acquires the lock, waiting until it is free or ctx is done.
func (l *ImportLock) Lock(ctx context.Context) error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return fmt.Errorf("failed to create lock directory: %w", err)
	}

	acquired, err := l.flock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return fmt.Errorf("failed to acquire import lock: %w", err)
	}
	if !acquired {
		return fmt.Errorf("import lock %s not acquired", l.path)
	}

	l.locked = true
	return nil
}

// TryLock attempts to acquire the lock without blocking.
// Returns true if the lock was acquired, false if another process holds it.
func (l *ImportLock) TryLock() (bool, error) {
	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return false, fmt.Errorf("failed to create lock directory: %w", err)
	}

	acquired, err := l.flock.TryLock()
	if err != nil {
		return false, fmt.Errorf("failed to acquire import lock: %w", err)
	}
	if acquired {
		l.locked = true
	}
	return acquired, nil
}

// Unlock releases the lock. Safe to call on an unlocked ImportLock.
func (l *ImportLock) Unlock() error {
	if !l.locked {
		return nil
	}
	l.locked = false
	if err := l.flock.Unlock(); err != nil {
		return fmt.Errorf("failed to release import lock: %w", err)
	}
	return nil
}

// Path returns the path to the lock file.
func (l *ImportLock) Path() string {
	return l.path
}
