// Package lock keeps two runs from working on the same machine at once.
package lock

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// ErrHeld is returned when another process holds the instance lock.
var ErrHeld = errors.New("another run is already in progress")

// InstanceLock is an exclusive, non-blocking lock on a well-known file.
type InstanceLock struct {
	flock *flock.Flock
	path  string
}

// New creates an instance lock backed by the file at path.
func New(path string) *InstanceLock {
	return &InstanceLock{
		flock: flock.New(path),
		path:  path,
	}
}

// Path returns the lock file location.
func (l *InstanceLock) Path() string {
	return l.path
}

// Acquire takes the lock without waiting. It returns ErrHeld if another
// holder has it.
func (l *InstanceLock) Acquire() error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("failed to create lock directory: %w", err)
	}
	acquired, err := l.flock.TryLock()
	if err != nil {
		return fmt.Errorf("failed to try lock on %s: %w", l.path, err)
	}
	if !acquired {
		return fmt.Errorf("%w (lock %s)", ErrHeld, l.path)
	}
	return nil
}

// Release gives the lock up. Releasing an unheld lock is a no-op.
func (l *InstanceLock) Release() error {
	if err := l.flock.Unlock(); err != nil {
		return fmt.Errorf("failed to release lock on %s: %w", l.path, err)
	}
	return nil
}
