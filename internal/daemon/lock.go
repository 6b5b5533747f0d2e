package daemon

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	bmerrors "github.com/Aman-CERP/bmsearch/internal/errors"
)

// InstanceLock ensures a single daemon per data directory. The lock is held
// by the kernel, so it is released even if the daemon dies without cleanup.
type InstanceLock struct {
	path   string
	flock  *flock.Flock
	locked bool
}

// NewInstanceLock creates a lock backed by the file at path.
func NewInstanceLock(path string) *InstanceLock {
	return &InstanceLock{
		path:  path,
		flock: flock.New(path),
	}
}

// Acquire takes the lock without blocking. It fails with ERR_303 if another
// daemon holds it.
func (l *InstanceLock) Acquire() error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return fmt.Errorf("failed to create lock directory: %w", err)
	}

	acquired, err := l.flock.TryLock()
	if err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}
	if !acquired {
		return bmerrors.New(bmerrors.ErrCodeDaemonLocked, "another daemon is already running", nil).
			WithDetail("lock", l.path).
			WithSuggestion("Stop it with 'bmsearch daemon stop' or query it directly")
	}

	l.locked = true
	return nil
}

// Release unlocks. Safe to call multiple times.
func (l *InstanceLock) Release() error {
	if !l.locked {
		return nil
	}
	l.locked = false
	if err := l.flock.Unlock(); err != nil {
		return fmt.Errorf("failed to release lock: %w", err)
	}
	return nil
}

// Path returns the lock file path.
func (l *InstanceLock) Path() string {
	return l.path
}
