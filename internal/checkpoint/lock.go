package checkpoint

import (
	"errors"
	"fmt"

	"github.com/gofrs/flock"
)

// ErrLocked means another run holds the checkpoint.
var ErrLocked = errors.New("checkpoint is locked by another run")

// Lock is an advisory file lock beside a checkpoint.
type Lock struct {
	path string
	lock *flock.Flock
}

// AcquireLock takes the lock for checkpointPath without blocking.
func AcquireLock(checkpointPath string) (*Lock, error) {
	path := LockPath(checkpointPath)
	fl := flock.New(path)
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLocked, path)
	}
	return &Lock{path: path, lock: fl}, nil
}

// Path returns the lock file path.
func (l *Lock) Path() string { return l.path }

// Release unlocks the checkpoint.
func (l *Lock) Release() error {
	if l == nil || l.lock == nil {
		return nil
	}
	return l.lock.Unlock()
}
