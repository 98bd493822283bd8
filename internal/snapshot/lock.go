package snapshot

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// FileLock serializes access to one snapshot across processes: writers
// hold it exclusively, readers share it. The lock file sits beside the
// snapshot as <path>.lock and is left in place afterwards.
type FileLock struct {
	path   string
	flock  *flock.Flock
	locked bool
}

// NewFileLock creates the lock guarding the snapshot at snapshotPath.
func NewFileLock(snapshotPath string) *FileLock {
	return &FileLock{
		path:  snapshotPath + ".lock",
		flock: flock.New(snapshotPath + ".lock"),
	}
}

// Lock blocks until the exclusive lock is held.
func (l *FileLock) Lock() error {
	return l.acquire(l.flock.Lock)
}

// RLock blocks until a shared lock is held.
func (l *FileLock) RLock() error {
	return l.acquire(l.flock.RLock)
}

// TryLock takes the exclusive lock if no other holder has it.
func (l *FileLock) TryLock() (bool, error) {
	var acquired bool
	err := l.acquire(func() error {
		var err error
		acquired, err = l.flock.TryLock()
		return err
	})
	if err != nil || !acquired {
		l.locked = false
		return false, err
	}
	return true, nil
}

// Unlock releases the lock. Unlocking an unheld lock is a no-op.
func (l *FileLock) Unlock() error {
	if !l.locked {
		return nil
	}
	l.locked = false
	if err := l.flock.Unlock(); err != nil {
		return fmt.Errorf("release snapshot lock %s: %w", l.path, err)
	}
	return nil
}

// Path returns the lock file path.
func (l *FileLock) Path() string {
	return l.path
}

func (l *FileLock) acquire(take func() error) error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return fmt.Errorf("create snapshot directory: %w", err)
	}
	if err := take(); err != nil {
		return fmt.Errorf("acquire snapshot lock %s: %w", l.path, err)
	}
	l.locked = true
	return nil
}
