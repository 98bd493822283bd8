package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/Aman-CERP/typeindex/internal/store"
)

// JSON stores snapshots as an indented JSON document.
type JSON struct{}

func (JSON) Save(ctx context.Context, st *store.Store, path string) (string, error) {
	data, err := json.MarshalIndent(toDocument(st), "", "  ")
	if err != nil {
		return "", snapshotError("failed to encode snapshot", err)
	}
	return path, saveLocked(ctx, path, func() error {
		return writeAtomic(path, append(data, '\n'))
	})
}

func (JSON) Load(ctx context.Context, path string) (*store.Store, error) {
	var doc Document
	err := loadLocked(ctx, path, func() error {
		data, err := readFile(path)
		if err != nil {
			return err
		}
		if err := json.Unmarshal(data, &doc); err != nil {
			return snapshotError(fmt.Sprintf("failed to decode snapshot %s", path), err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return fromDocument(doc, path)
}

// saveLocked runs write under the snapshot's exclusive lock.
func saveLocked(ctx context.Context, path string, write func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	lock := NewFileLock(path)
	if err := lock.Lock(); err != nil {
		return snapshotError(fmt.Sprintf("failed to lock snapshot %s", path), err)
	}
	defer func() { _ = lock.Unlock() }()

	if err := write(); err != nil {
		if ierr := asSnapshotError(err); ierr != nil {
			return ierr
		}
		return snapshotError(fmt.Sprintf("failed to save snapshot %s", path), err)
	}
	return nil
}

// loadLocked runs read under the snapshot's shared lock. A missing
// snapshot fails before any lock file is created.
func loadLocked(ctx context.Context, path string, read func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := os.Stat(path); err != nil {
		return snapshotError(fmt.Sprintf("failed to read snapshot %s", path), err)
	}
	lock := NewFileLock(path)
	if err := lock.RLock(); err != nil {
		return snapshotError(fmt.Sprintf("failed to lock snapshot %s", path), err)
	}
	defer func() { _ = lock.Unlock() }()

	if err := read(); err != nil {
		if ierr := asSnapshotError(err); ierr != nil {
			return ierr
		}
		return snapshotError(fmt.Sprintf("failed to load snapshot %s", path), err)
	}
	return nil
}
