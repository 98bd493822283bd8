package snapshot

import (
	"context"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/Aman-CERP/typeindex/internal/store"
)

// YAML stores snapshots as a YAML document with the same shape as JSON.
type YAML struct{}

func (YAML) Save(ctx context.Context, st *store.Store, path string) (string, error) {
	data, err := yaml.Marshal(toDocument(st))
	if err != nil {
		return "", snapshotError("failed to encode snapshot", err)
	}
	return path, saveLocked(ctx, path, func() error {
		return writeAtomic(path, data)
	})
}

func (YAML) Load(ctx context.Context, path string) (*store.Store, error) {
	var doc Document
	err := loadLocked(ctx, path, func() error {
		data, err := readFile(path)
		if err != nil {
			return err
		}
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return snapshotError(fmt.Sprintf("failed to decode snapshot %s", path), err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return fromDocument(doc, path)
}
