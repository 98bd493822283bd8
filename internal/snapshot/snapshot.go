// Package snapshot saves a store to disk and loads it back, as JSON, YAML
// or an SQLite database, and merges many snapshots into one store.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	ierrors "github.com/Aman-CERP/typeindex/internal/errors"
	"github.com/Aman-CERP/typeindex/internal/store"
)

// DocumentVersion is the version written into JSON and YAML snapshots.
const DocumentVersion = 1

// Format names.
const (
	FormatJSON   = "json"
	FormatYAML   = "yaml"
	FormatSQLite = "sqlite"
)

// Serializer persists a store.
type Serializer interface {
	// Save writes st to path and returns the path written.
	Save(ctx context.Context, st *store.Store, path string) (string, error)
	// Load reads a store previously written by Save.
	Load(ctx context.Context, path string) (*store.Store, error)
}

// Document is the JSON/YAML representation of a store.
type Document struct {
	Version    int                            `json:"version" yaml:"version"`
	Categories map[string]map[string][]string `json:"categories" yaml:"categories"`
}

// ForFormat returns the serializer for a format name.
func ForFormat(format string) (Serializer, error) {
	switch strings.ToLower(format) {
	case FormatJSON:
		return JSON{}, nil
	case FormatYAML, "yml":
		return YAML{}, nil
	case FormatSQLite, "sqlite3", "db":
		return SQLite{}, nil
	}
	return nil, ierrors.ValidationError(fmt.Sprintf("unknown snapshot format %q", format), nil).
		WithSuggestion("use json, yaml or sqlite")
}

// ForPath picks a serializer from the file extension; unknown extensions
// get JSON.
func ForPath(path string) Serializer {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return YAML{}
	case ".db", ".sqlite", ".sqlite3":
		return SQLite{}
	}
	return JSON{}
}

// Resolve returns ForFormat(format), or ForPath(path) when format is empty.
func Resolve(format, path string) (Serializer, error) {
	if format == "" {
		return ForPath(path), nil
	}
	return ForFormat(format)
}

// Collect loads every snapshot and merges them into one store.
func Collect(ctx context.Context, paths ...string) (*store.Store, error) {
	merged := store.New()
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		st, err := ForPath(p).Load(ctx, p)
		if err != nil {
			return nil, err
		}
		merged.MergeFrom(st)
	}
	return merged, nil
}

// toDocument captures st, keeping empty categories.
func toDocument(st *store.Store) Document {
	return Document{
		Version:    DocumentVersion,
		Categories: st.Contents(),
	}
}

// fromDocument rebuilds a store. Categories are created in name order.
func fromDocument(doc Document, path string) (*store.Store, error) {
	if doc.Version != DocumentVersion {
		return nil, snapshotError(fmt.Sprintf("unsupported snapshot version %d in %s", doc.Version, path), nil)
	}

	names := make([]string, 0, len(doc.Categories))
	for name := range doc.Categories {
		names = append(names, name)
	}
	sort.Strings(names)

	st := store.New()
	for _, name := range names {
		cat := st.GetOrCreate(name)
		for key, values := range doc.Categories[name] {
			for _, v := range values {
				cat.Put(key, v)
			}
		}
	}
	return st, nil
}

func snapshotError(msg string, cause error) *ierrors.IndexError {
	return ierrors.New(ierrors.ErrCodeSnapshotIO, msg, cause)
}

// asSnapshotError returns err when it already carries a snapshot code.
func asSnapshotError(err error) *ierrors.IndexError {
	var ierr *ierrors.IndexError
	if errors.As(err, &ierr) && ierr.Code == ierrors.ErrCodeSnapshotIO {
		return ierr
	}
	return nil
}

// writeAtomic writes data through a temp file in the destination directory
// and renames it into place.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() { _ = os.Remove(tmpPath) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to sync snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close snapshot: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to rename snapshot: %w", err)
	}
	return nil
}

func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, snapshotError(fmt.Sprintf("failed to read snapshot %s", path), err)
	}
	return data, nil
}
