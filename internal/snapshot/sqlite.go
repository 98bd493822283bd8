package snapshot

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/Aman-CERP/typeindex/internal/store"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS meta (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS categories (
	name TEXT PRIMARY KEY
);
CREATE TABLE IF NOT EXISTS facts (
	category TEXT NOT NULL,
	key TEXT NOT NULL,
	value TEXT NOT NULL,
	PRIMARY KEY (category, key, value)
);
`

// SQLite stores snapshots as an SQLite database with one row per fact.
type SQLite struct{}

func (SQLite) Save(ctx context.Context, st *store.Store, path string) (string, error) {
	return path, saveLocked(ctx, path, func() error {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return fmt.Errorf("failed to create snapshot directory: %w", err)
		}
		tmp := path + ".tmp"
		_ = os.Remove(tmp)
		defer func() { _ = os.Remove(tmp) }()

		if err := writeSQLite(ctx, st, tmp); err != nil {
			return err
		}
		if err := os.Rename(tmp, path); err != nil {
			return fmt.Errorf("failed to rename snapshot: %w", err)
		}
		return nil
	})
}

func (SQLite) Load(ctx context.Context, path string) (*store.Store, error) {
	var st *store.Store
	err := loadLocked(ctx, path, func() error {
		db, err := openSQLite(readOnlyDSN(path))
		if err != nil {
			return err
		}
		defer func() { _ = db.Close() }()

		st, err = readSQLite(ctx, db, path)
		return err
	})
	if err != nil {
		return nil, err
	}
	return st, nil
}

// readOnlyDSN builds a file: URI so the driver honours mode=ro; a bare
// path drops its query string.
func readOnlyDSN(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	escaped := strings.NewReplacer("%", "%25", "?", "%3f", "#", "%23").Replace(filepath.ToSlash(path))
	return "file:" + escaped + "?mode=ro"
}

func openSQLite(dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=OFF",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to set pragma %s: %w", pragma, err)
		}
	}
	return db, nil
}

func writeSQLite(ctx context.Context, st *store.Store, path string) error {
	db, err := openSQLite(path)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	for _, pragma := range []string{"PRAGMA journal_mode=DELETE", "PRAGMA synchronous=NORMAL"} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			return fmt.Errorf("failed to set pragma %s: %w", pragma, err)
		}
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO meta (key, value) VALUES ('version', ?)`,
		fmt.Sprint(DocumentVersion)); err != nil {
		return fmt.Errorf("failed to write version: %w", err)
	}

	catStmt, err := tx.PrepareContext(ctx, `INSERT OR IGNORE INTO categories (name) VALUES (?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() { _ = catStmt.Close() }()

	factStmt, err := tx.PrepareContext(ctx, `INSERT OR IGNORE INTO facts (category, key, value) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() { _ = factStmt.Close() }()

	for name, entries := range st.Contents() {
		if _, err := catStmt.ExecContext(ctx, name); err != nil {
			return fmt.Errorf("failed to write category %s: %w", name, err)
		}
		for key, values := range entries {
			for _, v := range values {
				if _, err := factStmt.ExecContext(ctx, name, key, v); err != nil {
					return fmt.Errorf("failed to write fact %s/%s: %w", name, key, err)
				}
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func readSQLite(ctx context.Context, db *sql.DB, path string) (*store.Store, error) {
	var version int
	err := db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = 'version'`).Scan(&version)
	if err != nil {
		return nil, snapshotError(fmt.Sprintf("failed to read snapshot version from %s", path), err)
	}
	if version != DocumentVersion {
		return nil, snapshotError(fmt.Sprintf("unsupported snapshot version %d in %s", version, path), nil)
	}

	st := store.New()

	rows, err := db.QueryContext(ctx, `SELECT name FROM categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		st.GetOrCreate(name)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("failed to iterate categories: %w", err)
	}
	_ = rows.Close()

	rows, err = db.QueryContext(ctx, `SELECT category, key, value FROM facts`)
	if err != nil {
		return nil, fmt.Errorf("failed to query facts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var category, key, value string
		if err := rows.Scan(&category, &key, &value); err != nil {
			return nil, fmt.Errorf("failed to scan fact: %w", err)
		}
		st.GetOrCreate(category).Put(key, value)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate facts: %w", err)
	}
	return st, nil
}
