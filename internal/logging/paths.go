package logging

import (
	"os"
	"path/filepath"
)

// DefaultLogDir is ~/.typeindex/logs, or the same under the temp
// directory when there is no home directory.
func DefaultLogDir() string {
	base, err := os.UserHomeDir()
	if err != nil {
		base = os.TempDir()
	}
	return filepath.Join(base, ".typeindex", "logs")
}

// DefaultLogPath is the debug log written by --debug.
func DefaultLogPath() string {
	return filepath.Join(DefaultLogDir(), "typeindex.log")
}
