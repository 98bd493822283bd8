// Package vfs exposes directories, compressed archives and module images as
// a uniform, forward-only sequence of units (named byte streams with a
// declared size).
package vfs

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"

	ierrors "github.com/Aman-CERP/typeindex/internal/errors"
	"github.com/Aman-CERP/typeindex/internal/logging"
)

// Unit is one named byte stream inside a source.
type Unit interface {
	// Path is the '/'-separated path relative to the source root.
	Path() string
	// Name is the last element of Path.
	Name() string
	// FQN is Path with '/' replaced by '.'.
	FQN() string
	// Size is the normalized declared size; never negative.
	Size() int64
	// Open returns the unit contents. Units of streaming sources can only be
	// opened while the source is positioned on them.
	Open() (io.ReadCloser, error)
}

// Source is a one-shot iterator over units.
type Source interface {
	Locator() string
	// Next returns the next unit, or io.EOF when the source is exhausted.
	Next() (Unit, error)
	// Close releases the source. It is safe to call more than once.
	Close() error
}

// Kind is the container kind of a locator.
type Kind int

const (
	KindUnknown Kind = iota
	KindDirectory
	KindArchive
	KindModule
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindDirectory:
		return "directory"
	case KindArchive:
		return "archive"
	case KindModule:
		return "module"
	default:
		return "unknown"
	}
}

var (
	archiveMagic = []byte("PK\x03\x04")
	emptyMagic   = []byte("PK\x05\x06")
	moduleMagic  = []byte("JM\x01\x00")
)

var archiveExts = map[string]Kind{
	".jar":  KindArchive,
	".zip":  KindArchive,
	".war":  KindArchive,
	".ear":  KindArchive,
	".jmod": KindModule,
}

// Option configures Open.
type Option func(*options)

type options struct {
	logger *slog.Logger
}

// WithLogger sets the logger used for per-entry diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// Open opens the source identified by locator, choosing its kind from the
// filesystem: directories are walked, files are read as archives or module
// images by extension, falling back to their leading bytes.
func Open(ctx context.Context, locator string, opts ...Option) (Source, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	o.logger = logging.OrDiscard(o.logger)

	kind, err := DetectKind(locator)
	if err != nil {
		return nil, ierrors.SourceUnavailable(locator, err)
	}

	switch kind {
	case KindDirectory:
		return openDir(ctx, locator)
	case KindArchive, KindModule:
		return openArchive(ctx, locator, kind, o.logger)
	default:
		return nil, ierrors.SourceUnavailable(locator, fmt.Errorf("unrecognized container format"))
	}
}

// DetectKind reports the container kind of locator.
func DetectKind(locator string) (Kind, error) {
	info, err := os.Stat(locator)
	if err != nil {
		return KindUnknown, err
	}
	if info.IsDir() {
		return KindDirectory, nil
	}
	if !info.Mode().IsRegular() {
		return KindUnknown, fmt.Errorf("not a regular file")
	}

	if kind, ok := archiveExts[strings.ToLower(filepath.Ext(locator))]; ok {
		return kind, nil
	}
	return sniff(locator)
}

func sniff(locator string) (Kind, error) {
	f, err := os.Open(locator)
	if err != nil {
		return KindUnknown, err
	}
	defer func() { _ = f.Close() }()

	head := make([]byte, 4)
	if _, err := io.ReadFull(f, head); err != nil {
		return KindUnknown, nil
	}
	switch {
	case bytes.Equal(head, archiveMagic), bytes.Equal(head, emptyMagic):
		return KindArchive, nil
	case bytes.Equal(head, moduleMagic):
		return KindModule, nil
	}
	return KindUnknown, nil
}

// FQN converts a '/'-separated path to its dotted form.
func FQN(path string) string {
	return strings.ReplaceAll(path, "/", ".")
}

// NormalizeSize maps a negative declared size to size + 2^32. Negative
// sizes come from unknown sizes written as -1 or from 32-bit overflow of
// sizes above 2 GiB. Anything below -2^32 cannot come from a 32-bit field
// and is clamped to math.MaxInt64, so the result is never negative.
func NormalizeSize(declared int64) int64 {
	switch {
	case declared >= 0:
		return declared
	case declared >= -(1 << 32):
		return declared + 1<<32
	default:
		return math.MaxInt64
	}
}

func baseName(path string) string {
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		return path[i+1:]
	}
	return path
}

var errClosed = fmt.Errorf("source is closed")
