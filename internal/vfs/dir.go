package vfs

import (
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	ierrors "github.com/Aman-CERP/typeindex/internal/errors"
)

type dirItem struct {
	unit *fileUnit
	err  error
}

// dirSource streams the regular files under a directory. A background
// goroutine walks the tree and hands units over a channel; it stops when the
// caller's context is cancelled or the source is closed.
type dirSource struct {
	root   string
	walkAt string
	parent context.Context
	cancel context.CancelFunc
	items  chan dirItem

	closeOnce sync.Once
	closed    bool
}

// openDir resolves a symlinked root before walking, since WalkDir does not
// follow it, and fails when the root cannot be read.
func openDir(ctx context.Context, root string) (*dirSource, error) {
	walkAt, err := filepath.EvalSymlinks(root)
	if err != nil {
		return nil, ierrors.SourceUnavailable(root, err)
	}
	f, err := os.Open(walkAt)
	if err != nil {
		return nil, ierrors.SourceUnavailable(root, err)
	}
	_, err = f.ReadDir(1)
	_ = f.Close()
	if err != nil && err != io.EOF {
		return nil, ierrors.SourceUnavailable(root, err)
	}

	walkCtx, cancel := context.WithCancel(ctx)
	s := &dirSource{
		root:   root,
		walkAt: walkAt,
		parent: ctx,
		cancel: cancel,
		items:  make(chan dirItem, 64),
	}

	go func() {
		defer close(s.items)
		s.walk(walkCtx)
	}()

	return s, nil
}

func (s *dirSource) walk(ctx context.Context) {
	err := filepath.WalkDir(s.walkAt, func(path string, d fs.DirEntry, err error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err != nil {
			if path == s.walkAt {
				return ierrors.SourceUnavailable(s.root, err)
			}
			return nil // skip entries we can't access
		}
		if !d.Type().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(s.walkAt, path)
		if err != nil {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}

		unit := &fileUnit{
			path:    filepath.ToSlash(rel),
			absPath: path,
			size:    info.Size(),
		}

		select {
		case s.items <- dirItem{unit: unit}:
		case <-ctx.Done():
			return ctx.Err()
		}
		return nil
	})

	if err != nil && ctx.Err() == nil {
		select {
		case s.items <- dirItem{err: err}:
		case <-ctx.Done():
		}
	}
}

func (s *dirSource) Locator() string {
	return s.root
}

func (s *dirSource) Next() (Unit, error) {
	if s.closed {
		return nil, errClosed
	}
	if err := s.parent.Err(); err != nil {
		return nil, err
	}

	select {
	case item, ok := <-s.items:
		if !ok {
			if err := s.parent.Err(); err != nil {
				return nil, err
			}
			return nil, io.EOF
		}
		if item.err != nil {
			return nil, item.err
		}
		return item.unit, nil
	case <-s.parent.Done():
		return nil, s.parent.Err()
	}
}

func (s *dirSource) Close() error {
	s.closeOnce.Do(func() {
		s.closed = true
		s.cancel()
		for range s.items {
		}
	})
	return nil
}

type fileUnit struct {
	path    string
	absPath string
	size    int64
}

func (u *fileUnit) Path() string { return u.path }
func (u *fileUnit) Name() string { return baseName(u.path) }
func (u *fileUnit) FQN() string  { return FQN(u.path) }
func (u *fileUnit) Size() int64  { return u.size }

func (u *fileUnit) Open() (io.ReadCloser, error) {
	return os.Open(u.absPath)
}
