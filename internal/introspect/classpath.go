package introspect

import (
	"archive/zip"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/Aman-CERP/typeindex/internal/classfile"
	ierrors "github.com/Aman-CERP/typeindex/internal/errors"
	"github.com/Aman-CERP/typeindex/internal/logging"
	"github.com/Aman-CERP/typeindex/internal/vfs"
)

// DefaultCacheSize is the number of resolved (or missing) names the
// classpath resolver remembers.
const DefaultCacheSize = 8192

// ClasspathConfig configures a classpath resolver.
type ClasspathConfig struct {
	// Locators are directories, archives and module images searched in order.
	Locators []string
	// CacheSize bounds the LRU cache of lookups (default: 8192).
	CacheSize int
	Logger    *slog.Logger
}

type lookup struct {
	handle TypeHandle
	ok     bool
}

type classRoot interface {
	open(path string) (io.ReadCloser, error)
	close() error
}

// Classpath resolves types by reading class headers on demand from a list
// of locators. The first locator holding a class wins.
type Classpath struct {
	roots  []classRoot
	cache  *lru.Cache[string, lookup]
	logger *slog.Logger
}

// NewClasspath opens every locator. Locators that cannot be opened are
// logged and skipped.
func NewClasspath(cfg ClasspathConfig) (*Classpath, error) {
	size := cfg.CacheSize
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[string, lookup](size)
	if err != nil {
		return nil, ierrors.InternalError("creating resolver cache", err)
	}

	c := &Classpath{
		cache:  cache,
		logger: logging.OrDiscard(cfg.Logger),
	}
	for _, loc := range cfg.Locators {
		root, err := openRoot(loc)
		if err != nil {
			c.logger.Warn("classpath entry unavailable",
				slog.String("locator", loc),
				slog.String("error", err.Error()))
			continue
		}
		c.roots = append(c.roots, root)
	}
	return c, nil
}

// Close releases open archives.
func (c *Classpath) Close() error {
	var first error
	for _, r := range c.roots {
		if err := r.close(); err != nil && first == nil {
			first = err
		}
	}
	c.roots = nil
	return first
}

// Len returns the number of usable classpath roots.
func (c *Classpath) Len() int {
	return len(c.roots)
}

func (c *Classpath) Resolve(name string) (TypeHandle, bool) {
	if name == "" {
		return TypeHandle{}, false
	}
	if l, ok := c.cache.Get(name); ok {
		return l.handle, l.ok
	}

	l := c.find(name)
	c.cache.Add(name, l)
	return l.handle, l.ok
}

func (c *Classpath) ImmediateAncestors(t TypeHandle) []TypeHandle {
	return ancestors(c.Resolve, t)
}

func (c *Classpath) find(name string) lookup {
	path := strings.ReplaceAll(name, ".", "/") + ".class"
	for _, root := range c.roots {
		rc, err := root.open(path)
		if err != nil {
			continue
		}
		cf, err := classfile.Decode(rc)
		_ = rc.Close()
		if err != nil {
			c.logger.Debug("skipping undecodable class",
				slog.String("name", name),
				slog.String("error", err.Error()))
			continue
		}
		if cf.Name != name {
			continue
		}
		return lookup{handle: FromClass(cf), ok: true}
	}
	return lookup{}
}

func openRoot(locator string) (classRoot, error) {
	kind, err := vfs.DetectKind(locator)
	if err != nil {
		return nil, err
	}

	switch kind {
	case vfs.KindDirectory:
		return dirRoot(locator), nil
	case vfs.KindArchive:
		return openZipRoot(locator, 0, "")
	case vfs.KindModule:
		return openZipRoot(locator, 4, "classes/")
	}
	return nil, fmt.Errorf("unrecognized container format")
}

type dirRoot string

func (d dirRoot) open(path string) (io.ReadCloser, error) {
	return os.Open(filepath.Join(string(d), filepath.FromSlash(path)))
}

func (dirRoot) close() error { return nil }

// zipRoot reads an archive through its central directory. Module images
// carry a header before the archive and keep classes under a prefix.
type zipRoot struct {
	f      *os.File
	zr     *zip.Reader
	prefix string
}

func openZipRoot(locator string, offset int64, prefix string) (*zipRoot, error) {
	f, err := os.Open(locator)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	zr, err := zip.NewReader(io.NewSectionReader(f, offset, info.Size()-offset), info.Size()-offset)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return &zipRoot{f: f, zr: zr, prefix: prefix}, nil
}

func (z *zipRoot) open(path string) (io.ReadCloser, error) {
	return z.zr.Open(z.prefix + path)
}

func (z *zipRoot) close() error {
	return z.f.Close()
}
