package vfs

import (
	"bufio"
	"bytes"
	"compress/flate"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"strings"
	"sync"

	ierrors "github.com/Aman-CERP/typeindex/internal/errors"
)

const (
	sigLocalHeader    = 0x04034b50
	sigCentralHeader  = 0x02014b50
	sigEndOfCentral   = 0x06054b50
	sigDataDescriptor = 0x08074b50

	flagDataDescriptor = 0x8

	methodStored   = 0
	methodDeflated = 8

	zip64ExtraID = 0x0001
	uint32Max    = 0xFFFFFFFF

	modulePrefix = "classes/"
)

// archiveSource reads an archive front to back through its local file
// headers, without seeking to the central directory. Module images are the
// same format behind a 4-byte header; only their classes/ entries are units.
type archiveSource struct {
	ctx     context.Context
	locator string
	kind    Kind
	prefix  string
	logger  *slog.Logger

	file *os.File
	r    *bufio.Reader
	cur  *entry
	done bool

	closeOnce sync.Once
	closed    bool
	closeErr  error
}

func openArchive(ctx context.Context, locator string, kind Kind, logger *slog.Logger) (*archiveSource, error) {
	f, err := os.Open(locator)
	if err != nil {
		return nil, ierrors.SourceUnavailable(locator, err)
	}

	s := &archiveSource{
		ctx:     ctx,
		locator: locator,
		kind:    kind,
		logger:  logger,
		file:    f,
		r:       bufio.NewReader(f),
	}

	if kind == KindModule {
		s.prefix = modulePrefix
		head := make([]byte, len(moduleMagic))
		if _, err := io.ReadFull(s.r, head); err != nil || !bytes.Equal(head, moduleMagic) {
			_ = f.Close()
			return nil, ierrors.SourceUnavailable(locator, fmt.Errorf("missing module image header"))
		}
	}

	sig, err := s.r.Peek(4)
	if err != nil && len(sig) == 0 {
		// an empty file is an empty archive
		return s, nil
	}
	if len(sig) < 4 || !knownSignature(binary.LittleEndian.Uint32(sig)) {
		_ = f.Close()
		return nil, ierrors.SourceUnavailable(locator, fmt.Errorf("not an archive"))
	}

	return s, nil
}

func knownSignature(sig uint32) bool {
	switch sig {
	case sigLocalHeader, sigCentralHeader, sigEndOfCentral:
		return true
	}
	return false
}

func (s *archiveSource) Locator() string {
	return s.locator
}

// Kind reports whether this is an archive or a module image.
func (s *archiveSource) Kind() Kind {
	return s.kind
}

func (s *archiveSource) Next() (Unit, error) {
	if s.closed {
		return nil, errClosed
	}

	for {
		if err := s.ctx.Err(); err != nil {
			return nil, err
		}

		if s.cur != nil {
			err := s.cur.finish()
			s.cur = nil
			if err != nil {
				s.done = true
				return nil, fmt.Errorf("%s: %w", s.locator, err)
			}
		}
		if s.done {
			return nil, io.EOF
		}

		e, err := s.readLocalHeader()
		if err == io.EOF {
			s.done = true
			return nil, io.EOF
		}
		if err != nil {
			s.done = true
			return nil, fmt.Errorf("%s: %w", s.locator, err)
		}
		s.cur = e

		if strings.HasSuffix(e.name, "/") {
			continue
		}
		if s.prefix != "" {
			if !strings.HasPrefix(e.name, s.prefix) {
				continue
			}
			e.path = strings.TrimPrefix(e.name, s.prefix)
		}
		if e.path == "" {
			continue
		}
		return e, nil
	}
}

func (s *archiveSource) Close() error {
	s.closeOnce.Do(func() {
		s.closed = true
		s.cur = nil
		s.closeErr = s.file.Close()
	})
	return s.closeErr
}

func (s *archiveSource) readLocalHeader() (*entry, error) {
	var sig [4]byte
	if _, err := io.ReadFull(s.r, sig[:]); err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("reading entry signature: %w", err)
	}

	switch binary.LittleEndian.Uint32(sig[:]) {
	case sigLocalHeader:
	case sigCentralHeader, sigEndOfCentral:
		return nil, io.EOF
	default:
		return nil, fmt.Errorf("invalid entry signature %#x", binary.LittleEndian.Uint32(sig[:]))
	}

	var hdr [26]byte
	if _, err := io.ReadFull(s.r, hdr[:]); err != nil {
		return nil, fmt.Errorf("reading local header: %w", err)
	}

	flags := binary.LittleEndian.Uint16(hdr[2:])
	method := binary.LittleEndian.Uint16(hdr[4:])
	csize := uint64(binary.LittleEndian.Uint32(hdr[14:]))
	usize := uint64(binary.LittleEndian.Uint32(hdr[18:]))
	nameLen := int(binary.LittleEndian.Uint16(hdr[22:]))
	extraLen := int(binary.LittleEndian.Uint16(hdr[24:]))

	buf := make([]byte, nameLen+extraLen)
	if _, err := io.ReadFull(s.r, buf); err != nil {
		return nil, fmt.Errorf("reading entry name: %w", err)
	}
	name := string(buf[:nameLen])

	e := &entry{
		src:    s,
		name:   name,
		path:   name,
		method: method,
		flags:  flags,
	}

	zip64 := false
	if csize == uint32Max || usize == uint32Max {
		if c, u, ok := parseZip64Extra(buf[nameLen:], csize, usize); ok {
			csize, usize, zip64 = c, u, true
		}
	}
	e.csize = int64(csize)
	e.zip64 = zip64

	var declared int64
	switch {
	case flags&flagDataDescriptor != 0:
		declared = -1
	case zip64 && usize > math.MaxInt64:
		declared = math.MinInt64
	case zip64:
		declared = int64(usize)
	default:
		declared = int64(int32(uint32(usize)))
	}
	e.size = NormalizeSize(declared)
	if declared < 0 {
		s.logger.Debug("normalized entry size",
			slog.String("code", ierrors.ErrCodeMalformedEntry),
			slog.String("locator", s.locator),
			slog.String("path", name),
			slog.Int64("declared", declared),
			slog.Int64("size", e.size))
	}

	return e, nil
}

// parseZip64Extra reads the 64-bit sizes from the zip64 extended
// information field. Only fields whose 32-bit header value is saturated are
// present, uncompressed size first.
func parseZip64Extra(extra []byte, csize, usize uint64) (uint64, uint64, bool) {
	for len(extra) >= 4 {
		id := binary.LittleEndian.Uint16(extra)
		size := int(binary.LittleEndian.Uint16(extra[2:]))
		extra = extra[4:]
		if size > len(extra) {
			return csize, usize, false
		}
		field := extra[:size]
		extra = extra[size:]
		if id != zip64ExtraID {
			continue
		}
		if usize == uint32Max {
			if len(field) < 8 {
				return csize, usize, false
			}
			usize = binary.LittleEndian.Uint64(field)
			field = field[8:]
		}
		if csize == uint32Max {
			if len(field) < 8 {
				return csize, usize, false
			}
			csize = binary.LittleEndian.Uint64(field)
		}
		return csize, usize, true
	}
	return csize, usize, false
}

// entry is the unit the archive source is positioned on.
type entry struct {
	src    *archiveSource
	name   string
	path   string
	method uint16
	flags  uint16
	csize  int64
	size   int64
	zip64  bool

	limited  *io.LimitedReader
	inflater io.ReadCloser
	opened   bool
	finished bool
}

func (e *entry) Path() string { return e.path }
func (e *entry) Name() string { return baseName(e.path) }
func (e *entry) FQN() string  { return FQN(e.path) }
func (e *entry) Size() int64  { return e.size }

func (e *entry) Open() (io.ReadCloser, error) {
	if e.finished || e.src.cur != e {
		return nil, fmt.Errorf("%s: entry %s is no longer current", e.src.locator, e.name)
	}
	if e.opened {
		return nil, fmt.Errorf("%s: entry %s was already opened", e.src.locator, e.name)
	}

	descriptor := e.flags&flagDataDescriptor != 0
	switch e.method {
	case methodStored:
		if descriptor {
			return nil, ierrors.MalformedEntry(e.name, -1).
				WithDetail("reason", "stored entry with data descriptor")
		}
		e.limited = &io.LimitedReader{R: e.src.r, N: e.csize}
		e.opened = true
		return io.NopCloser(e.limited), nil

	case methodDeflated:
		if descriptor {
			// bufio.Reader is an io.ByteReader, so inflation stops exactly at
			// the end of the compressed stream.
			e.inflater = flate.NewReader(e.src.r)
		} else {
			e.limited = &io.LimitedReader{R: e.src.r, N: e.csize}
			e.inflater = flate.NewReader(e.limited)
		}
		e.opened = true
		return io.NopCloser(e.inflater), nil

	default:
		return nil, fmt.Errorf("%s: entry %s uses unsupported compression method %d", e.src.locator, e.name, e.method)
	}
}

// finish positions the reader on the next local header, draining whatever
// the caller left unread.
func (e *entry) finish() error {
	if e.finished {
		return nil
	}
	e.finished = true

	if e.flags&flagDataDescriptor != 0 {
		if e.method != methodDeflated {
			return fmt.Errorf("entry %s: only deflated entries can use a data descriptor", e.name)
		}
		if e.inflater == nil {
			e.inflater = flate.NewReader(e.src.r)
		}
		if _, err := io.Copy(io.Discard, e.inflater); err != nil {
			return fmt.Errorf("entry %s: %w", e.name, err)
		}
		_ = e.inflater.Close()
		return e.readDataDescriptor()
	}

	if e.inflater != nil {
		_ = e.inflater.Close()
	}
	if e.limited == nil {
		e.limited = &io.LimitedReader{R: e.src.r, N: e.csize}
	}
	if _, err := io.Copy(io.Discard, e.limited); err != nil {
		return fmt.Errorf("entry %s: %w", e.name, err)
	}
	if e.limited.N > 0 {
		return fmt.Errorf("entry %s: %w", e.name, io.ErrUnexpectedEOF)
	}
	return nil
}

// readDataDescriptor consumes the descriptor that follows a streamed entry:
// an optional signature, the CRC and both sizes.
func (e *entry) readDataDescriptor() error {
	sizes := 8
	if e.zip64 {
		sizes = 16
	}

	var head [4]byte
	if _, err := io.ReadFull(e.src.r, head[:]); err != nil {
		return fmt.Errorf("entry %s: reading data descriptor: %w", e.name, err)
	}
	rest := sizes
	if binary.LittleEndian.Uint32(head[:]) == sigDataDescriptor {
		rest += 4 // the CRC follows the signature
	}
	if _, err := io.CopyN(io.Discard, e.src.r, int64(rest)); err != nil {
		return fmt.Errorf("entry %s: reading data descriptor: %w", e.name, err)
	}
	return nil
}
