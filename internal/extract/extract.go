// Package extract defines the pluggable extractors that turn scanned units
// into facts, and ships the built-in ones.
package extract

import (
	"fmt"
	"sync"

	"github.com/Aman-CERP/typeindex/internal/classfile"
	ierrors "github.com/Aman-CERP/typeindex/internal/errors"
	"github.com/Aman-CERP/typeindex/internal/vfs"
)

// Category names of the built-in extractors.
const (
	SubTypesCategory  = "SubTypes"
	TypesCategory     = "Types"
	ResourcesCategory = "Resources"
)

// Sink receives the facts an extractor emits for one unit.
type Sink interface {
	Put(key, value string) bool
}

// Extractor maps one unit to zero or more facts of a single category.
type Extractor interface {
	// Category is the store category facts are written to.
	Category() string
	// AcceptsInput reports whether the extractor wants a unit, given either
	// its '/'-separated path or its dotted form.
	AcceptsInput(path string) bool
	// Extract emits facts for the unit behind in.
	Extract(in *Input, sink Sink) error
	// AcceptResult filters emitted facts by key.
	AcceptResult(name string) bool
}

// Input is one unit as seen by the extractors of a scan. The unit's class
// header is decoded at most once and shared; a decode failure is cached and
// reported to every extractor that asks for it.
type Input struct {
	unit vfs.Unit

	once     sync.Once
	class    *classfile.ClassFile
	classErr error
}

// NewInput wraps a unit.
func NewInput(u vfs.Unit) *Input {
	return &Input{unit: u}
}

// Unit returns the wrapped unit.
func (in *Input) Unit() vfs.Unit {
	return in.unit
}

// Path returns the unit's relative path.
func (in *Input) Path() string {
	return in.unit.Path()
}

// Class decodes the unit as a class file.
func (in *Input) Class() (*classfile.ClassFile, error) {
	in.once.Do(func() {
		in.class, in.classErr = in.decode()
	})
	return in.class, in.classErr
}

func (in *Input) decode() (*classfile.ClassFile, error) {
	if !classfile.IsClassPath(in.unit.Path()) {
		return nil, ierrors.New(ierrors.ErrCodeDecodeFailed,
			fmt.Sprintf("%s is not a class file", in.unit.Path()), nil)
	}

	rc, err := in.unit.Open()
	if err != nil {
		return nil, ierrors.New(ierrors.ErrCodeDecodeFailed,
			fmt.Sprintf("opening %s", in.unit.Path()), err)
	}
	defer func() { _ = rc.Close() }()

	return classfile.Decode(rc)
}

// FilteredSink drops facts whose key the extractor rejects.
type FilteredSink struct {
	Sink      Sink
	Extractor Extractor
}

// Put forwards the fact when its key is accepted.
func (f FilteredSink) Put(key, value string) bool {
	if !f.Extractor.AcceptResult(key) {
		return false
	}
	return f.Sink.Put(key, value)
}
