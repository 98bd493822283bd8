// Package classfile decodes the header of compiled class files: the class
// name, its superclass and its directly implemented interfaces.
//
// Only the constant pool and the fixed header are read; fields, methods and
// attributes are ignored.
package classfile

import (
	"encoding/binary"
	"fmt"
	"io"
	"strings"

	ierrors "github.com/Aman-CERP/typeindex/internal/errors"
)

// Magic is the leading word of every class file.
const Magic = 0xCAFEBABE

// Access flags.
const (
	AccPublic     = 0x0001
	AccFinal      = 0x0010
	AccInterface  = 0x0200
	AccAbstract   = 0x0400
	AccSynthetic  = 0x1000
	AccAnnotation = 0x2000
	AccEnum       = 0x4000
	AccModule     = 0x8000
)

// Constant pool tags.
const (
	tagUtf8               = 1
	tagInteger            = 3
	tagFloat              = 4
	tagLong               = 5
	tagDouble             = 6
	tagClass              = 7
	tagString             = 8
	tagFieldref           = 9
	tagMethodref          = 10
	tagInterfaceMethodref = 11
	tagNameAndType        = 12
	tagMethodHandle       = 15
	tagMethodType         = 16
	tagDynamic            = 17
	tagInvokeDynamic      = 18
	tagModule             = 19
	tagPackage            = 20
)

// ObjectClass is the implicit root of every class hierarchy.
const ObjectClass = "java.lang.Object"

// ClassFile is the decoded header of a class file. Names are dotted.
type ClassFile struct {
	Major       uint16
	Minor       uint16
	AccessFlags uint16
	Name        string
	// Super is empty for the root class and for module descriptors.
	Super      string
	Interfaces []string
}

// IsInterface reports whether the class is an interface or annotation type.
func (c *ClassFile) IsInterface() bool {
	return c.AccessFlags&AccInterface != 0
}

// IsModule reports whether the class file is a module descriptor.
func (c *ClassFile) IsModule() bool {
	return c.AccessFlags&AccModule != 0
}

// Supertypes returns the superclass (if any) followed by the interfaces.
func (c *ClassFile) Supertypes() []string {
	out := make([]string, 0, len(c.Interfaces)+1)
	if c.Super != "" {
		out = append(out, c.Super)
	}
	return append(out, c.Interfaces...)
}

// IsClassPath reports whether a unit path names a class file.
func IsClassPath(path string) bool {
	return strings.HasSuffix(path, ".class")
}

// Decode reads a class file header from r.
func Decode(r io.Reader) (*ClassFile, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, decodeError("reading class file", err)
	}
	return Parse(data)
}

// Parse decodes a class file header from data.
func Parse(data []byte) (*ClassFile, error) {
	d := &decoder{data: data}

	if magic := d.u4(); magic != Magic {
		if d.err != nil {
			return nil, decodeError("truncated header", d.err)
		}
		return nil, decodeError(fmt.Sprintf("bad magic %#x", magic), nil)
	}

	cf := &ClassFile{}
	cf.Minor = d.u2()
	cf.Major = d.u2()

	pool, err := d.constantPool()
	if err != nil {
		return nil, decodeError("reading constant pool", err)
	}

	cf.AccessFlags = d.u2()
	thisIdx := d.u2()
	superIdx := d.u2()
	count := int(d.u2())
	ifaceIdx := make([]uint16, count)
	for i := range ifaceIdx {
		ifaceIdx[i] = d.u2()
	}
	if d.err != nil {
		return nil, decodeError("truncated header", d.err)
	}

	if cf.Name, err = pool.className(thisIdx); err != nil {
		return nil, decodeError("this_class", err)
	}
	if superIdx != 0 {
		if cf.Super, err = pool.className(superIdx); err != nil {
			return nil, decodeError("super_class", err)
		}
	}
	for _, idx := range ifaceIdx {
		name, err := pool.className(idx)
		if err != nil {
			return nil, decodeError("interfaces", err)
		}
		cf.Interfaces = append(cf.Interfaces, name)
	}

	return cf, nil
}

func decodeError(msg string, cause error) error {
	if cause != nil {
		msg = msg + ": " + cause.Error()
	}
	return ierrors.New(ierrors.ErrCodeDecodeFailed, "class decode failed: "+msg, cause)
}

type cpEntry struct {
	tag  byte
	ref  uint16
	utf8 string
}

type constantPool []cpEntry

func (p constantPool) className(idx uint16) (string, error) {
	if int(idx) <= 0 || int(idx) >= len(p) {
		return "", fmt.Errorf("constant index %d out of range", idx)
	}
	e := p[idx]
	if e.tag != tagClass {
		return "", fmt.Errorf("constant %d is not a class (tag %d)", idx, e.tag)
	}
	if int(e.ref) <= 0 || int(e.ref) >= len(p) || p[e.ref].tag != tagUtf8 {
		return "", fmt.Errorf("class constant %d has no name", idx)
	}
	return strings.ReplaceAll(p[e.ref].utf8, "/", "."), nil
}

type decoder struct {
	data []byte
	off  int
	err  error
}

func (d *decoder) take(n int) []byte {
	if d.err != nil {
		return nil
	}
	if d.off+n > len(d.data) {
		d.err = io.ErrUnexpectedEOF
		return nil
	}
	b := d.data[d.off : d.off+n]
	d.off += n
	return b
}

func (d *decoder) u1() byte {
	b := d.take(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (d *decoder) u2() uint16 {
	b := d.take(2)
	if b == nil {
		return 0
	}
	return binary.BigEndian.Uint16(b)
}

func (d *decoder) u4() uint32 {
	b := d.take(4)
	if b == nil {
		return 0
	}
	return binary.BigEndian.Uint32(b)
}

// constantPool reads the pool. Index 0 is unused, and long and double
// constants occupy two slots.
func (d *decoder) constantPool() (constantPool, error) {
	count := int(d.u2())
	if d.err != nil {
		return nil, d.err
	}
	pool := make(constantPool, count)

	for i := 1; i < count; i++ {
		tag := d.u1()
		e := cpEntry{tag: tag}
		switch tag {
		case tagUtf8:
			n := int(d.u2())
			e.utf8 = string(d.take(n))
		case tagClass, tagString, tagMethodType, tagModule, tagPackage:
			e.ref = d.u2()
		case tagInteger, tagFloat, tagFieldref, tagMethodref, tagInterfaceMethodref,
			tagNameAndType, tagDynamic, tagInvokeDynamic:
			d.take(4)
		case tagLong, tagDouble:
			d.take(8)
		case tagMethodHandle:
			d.take(3)
		default:
			if d.err == nil {
				return nil, fmt.Errorf("unknown constant tag %d at index %d", tag, i)
			}
		}
		if d.err != nil {
			return nil, d.err
		}
		pool[i] = e
		if tag == tagLong || tag == tagDouble {
			i++
		}
	}
	return pool, d.err
}
