// Package classfiletest builds minimal class files for tests.
package classfiletest

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strings"
)

// Class describes a class file to build. Names are dotted.
type Class struct {
	Name       string
	Super      string
	Interfaces []string
	Access     uint16
	Major      uint16
}

// Bytes encodes c as a class file with an empty body. The constant pool
// also carries a long and a string constant so decoders see wide and
// non-class entries.
func (c Class) Bytes() []byte {
	var pool bytes.Buffer
	next := uint16(1)
	index := map[string]uint16{}

	utf8 := func(s string) uint16 {
		pool.WriteByte(1)
		_ = binary.Write(&pool, binary.BigEndian, uint16(len(s)))
		pool.WriteString(s)
		next++
		return next - 1
	}
	class := func(name string) uint16 {
		if idx, ok := index[name]; ok {
			return idx
		}
		nameIdx := utf8(strings.ReplaceAll(name, ".", "/"))
		pool.WriteByte(7)
		_ = binary.Write(&pool, binary.BigEndian, nameIdx)
		next++
		index[name] = next - 1
		return next - 1
	}

	// long constant: two slots
	pool.WriteByte(5)
	_ = binary.Write(&pool, binary.BigEndian, uint64(42))
	next += 2
	str := utf8("fixture")
	pool.WriteByte(8)
	_ = binary.Write(&pool, binary.BigEndian, str)
	next++

	this := class(c.Name)
	var super uint16
	if c.Super != "" {
		super = class(c.Super)
	}
	ifaces := make([]uint16, len(c.Interfaces))
	for i, name := range c.Interfaces {
		ifaces[i] = class(name)
	}

	major := c.Major
	if major == 0 {
		major = 52
	}
	access := c.Access
	if access == 0 {
		access = 0x0021 // public super
	}

	var out bytes.Buffer
	w := func(v any) { _ = binary.Write(&out, binary.BigEndian, v) }
	w(uint32(0xCAFEBABE))
	w(uint16(0))
	w(major)
	w(next)
	out.Write(pool.Bytes())
	w(access)
	w(this)
	w(super)
	w(uint16(len(ifaces)))
	for _, idx := range ifaces {
		w(idx)
	}
	w(uint16(0)) // fields
	w(uint16(0)) // methods
	w(uint16(0)) // attributes
	return out.Bytes()
}

// Of is shorthand for Class{Name, Super, Interfaces}.Bytes().
func Of(name, super string, interfaces ...string) []byte {
	return Class{Name: name, Super: super, Interfaces: interfaces}.Bytes()
}

// Path returns the unit path of the dotted class name.
func Path(name string) string {
	return strings.ReplaceAll(name, ".", "/") + ".class"
}

// Hierarchy builds a synthetic corpus of n classes in pkg keyed by unit
// path. Class i extends class (i-1)/fanout, class 0 extends
// java.lang.Object, and every fifth class also implements pkg.Api.
func Hierarchy(pkg string, n, fanout int) map[string][]byte {
	if fanout < 1 {
		fanout = 1
	}
	api := pkg + ".Api"
	files := map[string][]byte{
		Path(api): Class{Name: api, Super: "java.lang.Object", Access: 0x0601}.Bytes(),
	}
	for i := 0; i < n; i++ {
		name := fmt.Sprintf("%s.Type%d", pkg, i)
		super := "java.lang.Object"
		if i > 0 {
			super = fmt.Sprintf("%s.Type%d", pkg, (i-1)/fanout)
		}
		var ifaces []string
		if i%5 == 0 {
			ifaces = []string{api}
		}
		files[Path(name)] = Of(name, super, ifaces...)
	}
	return files
}
