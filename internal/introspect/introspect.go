// Package introspect resolves type names to their declared supertypes. The
// closure engine uses it to walk ancestors that a partial scan never saw.
package introspect

import "github.com/Aman-CERP/typeindex/internal/classfile"

// TypeHandle is a resolved type. Names are dotted.
type TypeHandle struct {
	Name       string
	Super      string
	Interfaces []string
	// Resolved is false for handles that only carry a declared name.
	Resolved bool
}

// Declared returns the superclass (if any) followed by the interfaces.
func (t TypeHandle) Declared() []string {
	out := make([]string, 0, len(t.Interfaces)+1)
	if t.Super != "" {
		out = append(out, t.Super)
	}
	return append(out, t.Interfaces...)
}

// Resolver maps type names to handles.
type Resolver interface {
	// Resolve looks up a type by name.
	Resolve(name string) (TypeHandle, bool)
	// ImmediateAncestors returns one handle per declared supertype of t, in
	// declaration order. Supertypes that cannot be resolved are returned
	// with Resolved unset.
	ImmediateAncestors(t TypeHandle) []TypeHandle
}

// OrNop returns r, or Nop when r is nil.
func OrNop(r Resolver) Resolver {
	if r == nil {
		return Nop{}
	}
	return r
}

// Nop resolves nothing.
type Nop struct{}

func (Nop) Resolve(string) (TypeHandle, bool)         { return TypeHandle{}, false }
func (Nop) ImmediateAncestors(TypeHandle) []TypeHandle { return nil }

// FromClass converts a decoded class header to a handle.
func FromClass(cf *classfile.ClassFile) TypeHandle {
	return TypeHandle{
		Name:       cf.Name,
		Super:      cf.Super,
		Interfaces: append([]string(nil), cf.Interfaces...),
		Resolved:   true,
	}
}

func ancestors(resolve func(string) (TypeHandle, bool), t TypeHandle) []TypeHandle {
	declared := t.Declared()
	out := make([]TypeHandle, 0, len(declared))
	for _, name := range declared {
		if h, ok := resolve(name); ok {
			out = append(out, h)
			continue
		}
		out = append(out, TypeHandle{Name: name})
	}
	return out
}
