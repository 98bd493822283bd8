package extract

import (
	"strings"

	"github.com/Aman-CERP/typeindex/internal/classfile"
	"github.com/Aman-CERP/typeindex/internal/filter"
)

// SubTypes records, for every class, supertype -> class for its superclass
// and each directly implemented interface.
type SubTypes struct {
	// ExcludeObject keeps the root object type from being recorded as a key.
	ExcludeObject bool
	// Results filters the supertype keys; the subtype values are kept as
	// found. nil accepts all.
	Results filter.Predicate
}

// NewSubTypes returns a SubTypes extractor excluding the root object type.
func NewSubTypes() *SubTypes {
	return &SubTypes{ExcludeObject: true}
}

func (s *SubTypes) Category() string { return SubTypesCategory }

func (s *SubTypes) AcceptsInput(path string) bool {
	return strings.HasSuffix(path, ".class")
}

func (s *SubTypes) AcceptResult(name string) bool {
	if s.ExcludeObject && name == classfile.ObjectClass {
		return false
	}
	return s.Results.Test(name)
}

func (s *SubTypes) Extract(in *Input, sink Sink) error {
	cf, err := in.Class()
	if err != nil {
		return err
	}
	if cf.IsModule() {
		return nil
	}
	for _, super := range cf.Supertypes() {
		sink.Put(super, cf.Name)
	}
	return nil
}

// Types records every scanned class as name -> name.
type Types struct {
	Results filter.Predicate
}

func (t *Types) Category() string { return TypesCategory }

func (t *Types) AcceptsInput(path string) bool {
	return strings.HasSuffix(path, ".class")
}

func (t *Types) AcceptResult(name string) bool {
	return t.Results.Test(name)
}

func (t *Types) Extract(in *Input, sink Sink) error {
	cf, err := in.Class()
	if err != nil {
		return err
	}
	if cf.IsModule() {
		return nil
	}
	sink.Put(cf.Name, cf.Name)
	return nil
}

// Resources records every non-class unit as file name -> relative path.
type Resources struct {
	Results filter.Predicate
}

func (r *Resources) Category() string { return ResourcesCategory }

func (r *Resources) AcceptsInput(path string) bool {
	return !strings.HasSuffix(path, ".class")
}

func (r *Resources) AcceptResult(name string) bool {
	return r.Results.Test(name)
}

func (r *Resources) Extract(in *Input, sink Sink) error {
	sink.Put(in.Unit().Name(), in.Path())
	return nil
}

// Defaults returns the standard extractor set: SubTypes (excluding the root
// object type), Types and Resources.
func Defaults() []Extractor {
	return []Extractor{NewSubTypes(), &Types{}, &Resources{}}
}

// ByName builds the named built-in extractor ("subtypes", "types",
// "resources"). It reports false for unknown names.
func ByName(name string, excludeObject bool) (Extractor, bool) {
	switch strings.ToLower(name) {
	case "subtypes":
		return &SubTypes{ExcludeObject: excludeObject}, true
	case "types":
		return &Types{}, true
	case "resources":
		return &Resources{}, true
	}
	return nil, false
}
