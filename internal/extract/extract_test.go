package extract

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/typeindex/internal/classfile"
	"github.com/Aman-CERP/typeindex/internal/classfile/classfiletest"
	ierrors "github.com/Aman-CERP/typeindex/internal/errors"
	"github.com/Aman-CERP/typeindex/internal/filter"
	"github.com/Aman-CERP/typeindex/internal/store"
)

type memUnit struct {
	path  string
	data  []byte
	opens int
}

func (u *memUnit) Path() string { return u.path }
func (u *memUnit) Name() string { return u.path[strings.LastIndex(u.path, "/")+1:] }
func (u *memUnit) FQN() string  { return strings.ReplaceAll(u.path, "/", ".") }
func (u *memUnit) Size() int64  { return int64(len(u.data)) }
func (u *memUnit) Open() (io.ReadCloser, error) {
	u.opens++
	return io.NopCloser(bytes.NewReader(u.data)), nil
}

func classUnit(name, super string, ifaces ...string) *memUnit {
	return &memUnit{
		path: strings.ReplaceAll(name, ".", "/") + ".class",
		data: classfiletest.Of(name, super, ifaces...),
	}
}

// run feeds one unit through an extractor the way the scan pipeline does.
func run(t *testing.T, e Extractor, in *Input) (*store.Category, error) {
	t.Helper()
	cat := store.NewCategory(e.Category())
	err := e.Extract(in, FilteredSink{Sink: cat, Extractor: e})
	return cat, err
}

func TestSubTypes_Extract(t *testing.T) {
	// Given: a class with a superclass and two interfaces
	in := NewInput(classUnit("com.acme.Foo", "com.acme.Base", "com.acme.Api", "java.io.Serializable"))

	// When: the SubTypes extractor runs
	cat, err := run(t, NewSubTypes(), in)

	// Then: each supertype maps to the class
	require.NoError(t, err)
	assert.Equal(t, map[string][]string{
		"com.acme.Base":        {"com.acme.Foo"},
		"com.acme.Api":         {"com.acme.Foo"},
		"java.io.Serializable": {"com.acme.Foo"},
	}, cat.Contents())
}

func TestSubTypes_ExcludeObject(t *testing.T) {
	unit := classUnit("com.acme.Plain", classfile.ObjectClass)

	excluded, err := run(t, &SubTypes{ExcludeObject: true}, NewInput(unit))
	require.NoError(t, err)
	assert.Empty(t, excluded.Keys())

	included, err := run(t, &SubTypes{ExcludeObject: false}, NewInput(unit))
	require.NoError(t, err)
	assert.Equal(t, []string{"com.acme.Plain"}, included.Get(classfile.ObjectClass))
}

func TestSubTypes_ResultFilter(t *testing.T) {
	f := filter.New()
	f.IncludePackage("com.acme")
	e := &SubTypes{ExcludeObject: true, Results: f.Predicate()}

	cat, err := run(t, e, NewInput(classUnit("com.acme.Foo", "com.acme.Base", "java.io.Serializable")))

	require.NoError(t, err)
	assert.Equal(t, []string{"com.acme.Base"}, cat.Keys())
}

func TestSubTypes_ResultFilterAppliesToKeysOnly(t *testing.T) {
	// Given: a result filter for com.acme and a subtype outside it
	f := filter.New()
	f.IncludePackage("com.acme")
	e := &SubTypes{ExcludeObject: true, Results: f.Predicate()}

	// When: extracting
	cat, err := run(t, e, NewInput(classUnit("org.ext.Plugin", "com.acme.Base")))

	// Then: the accepted key keeps its unfiltered value
	require.NoError(t, err)
	assert.Equal(t, []string{"org.ext.Plugin"}, cat.Get("com.acme.Base"))
}

func TestSubTypes_SkipsModuleDescriptor(t *testing.T) {
	unit := &memUnit{
		path: "module-info.class",
		data: classfiletest.Class{Name: "module-info", Access: classfile.AccModule}.Bytes(),
	}

	cat, err := run(t, NewSubTypes(), NewInput(unit))

	require.NoError(t, err)
	assert.Equal(t, 0, cat.Len())
}

func TestTypes_Extract(t *testing.T) {
	cat, err := run(t, &Types{}, NewInput(classUnit("a.B", "a.C")))

	require.NoError(t, err)
	assert.Equal(t, map[string][]string{"a.B": {"a.B"}}, cat.Contents())
}

func TestResources_Extract(t *testing.T) {
	e := &Resources{}
	unit := &memUnit{path: "META-INF/services/app.properties", data: []byte("x")}

	assert.True(t, e.AcceptsInput(unit.Path()))
	assert.False(t, e.AcceptsInput("a/B.class"))

	cat, err := run(t, e, NewInput(unit))

	require.NoError(t, err)
	assert.Equal(t, []string{"META-INF/services/app.properties"}, cat.Get("app.properties"))
	assert.Equal(t, 0, unit.opens, "resources are recorded without reading content")
}

func TestResources_ResultFilter(t *testing.T) {
	p, err := filter.Regex(`.*\.xml`)
	require.NoError(t, err)
	e := &Resources{Results: p}

	xml, err := run(t, e, NewInput(&memUnit{path: "conf/beans.xml"}))
	require.NoError(t, err)
	props, err := run(t, e, NewInput(&memUnit{path: "conf/app.properties"}))
	require.NoError(t, err)

	assert.Equal(t, 1, xml.Len())
	assert.Equal(t, 0, props.Len())
}

func TestInput_DecodesOnce(t *testing.T) {
	// Given: one class unit shared by two class-based extractors
	unit := classUnit("a.B", "a.C")
	in := NewInput(unit)

	// When: both extractors run
	_, err := run(t, NewSubTypes(), in)
	require.NoError(t, err)
	_, err = run(t, &Types{}, in)
	require.NoError(t, err)

	// Then: the unit was read once
	assert.Equal(t, 1, unit.opens)
}

func TestInput_DecodeFailureIsCached(t *testing.T) {
	// Given: a corrupt class unit
	unit := &memUnit{path: "a/Broken.class", data: []byte("not a class")}
	in := NewInput(unit)

	// When: every class-based extractor runs on it
	_, errSub := run(t, NewSubTypes(), in)
	_, errTypes := run(t, &Types{}, in)

	// Then: both fail with the same cached decode error
	assert.ErrorIs(t, errSub, ierrors.ErrDecodeFailed)
	assert.ErrorIs(t, errTypes, ierrors.ErrDecodeFailed)
	assert.Same(t, errSub, errTypes)
	assert.Equal(t, 1, unit.opens)
}

func TestInput_NonClassUnit(t *testing.T) {
	in := NewInput(&memUnit{path: "readme.txt"})

	_, err := in.Class()

	assert.ErrorIs(t, err, ierrors.ErrDecodeFailed)
}

func TestByName(t *testing.T) {
	for _, tt := range []struct {
		name     string
		category string
	}{
		{"subtypes", SubTypesCategory},
		{"Types", TypesCategory},
		{"RESOURCES", ResourcesCategory},
	} {
		e, ok := ByName(tt.name, true)
		require.True(t, ok, tt.name)
		assert.Equal(t, tt.category, e.Category())
	}

	_, ok := ByName("methods", true)
	assert.False(t, ok)

	e, _ := ByName("subtypes", false)
	assert.False(t, e.(*SubTypes).ExcludeObject)
}

func TestDefaults(t *testing.T) {
	var categories []string
	for _, e := range Defaults() {
		categories = append(categories, e.Category())
	}
	assert.Equal(t, []string{SubTypesCategory, TypesCategory, ResourcesCategory}, categories)
}
