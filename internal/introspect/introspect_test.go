package introspect

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/typeindex/internal/classfile/classfiletest"
)

func writeClass(t *testing.T, root, name string, data []byte) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(name))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, data, 0644))
}

func writeJar(t *testing.T, path string, header []byte, files map[string][]byte) {
	t.Helper()
	var buf bytes.Buffer
	buf.Write(header)
	zw := zip.NewWriter(&buf)
	for name, data := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))
}

func TestNop(t *testing.T) {
	var r Resolver = OrNop(nil)

	_, ok := r.Resolve("a.B")

	assert.False(t, ok)
	assert.Nil(t, r.ImmediateAncestors(TypeHandle{Name: "a.B", Super: "a.C"}))
}

func TestStatic_ImmediateAncestors(t *testing.T) {
	// Given: a hierarchy where one declared interface is unknown
	r := NewStatic().
		Add("a.Child", "a.Parent", "a.Known", "a.Unknown").
		Add("a.Parent", "").
		Add("a.Known", "")

	child, ok := r.Resolve("a.Child")
	require.True(t, ok)

	// When: the ancestors are listed
	got := r.ImmediateAncestors(child)

	// Then: every declared ancestor appears, unknown ones unresolved
	require.Len(t, got, 3)
	assert.Equal(t, "a.Parent", got[0].Name)
	assert.True(t, got[0].Resolved)
	assert.Equal(t, "a.Known", got[1].Name)
	assert.True(t, got[1].Resolved)
	assert.Equal(t, "a.Unknown", got[2].Name)
	assert.False(t, got[2].Resolved)
}

func TestStatic_NewWithHandles(t *testing.T) {
	r := NewStatic(TypeHandle{Name: "x.Y", Super: "x.Z"})

	h, ok := r.Resolve("x.Y")

	require.True(t, ok)
	assert.True(t, h.Resolved)
	assert.Equal(t, []string{"x.Z"}, h.Declared())
}

func TestClasspath_Directory(t *testing.T) {
	root := t.TempDir()
	writeClass(t, root, "com/acme/Foo.class", classfiletest.Of("com.acme.Foo", "com.acme.Base", "com.acme.Api"))
	writeClass(t, root, "com/acme/Base.class", classfiletest.Of("com.acme.Base", "java.lang.Object"))

	cp, err := NewClasspath(ClasspathConfig{Locators: []string{root}})
	require.NoError(t, err)
	defer func() { _ = cp.Close() }()

	foo, ok := cp.Resolve("com.acme.Foo")
	require.True(t, ok)
	assert.Equal(t, "com.acme.Base", foo.Super)
	assert.Equal(t, []string{"com.acme.Api"}, foo.Interfaces)

	ancestors := cp.ImmediateAncestors(foo)
	require.Len(t, ancestors, 2)
	assert.True(t, ancestors[0].Resolved)
	assert.False(t, ancestors[1].Resolved)

	_, ok = cp.Resolve("com.acme.Missing")
	assert.False(t, ok)
}

func TestClasspath_ArchiveAndModule(t *testing.T) {
	dir := t.TempDir()
	jar := filepath.Join(dir, "lib.jar")
	writeJar(t, jar, nil, map[string][]byte{
		"org/lib/Api.class": classfiletest.Of("org.lib.Api", "java.lang.Object"),
	})
	jmod := filepath.Join(dir, "base.jmod")
	writeJar(t, jmod, []byte("JM\x01\x00"), map[string][]byte{
		"classes/java/lang/Object.class": classfiletest.Of("java.lang.Object", ""),
	})

	cp, err := NewClasspath(ClasspathConfig{Locators: []string{jar, jmod, filepath.Join(dir, "missing.jar")}})
	require.NoError(t, err)
	defer func() { _ = cp.Close() }()

	assert.Equal(t, 2, cp.Len(), "missing locators are skipped")

	api, ok := cp.Resolve("org.lib.Api")
	require.True(t, ok)
	assert.Equal(t, "java.lang.Object", api.Super)

	obj, ok := cp.Resolve("java.lang.Object")
	require.True(t, ok)
	assert.Empty(t, obj.Declared())
}

func TestClasspath_FirstRootWinsAndCaches(t *testing.T) {
	first := t.TempDir()
	second := t.TempDir()
	writeClass(t, first, "a/B.class", classfiletest.Of("a.B", "a.First"))
	writeClass(t, second, "a/B.class", classfiletest.Of("a.B", "a.Second"))

	cp, err := NewClasspath(ClasspathConfig{Locators: []string{first, second}, CacheSize: 4})
	require.NoError(t, err)
	defer func() { _ = cp.Close() }()

	h, ok := cp.Resolve("a.B")
	require.True(t, ok)
	assert.Equal(t, "a.First", h.Super)

	// cached lookups survive the class file disappearing
	require.NoError(t, os.Remove(filepath.Join(first, "a", "B.class")))
	h, ok = cp.Resolve("a.B")
	require.True(t, ok)
	assert.Equal(t, "a.First", h.Super)
}

func TestClasspath_SkipsMismatchedAndCorrupt(t *testing.T) {
	root := t.TempDir()
	writeClass(t, root, "a/B.class", classfiletest.Of("a.Other", ""))
	writeClass(t, root, "a/C.class", []byte("garbage"))

	cp, err := NewClasspath(ClasspathConfig{Locators: []string{root}})
	require.NoError(t, err)
	defer func() { _ = cp.Close() }()

	_, ok := cp.Resolve("a.B")
	assert.False(t, ok)
	_, ok = cp.Resolve("a.C")
	assert.False(t, ok)
	_, ok = cp.Resolve("")
	assert.False(t, ok)
}
