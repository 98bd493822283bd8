package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ierrors "github.com/Aman-CERP/typeindex/internal/errors"
)

func TestFilter_EmptyAcceptsAll(t *testing.T) {
	f := New()

	assert.True(t, f.Match("anything"))
	assert.Nil(t, f.Predicate())
	assert.True(t, f.Predicate().Test("anything"))
}

func TestFilter_Chain(t *testing.T) {
	tests := []struct {
		name  string
		build func(f *Filter)
		in    []string
		out   []string
	}{
		{
			name:  "include only",
			build: func(f *Filter) { require.NoError(t, f.Include(`com\.acme\..*`)) },
			in:    []string{"com.acme.Foo", "com.acme.sub.Bar"},
			out:   []string{"org.other.Foo", "com.acmex.Foo"},
		},
		{
			name:  "exclude only",
			build: func(f *Filter) { require.NoError(t, f.Exclude(`.*Test.*`)) },
			in:    []string{"com.acme.Foo"},
			out:   []string{"com.acme.FooTest"},
		},
		{
			name: "include then exclude",
			build: func(f *Filter) {
				f.IncludePackage("com.acme")
				require.NoError(t, f.Exclude(`.*\.internal\..*`))
			},
			in:  []string{"com.acme.api.Foo"},
			out: []string{"com.acme.internal.Foo", "org.Foo"},
		},
		{
			name: "two includes are a union",
			build: func(f *Filter) {
				f.IncludePackage("a")
				f.IncludePackage("b.")
			},
			in:  []string{"a.X", "b.Y"},
			out: []string{"c.Z", "ab.X"},
		},
		{
			name: "exclude ends the walk",
			build: func(f *Filter) {
				f.ExcludePackage("gen")
				require.NoError(t, f.Include(`gen\.keep\..*`))
			},
			in:  []string{"app.Main"},
			out: []string{"gen.Other", "gen.keep.Kept"},
		},
		{
			name:  "whole name must match",
			build: func(f *Filter) { require.NoError(t, f.Include(`Foo`)) },
			in:    []string{"Foo"},
			out:   []string{"Foobar", "xFoo"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := New()
			tt.build(f)

			for _, name := range tt.in {
				assert.True(t, f.Match(name), "expected %q accepted by %s", name, f)
			}
			for _, name := range tt.out {
				assert.False(t, f.Match(name), "expected %q rejected by %s", name, f)
			}
		})
	}
}

func TestFilter_InvalidPattern(t *testing.T) {
	f := New()

	err := f.Include("[unclosed")

	require.Error(t, err)
	assert.Equal(t, ierrors.ErrCodeInvalidInput, ierrors.GetCode(err))
	assert.Equal(t, 0, f.Len())
}

func TestBuild(t *testing.T) {
	f, err := Build([]string{`org\.lib\.Api`}, []string{"com.acme"}, []string{`.*Test`})
	require.NoError(t, err)

	assert.True(t, f.Match("org.lib.Api"))
	assert.True(t, f.Match("com.acme.Foo"))
	assert.False(t, f.Match("com.acme.FooTest"))
	assert.False(t, f.Match("org.lib.Other"))
	assert.Equal(t, 3, f.Len())

	_, err = Build(nil, nil, []string{"("})
	assert.Error(t, err)
}

func TestRegex(t *testing.T) {
	p, err := Regex(`.*\.properties`)
	require.NoError(t, err)

	assert.True(t, p("app.properties"))
	assert.False(t, p("app.xml"))
}

func TestGlobPattern(t *testing.T) {
	tests := []struct {
		glob  string
		match []string
		miss  []string
	}{
		{"*.class", []string{"A.class"}, []string{"a/A.class", "A.java"}},
		{"**/*.class", []string{"A.class", "a/b/A.class"}, []string{"a/b/A.java"}},
		{"com/**", []string{"com/a", "com/a/b.txt"}, []string{"org/a"}},
		{"META-INF/?.xml", []string{"META-INF/a.xml"}, []string{"META-INF/ab.xml"}},
		{"[ab].txt", []string{"a.txt", "b.txt"}, []string{"c.txt"}},
		{"a\\*b", []string{"a*b"}, []string{"axb"}},
	}

	for _, tt := range tests {
		t.Run(tt.glob, func(t *testing.T) {
			f := New()
			require.NoError(t, f.IncludeGlob(tt.glob))
			for _, s := range tt.match {
				assert.True(t, f.Match(s), s)
			}
			for _, s := range tt.miss {
				assert.False(t, f.Match(s), s)
			}
		})
	}
}

func TestExcludeGlob(t *testing.T) {
	f := New()
	require.NoError(t, f.ExcludeGlob("**/module-info.class"))

	assert.True(t, f.Match("a/B.class"))
	assert.False(t, f.Match("module-info.class"))
	assert.False(t, f.Match("x/module-info.class"))
}
