package shell

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapNamespace(t *testing.T) {
	ns := MapNamespace{"b": 2, "a": 1}
	assert.Equal(t, []string{"a", "b"}, ns.Exports())

	v, ok := ns.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	_, ok = ns.Get("c")
	assert.False(t, ok)
}

func TestShell_PlaceholderBeforeBind(t *testing.T) {
	s := New("https://example.com/a.js", []string{"x", "default", "x"})
	assert.Equal(t, []string{"default", "x"}, s.Exports())
	assert.False(t, s.Bound())

	v, ok := s.Get("x")
	assert.True(t, ok, "declared names exist before bind")
	assert.Nil(t, v)

	_, ok = s.Get("y")
	assert.False(t, ok)
}

func TestShell_BindDelegatesLive(t *testing.T) {
	s := New("https://example.com/a.js", []string{"x"})
	real := MapNamespace{"x": 1, "extra": true}
	require.NoError(t, s.Bind(real))
	assert.True(t, s.Bound())

	v, _ := s.Get("x")
	assert.Equal(t, 1, v)

	// Later assignments in the real module are visible through the shell.
	real["x"] = 42
	v, _ = s.Get("x")
	assert.Equal(t, 42, v)

	_, ok := s.Get("extra")
	assert.False(t, ok, "shell exposes only the names it declared")
}

func TestShell_BindMissingExports(t *testing.T) {
	s := New("https://example.com/a.js", []string{"x", "y", "z"})
	err := s.Bind(MapNamespace{"y": 1})

	var ce *CycleShellError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "https://example.com/a.js", ce.URL)
	assert.Equal(t, []string{"x", "z"}, ce.Missing)
	assert.True(t, IsCycleShellError(err))
	assert.False(t, s.Bound())
}

func TestShell_BindTwice(t *testing.T) {
	s := New("https://example.com/a.js", []string{"x"})
	require.NoError(t, s.Bind(MapNamespace{"x": 1}))
	assert.ErrorIs(t, s.Bind(MapNamespace{"x": 2}), ErrAlreadyBound)

	v, _ := s.Get("x")
	assert.Equal(t, 1, v)
}

func TestShell_BindNil(t *testing.T) {
	assert.Error(t, New("u", nil).Bind(nil))
}

func TestShell_Source(t *testing.T) {
	s := New("https://example.com/a.js", []string{"x", "default", "not-ident"})
	want := `let e$_0,e$_1,e$_2;` +
		`export{e$_0 as default,e$_1 as "not-ident",e$_2 as x};` +
		`export function u$_(m){e$_0=m.default,e$_1=m["not-ident"],e$_2=m.x}` +
		"\n//# sourceURL=https://example.com/a.js?cycle"
	assert.Equal(t, want, s.Source())
}

func TestShell_SourceNoExports(t *testing.T) {
	s := New("https://example.com/a.js", nil)
	assert.Equal(t, "export{};export function u$_(m){}\n//# sourceURL=https://example.com/a.js?cycle", s.Source())
}
