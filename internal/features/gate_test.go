package features

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPreset(t *testing.T) {
	full, err := Preset("FULL")
	require.NoError(t, err)
	assert.Equal(t, Full(), full)

	none, err := Preset("none")
	require.NoError(t, err)
	assert.False(t, none.DynamicImport)

	_, err = Preset("chrome")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "baseline, full, none")
}

func TestParseEnabled(t *testing.T) {
	e, err := ParseEnabled([]string{"css-modules", " JSON-modules "})
	require.NoError(t, err)
	assert.Equal(t, Enabled{CSSModules: true, JSONModules: true}, e)
	assert.Equal(t, []string{"css-modules", "json-modules"}, e.Names())

	all, err := ParseEnabled([]string{"all"})
	require.NoError(t, err)
	assert.Equal(t, AllEnabled(), all)

	_, err = ParseEnabled([]string{"jsx"})
	assert.Error(t, err)
}

func TestGate_BaselinePassthrough(t *testing.T) {
	tests := []struct {
		name    string
		caps    Capabilities
		enabled Enabled
		want    bool
	}{
		{"full host", Full(), Enabled{}, true},
		{"baseline host", Baseline(), Enabled{}, true},
		{"no import maps", Capabilities{DynamicImport: true, ImportMeta: true}, Enabled{}, false},
		{"no import.meta", Capabilities{DynamicImport: true, ImportMaps: true}, Enabled{}, false},
		{"enabled css unsupported", Baseline(), Enabled{CSSModules: true}, false},
		{"enabled css supported", Full(), Enabled{CSSModules: true, JSONModules: true, WasmModules: true, SourcePhase: true}, true},
		{"typescript always shims", Full(), Enabled{TypeScript: true}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NewGate(tt.caps, tt.enabled).BaselinePassthrough())
		})
	}
}

func TestGate_SecondImportMapDisablesPassthrough(t *testing.T) {
	g := NewGate(Baseline(), Enabled{})
	g.NoteImportMap(false)
	assert.True(t, g.BaselinePassthrough())
	assert.True(t, g.MapsNative())

	g.NoteImportMap(false)
	assert.False(t, g.BaselinePassthrough())
	assert.False(t, g.MapsNative())
	assert.Equal(t, 2, g.ImportMapCount())

	multi := NewGate(Full(), Enabled{})
	multi.NoteImportMap(false)
	multi.NoteImportMap(false)
	assert.True(t, multi.BaselinePassthrough())
	assert.True(t, multi.MapsNative())
}

func TestGate_ExternalMapDisablesPassthrough(t *testing.T) {
	g := NewGate(Full(), Enabled{})
	g.NoteImportMap(true)
	assert.False(t, g.BaselinePassthrough())
}

func TestGate_UnsupportedType(t *testing.T) {
	g := NewGate(Capabilities{JSONModules: true}, Enabled{CSSModules: true, JSONModules: true, TypeScript: true})

	shim, err := g.UnsupportedType(TypeCSS)
	require.NoError(t, err)
	assert.True(t, shim)

	shim, err = g.UnsupportedType(TypeJSON)
	require.NoError(t, err)
	assert.False(t, shim)

	shim, err = g.UnsupportedType(TypeTS)
	require.NoError(t, err)
	assert.True(t, shim)

	_, err = g.UnsupportedType(TypeWasm)
	var fd *FeatureDisabledError
	require.ErrorAs(t, err, &fd)
	assert.Equal(t, FeatureWasmModules, fd.Feature)

	shim, err = g.UnsupportedType(TypeJS)
	require.NoError(t, err)
	assert.False(t, shim)
}

func TestGate_SourcePhase(t *testing.T) {
	_, err := NewGate(Full(), Enabled{}).SourcePhase()
	assert.Error(t, err)

	shim, err := NewGate(Baseline(), Enabled{SourcePhase: true}).SourcePhase()
	require.NoError(t, err)
	assert.True(t, shim)
}

func TestWithOverrides(t *testing.T) {
	caps, err := WithOverrides("", map[string]bool{"import_maps": false, "CSS_Modules": true})
	require.NoError(t, err)
	want := Baseline()
	want.ImportMaps = false
	want.CSSModules = true
	assert.Equal(t, want, caps)

	_, err = WithOverrides("full", map[string]bool{"teleport": true})
	assert.EqualError(t, err, `unknown capability "teleport"`)

	_, err = WithOverrides("future", nil)
	assert.ErrorContains(t, err, `unknown capability preset "future"`)
}
