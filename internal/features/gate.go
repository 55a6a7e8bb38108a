package features

import (
	"fmt"
	"log/slog"
	"sync"
)

// ModuleType tags a load by the kind of source it holds.
type ModuleType string

const (
	TypeJS   ModuleType = "js"
	TypeJSON ModuleType = "json"
	TypeCSS  ModuleType = "css"
	TypeWasm ModuleType = "wasm"
	TypeTS   ModuleType = "ts"
)

// FeatureDisabledError is returned when a module needs a feature that is
// not in the enable list.
type FeatureDisabledError struct {
	Feature string
}

func (e *FeatureDisabledError) Error() string {
	return fmt.Sprintf("%s feature must be enabled via the polyfill enable option", e.Feature)
}

// Gate answers passthrough and shim questions for one loader.
//
// Thread-safety: Gate is safe for concurrent use.
type Gate struct {
	caps    Capabilities
	enabled Enabled

	mu       sync.Mutex
	maps     int
	external bool
}

// NewGate creates a gate for the given host capabilities and enable list.
func NewGate(caps Capabilities, enabled Enabled) *Gate {
	return &Gate{caps: caps, enabled: enabled}
}

// Capabilities returns the host capability vector.
func (g *Gate) Capabilities() Capabilities {
	return g.caps
}

// Enabled returns the polyfill enable list.
func (g *Gate) Enabled() Enabled {
	return g.enabled
}

// NoteImportMap records that an import map was discovered. external is true
// for maps loaded by reference rather than inline.
func (g *Gate) NoteImportMap(external bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.maps++
	if external {
		g.external = true
	}
	if g.maps == 2 && !g.caps.MultipleImportMaps {
		slog.Debug("second import map on single-map host, baseline passthrough disabled")
	}
}

// ImportMapCount returns how many maps have been noted.
func (g *Gate) ImportMapCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.maps
}

// MapsNative reports whether the host resolves every discovered import map
// on its own, so that remapping needs no rewriting.
func (g *Gate) MapsNative() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.caps.ImportMaps {
		return false
	}
	return g.maps <= 1 || g.caps.MultipleImportMaps
}

// BaselinePassthrough reports whether whole loads may skip the shim and go
// straight to the host's dynamic import.
func (g *Gate) BaselinePassthrough() bool {
	c, e := g.caps, g.enabled
	if !c.DynamicImport || !c.ImportMeta || !c.ImportMaps {
		return false
	}
	if (e.JSONModules && !c.JSONModules) ||
		(e.CSSModules && !c.CSSModules) ||
		(e.WasmModules && !c.WasmModules) ||
		(e.SourcePhase && !c.SourcePhase) ||
		e.TypeScript {
		return false
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.maps > 1 && !c.MultipleImportMaps {
		return false
	}
	return !g.external
}

// UnsupportedType checks a non-JS module type. It returns whether the type
// forces shimming, or a FeatureDisabledError when the type is not enabled.
func (g *Gate) UnsupportedType(t ModuleType) (bool, error) {
	c, e := g.caps, g.enabled
	switch t {
	case TypeCSS:
		if !e.CSSModules {
			return false, &FeatureDisabledError{Feature: FeatureCSSModules}
		}
		return !c.CSSModules, nil
	case TypeJSON:
		if !e.JSONModules {
			return false, &FeatureDisabledError{Feature: FeatureJSONModules}
		}
		return !c.JSONModules, nil
	case TypeWasm:
		if !e.WasmModules {
			return false, &FeatureDisabledError{Feature: FeatureWasmModules}
		}
		return !c.WasmModules, nil
	case TypeTS:
		if !e.TypeScript {
			return false, &FeatureDisabledError{Feature: FeatureTypeScript}
		}
		return true, nil
	}
	return false, nil
}

// SourcePhase checks a source-phase import. It returns whether the import
// forces shimming, or a FeatureDisabledError when source phase is off.
func (g *Gate) SourcePhase() (bool, error) {
	if !g.enabled.SourcePhase {
		return false, &FeatureDisabledError{Feature: FeatureSourcePhase}
	}
	return !g.caps.SourcePhase, nil
}
