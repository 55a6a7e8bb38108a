package features

import (
	"fmt"
	"strings"
)

// Feature names accepted by ParseEnabled.
const (
	FeatureCSSModules  = "css-modules"
	FeatureJSONModules = "json-modules"
	FeatureWasmModules = "wasm-modules"
	FeatureSourcePhase = "source-phase"
	FeatureTypeScript  = "typescript"
	FeatureAll         = "all"
)

// Enabled is the polyfill enable list: which optional module types the
// loader will handle at all.
type Enabled struct {
	CSSModules  bool
	JSONModules bool
	WasmModules bool
	SourcePhase bool
	TypeScript  bool
}

// AllEnabled turns on every optional feature.
func AllEnabled() Enabled {
	return Enabled{CSSModules: true, JSONModules: true, WasmModules: true, SourcePhase: true, TypeScript: true}
}

// ParseEnabled builds an Enabled set from feature names.
func ParseEnabled(names []string) (Enabled, error) {
	var e Enabled
	for _, raw := range names {
		name := strings.ToLower(strings.TrimSpace(raw))
		switch name {
		case "":
		case FeatureCSSModules:
			e.CSSModules = true
		case FeatureJSONModules:
			e.JSONModules = true
		case FeatureWasmModules:
			e.WasmModules = true
		case FeatureSourcePhase:
			e.SourcePhase = true
		case FeatureTypeScript:
			e.TypeScript = true
		case FeatureAll:
			e = AllEnabled()
		default:
			return Enabled{}, fmt.Errorf("unknown feature %q", raw)
		}
	}
	return e, nil
}

// Names returns the enabled feature names in a stable order.
func (e Enabled) Names() []string {
	var names []string
	if e.CSSModules {
		names = append(names, FeatureCSSModules)
	}
	if e.JSONModules {
		names = append(names, FeatureJSONModules)
	}
	if e.WasmModules {
		names = append(names, FeatureWasmModules)
	}
	if e.SourcePhase {
		names = append(names, FeatureSourcePhase)
	}
	if e.TypeScript {
		names = append(names, FeatureTypeScript)
	}
	return names
}
