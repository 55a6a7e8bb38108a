package features

import (
	"fmt"
	"sort"
	"strings"
)

// Capabilities reports what the host engine supports natively.
type Capabilities struct {
	DynamicImport      bool `json:"dynamic_import" yaml:"dynamic_import" mapstructure:"dynamic_import"`
	ImportMeta         bool `json:"import_meta" yaml:"import_meta" mapstructure:"import_meta"`
	ImportMaps         bool `json:"import_maps" yaml:"import_maps" mapstructure:"import_maps"`
	MultipleImportMaps bool `json:"multiple_import_maps" yaml:"multiple_import_maps" mapstructure:"multiple_import_maps"`
	CSSModules         bool `json:"css_modules" yaml:"css_modules" mapstructure:"css_modules"`
	JSONModules        bool `json:"json_modules" yaml:"json_modules" mapstructure:"json_modules"`
	WasmModules        bool `json:"wasm_modules" yaml:"wasm_modules" mapstructure:"wasm_modules"`
	SourcePhase        bool `json:"source_phase" yaml:"source_phase" mapstructure:"source_phase"`

	// OrderedSiblings is true when the host evaluates sibling static
	// imports in declaration order.
	OrderedSiblings bool `json:"ordered_siblings" yaml:"ordered_siblings" mapstructure:"ordered_siblings"`
}

// None is a host with no module support beyond plain dynamic import of URLs.
func None() Capabilities {
	return Capabilities{}
}

// Baseline is a host with dynamic import, import.meta and a single native
// import map, but no content-type extensions.
func Baseline() Capabilities {
	return Capabilities{
		DynamicImport:   true,
		ImportMeta:      true,
		ImportMaps:      true,
		OrderedSiblings: true,
	}
}

// Full is a host that supports everything natively.
func Full() Capabilities {
	return Capabilities{
		DynamicImport:      true,
		ImportMeta:         true,
		ImportMaps:         true,
		MultipleImportMaps: true,
		CSSModules:         true,
		JSONModules:        true,
		WasmModules:        true,
		SourcePhase:        true,
		OrderedSiblings:    true,
	}
}

var presets = map[string]func() Capabilities{
	"none":     None,
	"baseline": Baseline,
	"full":     Full,
}

// Preset returns the named capability preset.
func Preset(name string) (Capabilities, error) {
	fn, ok := presets[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Capabilities{}, fmt.Errorf("unknown capability preset %q (want one of %s)", name, strings.Join(PresetNames(), ", "))
	}
	return fn(), nil
}

// PresetNames lists the known presets in sorted order.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var capabilityFields = map[string]func(*Capabilities) *bool{
	"dynamic_import":       func(c *Capabilities) *bool { return &c.DynamicImport },
	"import_meta":          func(c *Capabilities) *bool { return &c.ImportMeta },
	"import_maps":          func(c *Capabilities) *bool { return &c.ImportMaps },
	"multiple_import_maps": func(c *Capabilities) *bool { return &c.MultipleImportMaps },
	"css_modules":          func(c *Capabilities) *bool { return &c.CSSModules },
	"json_modules":         func(c *Capabilities) *bool { return &c.JSONModules },
	"wasm_modules":         func(c *Capabilities) *bool { return &c.WasmModules },
	"source_phase":         func(c *Capabilities) *bool { return &c.SourcePhase },
	"ordered_siblings":     func(c *Capabilities) *bool { return &c.OrderedSiblings },
}

// Set overrides one capability by its snake_case name.
func (c *Capabilities) Set(name string, on bool) error {
	field, ok := capabilityFields[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return fmt.Errorf("unknown capability %q", name)
	}
	*field(c) = on
	return nil
}

// WithOverrides returns the preset named by preset with overrides applied.
// An empty preset means baseline.
func WithOverrides(preset string, overrides map[string]bool) (Capabilities, error) {
	if preset == "" {
		preset = "baseline"
	}
	caps, err := Preset(preset)
	if err != nil {
		return Capabilities{}, err
	}
	names := make([]string, 0, len(overrides))
	for name := range overrides {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := caps.Set(name, overrides[name]); err != nil {
			return Capabilities{}, err
		}
	}
	return caps, nil
}
