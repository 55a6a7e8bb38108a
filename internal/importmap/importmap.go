package importmap

import (
	"encoding/json"
	"fmt"
	"maps"
)

// Packages maps specifier keys to target URLs.
// A nil target blocks every specifier the key matches.
type Packages map[string]*string

// ImportMap is a composed import map.
type ImportMap struct {
	Imports   Packages            `json:"imports"`
	Scopes    map[string]Packages `json:"scopes"`
	Integrity map[string]string   `json:"integrity"`
}

// New returns an empty import map.
func New() *ImportMap {
	return &ImportMap{
		Imports:   make(Packages),
		Scopes:    make(map[string]Packages),
		Integrity: make(map[string]string),
	}
}

// Parse decodes an import map document.
// Missing sections are returned as empty maps.
func Parse(data []byte) (*ImportMap, error) {
	m := New()
	if err := json.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("parse import map: %w", err)
	}
	m.ensure()
	return m, nil
}

// ensure replaces nil sections with empty maps after decoding.
func (m *ImportMap) ensure() {
	if m.Imports == nil {
		m.Imports = make(Packages)
	}
	if m.Scopes == nil {
		m.Scopes = make(map[string]Packages)
	}
	if m.Integrity == nil {
		m.Integrity = make(map[string]string)
	}
	for scope, pkgs := range m.Scopes {
		if pkgs == nil {
			m.Scopes[scope] = make(Packages)
		}
	}
}

// Clone returns a deep copy. Snapshots handed to callers are clones so the
// loader's composed map is never mutated from outside.
func (m *ImportMap) Clone() *ImportMap {
	if m == nil {
		return New()
	}
	out := &ImportMap{
		Imports:   m.Imports.clone(),
		Scopes:    make(map[string]Packages, len(m.Scopes)),
		Integrity: maps.Clone(m.Integrity),
	}
	if out.Integrity == nil {
		out.Integrity = make(map[string]string)
	}
	for scope, pkgs := range m.Scopes {
		out.Scopes[scope] = pkgs.clone()
	}
	return out
}

func (p Packages) clone() Packages {
	out := make(Packages, len(p))
	for k, v := range p {
		if v == nil {
			out[k] = nil
			continue
		}
		target := *v
		out[k] = &target
	}
	return out
}

// Target returns a pointer to target for use as a Packages value.
func Target(target string) *string {
	return &target
}

// Marshal encodes the map as an import map document.
func (m *ImportMap) Marshal() ([]byte, error) {
	return json.Marshal(m)
}

// IntegrityFor returns the integrity metadata registered for url.
func (m *ImportMap) IntegrityFor(url string) (string, bool) {
	if m == nil {
		return "", false
	}
	v, ok := m.Integrity[url]
	return v, ok
}
