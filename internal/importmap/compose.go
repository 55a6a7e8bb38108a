package importmap

import (
	"fmt"
	"log/slog"
	"slices"
)

// WarningKind classifies composition warnings.
type WarningKind string

const (
	// WarnRejectedOverride: a later map tried to redefine an existing key.
	WarnRejectedOverride WarningKind = "rejected-override"
	// WarnRejectedIntegrity: a later map tried to redefine integrity for a URL.
	WarnRejectedIntegrity WarningKind = "rejected-integrity"
	// WarnUnresolvedTarget: a mapping target does not resolve against the existing map.
	WarnUnresolvedTarget WarningKind = "unresolved-target"
)

// Warning is a non-fatal composition diagnostic.
type Warning struct {
	Kind     WarningKind `json:"kind"`
	Scope    string      `json:"scope,omitempty"`
	Key      string      `json:"key"`
	Existing string      `json:"existing,omitempty"`
	Rejected string      `json:"rejected,omitempty"`
}

func (w Warning) String() string {
	switch w.Kind {
	case WarnRejectedOverride:
		return fmt.Sprintf("rejected map override %q from %s to %s", w.Key, w.Existing, w.Rejected)
	case WarnRejectedIntegrity:
		return fmt.Sprintf("rejected map integrity override %q from %s to %s", w.Key, w.Existing, w.Rejected)
	default:
		return fmt.Sprintf("mapping %q -> %q does not resolve", w.Key, w.Rejected)
	}
}

// ComposeOptions controls Compose.
type ComposeOptions struct {
	// Override lets incoming entries replace existing ones.
	Override bool
}

// Compose folds incoming into existing and returns a new map. Neither input is
// modified. Keys and targets of incoming are resolved against baseURL, and
// each target is then resolved through existing so entries may point at
// specifiers that are themselves remapped.
func Compose(existing, incoming *ImportMap, baseURL string, opts ComposeOptions) (*ImportMap, []Warning) {
	parent := existing
	if parent == nil {
		parent = New()
	}
	out := parent.Clone()
	if incoming == nil {
		return out, nil
	}

	var warnings []Warning
	warnings = append(warnings, composePackages(incoming.Imports, out.Imports, "", baseURL, parent, opts)...)

	for _, scope := range sortedKeys(incoming.Scopes) {
		resolvedScope := ResolveURL(scope, baseURL)
		pkgs, ok := out.Scopes[resolvedScope]
		if !ok {
			pkgs = make(Packages)
			out.Scopes[resolvedScope] = pkgs
		}
		warnings = append(warnings, composePackages(incoming.Scopes[scope], pkgs, resolvedScope, baseURL, parent, opts)...)
	}

	warnings = append(warnings, composeIntegrity(incoming.Integrity, out.Integrity, baseURL, opts)...)

	for _, w := range warnings {
		slog.Warn("import map composition", "warning", w.String(), "kind", string(w.Kind))
	}
	return out, warnings
}

func composePackages(in, out Packages, scope, baseURL string, parent *ImportMap, opts ComposeOptions) []Warning {
	var warnings []Warning
	for _, key := range sortedKeys(in) {
		lhs := ResolveIfNotPlainOrURL(key, baseURL)
		if lhs == "" {
			lhs = key
		}

		var value *string
		if raw := in[key]; raw != nil {
			target := ResolveIfNotPlainOrURL(*raw, baseURL)
			if target == "" {
				target = *raw
			}
			mapped, _, _, state := parent.lookup(target, baseURL)
			switch {
			case state == matched:
				value = &mapped
			case state == noMatch && AsURL(target) != "":
				value = &target
			default:
				warnings = append(warnings, Warning{Kind: WarnUnresolvedTarget, Scope: scope, Key: key, Rejected: *raw})
				continue
			}
		}

		if current, exists := out[lhs]; exists && !opts.Override && !sameTarget(current, value) {
			warnings = append(warnings, Warning{
				Kind:     WarnRejectedOverride,
				Scope:    scope,
				Key:      lhs,
				Existing: describe(current),
				Rejected: describe(value),
			})
			continue
		}
		out[lhs] = value
	}
	return warnings
}

func composeIntegrity(in, out map[string]string, baseURL string, opts ComposeOptions) []Warning {
	var warnings []Warning
	for _, key := range sortedKeys(in) {
		lhs := ResolveIfNotPlainOrURL(key, baseURL)
		if lhs == "" {
			lhs = key
		}
		if current, exists := out[lhs]; exists && !opts.Override && current != in[key] {
			warnings = append(warnings, Warning{Kind: WarnRejectedIntegrity, Key: lhs, Existing: current, Rejected: in[key]})
			continue
		}
		out[lhs] = in[key]
	}
	return warnings
}

func sameTarget(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func describe(target *string) string {
	if target == nil {
		return "null"
	}
	return *target
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
