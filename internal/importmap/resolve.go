package importmap

import "strings"

type matchState int

const (
	noMatch matchState = iota
	matched
	blocked
)

// Resolve maps specifier, imported from parentURL, through the import map.
//
// Relative and absolute specifiers are normalized first and the normalized
// form is looked up, so maps can remap full URLs as well as bare names.
// Resolve fails with *BlockedSpecifierError for null mappings and with
// *UnresolvedSpecifierError when nothing matches a bare specifier.
func (m *ImportMap) Resolve(specifier, parentURL string) (string, error) {
	resolvedOrPlain := ResolveIfNotPlainOrURL(specifier, parentURL)
	if resolvedOrPlain == "" {
		resolvedOrPlain = AsURL(specifier)
	}
	if resolvedOrPlain == "" {
		resolvedOrPlain = specifier
	}

	target, key, scope, state := m.lookup(resolvedOrPlain, parentURL)
	switch state {
	case matched:
		return target, nil
	case blocked:
		return "", &BlockedSpecifierError{Specifier: specifier, Parent: parentURL, Key: key, Scope: scope}
	}
	if strings.Contains(resolvedOrPlain, ":") {
		return resolvedOrPlain, nil
	}
	return "", &UnresolvedSpecifierError{Specifier: specifier, Parent: parentURL}
}

// lookup finds the mapping for an already normalized specifier, walking from
// the most specific scope of parentURL up to the global imports.
func (m *ImportMap) lookup(id, parentURL string) (target, key, scope string, state matchState) {
	if m == nil {
		return "", "", "", noMatch
	}
	if parentURL != "" {
		scopeURL, ok := getMatch(parentURL, m.Scopes)
		for ok {
			if target, key, state = applyPackages(id, m.Scopes[scopeURL]); state != noMatch {
				return target, key, scopeURL, state
			}
			cut := strings.LastIndex(scopeURL, "/")
			if cut < 0 {
				break
			}
			scopeURL, ok = getMatch(scopeURL[:cut], m.Scopes)
		}
	}
	target, key, state = applyPackages(id, m.Imports)
	return target, key, "", state
}

// getMatch returns the longest key of table that is path itself or a
// "/"-terminated prefix of path.
func getMatch[V any](path string, table map[string]V) (string, bool) {
	if len(table) == 0 {
		return "", false
	}
	if _, ok := table[path]; ok {
		return path, true
	}
	sep := len(path)
	for {
		end := sep + 1
		if end > len(path) {
			end = len(path)
		}
		if _, ok := table[path[:end]]; ok {
			return path[:end], true
		}
		sep = strings.LastIndex(path[:sep], "/")
		if sep == -1 {
			return "", false
		}
	}
}

func applyPackages(id string, pkgs Packages) (string, string, matchState) {
	key, ok := getMatch(id, pkgs)
	if !ok {
		return "", "", noMatch
	}
	target := pkgs[key]
	if target == nil {
		return "", key, blocked
	}
	return *target + id[len(key):], key, matched
}
