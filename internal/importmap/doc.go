// Package importmap composes and queries import maps.
//
// An import map is the JSON document
//
//	{ "imports": {...}, "scopes": { scopeURL: {...} }, "integrity": { url: hash } }
//
// Keys and targets are normalized against the document's base URL when the
// map is composed, never when it is queried. Composition is first-writer-wins:
// a later map that redefines an existing key is rejected with a Warning unless
// ComposeOptions.Override is set.
//
// Resolution walks scopes from the most specific prefix of the parent URL up
// to the global imports, matching the longest key that prefixes the
// specifier. Trailing-slash keys are package prefixes; exact keys win. A key
// mapped to null blocks the specifier.
package importmap
