// Package harness runs module loading scenarios described in YAML.
//
// A scenario declares a small site (modules with content types), the
// import maps the page would carry, the host's native capabilities, loader
// options and one or more entry points. Run executes the entries against a
// fresh loader with deterministic blob IDs and an inspection host, then
// evaluates the scenario's assertions.
//
// # Scenario Format
//
//	name: bare_specifier
//	description: "Bare specifiers are rewritten on hosts without import maps"
//	preset: baseline
//	capabilities: { import_maps: false }
//	enable: [json-modules]
//	shim_mode: false
//	modules:
//	  - url: app.js
//	    source: |
//	      import dep from 'dep';
//	  - url: lib/dep.js
//	    source: "export default 1;"
//	import_maps:
//	  - inline: '{"imports": {"dep": "/lib/dep.js"}}'
//	entries: [./app.js]
//	assertions:
//	  - type: rewritten
//	    url: app.js
//	  - type: passthrough
//	    url: lib/dep.js
//	  - type: fetch_count
//	    url: lib/dep.js
//	    count: 1
//
// Module URLs and assertion URLs are relative to base_url, which defaults
// to https://app.test/.
//
// # Assertion Types
//
//   - passthrough: the module was loaded by the host unmodified
//   - rewritten: the module was rewritten to a blob; equals optionally pins
//     the whole rewritten source
//   - contains: the rewritten source contains text
//   - fetch_count: the loader fetched url exactly count times
//   - error: an entry failed with the given code and message substring
//   - evaluated_before: the host evaluated the listed urls in that order
//
// # Deterministic Testing
//
// Blob IDs come from blob.SequenceGenerator and every fetch goes through an
// in-memory SQLite cache, so the same scenario produces byte-identical
// snapshots for golden comparison.
package harness
