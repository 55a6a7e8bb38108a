// Package host provides an inspection host: a stand-in for a JavaScript
// engine's native dynamic import that walks module graphs without running
// any code.
//
// The Inspector reads blob URLs from a blob store and fetches everything
// else itself. It links static imports depth first, records the order in
// which module bodies would evaluate, and builds namespaces whose export
// values are unset unless an Evaluator supplies them. Cycle shells in the
// blob store are returned as they are; a module whose blob entry carries
// Binds fills that shell as soon as its own body has evaluated.
package host
