// Package graph reports on the module dependency graph a loader built.
//
// Circular imports are legal ES module semantics and the loader handles
// them with cycle shells, so AnalyzeCycles reports them as warnings for
// tooling, never as errors. Only static edges participate: dynamic
// imports are resolved at run time and source-phase imports do not
// evaluate their target.
package graph
