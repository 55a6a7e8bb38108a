// Package blob mints in-process blob URLs for rewritten module text.
//
// A blob URL has the form blob:<origin>/<id>. Entries hold either module
// source or, for cycle placeholders, a *shell.Shell. Hosts resolve blob
// URLs back to their entries with Lookup.
package blob
