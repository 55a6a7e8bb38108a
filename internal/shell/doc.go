// Package shell implements placeholder modules that break dependency cycles.
//
// A Shell declares one mutable slot per export name of a module whose
// evaluation has not finished. Importers inside the cycle link against the
// shell; once the real module has evaluated, Bind hands the shell the real
// namespace and every later read observes the real binding. Reads before
// Bind see an undefined placeholder, the same transient state a native
// circular import exposes.
package shell
