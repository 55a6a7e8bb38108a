// Package features holds the native-support capability vector and the
// polyfill enable list, and decides when a load may bypass shimming.
//
// Capabilities are supplied by the caller (probing the host is someone
// else's job). They are immutable once a Gate is built, except that noting
// a second import map on a host without multiple-map support turns baseline
// passthrough off for the rest of the Gate's life.
package features
