// Package rewrite applies ordered text splices to module source.
//
// Everything here is a pure function of its inputs. The loader decides
// which spans to replace; this package only checks that the splices are
// well formed and stitches the result together.
package rewrite
