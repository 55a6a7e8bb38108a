// Package lexer scans ECMAScript module source for the positions of its
// imports and exports without building a syntax tree.
//
// Analyze reports static imports and re-exports, dynamic import() calls,
// import.meta references, source-phase imports, and exported binding names,
// with byte offsets precise enough to splice replacement text into the
// original source.
//
// The scanner skips comments, string and template literals (including nested
// ${} expressions) and regular expression literals. Whether a '/' starts a
// regular expression or is a division operator is decided by the class of
// the preceding significant token; see slashTable.
//
// The lexer does not validate programs. It only fails when it cannot find its
// way through the text: unterminated literals or comments, unbalanced
// brackets, or malformed import and export statements.
package lexer
