// Package content turns fetched bytes into JavaScript module source.
//
// Dispatch is by Content-Type. JavaScript passes through. JSON becomes a
// default export, CSS a constructable stylesheet, and WebAssembly a
// synthetic module that imports the wasm module's dependencies and
// re-exports its instance exports. TypeScript goes through an injected
// Transformer. Anything else is an UnsupportedContentTypeError.
package content
