// Package loader fetches, links and rewrites ES module graphs.
//
// A Loader owns a URL-keyed registry of load records, the composed import
// map, a blob store and a feature gate. A top-level load runs in three
// phases:
//
//  1. getOrCreateLoad starts a fetch-and-lex pipeline for a URL exactly
//     once; concurrent requesters share the record.
//  2. linkLoad resolves every import of a record and creates its children;
//     loadAll waits until the whole static subgraph is linked.
//  3. resolveDeps walks the graph post-order. A subgraph that needs no
//     shimming passes through with its own URL; anything else is rewritten
//     into a blob module whose specifiers point at the children's blobs, or
//     at cycle shells when a child is still being rewritten. The blob of
//     the module behind a shell carries that shell, and the Host binds it
//     as soon as the module evaluates.
//
// The resulting URL is handed to the Host, which performs the actual
// evaluation. Failed records keep their error so later requests for the
// same URL fail the same way.
package loader
