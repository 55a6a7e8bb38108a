// Package fetch is the transport boundary of the loader.
//
// A Fetcher turns a Request into a Response. The package provides an HTTP
// fetcher, a filesystem fetcher for serving a directory under a base URL,
// and an in-memory fetcher for tests. Client wraps any Fetcher with the
// bounded FIFO concurrency pool, status checking and subresource integrity.
package fetch
