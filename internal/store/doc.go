// Package store provides SQLite-backed durable storage for fetched modules
// and import map snapshots.
//
// The store holds:
//   - Modules: successful fetch responses keyed by request URL
//   - Import maps: composed maps keyed by their canonical content hash
//
// # Critical Patterns
//
// Logical ordering:
//   - Modules carry a seq INTEGER assigned on insert, never a timestamp
//   - Listing uses ORDER BY seq ASC, url COLLATE BINARY ASC
//
// Content addressing:
//   - Import maps are stored under importmap.Hash of their canonical form,
//     so storing the same composed map twice is a no-op
//   - Module bodies carry a sha384 SRI digest computed at write time
//
// # Connection
//
// Open configures the connection through go-sqlite3 URI parameters (WAL
// journal, NORMAL sync, 5s busy timeout) and keeps a single connection.
// Schema changes are numbered migrations tracked in PRAGMA user_version.
package store
