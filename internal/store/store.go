package store

import (
	"database/sql"
	_ "embed"
	"fmt"
	"log/slog"
	"net/url"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// migration brings the cache schema up to version. Statements must be safe
// to run against a database created by the current schema.sql.
type migration struct {
	version int
	stmts   []string
}

var migrations = []migration{
	{version: 1, stmts: []string{
		`CREATE INDEX IF NOT EXISTS idx_modules_seq ON modules(seq)`,
	}},
}

// Store is the module cache: fetched module responses and composed import
// maps in one SQLite database.
//
// Thread-safety: safe for concurrent use. The cache holds a single
// connection, so writes never contend with each other.
type Store struct {
	db *sql.DB
}

// Open opens the cache at path, creating it when missing and migrating it
// to the current schema. ":memory:" opens a private in-memory cache.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("open module cache %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("open module cache %s: %w", path, err)
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate module cache %s: %w", path, err)
	}
	slog.Debug("module cache opened", "path", path)
	return &Store{db: db}, nil
}

// Close closes the cache.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// dsn carries the connection settings as go-sqlite3 URI parameters, so
// every connection the pool opens gets WAL journaling, NORMAL sync and a
// five second busy timeout.
func dsn(path string) string {
	q := url.Values{}
	q.Set("_journal_mode", "WAL")
	q.Set("_synchronous", "NORMAL")
	q.Set("_busy_timeout", "5000")
	return "file:" + path + "?" + q.Encode()
}

// migrate creates missing tables, then applies each migration newer than
// the database's user_version in its own transaction.
func migrate(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("create tables: %w", err)
	}

	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read user_version: %w", err)
	}
	for _, m := range migrations {
		if m.version <= version {
			continue
		}
		if err := apply(db, m); err != nil {
			return fmt.Errorf("migration %d: %w", m.version, err)
		}
		slog.Debug("module cache migrated", "version", m.version)
	}
	return nil
}

func apply(db *sql.DB, m migration) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, stmt := range m.stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return err
		}
	}
	if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", m.version)); err != nil {
		return err
	}
	return tx.Commit()
}
