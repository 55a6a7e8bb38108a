package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/modshim/internal/fetch"
	"github.com/roach88/modshim/internal/importmap"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("not found")

// Module is a stored fetch response.
type Module struct {
	URL         string `json:"url"`
	ResponseURL string `json:"response_url"`
	Status      int    `json:"status"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"-"`
	Digest      string `json:"digest"`
	Seq         int64  `json:"seq"`
}

// Response rebuilds the fetch response the record was stored from.
func (m Module) Response() *fetch.Response {
	return &fetch.Response{
		URL:         m.ResponseURL,
		Status:      m.Status,
		ContentType: m.ContentType,
		Body:        m.Body,
	}
}

// GetModule returns the record stored for url, or ErrNotFound.
func (s *Store) GetModule(ctx context.Context, url string) (Module, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT url, response_url, status, content_type, body, digest, seq
		FROM modules
		WHERE url = ?
	`, url)
	mod, err := scanModule(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Module{}, fmt.Errorf("module %s: %w", url, ErrNotFound)
	}
	if err != nil {
		return Module{}, fmt.Errorf("read module: %w", err)
	}
	return mod, nil
}

// ListModules returns every stored module in insertion order.
// Ordering is deterministic: ORDER BY seq ASC, url COLLATE BINARY ASC.
//
// Returns an empty slice (not nil) when the store is empty.
func (s *Store) ListModules(ctx context.Context) ([]Module, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT url, response_url, status, content_type, body, digest, seq
		FROM modules
		ORDER BY seq ASC, url COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query modules: %w", err)
	}
	defer rows.Close()

	modules := []Module{}
	for rows.Next() {
		mod, err := scanModule(rows)
		if err != nil {
			return nil, fmt.Errorf("scan module: %w", err)
		}
		modules = append(modules, mod)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate modules: %w", err)
	}
	return modules, nil
}

// GetImportMap returns the import map stored under hash, or ErrNotFound.
func (s *Store) GetImportMap(ctx context.Context, hash string) (*importmap.ImportMap, error) {
	var canonical string
	err := s.db.QueryRowContext(ctx, `SELECT canonical FROM import_maps WHERE hash = ?`, hash).Scan(&canonical)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("import map %s: %w", hash, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read import map: %w", err)
	}
	return importmap.Parse([]byte(canonical))
}

// scanner is the Scan method shared by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanModule(row scanner) (Module, error) {
	var mod Module
	err := row.Scan(&mod.URL, &mod.ResponseURL, &mod.Status, &mod.ContentType, &mod.Body, &mod.Digest, &mod.Seq)
	return mod, err
}
