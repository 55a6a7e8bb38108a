package store

import (
	"context"
	"fmt"

	"github.com/roach88/modshim/internal/fetch"
	"github.com/roach88/modshim/internal/importmap"
)

// digestAlgorithm is the SRI algorithm module digests are recorded with.
const digestAlgorithm = "sha384"

// PutModule records a fetch response under its request URL, replacing any
// earlier record for that URL. The record moves to the end of the listing
// order.
func (s *Store) PutModule(ctx context.Context, url string, res *fetch.Response) error {
	responseURL := res.URL
	if responseURL == "" {
		responseURL = url
	}
	body := res.Body
	if body == nil {
		body = []byte{}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO modules
		(url, response_url, status, content_type, body, digest, seq)
		VALUES (?, ?, ?, ?, ?, ?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM modules))
		ON CONFLICT(url) DO UPDATE SET
			response_url = excluded.response_url,
			status = excluded.status,
			content_type = excluded.content_type,
			body = excluded.body,
			digest = excluded.digest,
			seq = excluded.seq
	`,
		url,
		responseURL,
		res.Status,
		res.ContentType,
		body,
		fetch.Digest(digestAlgorithm, body),
	)
	if err != nil {
		return fmt.Errorf("write module: %w", err)
	}
	return nil
}

// PutImportMap records the canonical form of m and returns its hash.
// Storing an identical map again is a no-op.
func (s *Store) PutImportMap(ctx context.Context, m *importmap.ImportMap) (string, error) {
	canonical, err := importmap.Canonical(m)
	if err != nil {
		return "", fmt.Errorf("write import map: %w", err)
	}
	hash, err := importmap.Hash(m)
	if err != nil {
		return "", fmt.Errorf("write import map: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO import_maps (hash, canonical, seq)
		VALUES (?, ?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM import_maps))
		ON CONFLICT(hash) DO NOTHING
	`, hash, string(canonical))
	if err != nil {
		return "", fmt.Errorf("write import map: %w", err)
	}
	return hash, nil
}

// DeleteModule removes the record for url. Deleting a missing record is
// not an error.
func (s *Store) DeleteModule(ctx context.Context, url string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM modules WHERE url = ?`, url); err != nil {
		return fmt.Errorf("delete module: %w", err)
	}
	return nil
}
