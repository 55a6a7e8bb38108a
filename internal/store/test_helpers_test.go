package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/modshim/internal/fetch"
)

// createTestStore opens a fresh database under t.TempDir.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// jsResponse builds a 200 JavaScript response.
func jsResponse(url, body string) *fetch.Response {
	return &fetch.Response{URL: url, Status: 200, ContentType: "text/javascript", Body: []byte(body)}
}

// pragma reads the current value of a PRAGMA.
func pragma(t *testing.T, s *Store, name string) string {
	t.Helper()
	var value string
	if err := s.db.QueryRow("PRAGMA " + name).Scan(&value); err != nil {
		t.Fatalf("PRAGMA %s: %v", name, err)
	}
	return value
}
