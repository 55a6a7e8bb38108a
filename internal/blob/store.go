package blob

import (
	"fmt"
	"strings"
	"sync"

	"github.com/roach88/modshim/internal/shell"
)

// DefaultOrigin is used when a Store is created without an origin.
const DefaultOrigin = "modshim.local"

// Entry is the content behind one blob URL.
type Entry struct {
	URL         string
	Source      string
	ContentType string

	// Shell is set for cycle placeholders.
	Shell *shell.Shell

	// Binds is the cycle shell this module's namespace fills once the
	// module has evaluated.
	Binds *shell.Shell
}

// Store holds blob entries for one loader.
//
// Thread-safety: Store is safe for concurrent use.
type Store struct {
	origin string
	ids    IDGenerator

	mu      sync.RWMutex
	entries map[string]Entry
}

// NewStore creates a store minting blob:<origin>/<id> URLs. A nil generator
// defaults to UUIDGenerator.
func NewStore(origin string, ids IDGenerator) *Store {
	if origin == "" {
		origin = DefaultOrigin
	}
	if ids == nil {
		ids = UUIDGenerator{}
	}
	return &Store{origin: origin, ids: ids, entries: make(map[string]Entry)}
}

// IsBlobURL reports whether url uses the blob: scheme.
func IsBlobURL(url string) bool {
	return strings.HasPrefix(url, "blob:")
}

func (s *Store) mint() string {
	return fmt.Sprintf("blob:%s/%s", s.origin, s.ids.Generate())
}

// Create stores source and returns its new blob URL.
func (s *Store) Create(source, contentType string) string {
	url := s.mint()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[url] = Entry{URL: url, Source: source, ContentType: contentType}
	return url
}

// CreateBinding stores a module that importers inside its cycle reach
// through sh. The host binds sh to the module's namespace right after
// evaluating it.
func (s *Store) CreateBinding(source, contentType string, sh *shell.Shell) string {
	url := s.mint()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[url] = Entry{URL: url, Source: source, ContentType: contentType, Binds: sh}
	return url
}

// CreateShell stores a cycle placeholder and returns its blob URL.
func (s *Store) CreateShell(sh *shell.Shell) string {
	url := s.mint()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[url] = Entry{
		URL:         url,
		Source:      sh.Source(),
		ContentType: "text/javascript",
		Shell:       sh,
	}
	return url
}

// Lookup returns the entry for url.
func (s *Store) Lookup(url string) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[url]
	return e, ok
}

// Revoke drops url from the store.
func (s *Store) Revoke(url string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, url)
}

// Len returns the number of live entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
