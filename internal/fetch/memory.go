package fetch

import (
	"context"
	"net/http"
	"sort"
	"sync"
)

// Module is one entry served by a MapFetcher.
type Module struct {
	ContentType string
	Body        string

	// Status defaults to 200.
	Status int

	// RedirectTo, when set, is reported as the response URL.
	RedirectTo string
}

// MapFetcher serves modules from memory and counts fetches per URL.
//
// Thread-safety: MapFetcher is safe for concurrent use.
type MapFetcher struct {
	mu      sync.Mutex
	modules map[string]Module
	counts  map[string]int
	order   []string

	// Hook, when set, runs before each fetch is answered. Tests use it to
	// hold fetches open.
	Hook func(ctx context.Context, req Request) error
}

// NewMapFetcher creates an empty MapFetcher.
func NewMapFetcher() *MapFetcher {
	return &MapFetcher{modules: make(map[string]Module), counts: make(map[string]int)}
}

// Add registers a module at url.
func (m *MapFetcher) Add(url, contentType, body string) *MapFetcher {
	return m.Put(url, Module{ContentType: contentType, Body: body})
}

// Put registers a fully specified module at url.
func (m *MapFetcher) Put(url string, mod Module) *MapFetcher {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.modules[url] = mod
	return m
}

// Fetch implements Fetcher. Unknown URLs produce a 404 response.
func (m *MapFetcher) Fetch(ctx context.Context, req Request) (*Response, error) {
	m.mu.Lock()
	m.counts[req.URL]++
	m.order = append(m.order, req.URL)
	mod, ok := m.modules[req.URL]
	hook := m.Hook
	m.mu.Unlock()

	if hook != nil {
		if err := hook(ctx, req); err != nil {
			return nil, err
		}
	}

	if !ok {
		return &Response{URL: req.URL, Status: http.StatusNotFound, StatusText: http.StatusText(http.StatusNotFound)}, nil
	}
	status := mod.Status
	if status == 0 {
		status = http.StatusOK
	}
	final := req.URL
	if mod.RedirectTo != "" {
		final = mod.RedirectTo
	}
	return &Response{
		URL:         final,
		Status:      status,
		StatusText:  http.StatusText(status),
		ContentType: mod.ContentType,
		Body:        []byte(mod.Body),
	}, nil
}

// Count returns how many times url was fetched.
func (m *MapFetcher) Count(url string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counts[url]
}

// Total returns the number of fetches across all URLs.
func (m *MapFetcher) Total() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.order)
}

// Counts returns the fetch count of every URL fetched at least once.
func (m *MapFetcher) Counts() map[string]int {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]int, len(m.counts))
	for u, n := range m.counts {
		out[u] = n
	}
	return out
}

// Clone returns a MapFetcher serving the same modules with fresh counts
// and no hook.
func (m *MapFetcher) Clone() *MapFetcher {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := NewMapFetcher()
	for u, mod := range m.modules {
		c.modules[u] = mod
	}
	return c
}

// Order returns fetched URLs in the order the fetches started.
func (m *MapFetcher) Order() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.order))
	copy(out, m.order)
	return out
}

// URLs returns the registered URLs in sorted order.
func (m *MapFetcher) URLs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.modules))
	for u := range m.modules {
		out = append(out, u)
	}
	sort.Strings(out)
	return out
}
