package store

import (
	"context"
	"errors"
	"log/slog"

	"github.com/roach88/modshim/internal/fetch"
)

// CachingFetcher serves module fetches from the store and records
// successful responses fetched from the next fetcher. Failed responses are
// passed through and never cached.
//
// Thread-safety: safe for concurrent use; the store serializes writes.
type CachingFetcher struct {
	store *Store
	next  fetch.Fetcher
}

// NewCachingFetcher wraps next with store.
func NewCachingFetcher(store *Store, next fetch.Fetcher) *CachingFetcher {
	return &CachingFetcher{store: store, next: next}
}

// Fetch implements fetch.Fetcher.
func (c *CachingFetcher) Fetch(ctx context.Context, req fetch.Request) (*fetch.Response, error) {
	mod, err := c.store.GetModule(ctx, req.URL)
	switch {
	case err == nil:
		slog.Debug("module cache hit", "url", req.URL)
		return mod.Response(), nil
	case !errors.Is(err, ErrNotFound):
		return nil, err
	}

	res, err := c.next.Fetch(ctx, req)
	if err != nil {
		return nil, err
	}
	if res.Status >= 200 && res.Status < 300 {
		if err := c.store.PutModule(ctx, req.URL, res); err != nil {
			return nil, err
		}
	}
	return res, nil
}
