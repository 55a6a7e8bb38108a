package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/modshim/internal/fetch"
)

func TestCachingFetcher_ServesFromStore(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	origin := fetch.NewMapFetcher().Add("https://cdn.test/a.js", "text/javascript", "export const a = 1;")
	cache := NewCachingFetcher(s, origin)

	first, err := cache.Fetch(ctx, fetch.Request{URL: "https://cdn.test/a.js"})
	require.NoError(t, err)
	second, err := cache.Fetch(ctx, fetch.Request{URL: "https://cdn.test/a.js"})
	require.NoError(t, err)

	assert.Equal(t, 1, origin.Count("https://cdn.test/a.js"))
	assert.Equal(t, first.Body, second.Body)
	assert.Equal(t, first.URL, second.URL)
	assert.Equal(t, "text/javascript", second.ContentType)
	assert.True(t, second.OK())
}

func TestCachingFetcher_DoesNotCacheFailures(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	origin := fetch.NewMapFetcher()
	cache := NewCachingFetcher(s, origin)

	for range 2 {
		res, err := cache.Fetch(ctx, fetch.Request{URL: "https://cdn.test/missing.js"})
		require.NoError(t, err)
		assert.Equal(t, 404, res.Status)
	}
	assert.Equal(t, 2, origin.Count("https://cdn.test/missing.js"))

	modules, err := s.ListModules(ctx)
	require.NoError(t, err)
	assert.Empty(t, modules)
}

func TestCachingFetcher_PropagatesTransportErrors(t *testing.T) {
	s := createTestStore(t)
	boom := errors.New("connection refused")
	cache := NewCachingFetcher(s, fetch.FetcherFunc(func(ctx context.Context, req fetch.Request) (*fetch.Response, error) {
		return nil, boom
	}))

	_, err := cache.Fetch(context.Background(), fetch.Request{URL: "https://cdn.test/a.js"})
	assert.ErrorIs(t, err, boom)
}

func TestCachingFetcher_WithClientIntegrity(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	body := "export default 42;"
	origin := fetch.NewMapFetcher().Add("https://cdn.test/a.js", "text/javascript", body)
	client := fetch.NewClient(NewCachingFetcher(s, origin))

	req := fetch.Request{URL: "https://cdn.test/a.js", Integrity: fetch.Digest("sha384", []byte(body))}
	_, err := client.Do(ctx, req)
	require.NoError(t, err)
	_, err = client.Do(ctx, req)
	require.NoError(t, err, "cached body still satisfies integrity")
	assert.Equal(t, 1, origin.Total())
}
