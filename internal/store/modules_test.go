package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/modshim/internal/fetch"
	"github.com/roach88/modshim/internal/importmap"
)

func TestPutModule_RoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	res := jsResponse("https://cdn.test/lib.js", "export default 1;")
	require.NoError(t, s.PutModule(ctx, "https://cdn.test/lib", res))

	mod, err := s.GetModule(ctx, "https://cdn.test/lib")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.test/lib.js", mod.ResponseURL)
	assert.Equal(t, 200, mod.Status)
	assert.Equal(t, "text/javascript", mod.ContentType)
	assert.Equal(t, "export default 1;", string(mod.Body))
	assert.Equal(t, fetch.Digest("sha384", res.Body), mod.Digest)
	assert.NoError(t, fetch.VerifyIntegrity(mod.URL, mod.Body, mod.Digest))
	assert.Equal(t, int64(1), mod.Seq)
}

func TestPutModule_DefaultsResponseURL(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.PutModule(ctx, "https://cdn.test/a.js", &fetch.Response{Status: 200}))
	mod, err := s.GetModule(ctx, "https://cdn.test/a.js")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.test/a.js", mod.ResponseURL)
	assert.Empty(t, mod.Body)
}

func TestPutModule_ReplaceMovesToEnd(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.PutModule(ctx, "https://cdn.test/a.js", jsResponse("", "a1")))
	require.NoError(t, s.PutModule(ctx, "https://cdn.test/b.js", jsResponse("", "b")))
	require.NoError(t, s.PutModule(ctx, "https://cdn.test/a.js", jsResponse("", "a2")))

	modules, err := s.ListModules(ctx)
	require.NoError(t, err)
	require.Len(t, modules, 2)
	assert.Equal(t, "https://cdn.test/b.js", modules[0].URL)
	assert.Equal(t, "https://cdn.test/a.js", modules[1].URL)
	assert.Equal(t, "a2", string(modules[1].Body))
	assert.Equal(t, int64(3), modules[1].Seq)
}

func TestGetModule_NotFound(t *testing.T) {
	s := createTestStore(t)

	_, err := s.GetModule(context.Background(), "https://cdn.test/missing.js")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestListModules_EmptyNotNil(t *testing.T) {
	s := createTestStore(t)

	modules, err := s.ListModules(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, modules)
	assert.Empty(t, modules)
}

func TestDeleteModule(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.PutModule(ctx, "https://cdn.test/a.js", jsResponse("", "a")))
	require.NoError(t, s.DeleteModule(ctx, "https://cdn.test/a.js"))
	require.NoError(t, s.DeleteModule(ctx, "https://cdn.test/a.js"))

	_, err := s.GetModule(ctx, "https://cdn.test/a.js")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPutImportMap_ContentAddressed(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	m, err := importmap.Parse([]byte(`{"imports": {"a": "https://cdn.test/a.js", "b": null}}`))
	require.NoError(t, err)

	hash1, err := s.PutImportMap(ctx, m)
	require.NoError(t, err)
	hash2, err := s.PutImportMap(ctx, m.Clone())
	require.NoError(t, err)
	assert.Equal(t, hash1, hash2)

	var count int
	require.NoError(t, s.db.QueryRow("SELECT COUNT(*) FROM import_maps").Scan(&count))
	assert.Equal(t, 1, count)

	got, err := s.GetImportMap(ctx, hash1)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.test/a.js", *got.Imports["a"])
	assert.Nil(t, got.Imports["b"])
	assert.Contains(t, got.Imports, "b")

	_, err = s.GetImportMap(ctx, "sha256:nope")
	assert.ErrorIs(t, err, ErrNotFound)
}
