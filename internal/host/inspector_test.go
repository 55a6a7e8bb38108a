package host

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/modshim/internal/blob"
	"github.com/roach88/modshim/internal/fetch"
	"github.com/roach88/modshim/internal/importmap"
	"github.com/roach88/modshim/internal/shell"
)

func TestInspector_FetchesAndEvaluatesInOrder(t *testing.T) {
	fetcher := fetch.NewMapFetcher().
		Add("https://h.test/a.js", "text/javascript", "import './b.js'; import './c.js'; export const a = 1;").
		Add("https://h.test/b.js", "text/javascript", "import './c.js'; export const b = 2;").
		Add("https://h.test/c.js", "text/javascript", "export const c = 3;")
	var seen []shell.Namespace
	i := NewInspector(blob.NewStore("", nil), fetcher,
		WithEvaluator("https://h.test/a.js", func(imports []shell.Namespace) map[string]any {
			seen = imports
			return map[string]any{"a": 1}
		}))

	ns, err := i.Import(context.Background(), "https://h.test/a.js")
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, ns.Exports())
	a, _ := ns.Get("a")
	assert.Equal(t, 1, a)

	assert.Equal(t, []string{"https://h.test/c.js", "https://h.test/b.js", "https://h.test/a.js"}, i.Order())
	assert.True(t, i.EvaluatedBefore("https://h.test/c.js", "https://h.test/a.js"))
	assert.False(t, i.EvaluatedBefore("https://h.test/a.js", "https://h.test/b.js"))
	require.Len(t, seen, 2)
	assert.Equal(t, []string{"b"}, seen[0].Exports())

	again, err := i.Import(context.Background(), "https://h.test/a.js")
	require.NoError(t, err)
	assert.Equal(t, ns, again)
	assert.Equal(t, 1, fetcher.Count("https://h.test/c.js"))
}

func TestInspector_BlobOriginFromSourceURL(t *testing.T) {
	fetcher := fetch.NewMapFetcher().
		Add("https://h.test/lib/dep.js", "text/javascript", "export default 1;")
	store := blob.NewStore("https://h.test", blob.NewSequenceGenerator())
	url := store.Create("import './dep.js';\n//# sourceURL=https://h.test/lib/main.js", "text/javascript")

	i := NewInspector(store, fetcher)
	_, err := i.Import(context.Background(), url)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://h.test/lib/dep.js", "https://h.test/lib/main.js"}, i.Order())
}

func TestInspector_ShellBlob(t *testing.T) {
	store := blob.NewStore("", nil)
	sh := shell.New("https://h.test/a.js", []string{"x"})
	url := store.CreateShell(sh)

	i := NewInspector(store, fetch.NewMapFetcher())
	ns, err := i.Import(context.Background(), url)
	require.NoError(t, err)
	assert.Same(t, sh, ns)
	assert.Empty(t, i.Order(), "shells have no body")
}

func TestInspector_NativeResolutionRejectsBareSpecifiers(t *testing.T) {
	fetcher := fetch.NewMapFetcher().
		Add("https://h.test/a.js", "text/javascript", "import 'lodash';")
	i := NewInspector(blob.NewStore("", nil), fetcher)

	_, err := i.Import(context.Background(), "https://h.test/a.js")
	require.Error(t, err)
	assert.True(t, importmap.IsUnresolved(err))
}

func TestInspector_Resolver(t *testing.T) {
	fetcher := fetch.NewMapFetcher().
		Add("https://h.test/a.js", "text/javascript", "import 'lodash';").
		Add("https://h.test/vendor/lodash.js", "text/javascript", "")
	i := NewInspector(blob.NewStore("", nil), fetcher, WithResolver(func(specifier, parentURL string) (string, error) {
		if specifier == "lodash" {
			return "https://h.test/vendor/lodash.js", nil
		}
		return nativeResolve(specifier, parentURL)
	}))

	_, err := i.Import(context.Background(), "https://h.test/a.js")
	require.NoError(t, err)
	assert.Equal(t, []string{"https://h.test/vendor/lodash.js", "https://h.test/a.js"}, i.Order())
}

func TestInspector_Failures(t *testing.T) {
	i := NewInspector(blob.NewStore("", nil), fetch.NewMapFetcher())

	_, err := i.Import(context.Background(), "https://h.test/missing.js")
	assert.True(t, fetch.IsFetchError(err))

	_, err = i.Import(context.Background(), "blob:https://h.test/unknown")
	assert.ErrorContains(t, err, "unknown blob URL")
}

func TestInspector_NonJavaScriptDefaultExport(t *testing.T) {
	fetcher := fetch.NewMapFetcher().
		Add("https://h.test/data.json", "application/json", `{"a":1}`)
	i := NewInspector(blob.NewStore("", nil), fetcher)

	ns, err := i.Import(context.Background(), "https://h.test/data.json")
	require.NoError(t, err)
	assert.Equal(t, []string{"default"}, ns.Exports())
}

func TestInspector_BindsShellAfterEvaluation(t *testing.T) {
	store := blob.NewStore("", nil)
	sh := shell.New("https://h.test/a.js", []string{"x"})
	url := store.CreateBinding("export let x;\n//# sourceURL=https://h.test/a.js", "text/javascript", sh)

	i := NewInspector(store, fetch.NewMapFetcher(),
		WithEvaluator("https://h.test/a.js", func([]shell.Namespace) map[string]any {
			assert.False(t, sh.Bound(), "bound before the body ran")
			return map[string]any{"x": "A"}
		}))

	_, err := i.Import(context.Background(), url)
	require.NoError(t, err)
	require.True(t, sh.Bound())
	x, ok := sh.Get("x")
	require.True(t, ok)
	assert.Equal(t, "A", x)
}

func TestInspector_BindingMissingExportFails(t *testing.T) {
	store := blob.NewStore("", nil)
	sh := shell.New("https://h.test/a.js", []string{"x", "y"})
	url := store.CreateBinding("export let x;\n//# sourceURL=https://h.test/a.js", "text/javascript", sh)

	_, err := NewInspector(store, fetch.NewMapFetcher()).Import(context.Background(), url)
	require.Error(t, err)
	assert.True(t, shell.IsCycleShellError(err))
}
