package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// site writes files under a fresh root directory.
func site(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, body := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	}
	return root
}

type loadResponse struct {
	Status string    `json:"status"`
	Data   LoadResult `json:"data"`
	Error  *CLIError `json:"error"`
}

func TestLoadRewritesBareSpecifiers(t *testing.T) {
	root := site(t, map[string]string{
		"app.js":         "import dep from 'dep';\nexport default dep;\n",
		"lib/dep.js":     "export default 1;\n",
		"importmap.json": `{"imports": {"dep": "/lib/dep.js"}}`,
	})

	out, err := execute(t, "load", "./app.js",
		"--root", root,
		"--preset", "none",
		"--map", filepath.Join(root, "importmap.json"),
		"--format", "json")
	require.NoError(t, err)

	var response loadResponse
	require.NoError(t, json.Unmarshal([]byte(out), &response))
	assert.Equal(t, "ok", response.Status)
	require.Len(t, response.Data.Entries, 1)
	assert.Equal(t, []string{"default"}, response.Data.Entries[0].Exports)
	assert.Equal(t, []string{"https://app.test/lib/dep.js", "https://app.test/app.js"}, response.Data.Evaluated)
	assert.True(t, response.Data.Polyfilled)
	require.Len(t, response.Data.Modules, 2)
	assert.Equal(t, "https://app.test/app.js", response.Data.Modules[0].URL)
	assert.True(t, response.Data.Modules[0].NeedsShim)
	assert.Contains(t, response.Data.Modules[0].Ready, "blob:")
	assert.Empty(t, response.Data.Cycles)
}

func TestLoadReportsCycles(t *testing.T) {
	root := site(t, map[string]string{
		"a.js": "import './b.js';\nexport const a = 1;\n",
		"b.js": "import './a.js';\nexport const b = 2;\n",
	})

	out, err := execute(t, "load", "./a.js", "--root", root, "--shim-mode")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ ./a.js")
	assert.Contains(t, out, "Modules: 2")
	assert.Contains(t, out, "shimmed  https://app.test/a.js")
	assert.Contains(t, out, "warning: Import cycle: https://app.test/a.js → https://app.test/b.js → https://app.test/a.js")
}

func TestLoadFailure(t *testing.T) {
	root := site(t, map[string]string{
		"app.js": "import './missing.js';\n",
	})

	out, err := execute(t, "load", "./app.js", "--root", root, "--preset", "none", "--format", "json")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var response loadResponse
	require.NoError(t, json.Unmarshal([]byte(out), &response))
	assert.Equal(t, "error", response.Status)
	assert.Equal(t, ErrCodeLoadFailed, response.Error.Code)
	require.Len(t, response.Data.Entries, 1)
	assert.Equal(t, "FetchError", response.Data.Entries[0].Code)
	assert.Contains(t, response.Data.Entries[0].Error, "404 Not Found https://app.test/missing.js")
}

func TestLoadCachesModules(t *testing.T) {
	root := site(t, map[string]string{
		"app.js": "export const x = 1;\n",
	})
	cache := filepath.Join(t.TempDir(), "modules.db")

	_, err := execute(t, "load", "./app.js", "--root", root, "--preset", "none", "--cache", cache)
	require.NoError(t, err)

	// The second run is served from the cache after the source is removed.
	require.NoError(t, os.Remove(filepath.Join(root, "app.js")))
	out, err := execute(t, "load", "./app.js", "--root", root, "--preset", "none", "--cache", cache)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ ./app.js")
}

func TestLoadConfigFile(t *testing.T) {
	root := site(t, map[string]string{
		"main.js": "export default 1;\n",
	})
	cfgPath := filepath.Join(t.TempDir(), "modshim.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("root: "+root+"\npreset: full\n"), 0644))

	out, err := execute(t, "--config", cfgPath, "load", "./main.js")
	require.NoError(t, err)
	// A full host needs no loader: the entry goes straight to the host.
	assert.Contains(t, out, "Modules: 0")
	assert.Contains(t, out, "1. https://app.test/main.js")
	assert.NotContains(t, out, "Polyfill engaged")
}

func TestLoadBadConfig(t *testing.T) {
	_, err := execute(t, "load", "./a.js", "--preset", "future")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
