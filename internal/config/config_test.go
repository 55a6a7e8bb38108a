package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/modshim/internal/fetch"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().BaseURL, cfg.BaseURL)
	assert.Equal(t, "baseline", cfg.Preset)
	assert.Equal(t, 100, cfg.FetchPoolSize)
	assert.False(t, cfg.ShimMode)
	assert.Empty(t, cfg.Enable)
}

func TestLoad_YAML(t *testing.T) {
	path := writeFile(t, "modshim.yaml", `
base_url: https://site.test/app/
root: ./public
cache: modules.db
preset: full
capabilities:
  ordered_siblings: false
enable: [css-modules, json-modules]
import_maps: [importmap.json]
shim_mode: true
skip: ["https://cdn.test/"]
fetch_pool_size: 4
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://site.test/app/", cfg.BaseURL)
	assert.Equal(t, "./public", cfg.Root)
	assert.Equal(t, "modules.db", cfg.Cache)
	assert.Equal(t, "full", cfg.Preset)
	assert.Equal(t, map[string]bool{"ordered_siblings": false}, cfg.Capabilities)
	assert.Equal(t, []string{"css-modules", "json-modules"}, cfg.Enable)
	assert.Equal(t, []string{"importmap.json"}, cfg.ImportMaps)
	assert.True(t, cfg.ShimMode)
	assert.Equal(t, []string{"https://cdn.test/"}, cfg.Skip)
	assert.Equal(t, 4, cfg.FetchPoolSize)
}

func TestLoad_TOMLAndJSON(t *testing.T) {
	cfg, err := Load(writeFile(t, "modshim.toml", "preset = \"none\"\nenforce_integrity = true\nrevoke_blob_urls = true\n"))
	require.NoError(t, err)
	assert.Equal(t, "none", cfg.Preset)
	assert.True(t, cfg.EnforceIntegrity)
	assert.True(t, cfg.RevokeBlobURLs)

	cfg, err = Load(writeFile(t, "modshim.json", `{"map_overrides": true, "user_agent": "modshim-test"}`))
	require.NoError(t, err)
	assert.True(t, cfg.MapOverrides)
	assert.Equal(t, "modshim-test", cfg.UserAgent)
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeFile(t, "modshim.yaml", "shim_mode: false\nfetch_pool_size: 4\n")
	t.Setenv("MODSHIM_SHIM_MODE", "true")
	t.Setenv("MODSHIM_FETCH_POOL_SIZE", "8")
	t.Setenv("MODSHIM_BASE_URL", "https://env.test/")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.True(t, cfg.ShimMode)
	assert.Equal(t, 8, cfg.FetchPoolSize)
	assert.Equal(t, "https://env.test/", cfg.BaseURL)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		wantErr string
	}{
		{name: "unknown preset", file: "c.yaml", content: "preset: future\n", wantErr: `unknown capability preset "future"`},
		{name: "unknown feature", file: "c.yaml", content: "enable: [jsx]\n", wantErr: `unknown feature "jsx"`},
		{name: "unknown capability", file: "c.yaml", content: "capabilities: {teleport: true}\n", wantErr: `unknown capability "teleport"`},
		{name: "pool size", file: "c.yaml", content: "fetch_pool_size: 0\n", wantErr: "fetch_pool_size must be positive"},
		{name: "malformed", file: "c.yaml", content: "preset: [\n", wantErr: "failed to read config"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, tt.file, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config file not found")
}

func TestConfig_LoaderOptions(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Enable = []string{"all"}
	opts, err := cfg.LoaderOptions()
	require.NoError(t, err)
	assert.Len(t, opts, 9)

	cfg.Preset = "future"
	_, err = cfg.LoaderOptions()
	assert.Error(t, err)
}

func TestConfig_Fetcher(t *testing.T) {
	cfg := DefaultConfig()
	assert.IsType(t, &fetch.HTTPFetcher{}, cfg.Fetcher())

	cfg.Root = t.TempDir()
	ff, ok := cfg.Fetcher().(*fetch.FileFetcher)
	require.True(t, ok)
	assert.Equal(t, cfg.Root, ff.Root)
	assert.Equal(t, cfg.BaseURL, ff.BaseURL)
}
