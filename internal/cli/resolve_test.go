package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveBareSpecifier(t *testing.T) {
	dir := t.TempDir()
	m := writeMap(t, dir, "importmap.json", `{
		"imports": {"react": "/vendor/react.js", "lib/": "/lib/v2/"},
		"scopes": {"/legacy/": {"react": "/vendor/react-17.js"}}
	}`)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "top-level", args: []string{"react"}, want: "https://app.test/vendor/react.js"},
		{name: "prefix", args: []string{"lib/util.js"}, want: "https://app.test/lib/v2/util.js"},
		{name: "scoped", args: []string{"react", "--parent", "https://app.test/legacy/app.js"}, want: "https://app.test/vendor/react-17.js"},
		{name: "relative", args: []string{"./x.js", "--parent", "https://app.test/a/b.js"}, want: "https://app.test/a/x.js"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"resolve", "--map", m}, tt.args...)
			out, err := execute(t, args...)
			require.NoError(t, err)
			assert.Equal(t, tt.want+"\n", out)
		})
	}
}

func TestResolveJSON(t *testing.T) {
	dir := t.TempDir()
	m := writeMap(t, dir, "importmap.json", `{"imports": {"dep": "/dep.js"}}`)

	out, err := execute(t, "resolve", "dep", "-m", m, "--format", "json")
	require.NoError(t, err)

	var response struct {
		Status string        `json:"status"`
		Data   ResolveResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &response))
	assert.Equal(t, "ok", response.Status)
	assert.Equal(t, ResolveResult{Specifier: "dep", Parent: "https://app.test/", URL: "https://app.test/dep.js"}, response.Data)
}

func TestResolveFailures(t *testing.T) {
	dir := t.TempDir()
	m := writeMap(t, dir, "importmap.json", `{"imports": {"blocked": null}}`)

	out, err := execute(t, "resolve", "missing", "--map", m)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error [UnresolvedSpecifier]")

	out, err = execute(t, "resolve", "blocked", "--map", m, "--format", "json")
	require.Error(t, err)
	var response CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &response))
	assert.Equal(t, "BlockedSpecifier", response.Error.Code)
}

func TestResolveWithoutMaps(t *testing.T) {
	out, err := execute(t, "resolve", "https://cdn.test/x.js")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.test/x.js\n", out)
}
