package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const analyzeSource = `import a from './a.js';
import data from './data.json' with { type: 'json' };
export const x = await import('./lazy.js');
export default import.meta.url;
`

func TestAnalyzeText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mod.js")
	require.NoError(t, os.WriteFile(path, []byte(analyzeSource), 0644))

	out, err := execute(t, "analyze", path)
	require.NoError(t, err)
	assert.Contains(t, out, "(module syntax: true)")
	assert.Contains(t, out, "Imports: 4")
	assert.Contains(t, out, "./a.js")
	assert.Contains(t, out, `./data.json with { type: "json" }`)
	assert.Contains(t, out, "dynamic")
	assert.Contains(t, out, "import.meta")
	assert.Contains(t, out, "x, default")
}

func TestAnalyzeJSONFromStdin(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader("import './a.js';\nimport('./b.js');\n"))
	cmd.SetArgs([]string{"analyze", "-", "--format", "json"})
	require.NoError(t, cmd.Execute())

	var response struct {
		Status string        `json:"status"`
		Data   AnalyzeResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &response))
	assert.Equal(t, "ok", response.Status)
	assert.True(t, response.Data.ModuleSyntax)
	require.Len(t, response.Data.Imports, 2)
	assert.Equal(t, ImportInfo{Kind: "static", Specifier: "./a.js", Offset: 0}, response.Data.Imports[0])
	assert.Equal(t, "dynamic", response.Data.Imports[1].Kind)
	assert.Equal(t, "./b.js", response.Data.Imports[1].Specifier)
	assert.Empty(t, response.Data.Exports)
}

func TestAnalyzeErrors(t *testing.T) {
	_, err := execute(t, "analyze", filepath.Join(t.TempDir(), "absent.js"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	path := filepath.Join(t.TempDir(), "broken.js")
	require.NoError(t, os.WriteFile(path, []byte("import './a.js"), 0644))
	out, err := execute(t, "analyze", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error [SourceParseError]")
}

func TestFormatAttributes(t *testing.T) {
	assert.Empty(t, formatAttributes(nil))
	assert.Equal(t, ` with { a: "1", type: "css" }`, formatAttributes(map[string]string{"type": "css", "a": "1"}))
}
