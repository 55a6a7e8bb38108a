package importmap

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveIfNotPlainOrURL(t *testing.T) {
	tests := []struct {
		name   string
		rel    string
		parent string
		want   string
	}{
		{"dot relative", "./a.js", "https://example.com/dir/page.html", "https://example.com/dir/a.js"},
		{"parent relative", "../x.js", "https://example.com/a/b/c.js", "https://example.com/a/x.js"},
		{"root relative", "/root.js", "https://example.com/a/b.js", "https://example.com/root.js"},
		{"protocol relative", "//cdn.example.org/x.js", "https://example.com/", "https://cdn.example.org/x.js"},
		{"backtrack clamped at root", "../../../x.js", "https://example.com/a/b.js", "https://example.com/x.js"},
		{"query stripped from parent", "./b.js", "https://example.com/a.js?v=1#top", "https://example.com/b.js"},
		{"backslashes", `.\b.js`, "https://example.com/a/", "https://example.com/a/b.js"},
		{"bare dot", ".", "https://example.com/a/b.js", "https://example.com/a/"},
		{"file url", "./b.js", "file:///home/u/a.js", "file:///home/u/b.js"},
		{"bare specifier", "lodash", "https://example.com/", ""},
		{"absolute url", "https://x.example/a.js", "https://example.com/", ""},
		{"blob parent", "./a.js", "blob:https://example.com/1234", ""},
		{"empty", "", "https://example.com/", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveIfNotPlainOrURL(tt.rel, tt.parent))
		})
	}
}

func TestAsURL(t *testing.T) {
	assert.Equal(t, "https://example.com/", AsURL("https://example.com"))
	assert.Equal(t, "https://example.com/a.js", AsURL("https://example.com/a.js"))
	assert.Equal(t, "data:text/javascript,export{}", AsURL("data:text/javascript,export{}"))
	assert.Empty(t, AsURL("lodash"))
	assert.Empty(t, AsURL("./a.js"))
}

func TestIsBare(t *testing.T) {
	assert.True(t, IsBare("lodash"))
	assert.True(t, IsBare("@scope/pkg/sub.js"))
	assert.False(t, IsBare("./a.js"))
	assert.False(t, IsBare("/a.js"))
	assert.False(t, IsBare("https://example.com/a.js"))
}
