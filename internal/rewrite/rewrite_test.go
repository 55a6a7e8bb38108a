package rewrite

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApply(t *testing.T) {
	tests := []struct {
		name    string
		source  string
		splices []Splice
		want    string
	}{
		{"no splices", "abc", nil, "abc"},
		{"replace", "import 'a';", []Splice{{Start: 7, End: 8, Text: "blob:x"}}, "import 'blob:x';"},
		{"insert", "ab", []Splice{{Start: 1, End: 1, Text: "-"}}, "a-b"},
		{"unordered input", "0123456789", []Splice{
			{Start: 8, End: 9, Text: "E"},
			{Start: 1, End: 2, Text: "B"},
		}, "0B234567E9"},
		{"insertions keep order", "ab", []Splice{
			{Start: 1, End: 1, Text: "x"},
			{Start: 1, End: 1, Text: "y"},
		}, "axyb"},
		{"adjacent", "abcd", []Splice{
			{Start: 0, End: 2, Text: "X"},
			{Start: 2, End: 4, Text: "Y"},
		}, "XY"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Apply(tt.source, tt.splices)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestApply_Errors(t *testing.T) {
	_, err := Apply("abc", []Splice{{Start: 2, End: 5}})
	var se *SpliceError
	require.ErrorAs(t, err, &se)
	assert.Contains(t, se.Error(), "out of range")

	_, err = Apply("abcdef", []Splice{{Start: 0, End: 3}, {Start: 2, End: 4}})
	require.ErrorAs(t, err, &se)
	assert.Contains(t, se.Error(), "overlaps")

	_, err = Apply("abc", []Splice{{Start: 2, End: 1}})
	assert.Error(t, err)
}

func TestApply_DoesNotMutateInput(t *testing.T) {
	splices := []Splice{{Start: 2, End: 2, Text: "b"}, {Start: 0, End: 0, Text: "a"}}
	_, err := Apply("xyz", splices)
	require.NoError(t, err)
	assert.Equal(t, 2, splices[0].Start)
}

func TestQuote(t *testing.T) {
	assert.Equal(t, `'blob:x/1'`, Quote("blob:x/1"))
	assert.Equal(t, `'it\'s'`, Quote("it's"))
	assert.Equal(t, `'a\\b'`, Quote(`a\b`))
}

func TestSourceOrigin_AppendsTrailer(t *testing.T) {
	splices, trailer := SourceOrigin("export const a = 1;", 0, "https://example.com/a.js")
	assert.Empty(t, splices)
	assert.Equal(t, "\n//# sourceURL=https://example.com/a.js", trailer)
}

func TestSourceOrigin_RelocatesComments(t *testing.T) {
	src := "x;\n//# sourceMappingURL=a.js.map\n//# sourceURL=orig/a.js"
	splices, trailer := SourceOrigin(src, 0, "https://example.com/lib/a.js")
	assert.Empty(t, trailer)

	out, err := Apply(src, splices)
	require.NoError(t, err)
	assert.Equal(t, "x;\n//# sourceMappingURL=https://example.com/lib/a.js.map\n//# sourceURL=https://example.com/lib/orig/a.js", out)
}

func TestSourceOrigin_IgnoresCommentsBeforeOffset(t *testing.T) {
	src := "\n//# sourceMappingURL=a.map\nimport 'x';"
	splices, trailer := SourceOrigin(src, 30, "https://example.com/a.js")
	assert.Empty(t, splices)
	assert.Equal(t, "\n//# sourceURL=https://example.com/a.js", trailer)
}
