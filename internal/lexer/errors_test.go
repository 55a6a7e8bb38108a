package lexer

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyzeErrors(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		line    int
		column  int
		message string
	}{
		{"unterminated string", "const s = 'abc", 1, 11, "unterminated string literal"},
		{"string broken by newline", "const s = \"abc\nx\"", 1, 11, "unterminated string literal"},
		{"unterminated comment", "a\n/* never closed", 2, 1, "unterminated comment"},
		{"unclosed brace", "function f() {", 1, 14, `unclosed '{'`},
		{"stray closer", "a }", 1, 3, `unexpected '}'`},
		{"mismatched closer", "f(a]", 1, 4, `unexpected ']', expected ')'`},
		{"unterminated template", "`abc${x", 1, 1, "unterminated template literal"},
		{"unterminated regex", "x = /abc", 1, 5, "unterminated regular expression"},
		{"bad import clause", "import x from;", 1, 14, "unexpected ';' in import statement"},
		{"missing specifier", "import x from", 1, 1, "import statement is missing its specifier"},
		{"bad export", "export 42", 1, 8, "unexpected token after export"},
		{"unclosed dynamic import", "import('./a.js'", 1, 7, `unclosed '('`},
		{"column counts characters", "é = 'x", 1, 5, "unterminated string literal"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Analyze(tt.src)
			require.Error(t, err)
			assert.True(t, IsSourceParseError(err))

			var pe *SourceParseError
			require.True(t, errors.As(err, &pe))
			assert.Equal(t, tt.line, pe.Line, "line")
			assert.Equal(t, tt.column, pe.Column, "column")
			assert.Equal(t, tt.message, pe.Message)
		})
	}
}

func TestSourceParseErrorMessage(t *testing.T) {
	err := &SourceParseError{Offset: 3, Line: 2, Column: 1, Message: "unterminated comment"}
	assert.Equal(t, "parse error at 2:1: unterminated comment", err.Error())
}
