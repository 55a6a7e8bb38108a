package loader

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/modshim/internal/content"
	"github.com/roach88/modshim/internal/features"
	"github.com/roach88/modshim/internal/fetch"
	"github.com/roach88/modshim/internal/importmap"
	"github.com/roach88/modshim/internal/lexer"
	"github.com/roach88/modshim/internal/shell"
)

func TestClassify(t *testing.T) {
	fetchErr := &fetch.FetchError{URL: "https://x.test/a.js", Status: 404}
	tests := []struct {
		name string
		err  error
		want Code
	}{
		{"nil", nil, ""},
		{"fetch", fetchErr, CodeFetch},
		{"wrapped fetch", fmt.Errorf("load: %w", fetchErr), CodeFetch},
		{"integrity", &fetch.IntegrityError{URL: "u"}, CodeIntegrity},
		{"parse", fmt.Errorf("parse u: %w", &lexer.SourceParseError{Message: "unterminated comment"}), CodeSourceParse},
		{"unresolved", &importmap.UnresolvedSpecifierError{Specifier: "x"}, CodeUnresolvedSpecifier},
		{"blocked", &importmap.BlockedSpecifierError{Specifier: "x"}, CodeBlockedSpecifier},
		{"content type", &content.UnsupportedContentTypeError{URL: "u", ContentType: "text/plain"}, CodeUnsupportedContentType},
		{"disabled feature", &features.FeatureDisabledError{Feature: features.FeatureCSSModules}, CodeUnsupportedContentType},
		{"cycle", &shell.CycleShellError{URL: "u", Missing: []string{"x"}}, CodeCycleShell},
		{"context", context.Canceled, CodeUnknown},
		{"other", errors.New("boom"), CodeUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}
