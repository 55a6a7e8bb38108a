package loader

import (
	"errors"

	"github.com/roach88/modshim/internal/content"
	"github.com/roach88/modshim/internal/features"
	"github.com/roach88/modshim/internal/fetch"
	"github.com/roach88/modshim/internal/importmap"
	"github.com/roach88/modshim/internal/lexer"
	"github.com/roach88/modshim/internal/shell"
)

// Code is the failure category of a load error.
type Code string

const (
	CodeFetch                  Code = "FetchError"
	CodeIntegrity              Code = "IntegrityError"
	CodeSourceParse            Code = "SourceParseError"
	CodeUnresolvedSpecifier    Code = "UnresolvedSpecifier"
	CodeBlockedSpecifier       Code = "BlockedSpecifier"
	CodeUnsupportedContentType Code = "UnsupportedContentType"
	CodeCycleShell             Code = "CycleShellError"

	// CodeUnknown covers errors from hooks, the host and the context.
	CodeUnknown Code = "Unknown"
)

// Classify maps err to its failure category. Wrapped errors are unwrapped
// with errors.As; the most specific match wins.
func Classify(err error) Code {
	var (
		integrity   *fetch.IntegrityError
		fetchErr    *fetch.FetchError
		parse       *lexer.SourceParseError
		blocked     *importmap.BlockedSpecifierError
		unresolved  *importmap.UnresolvedSpecifierError
		unsupported *content.UnsupportedContentTypeError
		disabled    *features.FeatureDisabledError
		cycle       *shell.CycleShellError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &integrity):
		return CodeIntegrity
	case errors.As(err, &fetchErr):
		return CodeFetch
	case errors.As(err, &parse):
		return CodeSourceParse
	case errors.As(err, &blocked):
		return CodeBlockedSpecifier
	case errors.As(err, &unresolved):
		return CodeUnresolvedSpecifier
	case errors.As(err, &unsupported), errors.As(err, &disabled):
		return CodeUnsupportedContentType
	case errors.As(err, &cycle):
		return CodeCycleShell
	}
	return CodeUnknown
}
