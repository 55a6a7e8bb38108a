package lexer

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// SourceParseError reports text the lexer could not scan. Line and Column
// are 1-based; Column counts characters, not bytes.
type SourceParseError struct {
	Offset  int
	Line    int
	Column  int
	Message string
}

func (e *SourceParseError) Error() string {
	return fmt.Sprintf("parse error at %d:%d: %s", e.Line, e.Column, e.Message)
}

// IsSourceParseError reports whether err is a SourceParseError.
func IsSourceParseError(err error) bool {
	var pe *SourceParseError
	return errors.As(err, &pe)
}

func newSourceParseError(src string, offset int, msg string) *SourceParseError {
	if offset > len(src) {
		offset = len(src)
	}
	before := src[:offset]
	lineStart := strings.LastIndexByte(before, '\n') + 1
	return &SourceParseError{
		Offset:  offset,
		Line:    strings.Count(before, "\n") + 1,
		Column:  utf8.RuneCountInString(before[lineStart:]) + 1,
		Message: msg,
	}
}
