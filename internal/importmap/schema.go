package importmap

import (
	_ "embed"
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
)

//go:embed schema.cue
var schemaSource string

// Validate checks an import map document against the embedded CUE schema.
// It rejects unknown top-level sections and targets that are neither strings
// nor null, which Parse alone would silently coerce or drop.
func Validate(data []byte) error {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile import map schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#ImportMap"))

	doc := ctx.CompileBytes(data, cue.Filename("importmap.json"))
	if err := doc.Err(); err != nil {
		return &SchemaError{Message: summarize(err), Err: err}
	}

	if err := def.Unify(doc).Validate(cue.Concrete(true)); err != nil {
		return &SchemaError{Message: summarize(err), Err: err}
	}
	return nil
}

// ParseValidated validates data and then parses it.
func ParseValidated(data []byte) (*ImportMap, error) {
	if err := Validate(data); err != nil {
		return nil, err
	}
	return Parse(data)
}

// summarize flattens a CUE error list into one line per error.
func summarize(err error) string {
	var parts []string
	for _, e := range cueerrors.Errors(err) {
		parts = append(parts, strings.TrimSpace(e.Error()))
	}
	if len(parts) == 0 {
		return err.Error()
	}
	return strings.Join(parts, "; ")
}
