package importmap

import (
	"errors"
	"fmt"
)

// UnresolvedSpecifierError is returned when no mapping matches a specifier
// and the specifier is not itself URL-like.
type UnresolvedSpecifierError struct {
	Specifier string
	Parent    string
}

func (e *UnresolvedSpecifierError) Error() string {
	return fmt.Sprintf("unable to resolve specifier %q%s", e.Specifier, fromParent(e.Parent))
}

// BlockedSpecifierError is returned when the most specific matching key maps
// to null.
type BlockedSpecifierError struct {
	Specifier string
	Parent    string
	Key       string // the import map key that blocked the specifier
	Scope     string // empty for the global imports
}

func (e *BlockedSpecifierError) Error() string {
	where := "imports"
	if e.Scope != "" {
		where = fmt.Sprintf("scope %s", e.Scope)
	}
	return fmt.Sprintf("specifier %q%s is blocked by null mapping %q in %s",
		e.Specifier, fromParent(e.Parent), e.Key, where)
}

// SchemaError reports an import map document that fails schema validation.
type SchemaError struct {
	Message string
	Err     error
}

func (e *SchemaError) Error() string {
	return "invalid import map: " + e.Message
}

func (e *SchemaError) Unwrap() error {
	return e.Err
}

// IsUnresolved reports whether err is an UnresolvedSpecifierError.
func IsUnresolved(err error) bool {
	var ue *UnresolvedSpecifierError
	return errors.As(err, &ue)
}

// IsBlocked reports whether err is a BlockedSpecifierError.
func IsBlocked(err error) bool {
	var be *BlockedSpecifierError
	return errors.As(err, &be)
}

func fromParent(parent string) string {
	if parent == "" {
		return ""
	}
	return " imported from " + parent
}
