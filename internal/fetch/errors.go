package fetch

import (
	"errors"
	"fmt"
	"strings"
)

// FetchError reports a transport failure or a non-2xx response.
type FetchError struct {
	URL    string
	Parent string

	// Chain lists the importers from the top-level module down to Parent.
	Chain []string

	// Status and StatusText are set for non-2xx responses.
	Status     int
	StatusText string

	Err error
}

func (e *FetchError) Error() string {
	var msg string
	if e.Status != 0 {
		msg = fmt.Sprintf("%d %s %s%s", e.Status, e.StatusText, e.URL, fromParent(e.Parent))
	} else {
		msg = fmt.Sprintf("unable to fetch %s%s", e.URL, fromParent(e.Parent))
		if e.Err != nil {
			msg += ": " + e.Err.Error()
		}
	}
	if len(e.Chain) > 1 {
		msg += " (import chain: " + strings.Join(e.Chain, " -> ") + ")"
	}
	return msg
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// IntegrityError reports a missing or mismatched integrity value.
type IntegrityError struct {
	URL    string
	Parent string

	// Expected is the metadata that was checked; empty when integrity was
	// required but none was supplied.
	Expected string
	Actual   string
}

func (e *IntegrityError) Error() string {
	if e.Expected == "" {
		return fmt.Sprintf("no integrity for %s%s", e.URL, fromParent(e.Parent))
	}
	return fmt.Sprintf("integrity mismatch for %s%s: expected %s, got %s",
		e.URL, fromParent(e.Parent), e.Expected, e.Actual)
}

// IsFetchError reports whether err is a FetchError.
func IsFetchError(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe)
}

// IsIntegrityError reports whether err is an IntegrityError.
func IsIntegrityError(err error) bool {
	var ie *IntegrityError
	return errors.As(err, &ie)
}

func fromParent(parent string) string {
	if parent == "" {
		return ""
	}
	return " imported from " + parent
}
