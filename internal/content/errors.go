package content

import (
	"errors"
	"fmt"
)

// UnsupportedContentTypeError reports a response no handler accepts.
type UnsupportedContentTypeError struct {
	URL         string
	Parent      string
	ContentType string
}

func (e *UnsupportedContentTypeError) Error() string {
	msg := fmt.Sprintf("unsupported Content-Type %q loading %s", e.ContentType, e.URL)
	if e.Parent != "" {
		msg += " imported from " + e.Parent
	}
	return msg + ". Modules must be served with a valid MIME type like application/javascript"
}

// IsUnsupportedContentType reports whether err is an UnsupportedContentTypeError.
func IsUnsupportedContentType(err error) bool {
	var ue *UnsupportedContentTypeError
	return errors.As(err, &ue)
}
