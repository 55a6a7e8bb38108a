package rewrite

import (
	"net/url"
	"strings"
)

const (
	sourceURLPrefix    = "\n//# sourceURL="
	sourceMapURLPrefix = "\n//# sourceMappingURL="
)

// SourceOrigin makes the trailing sourceURL and sourceMappingURL comments of
// source absolute against responseURL. Comments starting before offset after
// sit inside already rewritten code and are ignored.
//
// It returns the splices to apply and, when the source carries no sourceURL
// comment of its own, the trailer to append so the rewritten module still
// points back at responseURL.
func SourceOrigin(source string, after int, responseURL string) ([]Splice, string) {
	urlStart := strings.LastIndex(source, sourceURLPrefix)
	mapStart := strings.LastIndex(source, sourceMapURLPrefix)
	if urlStart < after {
		urlStart = -1
	}
	if mapStart < after {
		mapStart = -1
	}

	var splices []Splice
	if urlStart != -1 {
		splices = append(splices, commentSplice(source, urlStart+len(sourceURLPrefix), responseURL))
	}
	if mapStart != -1 {
		splices = append(splices, commentSplice(source, mapStart+len(sourceMapURLPrefix), responseURL))
	}

	trailer := ""
	if urlStart == -1 {
		trailer = sourceURLPrefix + responseURL
	}
	return splices, trailer
}

func commentSplice(source string, start int, base string) Splice {
	end := strings.IndexByte(source[start:], '\n')
	if end == -1 {
		end = len(source)
	} else {
		end += start
	}
	ref := source[start:end]
	return Splice{Start: start, End: end, Text: absolute(ref, base)}
}

func absolute(ref, base string) string {
	b, err := url.Parse(base)
	if err != nil {
		return ref
	}
	r, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return ref
	}
	return b.ResolveReference(r).String()
}
