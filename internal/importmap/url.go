package importmap

import (
	"net/url"
	"strings"
)

// ResolveIfNotPlainOrURL resolves relative ("./", "../", "/") and
// protocol-relative ("//") specifiers against parentURL.
//
// It returns "" for bare specifiers and absolute URLs, and for relative
// specifiers whose parent is not hierarchical (blob: URLs).
func ResolveIfNotPlainOrURL(rel, parentURL string) string {
	if rel == "" {
		return ""
	}
	if i := strings.IndexAny(parentURL, "?#"); i != -1 {
		parentURL = parentURL[:i]
	}
	rel = strings.ReplaceAll(rel, `\`, "/")

	protoEnd := strings.Index(parentURL, ":") + 1
	proto := parentURL[:protoEnd]

	if strings.HasPrefix(rel, "//") {
		return proto + rel
	}

	switch {
	case rel == "." || rel == "..":
		rel += "/"
	case rel[0] == '/', strings.HasPrefix(rel, "./"), strings.HasPrefix(rel, "../"):
	default:
		return ""
	}

	if proto == "blob:" {
		return ""
	}

	// pathname is everything after the leading "/" of the path
	var pathname string
	if len(parentURL) > protoEnd+1 && parentURL[protoEnd+1] == '/' {
		if proto != "file:" {
			pathname = parentURL[protoEnd+2:]
			pathname = pathname[strings.Index(pathname, "/")+1:]
		} else if len(parentURL) >= 8 {
			pathname = parentURL[8:]
		}
	} else {
		skip := protoEnd
		if len(parentURL) > skip && parentURL[skip] == '/' {
			skip++
		}
		pathname = parentURL[skip:]
	}

	if rel[0] == '/' {
		return parentURL[:len(parentURL)-len(pathname)-1] + rel
	}

	segmented := pathname[:strings.LastIndex(pathname, "/")+1] + rel
	return parentURL[:len(parentURL)-len(pathname)] + normalizeSegments(segmented)
}

// normalizeSegments removes "." and ".." segments. Backtracking past the root
// is clamped rather than reported.
func normalizeSegments(segmented string) string {
	var out []string
	segStart := -1
	for i := 0; i < len(segmented); i++ {
		if segStart != -1 {
			if segmented[i] == '/' {
				out = append(out, segmented[segStart:i+1])
				segStart = -1
			}
			continue
		}
		if segmented[i] == '.' {
			if i+1 < len(segmented) && segmented[i+1] == '.' && (i+2 == len(segmented) || segmented[i+2] == '/') {
				if len(out) > 0 {
					out = out[:len(out)-1]
				}
				i += 2
				continue
			}
			if i+1 == len(segmented) || segmented[i+1] == '/' {
				i++
				continue
			}
		}
		for i < len(segmented) && segmented[i] == '/' {
			i++
		}
		segStart = i
	}
	if segStart != -1 && segStart < len(segmented) {
		out = append(out, segmented[segStart:])
	}
	return strings.Join(out, "")
}

// AsURL returns the normalized form of s when it is an absolute URL,
// otherwise "".
func AsURL(s string) string {
	if !strings.Contains(s, ":") {
		return ""
	}
	u, err := url.Parse(s)
	if err != nil || u.Scheme == "" {
		return ""
	}
	if u.Host != "" && u.Path == "" && u.Opaque == "" {
		u.Path = "/"
	}
	return u.String()
}

// ResolveURL resolves rel against parentURL, treating a bare name as a
// path relative to the parent. Used for scope keys and document URLs.
func ResolveURL(rel, parentURL string) string {
	if r := ResolveIfNotPlainOrURL(rel, parentURL); r != "" {
		return r
	}
	if r := AsURL(rel); r != "" {
		return r
	}
	return ResolveIfNotPlainOrURL("./"+rel, parentURL)
}

// IsBare reports whether specifier is neither a URL nor a relative path.
func IsBare(specifier string) bool {
	return ResolveIfNotPlainOrURL(specifier, "https://base.invalid/") == "" && AsURL(specifier) == ""
}
