package content

import (
	"bytes"
	"encoding/json"
	"regexp"

	"github.com/roach88/modshim/internal/importmap"
)

// cssURL matches url(...) references, quoted or bare.
var cssURL = regexp.MustCompile(`url\(\s*(?:"((?:\\.|[^\n\\"'])+)"|'((?:\\.|[^\n\\"'])+)'|((?:\\.|[^\s,"'()\\])+))\s*\)`)

// CSSModule wraps a stylesheet as a module whose default export is a
// constructable stylesheet. url() references are made absolute against
// sheetURL.
func CSSModule(css, sheetURL string) (string, error) {
	abs := cssURL.ReplaceAllStringFunc(css, func(match string) string {
		m := cssURL.FindStringSubmatch(match)
		quote, ref := "", m[3]
		switch {
		case m[1] != "":
			quote, ref = `"`, m[1]
		case m[2] != "":
			quote, ref = "'", m[2]
		}
		return "url(" + quote + importmap.ResolveURL(ref, sheetURL) + quote + ")"
	})

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(abs); err != nil {
		return "", err
	}
	text := bytes.TrimRight(buf.Bytes(), "\n")
	return "var s=new CSSStyleSheet();s.replaceSync(" + string(text) + ");export default s;", nil
}
