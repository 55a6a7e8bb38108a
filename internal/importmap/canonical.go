package importmap

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"slices"
	"unicode/utf16"

	"golang.org/x/text/unicode/norm"
)

// hashDomain separates import map hashes from any other content hash.
const hashDomain = "modshim/importmap/v1"

// Canonical returns the map as canonical JSON: object keys in UTF-16 code
// unit order, NFC-normalized strings, no HTML escaping, empty sections kept.
// Two maps with equal content always produce identical bytes.
func Canonical(m *ImportMap) ([]byte, error) {
	if m == nil {
		m = New()
	}
	var buf bytes.Buffer
	buf.WriteString(`{"imports":`)
	if err := writePackages(&buf, m.Imports); err != nil {
		return nil, err
	}
	buf.WriteString(`,"integrity":{`)
	for i, k := range canonicalKeys(m.Integrity) {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeString(&buf, k); err != nil {
			return nil, err
		}
		buf.WriteByte(':')
		if err := writeString(&buf, m.Integrity[k]); err != nil {
			return nil, err
		}
	}
	buf.WriteString(`},"scopes":{`)
	for i, scope := range canonicalKeys(m.Scopes) {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeString(&buf, scope); err != nil {
			return nil, err
		}
		buf.WriteByte(':')
		if err := writePackages(&buf, m.Scopes[scope]); err != nil {
			return nil, err
		}
	}
	buf.WriteString(`}}`)
	return buf.Bytes(), nil
}

// Hash returns a domain-separated SHA-256 of the canonical form.
// Format: SHA256(domain + 0x00 + canonical)
func Hash(m *ImportMap) (string, error) {
	data, err := Canonical(m)
	if err != nil {
		return "", err
	}
	h := sha256.New()
	h.Write([]byte(hashDomain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil)), nil
}

func writePackages(buf *bytes.Buffer, pkgs Packages) error {
	buf.WriteByte('{')
	for i, k := range canonicalKeys(pkgs) {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeString(buf, k); err != nil {
			return err
		}
		buf.WriteByte(':')
		if pkgs[k] == nil {
			buf.WriteString("null")
			continue
		}
		if err := writeString(buf, *pkgs[k]); err != nil {
			return err
		}
	}
	buf.WriteByte('}')
	return nil
}

func writeString(buf *bytes.Buffer, s string) error {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(norm.NFC.String(s)); err != nil {
		return err
	}
	// json.Encoder adds a trailing newline
	buf.Write(bytes.TrimSuffix(tmp.Bytes(), []byte{'\n'}))
	return nil
}

func canonicalKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareUTF16)
	return keys
}

// compareUTF16 orders strings by UTF-16 code units, which differs from Go's
// byte order for characters outside the BMP.
func compareUTF16(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))
	for i := 0; i < min(len(a16), len(b16)); i++ {
		if a16[i] != b16[i] {
			if a16[i] < b16[i] {
				return -1
			}
			return 1
		}
	}
	return len(a16) - len(b16)
}
