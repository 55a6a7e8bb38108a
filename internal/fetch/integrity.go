package fetch

import (
	"crypto/sha256"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/base64"
	"hash"
	"strings"
)

type algorithm struct {
	name     string
	strength int
	new      func() hash.Hash
}

var algorithms = map[string]algorithm{
	"sha256": {"sha256", 1, sha256.New},
	"sha384": {"sha384", 2, sha512.New384},
	"sha512": {"sha512", 3, sha512.New},
}

type metadata struct {
	alg    algorithm
	digest string
}

// parseIntegrity keeps only the entries using the strongest supported
// algorithm. Unknown algorithms are ignored.
func parseIntegrity(integrity string) []metadata {
	var strongest []metadata
	for _, token := range strings.Fields(integrity) {
		name, value, ok := strings.Cut(token, "-")
		if !ok {
			continue
		}
		alg, ok := algorithms[strings.ToLower(name)]
		if !ok {
			continue
		}
		// Options after '?' are reserved and ignored.
		value, _, _ = strings.Cut(value, "?")
		if len(strongest) > 0 && alg.strength < strongest[0].alg.strength {
			continue
		}
		if len(strongest) > 0 && alg.strength > strongest[0].alg.strength {
			strongest = strongest[:0]
		}
		strongest = append(strongest, metadata{alg: alg, digest: value})
	}
	return strongest
}

// Digest returns the SRI string for body under alg (sha256, sha384, sha512).
func Digest(alg string, body []byte) string {
	a, ok := algorithms[alg]
	if !ok {
		a = algorithms["sha384"]
	}
	h := a.new()
	h.Write(body)
	return a.name + "-" + base64.StdEncoding.EncodeToString(h.Sum(nil))
}

// VerifyIntegrity checks body against SRI metadata. Metadata with no
// supported algorithm passes. Any digest of the strongest algorithm may
// match.
func VerifyIntegrity(url string, body []byte, integrity string) error {
	entries := parseIntegrity(integrity)
	if len(entries) == 0 {
		return nil
	}
	actual := Digest(entries[0].alg.name, body)
	got := strings.TrimPrefix(actual, entries[0].alg.name+"-")
	for _, m := range entries {
		if subtle.ConstantTimeCompare([]byte(m.digest), []byte(got)) == 1 {
			return nil
		}
	}
	return &IntegrityError{URL: url, Expected: integrity, Actual: actual}
}
