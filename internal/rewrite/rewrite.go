package rewrite

import (
	"fmt"
	"sort"
	"strings"
)

// Splice replaces source[Start:End] with Text. Start == End is an insertion.
type Splice struct {
	Start int
	End   int
	Text  string
}

// SpliceError reports a splice that is out of range or overlaps another.
type SpliceError struct {
	Splice Splice
	Reason string
}

func (e *SpliceError) Error() string {
	return fmt.Sprintf("invalid splice [%d,%d): %s", e.Splice.Start, e.Splice.End, e.Reason)
}

// Apply performs the splices left to right in one pass. Splices are ordered
// by Start then End; insertions at the same offset keep their given order.
func Apply(source string, splices []Splice) (string, error) {
	ordered := make([]Splice, len(splices))
	copy(ordered, splices)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Start != ordered[j].Start {
			return ordered[i].Start < ordered[j].Start
		}
		return ordered[i].End < ordered[j].End
	})

	var b strings.Builder
	b.Grow(len(source))
	last := 0
	for _, sp := range ordered {
		if sp.Start < 0 || sp.End < sp.Start || sp.End > len(source) {
			return "", &SpliceError{Splice: sp, Reason: fmt.Sprintf("out of range for source of length %d", len(source))}
		}
		if sp.Start < last {
			return "", &SpliceError{Splice: sp, Reason: fmt.Sprintf("overlaps previous splice ending at %d", last)}
		}
		b.WriteString(source[last:sp.Start])
		b.WriteString(sp.Text)
		last = sp.End
	}
	b.WriteString(source[last:])
	return b.String(), nil
}

// Quote renders s as a single-quoted JavaScript string literal.
func Quote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "'", `\'`)
	s = strings.ReplaceAll(s, "\n", `\n`)
	s = strings.ReplaceAll(s, "\r", `\r`)
	return "'" + s + "'"
}
