package shell

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"
)

// ErrAlreadyBound is returned by a second call to Bind.
var ErrAlreadyBound = errors.New("shell already bound")

// CycleShellError reports a Bind whose namespace does not provide every
// name the shell promised to importers.
type CycleShellError struct {
	URL     string
	Missing []string
}

func (e *CycleShellError) Error() string {
	return fmt.Sprintf("cycle shell for %s bound to a namespace missing exports: %s",
		e.URL, strings.Join(e.Missing, ", "))
}

// IsCycleShellError reports whether err is a CycleShellError.
func IsCycleShellError(err error) bool {
	var ce *CycleShellError
	return errors.As(err, &ce)
}

// Shell is a two-phase placeholder namespace.
//
// Thread-safety: Shell is safe for concurrent use.
type Shell struct {
	url   string
	names []string

	mu   sync.RWMutex
	real Namespace
}

// New creates an unbound shell for the module at url exporting names.
func New(url string, names []string) *Shell {
	seen := make(map[string]bool, len(names))
	sorted := make([]string, 0, len(names))
	for _, n := range names {
		if !seen[n] {
			seen[n] = true
			sorted = append(sorted, n)
		}
	}
	sort.Strings(sorted)
	return &Shell{url: url, names: sorted}
}

// URL returns the URL of the module the shell stands in for.
func (s *Shell) URL() string {
	return s.url
}

// Get implements Namespace. Before Bind, declared names read as nil.
func (s *Shell) Get(name string) (any, bool) {
	s.mu.RLock()
	real := s.real
	s.mu.RUnlock()
	if real != nil {
		if !s.declares(name) {
			return nil, false
		}
		return real.Get(name)
	}
	return nil, s.declares(name)
}

// Exports implements Namespace.
func (s *Shell) Exports() []string {
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

// Bound reports whether Bind has succeeded.
func (s *Shell) Bound() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.real != nil
}

// Bind attaches the real namespace. It may succeed only once.
func (s *Shell) Bind(real Namespace) error {
	if real == nil {
		return fmt.Errorf("bind shell for %s: nil namespace", s.url)
	}
	var missing []string
	for _, name := range s.names {
		if _, ok := real.Get(name); !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return &CycleShellError{URL: s.url, Missing: missing}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.real != nil {
		return ErrAlreadyBound
	}
	s.real = real
	return nil
}

func (s *Shell) declares(name string) bool {
	i := sort.SearchStrings(s.names, name)
	return i < len(s.names) && s.names[i] == name
}

var identifier = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)

// Source renders the placeholder as module text: one mutable binding per
// export, re-exported, plus an update function u$_ that copies the real
// namespace into them.
func (s *Shell) Source() string {
	var decl, exp, assign []string
	for i, name := range s.names {
		local := fmt.Sprintf("e$_%d", i)
		decl = append(decl, local)
		exported := name
		access := "." + name
		if !identifier.MatchString(name) {
			q, _ := json.Marshal(name)
			exported = string(q)
			access = "[" + string(q) + "]"
		}
		exp = append(exp, local+" as "+exported)
		assign = append(assign, local+"=m"+access)
	}

	var b strings.Builder
	if len(decl) > 0 {
		b.WriteString("let " + strings.Join(decl, ",") + ";")
	}
	b.WriteString("export{" + strings.Join(exp, ",") + "};")
	b.WriteString("export function u$_(m){" + strings.Join(assign, ",") + "}")
	b.WriteString("\n//# sourceURL=" + s.url + "?cycle")
	return b.String()
}
