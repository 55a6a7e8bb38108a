package lexer

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// importKeyword handles the word "import" ending at s.pos. It reports false
// when the word is not an import form it recognizes, leaving the caller to
// scan it as a plain keyword.
func (s *scanner) importKeyword(start int) (bool, error) {
	i, err := s.triviaEnd(s.pos)
	if err != nil {
		return false, err
	}
	if i >= len(s.src) {
		return false, nil
	}

	switch s.src[i] {
	case '(':
		return true, s.dynamicImport(start, i, KindDynamic)
	case '.':
		j, err := s.triviaEnd(i + 1)
		if err != nil {
			return false, err
		}
		switch s.wordAt(j) {
		case "meta":
			end := j + len("meta")
			s.imports = append(s.imports, Import{
				Kind:           KindMeta,
				Start:          start,
				End:            end,
				StatementStart: start,
				StatementEnd:   end,
			})
			s.moduleSyntax = true
			s.pos = end
			s.setClass(classIdent)
			return true, nil
		case "source":
			k, err := s.triviaEnd(j + len("source"))
			if err != nil {
				return false, err
			}
			if k < len(s.src) && s.src[k] == '(' {
				return true, s.dynamicImport(start, k, KindDynamicSource)
			}
		}
		return false, nil
	}

	if len(s.stack) > 0 {
		return false, nil
	}
	return true, s.importStatement(start, i)
}

// dynamicImport records an import() call whose '(' is at paren. The call's
// end is filled in when the matching ')' is scanned.
func (s *scanner) dynamicImport(start, paren int, kind Kind) error {
	argStart, err := s.triviaEnd(paren + 1)
	if err != nil {
		return err
	}
	imp := Import{Kind: kind, Start: argStart, End: argStart, StatementStart: start, StatementEnd: -1}
	if argStart < len(s.src) && isQuote(s.src[argStart]) {
		end, err := s.stringEnd(argStart)
		if err != nil {
			return err
		}
		after, err := s.triviaEnd(end)
		if err != nil {
			return err
		}
		if after < len(s.src) && (s.src[after] == ')' || s.src[after] == ',') {
			imp.Specifier = unquote(s.src[argStart+1 : end-1])
			imp.End = end
		}
	}

	s.stack = append(s.stack, opener{ch: '(', kind: openImportParen, pos: paren, importIdx: len(s.imports)})
	s.imports = append(s.imports, imp)
	s.pos = paren + 1
	s.punct("(")
	return nil
}

// importStatement parses an import declaration. i is the first significant
// offset after the import keyword.
func (s *scanner) importStatement(start, i int) error {
	imp := Import{Kind: KindStatic, StatementStart: start}
	if isQuote(s.src[i]) {
		return s.finishStatic(imp, i)
	}

	if w := s.wordAt(i); w == "source" {
		phase, err := s.isSourcePhase(i + len(w))
		if err != nil {
			return err
		}
		if phase {
			imp.Kind = KindSourcePhase
			imp.PhaseStart, imp.PhaseEnd = i, i+len(w)
		}
	}

	j := i
	for {
		var err error
		if j, err = s.triviaEnd(j); err != nil {
			return err
		}
		if j >= len(s.src) {
			return s.errorAt(start, "import statement is missing its specifier")
		}
		c := s.src[j]
		switch {
		case isQuote(c):
			return s.finishStatic(imp, j)
		case c == '{':
			if j, err = s.clauseEnd(j); err != nil {
				return err
			}
		case c == '*' || c == ',':
			j++
		case isIdentStart(c):
			j = s.identEnd(j)
		default:
			return s.errorAt(j, fmt.Sprintf("unexpected %q in import statement", c))
		}
	}
}

// isSourcePhase decides whether "source" ending at i is a phase modifier or
// a default import binding named source.
func (s *scanner) isSourcePhase(i int) (bool, error) {
	j, err := s.triviaEnd(i)
	if err != nil {
		return false, err
	}
	switch s.wordAt(j) {
	case "":
		// import source, { x } from '...'
		return false, nil
	case "from":
		// "import source from 'x'" binds source; "import source from from 'x'" is a phase import
		k, err := s.triviaEnd(j + len("from"))
		if err != nil {
			return false, err
		}
		return k < len(s.src) && !isQuote(s.src[k]), nil
	default:
		return true, nil
	}
}

// clauseEnd returns the offset past the '}' closing the named import or
// export list opened at i.
func (s *scanner) clauseEnd(i int) (int, error) {
	j := i + 1
	for {
		var err error
		if j, err = s.triviaEnd(j); err != nil {
			return j, err
		}
		if j >= len(s.src) {
			return j, s.errorAt(i, "unterminated import list")
		}
		switch c := s.src[j]; {
		case c == '}':
			return j + 1, nil
		case isQuote(c):
			if j, err = s.stringEnd(j); err != nil {
				return j, err
			}
		default:
			j++
		}
	}
}

// finishStatic completes a static or source-phase import whose specifier
// string starts at q.
func (s *scanner) finishStatic(imp Import, q int) error {
	end, err := s.stringEnd(q)
	if err != nil {
		return err
	}
	imp.Start, imp.End = q+1, end-1
	imp.Specifier = unquote(s.src[q+1 : end-1])
	imp.StatementEnd = end

	attrs, attrEnd, err := s.attributes(end)
	if err != nil {
		return err
	}
	if attrs != nil {
		imp.Attributes = attrs
		imp.StatementEnd = attrEnd
	}

	s.imports = append(s.imports, imp)
	s.moduleSyntax = true
	s.pos = imp.StatementEnd
	s.punct(";")
	return nil
}

// attributes parses a "with { ... }" or "assert { ... }" clause starting at
// or after i. It returns nil when there is none.
func (s *scanner) attributes(i int) (map[string]string, int, error) {
	j, err := s.triviaEnd(i)
	if err != nil {
		return nil, i, err
	}
	w := s.wordAt(j)
	if w != "with" && w != "assert" {
		return nil, i, nil
	}
	k, err := s.triviaEnd(j + len(w))
	if err != nil {
		return nil, i, err
	}
	if k >= len(s.src) || s.src[k] != '{' {
		return nil, i, nil
	}

	attrs := make(map[string]string)
	open := k
	k++
	for {
		if k, err = s.triviaEnd(k); err != nil {
			return nil, i, err
		}
		if k >= len(s.src) {
			return nil, i, s.errorAt(open, "unterminated import attributes")
		}
		if s.src[k] == '}' {
			return attrs, k + 1, nil
		}
		if s.src[k] == ',' {
			k++
			continue
		}

		key, keyEnd, err := s.propertyName(k)
		if err != nil {
			return nil, i, err
		}
		if k, err = s.triviaEnd(keyEnd); err != nil {
			return nil, i, err
		}
		if k >= len(s.src) || s.src[k] != ':' {
			return nil, i, s.errorAt(k, "malformed import attributes")
		}
		if k, err = s.triviaEnd(k + 1); err != nil {
			return nil, i, err
		}
		if k >= len(s.src) || !isQuote(s.src[k]) {
			return nil, i, s.errorAt(k, "import attribute values must be strings")
		}
		valueEnd, err := s.stringEnd(k)
		if err != nil {
			return nil, i, err
		}
		attrs[key] = unquote(s.src[k+1 : valueEnd-1])
		k = valueEnd
	}
}

// propertyName reads an identifier or string name at i and returns its
// value and end offset.
func (s *scanner) propertyName(i int) (string, int, error) {
	if i < len(s.src) && isQuote(s.src[i]) {
		end, err := s.stringEnd(i)
		if err != nil {
			return "", i, err
		}
		return unquote(s.src[i+1 : end-1]), end, nil
	}
	if w := s.wordAt(i); w != "" {
		return w, i + len(w), nil
	}
	return "", i, s.errorAt(i, "expected a name")
}

// exportStatement parses the declaration following an export keyword at
// module top level.
func (s *scanner) exportStatement(start int) error {
	s.moduleSyntax = true
	i, err := s.triviaEnd(s.pos)
	if err != nil {
		return err
	}
	if i >= len(s.src) {
		return s.errorAt(start, "unexpected end of input after export")
	}

	switch s.src[i] {
	case '*':
		return s.exportStar(start, i+1)
	case '{':
		return s.exportList(start, i)
	}

	switch w := s.wordAt(i); w {
	case "default":
		return s.exportDefault(i)
	case "var", "let", "const":
		s.pos = i + len(w)
		s.keyword(w)
		s.decl = declState{active: true, depth: len(s.stack)}
		return s.declarator()
	case "function", "class", "async":
		return s.exportNamedDeclaration(i)
	}
	return s.errorAt(i, "unexpected token after export")
}

// exportStar parses "export * from" and "export * as name from"; i follows
// the '*'.
func (s *scanner) exportStar(start, i int) error {
	j, err := s.triviaEnd(i)
	if err != nil {
		return err
	}
	if s.wordAt(j) == "as" {
		k, err := s.triviaEnd(j + len("as"))
		if err != nil {
			return err
		}
		name, nameEnd, err := s.propertyName(k)
		if err != nil {
			return err
		}
		s.exports = append(s.exports, Export{Name: name, Start: k, End: nameEnd})
		if j, err = s.triviaEnd(nameEnd); err != nil {
			return err
		}
	}
	if s.wordAt(j) != "from" {
		return s.errorAt(j, "expected from after export *")
	}
	q, err := s.triviaEnd(j + len("from"))
	if err != nil {
		return err
	}
	if q >= len(s.src) || !isQuote(s.src[q]) {
		return s.errorAt(start, "export statement is missing its specifier")
	}
	return s.finishStatic(Import{Kind: KindStatic, StatementStart: start}, q)
}

// exportList parses "export { a, b as c }" with an optional from clause; i
// is the offset of the '{'.
func (s *scanner) exportList(start, i int) error {
	var entries []Export
	j := i + 1
	for {
		var err error
		if j, err = s.triviaEnd(j); err != nil {
			return err
		}
		if j >= len(s.src) {
			return s.errorAt(i, "unterminated export list")
		}
		if s.src[j] == '}' {
			j++
			break
		}
		if s.src[j] == ',' {
			j++
			continue
		}

		local, localEnd, err := s.propertyName(j)
		if err != nil {
			return err
		}
		e := Export{Name: local, Local: local, Start: j, End: localEnd, LocalStart: j, LocalEnd: localEnd}
		k, err := s.triviaEnd(localEnd)
		if err != nil {
			return err
		}
		if s.wordAt(k) == "as" {
			if k, err = s.triviaEnd(k + len("as")); err != nil {
				return err
			}
			name, nameEnd, err := s.propertyName(k)
			if err != nil {
				return err
			}
			e.Name, e.Start, e.End = name, k, nameEnd
			k = nameEnd
		}
		entries = append(entries, e)
		j = k
	}

	k, err := s.triviaEnd(j)
	if err != nil {
		return err
	}
	if s.wordAt(k) == "from" {
		q, err := s.triviaEnd(k + len("from"))
		if err != nil {
			return err
		}
		if q >= len(s.src) || !isQuote(s.src[q]) {
			return s.errorAt(start, "export statement is missing its specifier")
		}
		for _, e := range entries {
			s.exports = append(s.exports, Export{Name: e.Name, Start: e.Start, End: e.End})
		}
		return s.finishStatic(Import{Kind: KindStatic, StatementStart: start}, q)
	}

	s.exports = append(s.exports, entries...)
	s.pos = j
	s.punct(";")
	return nil
}

// exportDefault records the default export; i is the offset of "default".
// The exported expression or declaration is left to the main loop.
func (s *scanner) exportDefault(i int) error {
	end := i + len("default")
	exp := Export{Name: "default", Start: i, End: end}

	j, err := s.triviaEnd(end)
	if err != nil {
		return err
	}
	w := s.wordAt(j)
	if w == "async" {
		if j, err = s.triviaEnd(j + len(w)); err != nil {
			return err
		}
		w = s.wordAt(j)
	}
	if w == "function" || w == "class" {
		n, err := s.triviaEnd(j + len(w))
		if err != nil {
			return err
		}
		if n < len(s.src) && s.src[n] == '*' {
			if n, err = s.triviaEnd(n + 1); err != nil {
				return err
			}
		}
		if name := s.wordAt(n); name != "" && name != "extends" {
			exp.Local, exp.LocalStart, exp.LocalEnd = name, n, n+len(name)
		}
	}

	s.exports = append(s.exports, exp)
	s.pos = end
	s.keyword("default")
	return nil
}

// exportNamedDeclaration records the name of an exported function or class.
func (s *scanner) exportNamedDeclaration(i int) error {
	w := s.wordAt(i)
	k := i
	if w == "async" {
		var err error
		if k, err = s.triviaEnd(i + len(w)); err != nil {
			return err
		}
		if w = s.wordAt(k); w != "function" {
			return s.errorAt(k, "expected function after export async")
		}
	}
	n, err := s.triviaEnd(k + len(w))
	if err != nil {
		return err
	}
	if w == "function" && n < len(s.src) && s.src[n] == '*' {
		if n, err = s.triviaEnd(n + 1); err != nil {
			return err
		}
	}
	name := s.wordAt(n)
	if name == "" {
		return s.errorAt(n, "exported declaration is missing a name")
	}
	end := n + len(name)
	s.exports = append(s.exports, Export{Name: name, Local: name, Start: n, End: end, LocalStart: n, LocalEnd: end})
	s.pending = append(s.pending, pendingBody{depth: len(s.stack), class: w == "class"})
	s.pos = end
	s.setClass(classIdent)
	return nil
}

// declarator records the names bound by the next declarator of an exported
// variable declaration.
func (s *scanner) declarator() error {
	names, end, err := s.bindingPattern(s.pos)
	if err != nil {
		return err
	}
	s.exports = append(s.exports, names...)
	s.pos = end
	s.setClass(classIdent)
	return nil
}

func (s *scanner) bindingPattern(i int) ([]Export, int, error) {
	i, err := s.triviaEnd(i)
	if err != nil {
		return nil, i, err
	}
	if i >= len(s.src) {
		return nil, i, s.errorAt(i, "expected a binding")
	}
	switch c := s.src[i]; {
	case c == '{':
		return s.objectPattern(i + 1)
	case c == '[':
		return s.arrayPattern(i + 1)
	case isIdentStart(c):
		end := s.identEnd(i)
		name := s.src[i:end]
		return []Export{{Name: name, Local: name, Start: i, End: end, LocalStart: i, LocalEnd: end}}, end, nil
	}
	return nil, i, s.errorAt(i, "expected a binding")
}

func (s *scanner) objectPattern(i int) ([]Export, int, error) {
	var out []Export
	for {
		var err error
		if i, err = s.triviaEnd(i); err != nil {
			return nil, i, err
		}
		if i >= len(s.src) {
			return nil, i, s.errorAt(i, "unterminated object pattern")
		}
		c := s.src[i]
		switch {
		case c == '}':
			return out, i + 1, nil
		case c == ',':
			i++
			continue
		case strings.HasPrefix(s.src[i:], "..."):
			names, end, err := s.bindingPattern(i + 3)
			if err != nil {
				return nil, end, err
			}
			out = append(out, names...)
			i = end
			continue
		}

		var keyEnd int
		switch {
		case isQuote(c):
			keyEnd, err = s.stringEnd(i)
		case c == '[':
			keyEnd, err = s.balancedEnd(i)
		case isIdentPart(c):
			keyEnd = s.identEnd(i)
		default:
			err = s.errorAt(i, "malformed object pattern")
		}
		if err != nil {
			return nil, i, err
		}

		j, err := s.triviaEnd(keyEnd)
		if err != nil {
			return nil, j, err
		}
		if j < len(s.src) && s.src[j] == ':' {
			names, end, err := s.bindingPattern(j + 1)
			if err != nil {
				return nil, end, err
			}
			out = append(out, names...)
			i = end
		} else {
			if !isIdentStart(c) {
				return nil, i, s.errorAt(i, "malformed object pattern")
			}
			name := s.src[i:keyEnd]
			out = append(out, Export{Name: name, Local: name, Start: i, End: keyEnd, LocalStart: i, LocalEnd: keyEnd})
			i = keyEnd
		}
		if i, err = s.skipDefault(i); err != nil {
			return nil, i, err
		}
	}
}

func (s *scanner) arrayPattern(i int) ([]Export, int, error) {
	var out []Export
	for {
		var err error
		if i, err = s.triviaEnd(i); err != nil {
			return nil, i, err
		}
		if i >= len(s.src) {
			return nil, i, s.errorAt(i, "unterminated array pattern")
		}
		switch {
		case s.src[i] == ']':
			return out, i + 1, nil
		case s.src[i] == ',':
			i++
			continue
		case strings.HasPrefix(s.src[i:], "..."):
			i += 3
		}
		names, end, err := s.bindingPattern(i)
		if err != nil {
			return nil, end, err
		}
		out = append(out, names...)
		if i, err = s.skipDefault(end); err != nil {
			return nil, i, err
		}
	}
}

// skipDefault skips a "= expression" default inside a binding pattern.
func (s *scanner) skipDefault(i int) (int, error) {
	j, err := s.triviaEnd(i)
	if err != nil {
		return j, err
	}
	if j >= len(s.src) || s.src[j] != '=' || strings.HasPrefix(s.src[j:], "==") || strings.HasPrefix(s.src[j:], "=>") {
		return i, nil
	}
	return s.expressionEnd(j + 1)
}

// expressionEnd returns the offset of the ',' or closing bracket that ends
// the expression starting at i.
func (s *scanner) expressionEnd(i int) (int, error) {
	for {
		var err error
		if i, err = s.triviaEnd(i); err != nil {
			return i, err
		}
		if i >= len(s.src) {
			return i, s.errorAt(i, "unexpected end of input in binding default")
		}
		switch c := s.src[i]; {
		case isQuote(c):
			i, err = s.stringEnd(i)
		case c == '`':
			i, err = s.templateEnd(i)
		case c == '(' || c == '[' || c == '{':
			i, err = s.balancedEnd(i)
		case c == ')' || c == ']' || c == '}' || c == ',':
			return i, nil
		default:
			i++
		}
		if err != nil {
			return i, err
		}
	}
}

// balancedEnd returns the offset just past the bracket matching the one at i.
func (s *scanner) balancedEnd(i int) (int, error) {
	start := i
	depth := 0
	for i < len(s.src) {
		var err error
		if i, err = s.triviaEnd(i); err != nil {
			return i, err
		}
		if i >= len(s.src) {
			break
		}
		switch c := s.src[i]; {
		case isQuote(c):
			i, err = s.stringEnd(i)
		case c == '`':
			i, err = s.templateEnd(i)
		case c == '(' || c == '[' || c == '{':
			depth++
			i++
		case c == ')' || c == ']' || c == '}':
			depth--
			i++
			if depth == 0 {
				return i, nil
			}
		default:
			i++
		}
		if err != nil {
			return i, err
		}
	}
	return i, s.errorAt(start, fmt.Sprintf("unclosed %q", s.src[start]))
}

// templateEnd returns the offset just past the template literal at i.
func (s *scanner) templateEnd(i int) (int, error) {
	start := i
	for i++; i < len(s.src); {
		switch s.src[i] {
		case '\\':
			i += 2
		case '`':
			return i + 1, nil
		case '$':
			if i+1 < len(s.src) && s.src[i+1] == '{' {
				end, err := s.balancedEnd(i + 1)
				if err != nil {
					return end, err
				}
				i = end
				continue
			}
			i++
		default:
			i++
		}
	}
	return i, s.errorAt(start, "unterminated template literal")
}

// unquote decodes the escape sequences of a string literal body.
func unquote(raw string) string {
	if !strings.Contains(raw, `\`) {
		return raw
	}
	var b strings.Builder
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		if c != '\\' || i+1 >= len(raw) {
			b.WriteByte(c)
			continue
		}
		i++
		switch raw[i] {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case 'b':
			b.WriteByte('\b')
		case 'f':
			b.WriteByte('\f')
		case 'v':
			b.WriteByte('\v')
		case '0':
			b.WriteByte(0)
		case '\r':
			if i+1 < len(raw) && raw[i+1] == '\n' {
				i++
			}
		case '\n':
		case 'x':
			if r, ok := parseHex(raw, i+1, i+3); ok {
				b.WriteRune(r)
				i += 2
				continue
			}
			b.WriteByte('x')
		case 'u':
			if i+1 < len(raw) && raw[i+1] == '{' {
				if end := strings.IndexByte(raw[i:], '}'); end > 0 {
					if r, ok := parseHex(raw, i+2, i+end); ok {
						b.WriteRune(r)
						i += end
						continue
					}
				}
			} else if r, ok := parseHex(raw, i+1, i+5); ok {
				b.WriteRune(r)
				i += 4
				continue
			}
			b.WriteByte('u')
		default:
			r, size := utf8.DecodeRuneInString(raw[i:])
			b.WriteRune(r)
			i += size - 1
		}
	}
	return b.String()
}

func parseHex(raw string, from, to int) (rune, bool) {
	if from >= to || to > len(raw) {
		return 0, false
	}
	v, err := strconv.ParseUint(raw[from:to], 16, 32)
	if err != nil || v > utf8.MaxRune {
		return 0, false
	}
	return rune(v), true
}
