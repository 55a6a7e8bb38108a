package lexer

import (
	"fmt"
	"strings"
)

type openerKind int

const (
	openParen       openerKind = iota
	openCondParen              // ( after if, for, while, with
	openImportParen            // ( of import() or import.source()
	openBracket
	openBlock
	openExprBrace
	openFuncExprBody  // body of a function expression
	openClassBody     // body of a class declaration
	openClassExprBody // body of a class expression
	openTemplate      // ${ inside a template literal
)

type opener struct {
	ch        byte
	kind      openerKind
	pos       int
	importIdx int
}

// pendingBody is a function or class head whose body brace has not been
// scanned yet. The body is the first '{' opened at depth.
type pendingBody struct {
	depth int
	class bool
	expr  bool
}

// declState tracks an exported variable declaration so that later
// declarators separated by commas are reported too.
type declState struct {
	active bool
	depth  int
}

type scanner struct {
	src string
	pos int

	last      tokenClass
	lastWord  string
	lastPunct string
	// newline is set when the trivia before the current token contained a
	// line terminator.
	newline bool

	stack   []opener
	pending []pendingBody
	decl    declState
	// asyncOperand is set when the last "async" sits where an operand is
	// expected, so a following function keyword begins an expression.
	asyncOperand bool

	imports      []Import
	exports      []Export
	moduleSyntax bool
}

func newScanner(src string) *scanner {
	return &scanner{src: src, last: classStart}
}

func (s *scanner) errorAt(offset int, msg string) error {
	return newSourceParseError(s.src, offset, msg)
}

func (s *scanner) setClass(c tokenClass) {
	s.last, s.lastWord, s.lastPunct = c, "", ""
}

func (s *scanner) punct(p string) {
	s.last, s.lastWord, s.lastPunct = classPunct, "", p
}

func (s *scanner) keyword(w string) {
	s.last, s.lastWord, s.lastPunct = classKeyword, w, ""
}

func (s *scanner) ident(w string) {
	s.last, s.lastWord, s.lastPunct = classIdent, w, ""
}

func (s *scanner) run() error {
	if strings.HasPrefix(s.src, "#!") {
		if nl := strings.IndexByte(s.src, '\n'); nl >= 0 {
			s.pos = nl
		} else {
			s.pos = len(s.src)
		}
	}
	for {
		if err := s.skipTrivia(); err != nil {
			return err
		}
		if s.pos >= len(s.src) {
			break
		}
		if s.decl.active && s.newline && len(s.stack) == s.decl.depth &&
			slashTable[s.last] == slashDivide && !continuesExpression(s.src[s.pos]) {
			s.decl.active = false
		}
		if err := s.next(); err != nil {
			return err
		}
	}
	if len(s.stack) > 0 {
		top := s.stack[len(s.stack)-1]
		if top.kind == openTemplate {
			return s.errorAt(top.pos, "unterminated template literal")
		}
		return s.errorAt(top.pos, fmt.Sprintf("unclosed %q", top.ch))
	}
	return nil
}

// continuesExpression reports whether a token starting with c, placed at the
// start of a line, continues the expression on the previous line.
func continuesExpression(c byte) bool {
	return strings.IndexByte(",.=+-*/%&|^?:<>([`", c) >= 0
}

func (s *scanner) next() error {
	c := s.src[s.pos]
	switch {
	case isQuote(c):
		end, err := s.stringEnd(s.pos)
		if err != nil {
			return err
		}
		s.pos = end
		s.setClass(classLiteral)
	case c == '`':
		return s.template(s.pos, s.pos+1)
	case c == '/':
		if slashTable[s.last] == slashRegex {
			end, err := s.regexEnd(s.pos)
			if err != nil {
				return err
			}
			s.pos = end
			s.setClass(classLiteral)
			return nil
		}
		s.pos++
		if s.pos < len(s.src) && s.src[s.pos] == '=' {
			s.pos++
		}
		s.punct("/")
	case isDigit(c) || (c == '.' && s.pos+1 < len(s.src) && isDigit(s.src[s.pos+1])):
		s.pos = s.numberEnd(s.pos)
		s.setClass(classLiteral)
	case isIdentStart(c):
		return s.word()
	case c == '(' || c == '[' || c == '{':
		s.open(c)
	case c == ')' || c == ']' || c == '}':
		return s.close(c)
	default:
		return s.operator()
	}
	return nil
}

func (s *scanner) open(c byte) {
	o := opener{ch: c, pos: s.pos}
	switch c {
	case '(':
		o.kind = openParen
		if s.last == classKeyword && conditionKeywords[s.lastWord] {
			o.kind = openCondParen
		}
	case '[':
		o.kind = openBracket
	case '{':
		o.kind = openBlock
		if body, ok := s.takeBody(); ok {
			switch {
			case body.class && body.expr:
				o.kind = openClassExprBody
			case body.class:
				o.kind = openClassBody
			case body.expr:
				o.kind = openFuncExprBody
			}
		} else if s.braceOpensExpression() {
			o.kind = openExprBrace
		}
	}
	s.stack = append(s.stack, o)
	s.pos++
	s.punct(string(c))
}

func closerFor(open byte) byte {
	switch open {
	case '(':
		return ')'
	case '[':
		return ']'
	default:
		return '}'
	}
}

func (s *scanner) close(c byte) error {
	if len(s.stack) == 0 {
		return s.errorAt(s.pos, fmt.Sprintf("unexpected %q", c))
	}
	top := s.stack[len(s.stack)-1]
	if want := closerFor(top.ch); want != c {
		return s.errorAt(s.pos, fmt.Sprintf("unexpected %q, expected %q", c, want))
	}
	s.stack = s.stack[:len(s.stack)-1]
	s.pos++
	s.dropPending()
	switch top.kind {
	case openTemplate:
		return s.template(top.pos, s.pos)
	case openCondParen:
		s.setClass(classCloseParenCond)
	case openImportParen:
		s.imports[top.importIdx].StatementEnd = s.pos
		s.setClass(classCloseParen)
	case openParen:
		s.setClass(classCloseParen)
	case openBracket:
		s.setClass(classCloseBracket)
	case openExprBrace, openFuncExprBody, openClassExprBody:
		s.setClass(classCloseBraceExpr)
	default:
		s.setClass(classCloseBraceBlock)
	}
	return nil
}

func (s *scanner) operator() error {
	rest := s.src[s.pos:]
	switch {
	case strings.HasPrefix(rest, "++"), strings.HasPrefix(rest, "--"):
		s.pos += 2
		if slashTable[s.last] == slashDivide {
			s.setClass(classPostfix)
		} else {
			s.punct(rest[:2])
		}
		return nil
	case strings.HasPrefix(rest, "=>"), strings.HasPrefix(rest, "..."):
		n := 2
		if rest[0] == '.' {
			n = 3
		}
		s.pos += n
		s.punct(rest[:n])
		return nil
	case strings.HasPrefix(rest, "?.") && !(len(rest) > 2 && isDigit(rest[2])):
		s.pos += 2
		s.punct("?.")
		return nil
	}

	s.pos++
	s.punct(rest[:1])
	if s.decl.active && len(s.stack) == s.decl.depth {
		switch rest[0] {
		case ';':
			s.decl.active = false
		case ',':
			return s.declarator()
		}
	}
	return nil
}

func (s *scanner) word() error {
	start := s.pos
	end := s.identEnd(start)
	w := s.src[start:end]
	propertyName := s.last == classPunct && (s.lastPunct == "." || s.lastPunct == "?.")
	s.pos = end

	if w == "async" {
		s.asyncOperand = s.operandExpected()
	}
	if !propertyName && !(w == "import" && s.methodName(end)) {
		switch w {
		case "import":
			handled, err := s.importKeyword(start)
			if err != nil || handled {
				return err
			}
		case "export":
			if len(s.stack) == 0 {
				return s.exportStatement(start)
			}
		}
	}

	switch {
	case propertyName, !keywords[w], literalWords[w]:
		s.ident(w)
	default:
		if w == "function" || w == "class" {
			s.pending = append(s.pending, pendingBody{
				depth: len(s.stack),
				class: w == "class",
				expr:  s.operandExpected(),
			})
		}
		s.keyword(w)
	}
	return nil
}

// takeBody pops the pending function or class head whose body opens at the
// current depth.
func (s *scanner) takeBody() (pendingBody, bool) {
	n := len(s.pending)
	if n == 0 || s.pending[n-1].depth != len(s.stack) {
		return pendingBody{}, false
	}
	body := s.pending[n-1]
	s.pending = s.pending[:n-1]
	return body, true
}

// dropPending discards heads left deeper than the current depth, such as
// the head of a malformed expression.
func (s *scanner) dropPending() {
	for n := len(s.pending); n > 0 && s.pending[n-1].depth > len(s.stack); n-- {
		s.pending = s.pending[:n-1]
	}
}

// triviaEnd returns the offset of the first byte at or after i that is not
// whitespace or part of a comment.
func (s *scanner) triviaEnd(i int) (int, error) {
	for i < len(s.src) {
		c := s.src[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\v' || c == '\f':
			i++
		case c == '/' && i+1 < len(s.src) && s.src[i+1] == '/':
			nl := strings.IndexByte(s.src[i:], '\n')
			if nl < 0 {
				return len(s.src), nil
			}
			i += nl
		case c == '/' && i+1 < len(s.src) && s.src[i+1] == '*':
			end := strings.Index(s.src[i+2:], "*/")
			if end < 0 {
				return i, s.errorAt(i, "unterminated comment")
			}
			i += end + 4
		case c >= 0x80:
			n := unicodeSpaceLen(s.src[i:])
			if n == 0 {
				return i, nil
			}
			i += n
		default:
			return i, nil
		}
	}
	return i, nil
}

var unicodeSpaces = []string{"\u00a0", "\ufeff", "\u2028", "\u2029", "\u202f", "\u3000"}

func unicodeSpaceLen(s string) int {
	for _, sp := range unicodeSpaces {
		if strings.HasPrefix(s, sp) {
			return len(sp)
		}
	}
	return 0
}

func (s *scanner) skipTrivia() error {
	end, err := s.triviaEnd(s.pos)
	if err != nil {
		return err
	}
	s.newline = strings.ContainsAny(s.src[s.pos:end], "\n\r\u2028\u2029")
	s.pos = end
	return nil
}

// stringEnd returns the offset just past the string literal starting at i.
func (s *scanner) stringEnd(i int) (int, error) {
	q := s.src[i]
	for j := i + 1; j < len(s.src); j++ {
		switch s.src[j] {
		case '\\':
			if strings.HasPrefix(s.src[j+1:], "\r\n") {
				j++
			}
			j++
		case q:
			return j + 1, nil
		case '\n', '\r':
			return j, s.errorAt(i, "unterminated string literal")
		}
	}
	return len(s.src), s.errorAt(i, "unterminated string literal")
}

// template scans a template literal chunk starting at i, where start is the
// offset reported if the chunk is unterminated. A "${" pushes a template
// opener and returns to the main loop; the matching '}' resumes here.
func (s *scanner) template(start, i int) error {
	for i < len(s.src) {
		switch s.src[i] {
		case '\\':
			i += 2
		case '`':
			s.pos = i + 1
			s.setClass(classLiteral)
			return nil
		case '$':
			if i+1 < len(s.src) && s.src[i+1] == '{' {
				s.stack = append(s.stack, opener{ch: '{', kind: openTemplate, pos: start})
				s.pos = i + 2
				s.punct("${")
				return nil
			}
			i++
		default:
			i++
		}
	}
	return s.errorAt(start, "unterminated template literal")
}

// regexEnd returns the offset just past the regular expression literal,
// including flags, starting at i.
func (s *scanner) regexEnd(i int) (int, error) {
	inClass := false
	for j := i + 1; j < len(s.src); j++ {
		switch s.src[j] {
		case '\\':
			j++
		case '[':
			inClass = true
		case ']':
			inClass = false
		case '/':
			if !inClass {
				return s.identEnd(j + 1), nil
			}
		case '\n', '\r':
			return j, s.errorAt(i, "unterminated regular expression")
		}
	}
	return len(s.src), s.errorAt(i, "unterminated regular expression")
}

func (s *scanner) numberEnd(i int) int {
	hex := strings.HasPrefix(s.src[i:], "0x") || strings.HasPrefix(s.src[i:], "0X")
	for j := i; j < len(s.src); j++ {
		c := s.src[j]
		switch {
		case isIdentPart(c) || c == '.':
		case (c == '+' || c == '-') && !hex && j > i && (s.src[j-1] == 'e' || s.src[j-1] == 'E'):
		default:
			return j
		}
	}
	return len(s.src)
}

func (s *scanner) identEnd(i int) int {
	for i < len(s.src) && isIdentPart(s.src[i]) {
		if s.src[i] == '\\' {
			i++
		}
		i++
	}
	if i > len(s.src) {
		return len(s.src)
	}
	return i
}

// wordAt returns the identifier starting at i, or "".
func (s *scanner) wordAt(i int) string {
	if i >= len(s.src) || !isIdentStart(s.src[i]) {
		return ""
	}
	return s.src[i:s.identEnd(i)]
}

func isQuote(c byte) bool {
	return c == '\'' || c == '"'
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isIdentStart(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '_' || c == '$' || c == '#' || c == '\\' || c >= 0x80
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || isDigit(c)
}
