package lexer

// tokenClass is the class of the most recent significant token.
type tokenClass int

const (
	classStart           tokenClass = iota // nothing scanned yet
	classPunct                             // operators and opening punctuators
	classKeyword                           // reserved words that may precede an expression
	classIdent                             // identifiers, property names, this, super, null, true, false
	classLiteral                           // numbers, strings, templates, regular expressions
	classCloseBracket                      // ]
	classCloseParen                        // ) of a call, grouping or parameter list
	classCloseParenCond                    // ) of if (...), for (...), while (...), with (...)
	classCloseBraceExpr                    // } of an object literal, function or class expression
	classCloseBraceBlock                   // } of a block, function or class declaration
	classPostfix                           // ++ or -- following an operand
	numClasses
)

type slashMeaning int

const (
	slashRegex slashMeaning = iota
	slashDivide
)

// slashTable gives the meaning of a '/' by the class of the token before it.
// An operand before the slash makes it a division; anything that leaves the
// parser expecting an operand makes it the start of a regular expression.
//
//	preceding token                        next '/'
//	start of input                         regex
//	operator or opening punctuator         regex     = ( [ { , ; ! ? : => ...
//	keyword                                regex     return typeof case in of ...
//	identifier or literal word             division  x this null
//	literal                                division  1 'a' `t` /r/
//	]                                      division
//	) of a call or group                   division
//	) of if/for/while/with head            regex
//	} of an object literal                 division
//	} of a function or class expression    division
//	} of a block or declaration body       regex
//	postfix ++ or --                       division
var slashTable = [numClasses]slashMeaning{
	classStart:           slashRegex,
	classPunct:           slashRegex,
	classKeyword:         slashRegex,
	classIdent:           slashDivide,
	classLiteral:         slashDivide,
	classCloseBracket:    slashDivide,
	classCloseParen:      slashDivide,
	classCloseParenCond:  slashRegex,
	classCloseBraceExpr:  slashDivide,
	classCloseBraceBlock: slashRegex,
	classPostfix:         slashDivide,
}

// keywords are the reserved words scanned as classKeyword. Words outside this
// set, and any word following '.' or '?.', are identifiers.
var keywords = map[string]bool{
	"await": true, "break": true, "case": true, "catch": true, "class": true,
	"const": true, "continue": true, "debugger": true, "default": true,
	"delete": true, "do": true, "else": true, "enum": true, "export": true,
	"extends": true, "finally": true, "for": true, "function": true, "if": true,
	"import": true, "in": true, "instanceof": true, "let": true, "new": true,
	"return": true, "static": true, "switch": true, "throw": true,
	"try": true, "typeof": true, "var": true, "void": true, "while": true,
	"with": true, "yield": true,
}

// literalWords are reserved words that are operands.
var literalWords = map[string]bool{
	"this": true, "super": true, "null": true, "true": true, "false": true,
}

// conditionKeywords head a parenthesized expression that is followed by a
// statement rather than an operator.
var conditionKeywords = map[string]bool{
	"if": true, "for": true, "while": true, "with": true,
}

// expressionKeywords are followed by an expression, so a '{' after one of
// them opens an object literal.
var expressionKeywords = map[string]bool{
	"return": true, "typeof": true, "instanceof": true, "in": true,
	"new": true, "delete": true, "void": true, "throw": true, "case": true,
	"yield": true, "await": true, "extends": true, "default": true,
}

// braceOpensExpression decides whether a '{' at the current position opens
// an object literal rather than a block.
func (s *scanner) braceOpensExpression() bool {
	switch s.last {
	case classPunct:
		switch s.lastPunct {
		case ";", "{", "=>":
			return false
		}
		return true
	case classKeyword:
		return expressionKeywords[s.lastWord]
	default:
		return false
	}
}

// operandExpected reports whether the parser expects an expression operand
// at the current position rather than the start of a statement. A function
// or class keyword in that position begins an expression.
func (s *scanner) operandExpected() bool {
	switch s.last {
	case classPunct:
		switch s.lastPunct {
		case ";", "{":
			return false
		}
		return true
	case classKeyword:
		return expressionKeywords[s.lastWord] && s.lastWord != "default"
	case classIdent:
		return s.lastWord == "async" && s.asyncOperand
	default:
		return false
	}
}

// memberPrefixes are words that may precede a method name.
var memberPrefixes = map[string]bool{
	"static": true, "get": true, "set": true, "async": true,
}

// methodName reports whether the word ending at i names a class or object
// literal method, as in "class A { import() {} }": it sits where a member
// begins and its parameter list is followed by a body.
func (s *scanner) methodName(i int) bool {
	return s.memberPosition() && s.hasMethodBody(i)
}

func (s *scanner) hasMethodBody(i int) bool {
	i, err := s.triviaEnd(i)
	if err != nil || i >= len(s.src) || s.src[i] != '(' {
		return false
	}
	if i, err = s.balancedEnd(i); err != nil {
		return false
	}
	i, err = s.triviaEnd(i)
	return err == nil && i < len(s.src) && s.src[i] == '{'
}

func (s *scanner) memberPosition() bool {
	if len(s.stack) == 0 {
		return false
	}
	switch s.stack[len(s.stack)-1].kind {
	case openClassBody, openClassExprBody:
		switch s.last {
		case classPunct:
			return s.lastPunct == "{" || s.lastPunct == ";" || s.lastPunct == "*"
		case classCloseBraceBlock, classCloseBraceExpr:
			return true
		case classKeyword, classIdent:
			return memberPrefixes[s.lastWord]
		}
	case openExprBrace:
		switch s.last {
		case classPunct:
			return s.lastPunct == "{" || s.lastPunct == ","
		case classIdent:
			return memberPrefixes[s.lastWord]
		}
	}
	return false
}
