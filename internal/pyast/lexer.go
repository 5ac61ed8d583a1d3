package pyast

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokNewline
	tokIndent
	tokDedent
	tokName
	tokNumber
	tokString
	tokOp
)

type token struct {
	kind tokenKind
	text string
	line int
	col  int
	num  float64
}

func (t token) String() string {
	switch t.kind {
	case tokEOF:
		return "end of file"
	case tokNewline:
		return "end of line"
	case tokIndent:
		return "indent"
	case tokDedent:
		return "dedent"
	}
	return fmt.Sprintf("%q", t.text)
}

type lexer struct {
	src     []rune
	i       int
	line    int
	col     int
	depth   int // open bracket depth; newlines are insignificant inside
	indents []int
	toks    []token
}

func lex(src string) ([]token, error) {
	lx := &lexer{src: []rune(src), line: 1, col: 1, indents: []int{0}}
	atLineStart := true
	for {
		if atLineStart && lx.depth == 0 {
			if err := lx.lexLineStart(); err != nil {
				return nil, err
			}
			atLineStart = false
		}
		c := lx.ch()
		if c == 0 {
			break
		}
		switch {
		case c == '#':
			lx.skipToEOL()
		case c == '\r':
			lx.adv()
		case c == '\n':
			if lx.depth > 0 {
				lx.advNL()
				continue
			}
			lx.emit(tokNewline, "\n", lx.line, lx.col)
			lx.advNL()
			atLineStart = true
		case c == '\\' && (lx.at(1) == '\n' || (lx.at(1) == '\r' && lx.at(2) == '\n')):
			lx.adv()
			if lx.ch() == '\r' {
				lx.adv()
			}
			lx.advNL()
		case c == ' ' || c == '\t':
			lx.adv()
		case isIdentStart(c):
			if err := lx.lexNameOrString(); err != nil {
				return nil, err
			}
		case unicode.IsDigit(c) || (c == '.' && unicode.IsDigit(lx.at(1))):
			if err := lx.lexNumber(); err != nil {
				return nil, err
			}
		case c == '"' || c == '\'':
			if err := lx.lexString(lx.line, lx.col, lx.i); err != nil {
				return nil, err
			}
		default:
			if err := lx.lexOp(); err != nil {
				return nil, err
			}
		}
	}
	// Close the last logical line and any open blocks.
	if n := len(lx.toks); n > 0 {
		switch lx.toks[n-1].kind {
		case tokNewline, tokIndent, tokDedent:
		default:
			lx.emit(tokNewline, "\n", lx.line, lx.col)
		}
	}
	for len(lx.indents) > 1 {
		lx.indents = lx.indents[:len(lx.indents)-1]
		lx.emit(tokDedent, "", lx.line, lx.col)
	}
	lx.emit(tokEOF, "", lx.line, lx.col)
	return lx.toks, nil
}

func (lx *lexer) ch() rune {
	if lx.i >= len(lx.src) {
		return 0
	}
	return lx.src[lx.i]
}

func (lx *lexer) at(k int) rune {
	if lx.i+k >= len(lx.src) {
		return 0
	}
	return lx.src[lx.i+k]
}

func (lx *lexer) adv() {
	lx.i++
	lx.col++
}

func (lx *lexer) advNL() {
	lx.i++
	lx.line++
	lx.col = 1
}

func (lx *lexer) skipToEOL() {
	for lx.ch() != 0 && lx.ch() != '\n' {
		lx.adv()
	}
}

func (lx *lexer) emit(kind tokenKind, text string, line, col int) {
	lx.toks = append(lx.toks, token{kind: kind, text: text, line: line, col: col})
}

// lexLineStart measures the indentation of the next content line, skipping
// blank and comment-only lines entirely, and emits INDENT/DEDENT tokens.
// Tab stops are every 8 columns, matching CPython's tokenizer.
func (lx *lexer) lexLineStart() error {
	for {
		width := 0
		for {
			c := lx.ch()
			if c == ' ' {
				width++
				lx.adv()
			} else if c == '\t' {
				width += 8 - width%8
				lx.adv()
			} else {
				break
			}
		}
		c := lx.ch()
		if c == 0 {
			return nil
		}
		if c == '#' {
			lx.skipToEOL()
			c = lx.ch()
		}
		if c == '\r' {
			lx.adv()
			c = lx.ch()
		}
		if c == '\n' {
			lx.advNL()
			continue
		}
		top := lx.indents[len(lx.indents)-1]
		if width > top {
			lx.indents = append(lx.indents, width)
			lx.emit(tokIndent, "", lx.line, lx.col)
			return nil
		}
		for width < lx.indents[len(lx.indents)-1] {
			lx.indents = lx.indents[:len(lx.indents)-1]
			lx.emit(tokDedent, "", lx.line, lx.col)
		}
		if width != lx.indents[len(lx.indents)-1] {
			return &SyntaxError{
				Msg:  "unindent does not match any outer indentation level",
				Line: lx.line,
				Col:  lx.col,
			}
		}
		return nil
	}
}

func isIdentStart(c rune) bool {
	return c == '_' || unicode.IsLetter(c)
}

func isIdentPart(c rune) bool {
	return c == '_' || unicode.IsLetter(c) || unicode.IsDigit(c)
}

// String literal prefixes (any case, any order of r/b/f/u combinations).
var stringPrefixes = map[string]bool{
	"r": true, "b": true, "u": true, "f": true,
	"rb": true, "br": true, "fr": true, "rf": true,
}

func (lx *lexer) lexNameOrString() error {
	line, col, start := lx.line, lx.col, lx.i
	for isIdentPart(lx.ch()) {
		lx.adv()
	}
	text := string(lx.src[start:lx.i])
	c := lx.ch()
	if (c == '"' || c == '\'') && stringPrefixes[strings.ToLower(text)] {
		return lx.lexString(line, col, start)
	}
	lx.emit(tokName, text, line, col)
	return nil
}

// lexString scans a quoted literal starting at the current quote character.
// start is the rune offset of the literal (including any prefix) so that the
// token text carries the raw source form.
func (lx *lexer) lexString(line, col, start int) error {
	quote := lx.ch()
	lx.adv()
	triple := false
	if lx.ch() == quote && lx.at(1) == quote {
		triple = true
		lx.adv()
		lx.adv()
	}
	for {
		c := lx.ch()
		switch {
		case c == 0:
			return &SyntaxError{Msg: "unterminated string literal", Line: line, Col: col}
		case c == '\\':
			lx.adv()
			if lx.ch() == '\n' {
				lx.advNL()
			} else if lx.ch() != 0 {
				lx.adv()
			}
		case c == '\n':
			if !triple {
				return &SyntaxError{Msg: "unterminated string literal", Line: line, Col: col}
			}
			lx.advNL()
		case c == quote:
			if triple {
				if lx.at(1) == quote && lx.at(2) == quote {
					lx.adv()
					lx.adv()
					lx.adv()
					lx.emit(tokString, string(lx.src[start:lx.i]), line, col)
					return nil
				}
				lx.adv()
				continue
			}
			lx.adv()
			lx.emit(tokString, string(lx.src[start:lx.i]), line, col)
			return nil
		default:
			lx.adv()
		}
	}
}

func (lx *lexer) lexNumber() error {
	line, col, start := lx.line, lx.col, lx.i
	base := 0
	if lx.ch() == '0' {
		switch lx.at(1) {
		case 'x', 'X':
			base = 16
		case 'o', 'O':
			base = 8
		case 'b', 'B':
			base = 2
		}
	}
	if base != 0 {
		lx.adv()
		lx.adv()
		digits := 0
		for isBaseDigit(lx.ch(), base) || lx.ch() == '_' {
			if lx.ch() != '_' {
				digits++
			}
			lx.adv()
		}
		if digits == 0 {
			return &SyntaxError{Msg: "invalid number literal", Line: line, Col: col}
		}
		text := string(lx.src[start:lx.i])
		clean := strings.ReplaceAll(text[2:], "_", "")
		var num float64
		if v, err := strconv.ParseUint(clean, base, 64); err == nil {
			num = float64(v)
		}
		lx.toks = append(lx.toks, token{kind: tokNumber, text: text, line: line, col: col, num: num})
		return nil
	}
	for unicode.IsDigit(lx.ch()) || lx.ch() == '_' {
		lx.adv()
	}
	if lx.ch() == '.' && (unicode.IsDigit(lx.at(1)) || !isIdentStart(lx.at(1))) {
		lx.adv()
		for unicode.IsDigit(lx.ch()) || lx.ch() == '_' {
			lx.adv()
		}
	}
	if lx.ch() == 'e' || lx.ch() == 'E' {
		if unicode.IsDigit(lx.at(1)) || ((lx.at(1) == '+' || lx.at(1) == '-') && unicode.IsDigit(lx.at(2))) {
			lx.adv()
			if lx.ch() == '+' || lx.ch() == '-' {
				lx.adv()
			}
			for unicode.IsDigit(lx.ch()) {
				lx.adv()
			}
		}
	}
	imag := false
	if lx.ch() == 'j' || lx.ch() == 'J' {
		imag = true
		lx.adv()
	}
	text := string(lx.src[start:lx.i])
	clean := strings.ReplaceAll(text, "_", "")
	if imag {
		clean = clean[:len(clean)-1]
	}
	var num float64
	if v, err := strconv.ParseFloat(clean, 64); err == nil {
		num = v
	}
	lx.toks = append(lx.toks, token{kind: tokNumber, text: text, line: line, col: col, num: num})
	return nil
}

func isBaseDigit(c rune, base int) bool {
	switch base {
	case 16:
		return unicode.IsDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
	case 8:
		return c >= '0' && c <= '7'
	case 2:
		return c == '0' || c == '1'
	}
	return unicode.IsDigit(c)
}

// Longest-match-first operator table.
var operators = []string{
	"**=", "//=", ">>=", "<<=", "...",
	"**", "//", ">>", "<<", "<=", ">=", "==", "!=", "->", ":=",
	"+=", "-=", "*=", "/=", "%=", "&=", "|=", "^=", "@=",
	"+", "-", "*", "/", "%", "@", "&", "|", "^", "~", "<", ">",
	"(", ")", "[", "]", "{", "}", ",", ":", ".", ";", "=",
}

func (lx *lexer) lexOp() error {
	for _, op := range operators {
		if lx.hasPrefix(op) {
			line, col := lx.line, lx.col
			for range op {
				lx.adv()
			}
			switch op {
			case "(", "[", "{":
				lx.depth++
			case ")", "]", "}":
				if lx.depth > 0 {
					lx.depth--
				}
			}
			lx.emit(tokOp, op, line, col)
			return nil
		}
	}
	return &SyntaxError{
		Msg:  fmt.Sprintf("invalid character %q", lx.ch()),
		Line: lx.line,
		Col:  lx.col,
	}
}

func (lx *lexer) hasPrefix(op string) bool {
	for k, r := range op {
		if lx.at(k) != r {
			return false
		}
	}
	return true
}
