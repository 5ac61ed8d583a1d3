package pyast

import (
	"fmt"
	"strings"
)

// Parse parses Python source into a Module node. On malformed input the
// returned error is a *SyntaxError carrying the offending token's position.
func Parse(src string) (*Node, error) {
	toks, err := lex(src)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	body, err := p.parseStatements(false)
	if err != nil {
		return nil, err
	}
	mod := &Node{Kind: KindModule, Pos: Position{Line: 1, Col: 1}, Body: body}
	mod.End = p.lastEnd()
	return mod, nil
}

type parser struct {
	toks []token
	pos  int
}

func (p *parser) cur() token {
	if p.pos >= len(p.toks) {
		return p.toks[len(p.toks)-1] // EOF sentinel
	}
	return p.toks[p.pos]
}

func (p *parser) advance() token {
	t := p.cur()
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *parser) lastEnd() Position {
	if p.pos == 0 {
		return Position{Line: 1, Col: 1}
	}
	t := p.toks[p.pos-1]
	end := t.col + len([]rune(t.text)) - 1
	if end < t.col {
		end = t.col
	}
	return Position{Line: t.line, Col: end}
}

func (p *parser) isOp(text string) bool {
	t := p.cur()
	return t.kind == tokOp && t.text == text
}

func (p *parser) acceptOp(text string) bool {
	if p.isOp(text) {
		p.advance()
		return true
	}
	return false
}

func (p *parser) expectOp(text string) error {
	if !p.acceptOp(text) {
		return p.errf("expected %q, got %s", text, p.cur())
	}
	return nil
}

func (p *parser) isKw(word string) bool {
	t := p.cur()
	return t.kind == tokName && t.text == word
}

func (p *parser) acceptKw(word string) bool {
	if p.isKw(word) {
		p.advance()
		return true
	}
	return false
}

func (p *parser) errf(format string, args ...any) error {
	t := p.cur()
	return &SyntaxError{Msg: fmt.Sprintf(format, args...), Line: t.line, Col: t.col}
}

func pos(t token) Position { return Position{Line: t.line, Col: t.col} }

// parseStatements consumes statements until EOF or, when insideBlock, the
// closing DEDENT.
func (p *parser) parseStatements(insideBlock bool) ([]*Node, error) {
	var out []*Node
	for {
		switch p.cur().kind {
		case tokNewline:
			p.advance()
			continue
		case tokEOF:
			return out, nil
		case tokDedent:
			if insideBlock {
				p.advance()
				return out, nil
			}
			p.advance()
			continue
		case tokIndent:
			return nil, p.errf("unexpected indent")
		}
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		out = append(out, stmt...)
	}
}

// parseStatement returns one or more statements (a simple statement line may
// hold several, separated by semicolons).
func (p *parser) parseStatement() ([]*Node, error) {
	var decorators []*Node
	for p.isOp("@") {
		p.advance()
		d, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		decorators = append(decorators, d)
		if p.cur().kind == tokNewline {
			p.advance()
		}
	}

	// "async" is only a keyword directly before def/for/with.
	if p.isKw("async") {
		if k := p.peekName(); k == "def" || k == "for" || k == "with" {
			p.advance()
		}
	}

	switch {
	case p.isKw("def"):
		n, err := p.parseFunctionDef(decorators)
		return one(n), err
	case p.isKw("class"):
		n, err := p.parseClassDef(decorators)
		return one(n), err
	case len(decorators) > 0:
		return nil, p.errf("expected function or class definition after decorator")
	case p.isKw("if"):
		n, err := p.parseIf()
		return one(n), err
	case p.isKw("while"):
		n, err := p.parseWhile()
		return one(n), err
	case p.isKw("for"):
		n, err := p.parseFor()
		return one(n), err
	case p.isKw("try"):
		n, err := p.parseTry()
		return one(n), err
	case p.isKw("with"):
		n, err := p.parseWith()
		return one(n), err
	}
	return p.parseSimpleLine()
}

func one(n *Node) []*Node {
	if n == nil {
		return nil
	}
	return []*Node{n}
}

func (p *parser) peekName() string {
	if p.pos+1 < len(p.toks) && p.toks[p.pos+1].kind == tokName {
		return p.toks[p.pos+1].text
	}
	return ""
}

func (p *parser) parseFunctionDef(decorators []*Node) (*Node, error) {
	start := p.advance() // def
	nameTok := p.cur()
	if nameTok.kind != tokName {
		return nil, p.errf("expected function name, got %s", nameTok)
	}
	p.advance()
	if err := p.expectOp("("); err != nil {
		return nil, err
	}
	params, err := p.parseParams(")")
	if err != nil {
		return nil, err
	}
	if err := p.expectOp(")"); err != nil {
		return nil, err
	}
	if p.acceptOp("->") {
		if _, err := p.parseExpression(); err != nil { // return annotation, discarded
			return nil, err
		}
	}
	body, err := p.parseSuite()
	if err != nil {
		return nil, err
	}
	n := &Node{
		Kind:   KindFunctionDef,
		Pos:    pos(start),
		Name:   nameTok.text,
		Params: params,
		Items:  decorators,
		Body:   body,
	}
	n.End = blockEnd(body, p.lastEnd())
	return n, nil
}

// parseParams parses a parameter list up to (not consuming) the closer,
// which is ")" for def/call position or ":" for lambda.
func (p *parser) parseParams(closer string) ([]Param, error) {
	var params []Param
	for !p.isOp(closer) {
		t := p.cur()
		var prm Param
		prm.Pos = pos(t)
		switch {
		case p.acceptOp("**"):
			nt := p.cur()
			if nt.kind != tokName {
				return nil, p.errf("expected parameter name after '**', got %s", nt)
			}
			p.advance()
			prm.Name = nt.text
			prm.DoubleStar = true
		case p.acceptOp("*"):
			if p.cur().kind == tokName {
				nt := p.advance()
				prm.Name = nt.text
				prm.Star = true
			} else {
				// bare * keyword-only marker
				if !p.isOp(",") && !p.isOp(closer) {
					return nil, p.errf("expected ',' or %q after '*', got %s", closer, p.cur())
				}
				if p.acceptOp(",") {
					continue
				}
				continue
			}
		case p.acceptOp("/"):
			// positional-only marker
			if p.acceptOp(",") {
				continue
			}
			continue
		case t.kind == tokName:
			p.advance()
			prm.Name = t.text
			// annotations only appear in def parameter lists; in a lambda
			// the colon terminates the parameters
			if closer == ")" && p.acceptOp(":") {
				if _, err := p.parseExpression(); err != nil { // annotation, discarded
					return nil, err
				}
			}
			if p.acceptOp("=") {
				d, err := p.parseExpression()
				if err != nil {
					return nil, err
				}
				prm.Default = d
			}
		default:
			return nil, p.errf("expected parameter name, got %s", t)
		}
		params = append(params, prm)
		if p.acceptOp(",") {
			continue
		}
		if !p.isOp(closer) {
			return nil, p.errf("expected ',' or %q in parameter list, got %s", closer, p.cur())
		}
	}
	return params, nil
}

func (p *parser) parseClassDef(decorators []*Node) (*Node, error) {
	start := p.advance() // class
	nameTok := p.cur()
	if nameTok.kind != tokName {
		return nil, p.errf("expected class name, got %s", nameTok)
	}
	p.advance()
	var bases []*Node
	if p.acceptOp("(") {
		for !p.isOp(")") {
			b, err := p.parseCallArg()
			if err != nil {
				return nil, err
			}
			bases = append(bases, b)
			if p.acceptOp(",") {
				continue
			}
			if !p.isOp(")") {
				return nil, p.errf("expected ',' or ')' in base class list, got %s", p.cur())
			}
		}
		p.advance()
	}
	body, err := p.parseSuite()
	if err != nil {
		return nil, err
	}
	n := &Node{
		Kind:  KindClassDef,
		Pos:   pos(start),
		Name:  nameTok.text,
		Args:  bases,
		Items: decorators,
		Body:  body,
	}
	n.End = blockEnd(body, p.lastEnd())
	return n, nil
}

func (p *parser) parseIf() (*Node, error) {
	start := p.advance() // if / elif
	test, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	body, err := p.parseSuite()
	if err != nil {
		return nil, err
	}
	n := &Node{Kind: KindIf, Pos: pos(start), Test: test, Body: body}
	p.skipBlankLines()
	if p.isKw("elif") {
		elif, err := p.parseIf()
		if err != nil {
			return nil, err
		}
		n.Orelse = []*Node{elif}
	} else if p.acceptKw("else") {
		orelse, err := p.parseSuite()
		if err != nil {
			return nil, err
		}
		n.Orelse = orelse
	}
	n.End = blockEnd(n.Orelse, blockEnd(body, p.lastEnd()))
	return n, nil
}

// skipBlankLines advances over newline tokens between a block and a trailing
// clause keyword (else/elif/except/finally) at the same level.
func (p *parser) skipBlankLines() {
	for p.cur().kind == tokNewline {
		p.advance()
	}
}

func (p *parser) parseWhile() (*Node, error) {
	start := p.advance()
	test, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	body, err := p.parseSuite()
	if err != nil {
		return nil, err
	}
	n := &Node{Kind: KindWhile, Pos: pos(start), Test: test, Body: body}
	p.skipBlankLines()
	if p.acceptKw("else") {
		orelse, err := p.parseSuite()
		if err != nil {
			return nil, err
		}
		n.Orelse = orelse
	}
	n.End = blockEnd(n.Orelse, blockEnd(body, p.lastEnd()))
	return n, nil
}

func (p *parser) parseFor() (*Node, error) {
	start := p.advance()
	target, err := p.parseTargetList()
	if err != nil {
		return nil, err
	}
	if !p.acceptKw("in") {
		return nil, p.errf("expected 'in' in for statement, got %s", p.cur())
	}
	iter, err := p.parseExprList()
	if err != nil {
		return nil, err
	}
	body, err := p.parseSuite()
	if err != nil {
		return nil, err
	}
	n := &Node{Kind: KindFor, Pos: pos(start), Target: target, Iter: iter, Body: body}
	p.skipBlankLines()
	if p.acceptKw("else") {
		orelse, err := p.parseSuite()
		if err != nil {
			return nil, err
		}
		n.Orelse = orelse
	}
	n.End = blockEnd(n.Orelse, blockEnd(body, p.lastEnd()))
	return n, nil
}

func (p *parser) parseTry() (*Node, error) {
	start := p.advance()
	body, err := p.parseSuite()
	if err != nil {
		return nil, err
	}
	n := &Node{Kind: KindTry, Pos: pos(start), Body: body}
	p.skipBlankLines()
	for p.isKw("except") {
		h, err := p.parseExcept()
		if err != nil {
			return nil, err
		}
		n.Handlers = append(n.Handlers, h)
		p.skipBlankLines()
	}
	if p.acceptKw("else") {
		orelse, err := p.parseSuite()
		if err != nil {
			return nil, err
		}
		n.Orelse = orelse
		p.skipBlankLines()
	}
	if p.acceptKw("finally") {
		final, err := p.parseSuite()
		if err != nil {
			return nil, err
		}
		n.Final = final
	}
	if len(n.Handlers) == 0 && len(n.Final) == 0 {
		return nil, p.errf("expected 'except' or 'finally' block")
	}
	n.End = p.lastEnd()
	return n, nil
}

func (p *parser) parseExcept() (*Node, error) {
	start := p.advance() // except
	n := &Node{Kind: KindExcept, Pos: pos(start)}
	p.acceptOp("*") // except* groups
	if !p.isOp(":") {
		typ, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		n.ExcType = exprText(typ)
		if p.acceptKw("as") {
			at := p.cur()
			if at.kind != tokName {
				return nil, p.errf("expected name after 'as', got %s", at)
			}
			p.advance()
			n.Name = at.text
		}
	}
	body, err := p.parseSuite()
	if err != nil {
		return nil, err
	}
	n.Body = body
	n.End = blockEnd(body, p.lastEnd())
	return n, nil
}

func (p *parser) parseWith() (*Node, error) {
	start := p.advance()
	var items []*Node
	for {
		item, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if p.acceptKw("as") {
			if _, err := p.parseOr(); err != nil { // binding target, discarded
				return nil, err
			}
		}
		items = append(items, item)
		if p.acceptOp(",") {
			continue
		}
		break
	}
	body, err := p.parseSuite()
	if err != nil {
		return nil, err
	}
	n := &Node{Kind: KindWith, Pos: pos(start), Items: items, Body: body}
	n.End = blockEnd(body, p.lastEnd())
	return n, nil
}

/// parseSuite parses ':' followed by either an indented block or an inline
// simple-statement list.
func (p *parser) parseSuite() ([]*Node, error) {
	if err := p.expectOp(":"); err != nil {
		return nil, err
	}
	if p.cur().kind == tokNewline {
		p.advance()
		if p.cur().kind != tokIndent {
			return nil, p.errf("expected an indented block")
		}
		p.advance()
		body, err := p.parseStatements(true)
		if err != nil {
			return nil, err
		}
		if len(body) == 0 {
			return nil, p.errf("expected at least one statement in block")
		}
		return body, nil
	}
	return p.parseSimpleLine()
}

func blockEnd(body []*Node, fallback Position) Position {
	if len(body) > 0 {
		return body[len(body)-1].End
	}
	return fallback
}

// parseSimpleLine parses one logical line of ';'-separated small statements.
func (p *parser) parseSimpleLine() ([]*Node, error) {
	var out []*Node
	for {
		stmt, err := p.parseSmallStatement()
		if err != nil {
			return nil, err
		}
		out = append(out, stmt)
		if p.acceptOp(";") {
			if p.cur().kind == tokNewline || p.cur().kind == tokEOF {
				break
			}
			continue
		}
		break
	}
	switch p.cur().kind {
	case tokNewline:
		p.advance()
	case tokEOF, tokDedent:
	default:
		return nil, p.errf("expected end of line, got %s", p.cur())
	}
	return out, nil
}

func (p *parser) atLineEnd() bool {
	switch p.cur().kind {
	case tokNewline, tokEOF, tokDedent:
		return true
	}
	return p.isOp(";")
}

func (p *parser) parseSmallStatement() (*Node, error) {
	t := p.cur()
	switch {
	case p.acceptKw("return"):
		n := &Node{Kind: KindReturn, Pos: pos(t)}
		if !p.atLineEnd() {
			v, err := p.parseExprList()
			if err != nil {
				return nil, err
			}
			n.Value = v
		}
		n.End = p.lastEnd()
		return n, nil
	case p.acceptKw("pass"):
		return &Node{Kind: KindPass, Pos: pos(t), End: p.lastEnd()}, nil
	case p.acceptKw("break"):
		return &Node{Kind: KindBreak, Pos: pos(t), End: p.lastEnd()}, nil
	case p.acceptKw("continue"):
		return &Node{Kind: KindContinue, Pos: pos(t), End: p.lastEnd()}, nil
	case p.acceptKw("raise"):
		n := &Node{Kind: KindRaise, Pos: pos(t)}
		if !p.atLineEnd() {
			v, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			n.Value = v
			if p.acceptKw("from") {
				if _, err := p.parseExpression(); err != nil { // cause, discarded
					return nil, err
				}
			}
		}
		n.End = p.lastEnd()
		return n, nil
	case p.isKw("import") || p.isKw("from"):
		return p.parseImport()
	case p.acceptKw("global"), p.acceptKw("nonlocal"):
		n := &Node{Kind: KindGlobal, Pos: pos(t)}
		for {
			nt := p.cur()
			if nt.kind != tokName {
				return nil, p.errf("expected name, got %s", nt)
			}
			p.advance()
			n.Items = append(n.Items, &Node{Kind: KindName, Pos: pos(nt), End: pos(nt), Name: nt.text})
			if !p.acceptOp(",") {
				break
			}
		}
		n.End = p.lastEnd()
		return n, nil
	case p.acceptKw("del"):
		n := &Node{Kind: KindDelete, Pos: pos(t)}
		v, err := p.parseExprList()
		if err != nil {
			return nil, err
		}
		if v.Kind == KindTuple {
			n.Items = v.Items
		} else {
			n.Items = []*Node{v}
		}
		n.End = p.lastEnd()
		return n, nil
	case p.acceptKw("assert"):
		n := &Node{Kind: KindAssert, Pos: pos(t)}
		test, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		n.Test = test
		if p.acceptOp(",") {
			msg, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			n.Value = msg
		}
		n.End = p.lastEnd()
		return n, nil
	}
	return p.parseExprStatement()
}

func (p *parser) parseImport() (*Node, error) {
	start := p.cur()
	var sb strings.Builder
	for !p.atLineEnd() {
		t := p.advance()
		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(t.text)
	}
	return &Node{Kind: KindImport, Pos: pos(start), End: p.lastEnd(), Text: sb.String()}, nil
}

var augOps = map[string]bool{
	"+=": true, "-=": true, "*=": true, "/=": true, "//=": true, "%=": true,
	"**=": true, ">>=": true, "<<=": true, "&=": true, "|=": true, "^=": true, "@=": true,
}

func (p *parser) parseExprStatement() (*Node, error) {
	start := p.cur()
	first, err := p.parseExprList()
	if err != nil {
		return nil, err
	}
	t := p.cur()
	switch {
	case t.kind == tokOp && augOps[t.text]:
		p.advance()
		v, err := p.parseExprList()
		if err != nil {
			return nil, err
		}
		return &Node{Kind: KindAugAssign, Pos: pos(start), End: p.lastEnd(),
			Target: first, Op: t.text, Value: v}, nil
	case p.isOp("="):
		targets := []*Node{first}
		var value *Node
		for p.acceptOp("=") {
			v, err := p.parseExprList()
			if err != nil {
				return nil, err
			}
			if p.isOp("=") {
				targets = append(targets, v)
				continue
			}
			value = v
		}
		return &Node{Kind: KindAssign, Pos: pos(start), End: p.lastEnd(),
			Items: targets, Target: targets[0], Value: value}, nil
	case p.isOp(":"):
		// annotated assignment: target ':' annotation ['=' value]
		p.advance()
		if _, err := p.parseExpression(); err != nil { // annotation, discarded
			return nil, err
		}
		n := &Node{Kind: KindAssign, Pos: pos(start),
			Items: []*Node{first}, Target: first}
		if p.acceptOp("=") {
			v, err := p.parseExprList()
			if err != nil {
				return nil, err
			}
			n.Value = v
		}
		n.End = p.lastEnd()
		return n, nil
	}
	return &Node{Kind: KindExprStmt, Pos: pos(start), End: p.lastEnd(), Value: first}, nil
}

// parseExprList parses expr [',' expr]* with an optional trailing comma,
// producing a Tuple when more than one element is present.
func (p *parser) parseExprList() (*Node, error) {
	first, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if !p.isOp(",") {
		return first, nil
	}
	items := []*Node{first}
	for p.acceptOp(",") {
		if p.exprListStops() {
			break
		}
		next, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		items = append(items, next)
	}
	return &Node{Kind: KindTuple, Pos: first.Pos, End: p.lastEnd(), Items: items}, nil
}

func (p *parser) exprListStops() bool {
	t := p.cur()
	if t.kind == tokNewline || t.kind == tokEOF || t.kind == tokDedent {
		return true
	}
	if t.kind == tokOp {
		switch t.text {
		case "=", ")", "]", "}", ":", ";":
			return true
		}
		return augOps[t.text]
	}
	return t.text == "in" && t.kind == tokName
}
