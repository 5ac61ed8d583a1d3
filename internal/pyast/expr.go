package pyast

import "strings"

func (p *parser) parseExpression() (*Node, error) {
	if p.isKw("lambda") {
		return p.parseLambda()
	}
	n, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.isOp(":=") {
		p.advance()
		v, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		n = &Node{Kind: KindBinOp, Pos: n.Pos, End: v.End, Op: ":=", Left: n, Right: v}
	}
	if p.acceptKw("if") {
		test, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if !p.acceptKw("else") {
			return nil, p.errf("expected 'else' in conditional expression, got %s", p.cur())
		}
		els, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		return &Node{Kind: KindIfExp, Pos: n.Pos, End: els.End,
			Value: n, Test: test, Right: els}, nil
	}
	return n, nil
}

func (p *parser) parseLambda() (*Node, error) {
	start := p.advance() // lambda
	params, err := p.parseParams(":")
	if err != nil {
		return nil, err
	}
	if err := p.expectOp(":"); err != nil {
		return nil, err
	}
	body, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	return &Node{Kind: KindLambda, Pos: pos(start), End: body.End,
		Params: params, Value: body}, nil
}

func (p *parser) parseOr() (*Node, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.isKw("or") {
		p.advance()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &Node{Kind: KindBoolOp, Pos: left.Pos, End: right.End,
			Op: "or", Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseAnd() (*Node, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for p.isKw("and") {
		p.advance()
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = &Node{Kind: KindBoolOp, Pos: left.Pos, End: right.End,
			Op: "and", Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseNot() (*Node, error) {
	if p.isKw("not") {
		t := p.advance()
		v, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return &Node{Kind: KindUnaryOp, Pos: pos(t), End: v.End, Op: "not", Value: v}, nil
	}
	return p.parseComparison()
}

func (p *parser) comparisonOp() (string, bool) {
	t := p.cur()
	if t.kind == tokOp {
		switch t.text {
		case "<", ">", "<=", ">=", "==", "!=":
			return t.text, true
		}
		return "", false
	}
	if t.kind == tokName {
		switch t.text {
		case "in":
			return "in", true
		case "is":
			if p.peekName() == "not" {
				return "is not", true
			}
			return "is", true
		case "not":
			if p.peekName() == "in" {
				return "not in", true
			}
		}
	}
	return "", false
}

func (p *parser) parseComparison() (*Node, error) {
	left, err := p.parseBitOr()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := p.comparisonOp()
		if !ok {
			return left, nil
		}
		for range strings.Fields(op) {
			p.advance()
		}
		right, err := p.parseBitOr()
		if err != nil {
			return nil, err
		}
		// Chained comparisons fold left; the chain semantics do not matter
		// for syntactic checks.
		left = &Node{Kind: KindCompare, Pos: left.Pos, End: right.End,
			Op: op, Left: left, Right: right}
	}
}

// binaryLevel builds a left-associative binary parse level over ops.
func (p *parser) binaryLevel(next func() (*Node, error), ops ...string) (*Node, error) {
	left, err := next()
	if err != nil {
		return nil, err
	}
	for {
		t := p.cur()
		matched := ""
		if t.kind == tokOp {
			for _, op := range ops {
				if t.text == op {
					matched = op
					break
				}
			}
		}
		if matched == "" {
			return left, nil
		}
		p.advance()
		right, err := next()
		if err != nil {
			return nil, err
		}
		left = &Node{Kind: KindBinOp, Pos: left.Pos, End: right.End,
			Op: matched, Left: left, Right: right}
	}
}

func (p *parser) parseBitOr() (*Node, error) {
	return p.binaryLevel(p.parseBitXor, "|")
}

func (p *parser) parseBitXor() (*Node, error) {
	return p.binaryLevel(p.parseBitAnd, "^")
}

func (p *parser) parseBitAnd() (*Node, error) {
	return p.binaryLevel(p.parseShift, "&")
}

func (p *parser) parseShift() (*Node, error) {
	return p.binaryLevel(p.parseArith, "<<", ">>")
}

func (p *parser) parseArith() (*Node, error) {
	return p.binaryLevel(p.parseTerm, "+", "-")
}

func (p *parser) parseTerm() (*Node, error) {
	return p.binaryLevel(p.parseUnary, "*", "/", "//", "%", "@")
}

func (p *parser) parseUnary() (*Node, error) {
	t := p.cur()
	if t.kind == tokOp && (t.text == "+" || t.text == "-" || t.text == "~") {
		p.advance()
		v, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &Node{Kind: KindUnaryOp, Pos: pos(t), End: v.End, Op: t.text, Value: v}, nil
	}
	return p.parsePower()
}

func (p *parser) parsePower() (*Node, error) {
	base, err := p.parsePostfix()
	if err != nil {
		return nil, err
	}
	if p.isOp("**") {
		p.advance()
		exp, err := p.parseUnary() // right-associative
		if err != nil {
			return nil, err
		}
		return &Node{Kind: KindBinOp, Pos: base.Pos, End: exp.End,
			Op: "**", Left: base, Right: exp}, nil
	}
	return base, nil
}

func (p *parser) parsePostfix() (*Node, error) {
	n, err := p.parseAtom()
	if err != nil {
		return nil, err
	}
	return p.parseTrailers(n)
}

func (p *parser) parseTrailers(n *Node) (*Node, error) {
	for {
		switch {
		case p.isOp("("):
			p.advance()
			args, err := p.parseCallArgs()
			if err != nil {
				return nil, err
			}
			n = &Node{Kind: KindCall, Pos: n.Pos, End: p.lastEnd(), Func: n, Args: args}
		case p.isOp("["):
			p.advance()
			idx, err := p.parseSubscriptIndex()
			if err != nil {
				return nil, err
			}
			n = &Node{Kind: KindSubscript, Pos: n.Pos, End: p.lastEnd(), Value: n, Index: idx}
		case p.isOp("."):
			p.advance()
			at := p.cur()
			if at.kind != tokName {
				return nil, p.errf("expected attribute name after '.', got %s", at)
			}
			p.advance()
			n = &Node{Kind: KindAttribute, Pos: n.Pos, End: p.lastEnd(), Value: n, Name: at.text}
		default:
			return n, nil
		}
	}
}

func (p *parser) parseCallArgs() ([]*Node, error) {
	var args []*Node
	for !p.isOp(")") {
		arg, err := p.parseCallArg()
		if err != nil {
			return nil, err
		}
		// Generator expression argument: f(x for x in xs)
		if p.isKw("for") {
			arg, err = p.parseComprehension(arg)
			if err != nil {
				return nil, err
			}
		}
		args = append(args, arg)
		if p.acceptOp(",") {
			continue
		}
		if !p.isOp(")") {
			return nil, p.errf("expected ',' or ')' in argument list, got %s", p.cur())
		}
	}
	p.advance()
	return args, nil
}

func (p *parser) parseCallArg() (*Node, error) {
	t := p.cur()
	if p.acceptOp("*") {
		v, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		return &Node{Kind: KindStar, Pos: pos(t), End: v.End, Op: "*", Value: v}, nil
	}
	if p.acceptOp("**") {
		v, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		return &Node{Kind: KindStar, Pos: pos(t), End: v.End, Op: "**", Value: v}, nil
	}
	if t.kind == tokName && p.pos+1 < len(p.toks) &&
		p.toks[p.pos+1].kind == tokOp && p.toks[p.pos+1].text == "=" {
		p.advance()
		p.advance()
		v, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		return &Node{Kind: KindKeyword, Pos: pos(t), End: v.End, Name: t.text, Value: v}, nil
	}
	return p.parseExpression()
}

func (p *parser) parseSubscriptIndex() (*Node, error) {
	start := p.cur()
	sliceParts := func(first *Node) (*Node, error) {
		parts := []*Node{first} // nil lower allowed
		for p.acceptOp(":") {
			if p.isOp("]") || p.isOp(":") || p.isOp(",") {
				parts = append(parts, nil)
				continue
			}
			part, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			parts = append(parts, part)
		}
		var kept []*Node
		for _, part := range parts {
			if part != nil {
				kept = append(kept, part)
			}
		}
		return &Node{Kind: KindSlice, Pos: pos(start), End: p.lastEnd(), Items: kept}, nil
	}

	var idx *Node
	if p.isOp(":") {
		s, err := sliceParts(nil)
		if err != nil {
			return nil, err
		}
		idx = s
	} else {
		first, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if p.isOp(":") {
			s, err := sliceParts(first)
			if err != nil {
				return nil, err
			}
			idx = s
		} else if p.isOp(",") {
			items := []*Node{first}
			for p.acceptOp(",") {
				if p.isOp("]") {
					break
				}
				next, err := p.parseExpression()
				if err != nil {
					return nil, err
				}
				items = append(items, next)
			}
			idx = &Node{Kind: KindTuple, Pos: first.Pos, End: p.lastEnd(), Items: items}
		} else {
			idx = first
		}
	}
	if err := p.expectOp("]"); err != nil {
		return nil, err
	}
	return idx, nil
}

func (p *parser) parseAtom() (*Node, error) {
	t := p.cur()
	switch t.kind {
	case tokName:
		switch t.text {
		case "None":
			p.advance()
			return &Node{Kind: KindNone, Pos: pos(t), End: p.lastEnd(), Text: t.text}, nil
		case "True", "False":
			p.advance()
			return &Node{Kind: KindBool, Pos: pos(t), End: p.lastEnd(), Text: t.text}, nil
		case "await":
			p.advance()
			v, err := p.parseUnary()
			if err != nil {
				return nil, err
			}
			return &Node{Kind: KindAwait, Pos: pos(t), End: v.End, Value: v}, nil
		case "yield":
			p.advance()
			n := &Node{Kind: KindYield, Pos: pos(t)}
			p.acceptKw("from")
			if !p.atLineEnd() && !p.isOp(")") && !p.isOp("]") && !p.isOp("}") && !p.isOp(",") {
				v, err := p.parseExprList()
				if err != nil {
					return nil, err
				}
				n.Value = v
			}
			n.End = p.lastEnd()
			return n, nil
		}
		p.advance()
		return &Node{Kind: KindName, Pos: pos(t), End: p.lastEnd(), Name: t.text}, nil
	case tokNumber:
		p.advance()
		return &Node{Kind: KindNumber, Pos: pos(t), End: p.lastEnd(), Text: t.text, Num: t.num}, nil
	case tokString:
		p.advance()
		text := t.text
		for p.cur().kind == tokString { // implicit adjacent concatenation
			text += p.advance().text
		}
		return &Node{Kind: KindString, Pos: pos(t), End: p.lastEnd(), Text: text}, nil
	case tokOp:
		switch t.text {
		case "(":
			return p.parseParenAtom()
		case "[":
			return p.parseListAtom()
		case "{":
			return p.parseDictSetAtom()
		case "...":
			p.advance()
			return &Node{Kind: KindName, Pos: pos(t), End: p.lastEnd(), Name: "..."}, nil
		case "*":
			p.advance()
			v, err := p.parseOr()
			if err != nil {
				return nil, err
			}
			return &Node{Kind: KindStar, Pos: pos(t), End: v.End, Op: "*", Value: v}, nil
		}
	}
	return nil, p.errf("expected expression, got %s", t)
}

func (p *parser) parseParenAtom() (*Node, error) {
	start := p.advance() // (
	if p.isOp(")") {
		p.advance()
		return &Node{Kind: KindTuple, Pos: pos(start), End: p.lastEnd()}, nil
	}
	first, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if p.isKw("for") {
		comp, err := p.parseComprehension(first)
		if err != nil {
			return nil, err
		}
		if err := p.expectOp(")"); err != nil {
			return nil, err
		}
		return comp, nil
	}
	if p.isOp(",") {
		items := []*Node{first}
		for p.acceptOp(",") {
			if p.isOp(")") {
				break
			}
			next, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			items = append(items, next)
		}
		if err := p.expectOp(")"); err != nil {
			return nil, err
		}
		return &Node{Kind: KindTuple, Pos: pos(start), End: p.lastEnd(), Items: items}, nil
	}
	if err := p.expectOp(")"); err != nil {
		return nil, err
	}
	// Parenthesized expression keeps the inner node, widened to the parens.
	first.Pos = pos(start)
	first.End = p.lastEnd()
	return first, nil
}

func (p *parser) parseListAtom() (*Node, error) {
	start := p.advance() // [
	n := &Node{Kind: KindList, Pos: pos(start)}
	if p.isOp("]") {
		p.advance()
		n.End = p.lastEnd()
		return n, nil
	}
	first, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if p.isKw("for") {
		comp, err := p.parseComprehension(first)
		if err != nil {
			return nil, err
		}
		if err := p.expectOp("]"); err != nil {
			return nil, err
		}
		return comp, nil
	}
	n.Items = []*Node{first}
	for p.acceptOp(",") {
		if p.isOp("]") {
			break
		}
		next, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		n.Items = append(n.Items, next)
	}
	if err := p.expectOp("]"); err != nil {
		return nil, err
	}
	n.End = p.lastEnd()
	return n, nil
}

func (p *parser) parseDictSetAtom() (*Node, error) {
	start := p.advance() // {
	if p.isOp("}") {
		p.advance()
		return &Node{Kind: KindDict, Pos: pos(start), End: p.lastEnd()}, nil
	}
	if p.acceptOp("**") {
		v, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		n := &Node{Kind: KindDict, Pos: pos(start)}
		n.Items = []*Node{{Kind: KindStar, Pos: v.Pos, End: v.End, Op: "**", Value: v}}
		if err := p.parseDictRest(n); err != nil {
			return nil, err
		}
		return n, nil
	}
	first, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if p.isOp(":") {
		p.advance()
		val, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		pair := &Node{Kind: KindPair, Pos: first.Pos, End: val.End, Left: first, Right: val}
		if p.isKw("for") {
			comp, err := p.parseComprehension(pair)
			if err != nil {
				return nil, err
			}
			if err := p.expectOp("}"); err != nil {
				return nil, err
			}
			return comp, nil
		}
		n := &Node{Kind: KindDict, Pos: pos(start), Items: []*Node{pair}}
		if err := p.parseDictRest(n); err != nil {
			return nil, err
		}
		return n, nil
	}
	if p.isKw("for") {
		comp, err := p.parseComprehension(first)
		if err != nil {
			return nil, err
		}
		if err := p.expectOp("}"); err != nil {
			return nil, err
		}
		return comp, nil
	}
	n := &Node{Kind: KindSet, Pos: pos(start), Items: []*Node{first}}
	for p.acceptOp(",") {
		if p.isOp("}") {
			break
		}
		next, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		n.Items = append(n.Items, next)
	}
	if err := p.expectOp("}"); err != nil {
		return nil, err
	}
	n.End = p.lastEnd()
	return n, nil
}

func (p *parser) parseDictRest(n *Node) error {
	for p.acceptOp(",") {
		if p.isOp("}") {
			break
		}
		if p.acceptOp("**") {
			v, err := p.parseOr()
			if err != nil {
				return err
			}
			n.Items = append(n.Items, &Node{Kind: KindStar, Pos: v.Pos, End: v.End, Op: "**", Value: v})
			continue
		}
		key, err := p.parseExpression()
		if err != nil {
			return err
		}
		if err := p.expectOp(":"); err != nil {
			return err
		}
		val, err := p.parseExpression()
		if err != nil {
			return err
		}
		n.Items = append(n.Items, &Node{Kind: KindPair, Pos: key.Pos, End: val.End, Left: key, Right: val})
	}
	if err := p.expectOp("}"); err != nil {
		return err
	}
	n.End = p.lastEnd()
	return nil
}

// parseComprehension consumes the 'for ... in ... [if ...]' clause chain of a
// comprehension whose element expression has already been parsed. The clause
// expressions are kept opaquely in Items.
func (p *parser) parseComprehension(elt *Node) (*Node, error) {
	n := &Node{Kind: KindComprehension, Pos: elt.Pos, Value: elt}
	for {
		if p.isKw("async") && p.peekName() == "for" {
			p.advance()
		}
		if !p.acceptKw("for") {
			break
		}
		target, err := p.parseTargetList()
		if err != nil {
			return nil, err
		}
		if !p.acceptKw("in") {
			return nil, p.errf("expected 'in' in comprehension, got %s", p.cur())
		}
		iter, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		n.Items = append(n.Items, target, iter)
		for p.acceptKw("if") {
			cond, err := p.parseOr()
			if err != nil {
				return nil, err
			}
			n.Items = append(n.Items, cond)
		}
	}
	n.End = p.lastEnd()
	return n, nil
}

// parseTargetList parses assignment/loop targets: primaries, starred names,
// and tuples thereof. Comparisons are excluded so that the 'in' keyword
// terminates the list.
func (p *parser) parseTargetList() (*Node, error) {
	first, err := p.parseTarget()
	if err != nil {
		return nil, err
	}
	if !p.isOp(",") {
		return first, nil
	}
	items := []*Node{first}
	for p.acceptOp(",") {
		if p.isKw("in") || p.exprListStops() {
			break
		}
		next, err := p.parseTarget()
		if err != nil {
			return nil, err
		}
		items = append(items, next)
	}
	return &Node{Kind: KindTuple, Pos: first.Pos, End: p.lastEnd(), Items: items}, nil
}

func (p *parser) parseTarget() (*Node, error) {
	t := p.cur()
	if p.acceptOp("*") {
		v, err := p.parseTarget()
		if err != nil {
			return nil, err
		}
		return &Node{Kind: KindStar, Pos: pos(t), End: v.End, Op: "*", Value: v}, nil
	}
	atom, err := p.parseAtom()
	if err != nil {
		return nil, err
	}
	return p.parseTrailers(atom)
}

// exprText renders a best-effort source form of an expression, used for
// except-clause type labels.
func exprText(n *Node) string {
	if n == nil {
		return ""
	}
	switch n.Kind {
	case KindName:
		return n.Name
	case KindNone, KindBool, KindNumber, KindString:
		return n.Text
	case KindAttribute:
		return exprText(n.Value) + "." + n.Name
	case KindTuple:
		parts := make([]string, 0, len(n.Items))
		for _, item := range n.Items {
			parts = append(parts, exprText(item))
		}
		return "(" + strings.Join(parts, ", ") + ")"
	case KindCall:
		return exprText(n.Func) + "(...)"
	}
	return n.Kind.String()
}
