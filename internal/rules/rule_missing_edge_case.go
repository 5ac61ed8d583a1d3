package rules

import (
	"fmt"

	"github.com/codewithboateng/prlint/internal/ir"
	"github.com/codewithboateng/prlint/internal/pyast"
)

const MissingEdgeCaseID = "missing-edge-case"

// MissingEdgeCaseDefinition looks for operations that commonly fail at
// runtime without a visible guard: division by an unchecked value,
// subscripting with an unchecked index, open() outside try/except, and
// attribute access on values never compared against None. The analysis is
// a flow-insensitive per-scope scan, so it trades false positives for
// never missing the obvious cases.
func MissingEdgeCaseDefinition() *Definition {
	return &Definition{
		ID:          MissingEdgeCaseID,
		Name:        "Missing Edge Case",
		Description: "Flags unguarded division, indexing, file handling, and possible None dereferences.",
		Category:    ir.CategoryImplementationValidation,
		Severity:    ir.SeverityWarning,
		Enabled:     true,
		Dependencies: []string{
			SyntaxErrorID,
		},
		Defaults: map[string]any{
			"check_zero_division": true,
			"check_index_bounds":  true,
			"check_file_handling": true,
			"check_null_checks":   true,
		},
		New: func(cfg map[string]any) Rule {
			return &missingEdgeCaseRule{cfg: options(cfg)}
		},
	}
}

type missingEdgeCaseRule struct {
	cfg options
}

func (r *missingEdgeCaseRule) Applicable(ctx *Context) bool {
	return len(ctx.PythonFiles()) > 0
}

func (r *missingEdgeCaseRule) Analyze(ctx *Context) ([]ir.RuleResult, error) {
	files, trees := ctx.ParsedPythonFiles()
	var out []ir.RuleResult
	for i := range files {
		out = append(out, r.scanScope(files[i], trees[i].Body, nil)...)
		for _, fn := range pyast.Functions(trees[i]) {
			out = append(out, r.scanScope(files[i], fn.Body, fn.Params)...)
		}
	}
	return out, nil
}

// edgeScope holds the mutable guard state for one function (or the module
// top level). Guards accumulate in statement order and never expire, so a
// check anywhere before a use counts even if it sits on another branch.
type edgeScope struct {
	rule *missingEdgeCaseRule
	file ir.SourceFile

	guarded     map[string]bool // appeared in an if/while/assert condition
	noneGuarded map[string]bool // explicitly compared against None or truth-tested
	assigned    map[string]bool // bound in this scope, parameters included
	attrFlagged map[string]bool // one None-dereference report per name

	out []ir.RuleResult
}

func (r *missingEdgeCaseRule) scanScope(f ir.SourceFile, body []*pyast.Node, params []pyast.Param) []ir.RuleResult {
	s := &edgeScope{
		rule:        r,
		file:        f,
		guarded:     make(map[string]bool),
		noneGuarded: make(map[string]bool),
		assigned:    make(map[string]bool),
		attrFlagged: make(map[string]bool),
	}
	for _, p := range params {
		if p.Name != "" {
			s.assigned[p.Name] = true
		}
	}
	s.stmts(body, false)
	return s.out
}

func (s *edgeScope) stmts(body []*pyast.Node, inTry bool) {
	for _, n := range body {
		s.stmt(n, inTry)
	}
}

func (s *edgeScope) stmt(n *pyast.Node, inTry bool) {
	switch n.Kind {
	case pyast.KindFunctionDef:
		// Nested definitions are their own scope.
	case pyast.KindClassDef:
		s.stmts(n.Body, inTry)
	case pyast.KindIf, pyast.KindWhile:
		s.collectGuards(n.Test)
		s.expr(n.Test, inTry)
		s.stmts(n.Body, inTry)
		s.stmts(n.Orelse, inTry)
	case pyast.KindAssert:
		s.collectGuards(n.Test)
		s.expr(n.Test, inTry)
		s.expr(n.Value, inTry)
	case pyast.KindFor:
		s.bindTargets(n.Target)
		s.expr(n.Iter, inTry)
		s.stmts(n.Body, inTry)
		s.stmts(n.Orelse, inTry)
	case pyast.KindTry:
		s.stmts(n.Body, true)
		for _, h := range n.Handlers {
			if h.Name != "" {
				s.assigned[h.Name] = true
			}
			s.stmts(h.Body, inTry)
		}
		s.stmts(n.Orelse, inTry)
		s.stmts(n.Final, inTry)
	case pyast.KindWith:
		for _, item := range n.Items {
			s.expr(item, inTry)
		}
		s.stmts(n.Body, inTry)
	case pyast.KindAssign:
		s.expr(n.Value, inTry)
		for _, t := range n.Items {
			s.bindTargets(t)
		}
	case pyast.KindAugAssign:
		s.expr(n.Value, inTry)
		s.expr(n.Target, inTry)
		if n.Target != nil && n.Target.Kind == pyast.KindName {
			s.assigned[n.Target.Name] = true
		}
	case pyast.KindReturn, pyast.KindRaise, pyast.KindExprStmt:
		s.expr(n.Value, inTry)
	case pyast.KindDelete:
		for _, t := range n.Items {
			s.expr(t, inTry)
		}
	}
}

// bindTargets records the plain names bound by an assignment or loop
// target. Subscript and attribute targets are scanned as reads instead.
func (s *edgeScope) bindTargets(t *pyast.Node) {
	if t == nil {
		return
	}
	switch t.Kind {
	case pyast.KindName:
		s.assigned[t.Name] = true
	case pyast.KindTuple, pyast.KindList:
		for _, e := range t.Items {
			s.bindTargets(e)
		}
	case pyast.KindStar:
		s.bindTargets(t.Value)
	default:
		s.expr(t, false)
	}
}

// collectGuards marks names that a condition validates. Any name mentioned
// in the condition counts as a generic guard; a None guard additionally
// requires an explicit None comparison, a bare truth test, or `not x`.
func (s *edgeScope) collectGuards(t *pyast.Node) {
	if t == nil {
		return
	}
	switch t.Kind {
	case pyast.KindBoolOp:
		s.collectGuards(t.Left)
		s.collectGuards(t.Right)
	case pyast.KindUnaryOp:
		if t.Op == "not" {
			s.collectGuards(t.Value)
			return
		}
		s.markGuardedNames(t)
	case pyast.KindName:
		s.guarded[t.Name] = true
		s.noneGuarded[t.Name] = true
	case pyast.KindCompare:
		if name, ok := noneComparison(t); ok {
			s.noneGuarded[name] = true
		}
		s.markGuardedNames(t)
	default:
		s.markGuardedNames(t)
	}
}

func (s *edgeScope) markGuardedNames(t *pyast.Node) {
	pyast.Walk(t, func(n *pyast.Node) bool {
		if n.Kind == pyast.KindName {
			s.guarded[n.Name] = true
		}
		return true
	})
}

func noneComparison(cmp *pyast.Node) (string, bool) {
	switch cmp.Op {
	case "is", "is not", "==", "!=":
	default:
		return "", false
	}
	l, r := cmp.Left, cmp.Right
	if l != nil && r != nil {
		if l.Kind == pyast.KindName && r.Kind == pyast.KindNone {
			return l.Name, true
		}
		if r.Kind == pyast.KindName && l.Kind == pyast.KindNone {
			return r.Name, true
		}
	}
	return "", false
}

func (s *edgeScope) expr(e *pyast.Node, inTry bool) {
	if e == nil {
		return
	}
	pyast.Walk(e, func(n *pyast.Node) bool {
		switch n.Kind {
		case pyast.KindBinOp:
			s.checkDivision(n)
		case pyast.KindSubscript:
			s.checkSubscript(n)
		case pyast.KindCall:
			s.checkOpenCall(n, inTry)
		case pyast.KindAttribute:
			s.checkAttribute(n)
		}
		return true
	})
}

func (s *edgeScope) checkDivision(n *pyast.Node) {
	if !s.rule.cfg.Bool("check_zero_division", true) {
		return
	}
	switch n.Op {
	case "/", "//", "%":
	default:
		return
	}
	div := n.Right
	if div == nil {
		return
	}
	switch {
	case div.Kind == pyast.KindNumber && div.Num == 0:
		s.report(div.Pos, "Division by zero: divisor is the literal "+div.Text, []string{
			"Remove the zero divisor or raise an explicit error",
		}, map[string]any{"check": "zero_division"})
	case div.Kind == pyast.KindName && !s.guarded[div.Name]:
		s.report(div.Pos,
			fmt.Sprintf("Possible division by zero: '%s' is not checked before use as a divisor", div.Name),
			[]string{
				fmt.Sprintf("Guard with 'if %s != 0:' before dividing", div.Name),
			}, map[string]any{"check": "zero_division", "name": div.Name})
	}
}

func (s *edgeScope) checkSubscript(n *pyast.Node) {
	if !s.rule.cfg.Bool("check_index_bounds", true) {
		return
	}
	idx := n.Index
	if idx == nil || idx.Kind != pyast.KindName || s.guarded[idx.Name] {
		return
	}
	s.report(idx.Pos,
		fmt.Sprintf("Index '%s' is not bounds-checked before subscripting", idx.Name),
		[]string{
			fmt.Sprintf("Compare '%s' against the sequence length first", idx.Name),
			"Or catch IndexError around the access",
		}, map[string]any{"check": "index_bounds", "name": idx.Name})
}

// checkOpenCall flags open() outside a try body. A with-statement does
// close the handle but does not catch the OSError open itself can raise,
// so with-wrapped opens are still reported.
func (s *edgeScope) checkOpenCall(n *pyast.Node, inTry bool) {
	if !s.rule.cfg.Bool("check_file_handling", true) || inTry {
		return
	}
	if n.Func == nil || n.Func.Kind != pyast.KindName || n.Func.Name != "open" {
		return
	}
	s.report(n.Pos,
		"Call to open() without surrounding try/except; I/O errors will propagate",
		[]string{
			"Wrap the call in try/except OSError",
		}, map[string]any{"check": "file_handling"})
}

func (s *edgeScope) checkAttribute(n *pyast.Node) {
	if !s.rule.cfg.Bool("check_null_checks", true) {
		return
	}
	v := n.Value
	if v == nil || v.Kind != pyast.KindName {
		return
	}
	name := v.Name
	if name == "self" || name == "cls" {
		return
	}
	if !s.assigned[name] || s.noneGuarded[name] || s.attrFlagged[name] {
		return
	}
	s.attrFlagged[name] = true
	s.report(v.Pos,
		fmt.Sprintf("'%s' may be None when accessing attribute '%s'", name, n.Name),
		[]string{
			fmt.Sprintf("Check '%s is not None' before the access", name),
		}, map[string]any{"check": "null_checks", "name": name, "attribute": n.Name})
}

func (s *edgeScope) report(pos pyast.Position, msg string, fixes []string, meta map[string]any) {
	s.out = append(s.out, ir.RuleResult{
		RuleID:         MissingEdgeCaseID,
		Severity:       ir.SeverityWarning,
		Message:        msg,
		Filepath:       s.file.Filepath,
		Line:           pos.Line,
		Column:         pos.Col,
		CodeSnippet:    snippetAround(s.file.Content, pos.Line, 1),
		FixSuggestions: fixes,
		Metadata:       meta,
	})
}
