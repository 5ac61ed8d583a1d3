package rules

import (
	"fmt"
	"strings"

	"github.com/codewithboateng/prlint/internal/ir"
	"github.com/codewithboateng/prlint/internal/pyast"
)

const CodeSmellID = "code-smell"

// CodeSmellDefinition bundles the structural smell checks: long functions,
// deep nesting, magic numbers, empty exception handlers, and cross-file
// duplicate blocks. Each check toggles independently.
func CodeSmellDefinition() *Definition {
	return &Definition{
		ID:          CodeSmellID,
		Name:        "Code Smell",
		Description: "Flags long functions, deep nesting, magic numbers, empty exception handlers, and duplicated code blocks.",
		Category:    ir.CategoryCodeIntegrity,
		Severity:    ir.SeverityWarning,
		Enabled:     true,
		Dependencies: []string{
			SyntaxErrorID,
		},
		Defaults: map[string]any{
			"check_long_functions":      true,
			"check_nesting":             true,
			"check_magic_numbers":       true,
			"check_empty_handlers":      true,
			"check_duplicates":          true,
			"max_function_length":       100,
			"max_nesting_depth":         4,
			"ignored_numbers":           []any{-1, 0, 1, 2, 100},
			"min_duplicate_lines":       5,
			"max_duplicate_files":       20,
			"max_duplicate_total_lines": 5000,
		},
		New: func(cfg map[string]any) Rule {
			return &codeSmellRule{cfg: options(cfg)}
		},
	}
}

type codeSmellRule struct {
	cfg options
}

func (r *codeSmellRule) Applicable(ctx *Context) bool {
	return len(ctx.PythonFiles()) > 0
}

func (r *codeSmellRule) Analyze(ctx *Context) ([]ir.RuleResult, error) {
	files, trees := ctx.ParsedPythonFiles()
	var out []ir.RuleResult
	for i := range files {
		if r.cfg.Bool("check_long_functions", true) {
			out = append(out, r.longFunctions(files[i], trees[i])...)
		}
		if r.cfg.Bool("check_nesting", true) {
			out = append(out, r.deepNesting(files[i], trees[i])...)
		}
		if r.cfg.Bool("check_magic_numbers", true) {
			out = append(out, r.magicNumbers(files[i], trees[i])...)
		}
		if r.cfg.Bool("check_empty_handlers", true) {
			out = append(out, r.emptyHandlers(files[i], trees[i])...)
		}
	}
	if r.cfg.Bool("check_duplicates", true) {
		out = append(out, r.duplicates(files)...)
	}
	return out, nil
}

func (r *codeSmellRule) longFunctions(f ir.SourceFile, tree *pyast.Node) []ir.RuleResult {
	maxLen := r.cfg.Int("max_function_length", 100)
	var out []ir.RuleResult
	for _, fn := range pyast.Functions(tree) {
		span := fn.Span()
		if span <= maxLen {
			continue
		}
		out = append(out, ir.RuleResult{
			RuleID:      CodeSmellID,
			Severity:    ir.SeverityWarning,
			Message:     fmt.Sprintf("Function '%s' is %d lines long (limit %d)", fn.Name, span, maxLen),
			Filepath:    f.Filepath,
			Line:        fn.Pos.Line,
			Column:      fn.Pos.Col,
			CodeSnippet: snippetRange(f.Content, fn.Pos.Line, fn.End.Line),
			FixSuggestions: []string{
				"Extract cohesive sections into helper functions",
			},
			Metadata: map[string]any{"length": span, "limit": maxLen},
		})
	}
	return out
}

func isNestingKind(k pyast.Kind) bool {
	switch k {
	case pyast.KindIf, pyast.KindFor, pyast.KindWhile, pyast.KindTry,
		pyast.KindWith, pyast.KindFunctionDef, pyast.KindClassDef:
		return true
	}
	return false
}

type nestHit struct {
	node  *pyast.Node
	depth int
}

// deepNesting increments a depth counter on entry to every control or
// definition construct and reports the single deepest offender per function
// (or module) scope.
func (r *codeSmellRule) deepNesting(f ir.SourceFile, tree *pyast.Node) []ir.RuleResult {
	maxDepth := r.cfg.Int("max_nesting_depth", 4)
	best := make(map[*pyast.Node]*nestHit)
	var scopes []*pyast.Node // insertion order for deterministic output

	var walk func(n *pyast.Node, depth int, scope *pyast.Node)
	walkAll := func(ns []*pyast.Node, depth int, scope *pyast.Node) {
		for _, c := range ns {
			walk(c, depth, scope)
		}
	}
	walk = func(n *pyast.Node, depth int, scope *pyast.Node) {
		if n == nil {
			return
		}
		d := depth
		if isNestingKind(n.Kind) {
			d++
			if d > maxDepth {
				hit := best[scope]
				if hit == nil {
					best[scope] = &nestHit{node: n, depth: d}
					scopes = append(scopes, scope)
				} else if d > hit.depth {
					hit.node, hit.depth = n, d
				}
			}
		}
		inner := scope
		if n.Kind == pyast.KindFunctionDef {
			inner = n
		}
		switch n.Kind {
		case pyast.KindModule, pyast.KindClassDef:
			walkAll(n.Body, d, inner)
		case pyast.KindFunctionDef:
			walkAll(n.Body, d, inner)
		case pyast.KindIf, pyast.KindWhile, pyast.KindFor, pyast.KindWith:
			walkAll(n.Body, d, inner)
			walkAll(n.Orelse, d, inner)
		case pyast.KindTry:
			walkAll(n.Body, d, inner)
			for _, h := range n.Handlers {
				walkAll(h.Body, d, inner)
			}
			walkAll(n.Orelse, d, inner)
			walkAll(n.Final, d, inner)
		}
	}
	walk(tree, 0, tree)

	var out []ir.RuleResult
	for _, scope := range scopes {
		hit := best[scope]
		where := "module level"
		if scope.Kind == pyast.KindFunctionDef {
			where = fmt.Sprintf("function '%s'", scope.Name)
		}
		out = append(out, ir.RuleResult{
			RuleID:   CodeSmellID,
			Severity: ir.SeverityWarning,
			Message: fmt.Sprintf("Deeply nested code in %s: depth %d exceeds limit %d",
				where, hit.depth, maxDepth),
			Filepath:    f.Filepath,
			Line:        hit.node.Pos.Line,
			Column:      hit.node.Pos.Col,
			CodeSnippet: snippetAround(f.Content, hit.node.Pos.Line, 1),
			FixSuggestions: []string{
				"Flatten with early returns or extract the inner block into a helper",
			},
			Metadata: map[string]any{"depth": hit.depth, "limit": maxDepth},
		})
	}
	return out
}

func (r *codeSmellRule) magicNumbers(f ir.SourceFile, tree *pyast.Node) []ir.RuleResult {
	ignored := map[float64]bool{}
	for _, v := range r.cfg.Numbers("ignored_numbers", []float64{-1, 0, 1, 2, 100}) {
		ignored[v] = true
	}
	var out []ir.RuleResult
	flag := func(n *pyast.Node, value float64, text string) {
		if ignored[value] {
			return
		}
		out = append(out, ir.RuleResult{
			RuleID:      CodeSmellID,
			Severity:    ir.SeverityInfo,
			Message:     fmt.Sprintf("Magic number %s; consider a named constant", text),
			Filepath:    f.Filepath,
			Line:        n.Pos.Line,
			Column:      n.Pos.Col,
			CodeSnippet: snippetAround(f.Content, n.Pos.Line, 0),
			Metadata:    map[string]any{"value": value},
		})
	}
	pyast.Walk(tree, func(n *pyast.Node) bool {
		// Fold a leading unary minus into the literal so that -1 matches
		// the ignore set.
		if n.Kind == pyast.KindUnaryOp && n.Op == "-" &&
			n.Value != nil && n.Value.Kind == pyast.KindNumber {
			flag(n, -n.Value.Num, "-"+n.Value.Text)
			return false
		}
		if n.Kind == pyast.KindNumber {
			flag(n, n.Num, n.Text)
		}
		return true
	})
	return out
}

func (r *codeSmellRule) emptyHandlers(f ir.SourceFile, tree *pyast.Node) []ir.RuleResult {
	var out []ir.RuleResult
	pyast.Walk(tree, func(n *pyast.Node) bool {
		if n.Kind != pyast.KindTry {
			return true
		}
		for _, h := range n.Handlers {
			if !handlerIsEmpty(h.Body) {
				continue
			}
			label := h.ExcType
			if label == "" {
				label = "bare except"
			}
			out = append(out, ir.RuleResult{
				RuleID:      CodeSmellID,
				Severity:    ir.SeverityWarning,
				Message:     fmt.Sprintf("Empty exception handler (%s) swallows errors silently", label),
				Filepath:    f.Filepath,
				Line:        h.Pos.Line,
				Column:      h.Pos.Col,
				CodeSnippet: snippetAround(f.Content, h.Pos.Line, 1),
				FixSuggestions: []string{
					"Handle the exception or log it before continuing",
					"Narrow the except clause if the error is truly expected",
				},
			})
		}
		return true
	})
	return out
}

func handlerIsEmpty(body []*pyast.Node) bool {
	if len(body) == 0 {
		return true
	}
	if len(body) != 1 {
		return false
	}
	s := body[0]
	switch s.Kind {
	case pyast.KindPass:
		return true
	case pyast.KindExprStmt:
		v := s.Value
		if v == nil {
			return true
		}
		if v.Kind == pyast.KindNone {
			return true
		}
		return v.Kind == pyast.KindName && v.Name == "..."
	}
	return false
}

// duplicates runs a pairwise sliding-window scan across all files in the
// batch. This is the quadratic hot spot of the rule set; above the
// configured file/line ceilings the check is skipped entirely and the run
// degrades to partial results instead of failing.
func (r *codeSmellRule) duplicates(files []ir.SourceFile) []ir.RuleResult {
	minLines := r.cfg.Int("min_duplicate_lines", 5)
	if minLines < 1 {
		minLines = 1
	}
	maxFiles := r.cfg.Int("max_duplicate_files", 20)
	maxTotal := r.cfg.Int("max_duplicate_total_lines", 5000)

	if len(files) < 2 || len(files) > maxFiles {
		return nil
	}
	lines := make([][]string, len(files))
	total := 0
	for i, f := range files {
		ls := splitLines(f.Content)
		for k := range ls {
			ls[k] = strings.TrimRight(ls[k], " \t\r")
		}
		lines[i] = ls
		total += len(ls)
	}
	if total > maxTotal {
		return nil
	}

	var out []ir.RuleResult
	for a := 0; a < len(files); a++ {
		for b := a + 1; b < len(files); b++ {
			out = append(out, r.duplicatePair(files[a], lines[a], files[b], lines[b], minLines)...)
		}
	}
	return out
}

func (r *codeSmellRule) duplicatePair(fa ir.SourceFile, la []string, fb ir.SourceFile, lb []string, min int) []ir.RuleResult {
	var out []ir.RuleResult
	i := 0
	for i+min <= len(la) {
		matched := false
		for j := 0; j+min <= len(lb); j++ {
			if !windowsEqual(la[i:i+min], lb[j:j+min]) {
				continue
			}
			// Greedy extension to the maximal run.
			length := min
			for i+length < len(la) && j+length < len(lb) && la[i+length] == lb[j+length] {
				length++
			}
			snipEnd := i + length
			if snipEnd > i+10 {
				snipEnd = i + 10
			}
			out = append(out, ir.RuleResult{
				RuleID:   CodeSmellID,
				Severity: ir.SeverityWarning,
				Message: fmt.Sprintf("Duplicate block of %d lines also appears in %s at line %d",
					length, fb.Filepath, j+1),
				Filepath:    fa.Filepath,
				Line:        i + 1,
				CodeSnippet: snippetRange(fa.Content, i+1, snipEnd),
				FixSuggestions: []string{
					"Extract the shared block into a common helper",
				},
				Metadata: map[string]any{
					"duplicate_of":   fb.Filepath,
					"duplicate_line": j + 1,
					"length":         length,
				},
			})
			// Resume past the matched region so overlapping duplicates are
			// not reported again.
			i += length
			matched = true
			break
		}
		if !matched {
			i++
		}
	}
	return out
}

// windowsEqual requires identical lines and at least one non-blank line so
// that runs of empty lines never count as duplicated code.
func windowsEqual(a, b []string) bool {
	nonBlank := false
	for k := range a {
		if a[k] != b[k] {
			return false
		}
		if strings.TrimSpace(a[k]) != "" {
			nonBlank = true
		}
	}
	return nonBlank
}
