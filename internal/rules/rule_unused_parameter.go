package rules

import (
	"fmt"
	"strings"

	"github.com/codewithboateng/prlint/internal/ir"
	"github.com/codewithboateng/prlint/internal/pyast"
)

const UnusedParameterID = "unused-parameter"

// UnusedParameterDefinition reports declared parameters that the function
// body never reads. Dunder methods are always skipped since their
// signatures are fixed by protocol, and a leading underscore on a
// parameter is the conventional way to declare it intentionally unused.
func UnusedParameterDefinition() *Definition {
	return &Definition{
		ID:          UnusedParameterID,
		Name:        "Unused Parameter",
		Description: "Flags function parameters that are never read in the function body.",
		Category:    ir.CategoryParameterValidation,
		Severity:    ir.SeverityWarning,
		Enabled:     true,
		Dependencies: []string{
			SyntaxErrorID,
		},
		Defaults: map[string]any{
			"ignore_self":            true,
			"ignore_varargs":         true,
			"ignore_private_methods": false,
		},
		New: func(cfg map[string]any) Rule {
			return &unusedParameterRule{cfg: options(cfg)}
		},
	}
}

type unusedParameterRule struct {
	cfg options
}

func (r *unusedParameterRule) Applicable(ctx *Context) bool {
	return len(ctx.PythonFiles()) > 0
}

func (r *unusedParameterRule) Analyze(ctx *Context) ([]ir.RuleResult, error) {
	ignoreSelf := r.cfg.Bool("ignore_self", true)
	ignoreVarargs := r.cfg.Bool("ignore_varargs", true)
	ignorePrivate := r.cfg.Bool("ignore_private_methods", false)

	files, trees := ctx.ParsedPythonFiles()
	var out []ir.RuleResult
	for i := range files {
		f := files[i]
		for _, fn := range pyast.Functions(trees[i]) {
			if isDunder(fn.Name) {
				continue
			}
			if ignorePrivate && strings.HasPrefix(fn.Name, "_") {
				continue
			}
			used := collectReads(fn.Body)
			for _, p := range fn.Params {
				if p.Name == "" || strings.HasPrefix(p.Name, "_") {
					continue
				}
				if ignoreSelf && (p.Name == "self" || p.Name == "cls") {
					continue
				}
				if ignoreVarargs && (p.Star || p.DoubleStar) {
					continue
				}
				if used[p.Name] {
					continue
				}
				out = append(out, ir.RuleResult{
					RuleID:      UnusedParameterID,
					Severity:    ir.SeverityWarning,
					Message:     fmt.Sprintf("Parameter '%s' of function '%s' is never used", p.Name, fn.Name),
					Filepath:    f.Filepath,
					Line:        p.Pos.Line,
					Column:      p.Pos.Col,
					CodeSnippet: snippetAround(f.Content, p.Pos.Line, 0),
					FixSuggestions: []string{
						fmt.Sprintf("Remove '%s' from the signature if no caller depends on it", p.Name),
						fmt.Sprintf("Rename it to '_%s' to mark it intentionally unused", p.Name),
					},
					Metadata: map[string]any{"function": fn.Name, "parameter": p.Name},
				})
			}
		}
	}
	return out, nil
}

func isDunder(name string) bool {
	return len(name) > 4 && strings.HasPrefix(name, "__") && strings.HasSuffix(name, "__")
}

// collectReads gathers every name read in the body, nested definitions
// included so closure captures count. Rebinding a plain name is not a
// read; augmented assignment is, since it reads before it writes.
func collectReads(body []*pyast.Node) map[string]bool {
	used := make(map[string]bool)
	var visit func(n *pyast.Node) bool
	visit = func(n *pyast.Node) bool {
		switch n.Kind {
		case pyast.KindAssign:
			for _, t := range n.Items {
				if t.Kind == pyast.KindName {
					continue
				}
				pyast.Walk(t, visit)
			}
			pyast.Walk(n.Value, visit)
			return false
		case pyast.KindName:
			used[n.Name] = true
		}
		return true
	}
	for _, s := range body {
		pyast.Walk(s, visit)
	}
	return used
}
