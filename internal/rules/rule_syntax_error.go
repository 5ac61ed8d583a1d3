package rules

import (
	"errors"
	"fmt"

	"github.com/codewithboateng/prlint/internal/ir"
	"github.com/codewithboateng/prlint/internal/pyast"
)

const SyntaxErrorID = "syntax-error"

// SyntaxErrorDefinition reports files that fail to parse. Parse failures are
// this rule's finding exclusively; every other AST rule skips such files.
func SyntaxErrorDefinition() *Definition {
	return &Definition{
		ID:          SyntaxErrorID,
		Name:        "Syntax Error",
		Description: "Reports files in the change set that fail to parse.",
		Category:    ir.CategoryCodeIntegrity,
		Severity:    ir.SeverityError,
		Enabled:     true,
		Defaults: map[string]any{
			"context_lines": 2,
		},
		New: func(cfg map[string]any) Rule {
			return &syntaxErrorRule{cfg: options(cfg)}
		},
	}
}

type syntaxErrorRule struct {
	cfg options
}

func (r *syntaxErrorRule) Applicable(ctx *Context) bool {
	return len(ctx.PythonFiles()) > 0
}

func (r *syntaxErrorRule) Analyze(ctx *Context) ([]ir.RuleResult, error) {
	window := r.cfg.Int("context_lines", 2)
	var out []ir.RuleResult
	for _, f := range ctx.PythonFiles() {
		_, err := ctx.Tree(f)
		if err == nil {
			continue
		}
		res := ir.RuleResult{
			RuleID:   SyntaxErrorID,
			Severity: ir.SeverityError,
			Filepath: f.Filepath,
			FixSuggestions: []string{
				"Fix the syntax error; no other checks run on this file until it parses",
			},
		}
		var serr *pyast.SyntaxError
		if errors.As(err, &serr) {
			res.Message = fmt.Sprintf("Syntax error: %s", serr.Msg)
			res.Line = serr.Line
			res.Column = serr.Col
			res.CodeSnippet = snippetAround(f.Content, serr.Line, window)
		} else {
			res.Message = fmt.Sprintf("Syntax error: %v", err)
		}
		out = append(out, res)
	}
	return out, nil
}
