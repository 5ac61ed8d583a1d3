package rules

import (
	"strings"

	"github.com/codewithboateng/prlint/internal/ir"
	"github.com/codewithboateng/prlint/internal/storage"
)

// ApplySuppressions filters out results matched by any of the given
// suppressions and reports how many were dropped. Rule ids compare
// case-insensitively; the optional path and pattern fields are
// case-insensitive substring matches against the result's filepath and its
// message or snippet.
func ApplySuppressions(in []ir.RuleResult, sups []storage.Suppression) ([]ir.RuleResult, int) {
	if len(sups) == 0 || len(in) == 0 {
		return in, 0
	}
	var out []ir.RuleResult
	suppressed := 0
nextResult:
	for _, res := range in {
		for _, s := range sups {
			if !eqCI(res.RuleID, s.RuleID) {
				continue
			}
			if s.PathSub != "" {
				if !strings.Contains(strings.ToUpper(res.Filepath), strings.ToUpper(s.PathSub)) {
					continue
				}
			}
			if s.PatternSub != "" {
				ps := strings.ToUpper(s.PatternSub)
				if !strings.Contains(strings.ToUpper(res.Message), ps) &&
					!strings.Contains(strings.ToUpper(res.CodeSnippet), ps) {
					continue
				}
			}
			suppressed++
			continue nextResult
		}
		out = append(out, res)
	}
	return out, suppressed
}

func eqCI(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
