package rules

import (
	"testing"

	"github.com/codewithboateng/prlint/internal/ir"
	"github.com/codewithboateng/prlint/internal/storage"
)

func suppressInput() []ir.RuleResult {
	return []ir.RuleResult{
		{RuleID: "code-smell", Filepath: "app/main.py", Message: "Magic number 42; consider a named constant"},
		{RuleID: "code-smell", Filepath: "lib/util.py", Message: "Function 'big' is 140 lines long (limit 100)"},
		{RuleID: "unused-parameter", Filepath: "app/main.py", Message: "Parameter 'y' of function 'foo' is never used"},
	}
}

func TestApplySuppressions_RuleIDCaseInsensitive(t *testing.T) {
	kept, n := ApplySuppressions(suppressInput(), []storage.Suppression{
		{RuleID: "CODE-SMELL"},
	})
	if n != 2 || len(kept) != 1 {
		t.Fatalf("kept=%d suppressed=%d, want 1/2", len(kept), n)
	}
	if kept[0].RuleID != "unused-parameter" {
		t.Fatalf("kept = %+v", kept[0])
	}
}

func TestApplySuppressions_PathSubstring(t *testing.T) {
	kept, n := ApplySuppressions(suppressInput(), []storage.Suppression{
		{RuleID: "code-smell", PathSub: "lib/"},
	})
	if n != 1 || len(kept) != 2 {
		t.Fatalf("kept=%d suppressed=%d, want 2/1", len(kept), n)
	}
	for _, r := range kept {
		if r.Filepath == "lib/util.py" {
			t.Fatalf("lib result not suppressed: %+v", r)
		}
	}
}

func TestApplySuppressions_PatternMatchesMessageOrSnippet(t *testing.T) {
	kept, n := ApplySuppressions(suppressInput(), []storage.Suppression{
		{RuleID: "code-smell", PatternSub: "magic number"},
	})
	if n != 1 || len(kept) != 2 {
		t.Fatalf("kept=%d suppressed=%d, want 2/1", len(kept), n)
	}

	in := []ir.RuleResult{{RuleID: "code-smell", Message: "x", CodeSnippet: "retry_count = 42"}}
	kept, n = ApplySuppressions(in, []storage.Suppression{
		{RuleID: "code-smell", PatternSub: "retry_count"},
	})
	if n != 1 || len(kept) != 0 {
		t.Fatalf("snippet match failed: kept=%d suppressed=%d", len(kept), n)
	}
}

func TestApplySuppressions_NoMatchNoChange(t *testing.T) {
	in := suppressInput()
	kept, n := ApplySuppressions(in, []storage.Suppression{
		{RuleID: "missing-edge-case"},
		{RuleID: "code-smell", PathSub: "vendor/"},
	})
	if n != 0 || len(kept) != len(in) {
		t.Fatalf("kept=%d suppressed=%d, want all kept", len(kept), n)
	}
}

func TestApplySuppressions_EmptyInputs(t *testing.T) {
	if kept, n := ApplySuppressions(nil, []storage.Suppression{{RuleID: "code-smell"}}); n != 0 || len(kept) != 0 {
		t.Fatalf("empty results: kept=%d suppressed=%d", len(kept), n)
	}
	in := suppressInput()
	if kept, n := ApplySuppressions(in, nil); n != 0 || len(kept) != len(in) {
		t.Fatalf("no suppressions: kept=%d suppressed=%d", len(kept), n)
	}
}
