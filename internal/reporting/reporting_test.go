package reporting

import (
	"encoding/json"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/codewithboateng/prlint/internal/ir"
)

func sampleRun(id string) *ir.Run {
	return &ir.Run{
		ID:        id,
		StartedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Source:    "cli",
		IRVersion: ir.Version,
		PR:        map[string]string{"title": "Refactor billing"},
		FileCount: 2,
		Stats:     &ir.RunStats{Files: 2, Lines: 80, BlankLines: 10, CommentLines: 5, Functions: 4, Classes: 1},
		Results: []ir.RuleResult{
			{
				RuleID:      "code-smell",
				Severity:    ir.SeverityWarning,
				Message:     "Function 'bill' is 120 lines long (limit 100)",
				Filepath:    "billing.py",
				Line:        10,
				CodeSnippet: "def bill(account):\n    total = 0",
				FixSuggestions: []string{
					"Extract cohesive sections into helper functions",
				},
			},
			{
				RuleID:   "syntax-error",
				Severity: ir.SeverityError,
				Message:  "Syntax error: unexpected indent",
				Filepath: "billing.py",
				Line:     2,
			},
			{
				RuleID:   "code-smell",
				Severity: ir.SeverityInfo,
				Message:  "Magic number 42; consider a named constant",
				Filepath: "util.py",
				Line:     3,
			},
		},
	}
}

func TestWriteJSON_Roundtrip(t *testing.T) {
	dir := t.TempDir()
	run := sampleRun("run_x")
	path, err := WriteJSON("run_x", dir, run)
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	if !strings.HasSuffix(path, "run_x.json") {
		t.Fatalf("path = %q", path)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var got ir.Run
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.ID != "run_x" || len(got.Results) != 3 || got.Stats == nil || got.Stats.Functions != 4 {
		t.Fatalf("got %+v", got)
	}
}

func TestWriteMarkdown_Layout(t *testing.T) {
	dir := t.TempDir()
	path, err := WriteMarkdown("run_x", dir, sampleRun("run_x"))
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	md := string(b)

	for _, want := range []string{
		"# prlint report: `run_x`",
		"**PR:** Refactor billing",
		"Files analyzed: 2 &nbsp; Issues: 3",
		"80 lines (10 blank, 5 comment), 4 functions, 1 classes",
		"| 1 | 1 | 1 | 0 |",
		"## `billing.py`",
		"## `util.py`",
		"- `ERROR` **syntax-error** (line 2): Syntax error: unexpected indent",
		"```python",
		"_Suggestion:_ Extract cohesive sections into helper functions",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q", want)
		}
	}

	// Error before warning within billing.py.
	if strings.Index(md, "syntax-error") > strings.Index(md, "Function 'bill'") {
		t.Error("results not ordered worst first")
	}
}

func TestWriteMarkdown_NoIssues(t *testing.T) {
	run := sampleRun("run_y")
	run.Results = nil
	path, err := WriteMarkdown("run_y", t.TempDir(), run)
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	b, _ := os.ReadFile(path)
	if !strings.Contains(string(b), "No issues found.") {
		t.Fatalf("markdown = %s", b)
	}
}

func TestWriteDiffJSON_Classification(t *testing.T) {
	base := sampleRun("base")
	head := sampleRun("head")

	// Fixed: drop the syntax error from head.
	// Changed: long function moved to another line.
	// New: an extra finding only in head.
	head.Results = []ir.RuleResult{
		{
			RuleID:   "code-smell",
			Severity: ir.SeverityWarning,
			Message:  "Function 'bill' is 120 lines long (limit 100)",
			Filepath: "billing.py",
			Line:     25,
		},
		{
			RuleID:   "code-smell",
			Severity: ir.SeverityInfo,
			Message:  "Magic number 42; consider a named constant",
			Filepath: "util.py",
			Line:     3,
		},
		{
			RuleID:   "unused-parameter",
			Severity: ir.SeverityWarning,
			Message:  "Parameter 'ctx' of function 'bill' is never used",
			Filepath: "billing.py",
			Line:     10,
		},
	}

	path, err := WriteDiffJSON("base", "head", t.TempDir(), base, head)
	if err != nil {
		t.Fatalf("diff: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var payload struct {
		Summary struct {
			New     int `json:"new"`
			Fixed   int `json:"fixed"`
			Changed int `json:"changed"`
		} `json:"summary"`
		New []struct {
			RuleID string `json:"rule_id"`
		} `json:"new"`
		Fixed []struct {
			RuleID string `json:"rule_id"`
		} `json:"fixed"`
		Changed []struct {
			Changed []string `json:"fields_changed"`
		} `json:"changed"`
	}
	if err := json.Unmarshal(b, &payload); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if payload.Summary.New != 1 || payload.Summary.Fixed != 1 || payload.Summary.Changed != 1 {
		t.Fatalf("summary = %+v", payload.Summary)
	}
	if payload.New[0].RuleID != "unused-parameter" {
		t.Fatalf("new = %+v", payload.New)
	}
	if payload.Fixed[0].RuleID != "syntax-error" {
		t.Fatalf("fixed = %+v", payload.Fixed)
	}
	if len(payload.Changed[0].Changed) != 1 || payload.Changed[0].Changed[0] != "line" {
		t.Fatalf("changed = %+v", payload.Changed)
	}
}
