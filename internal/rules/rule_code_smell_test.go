package rules

import (
	"strings"
	"testing"

	"github.com/codewithboateng/prlint/internal/ir"
)

// smellOnly disables every code-smell check except the named ones.
func smellOnly(checks ...string) map[string]any {
	cfg := map[string]any{
		"check_long_functions": false,
		"check_nesting":        false,
		"check_magic_numbers":  false,
		"check_empty_handlers": false,
		"check_duplicates":     false,
	}
	for _, c := range checks {
		cfg["check_"+c] = true
	}
	return cfg
}

func longFunctionSource(bodyLines int) string {
	var b strings.Builder
	b.WriteString("def worker():\n")
	for i := 0; i < bodyLines; i++ {
		b.WriteString("    pass\n")
	}
	return b.String()
}

func TestCodeSmell_LongFunctionThreshold(t *testing.T) {
	cfg := smellOnly("long_functions")

	// def line plus 99 body lines spans exactly 100 lines.
	out := runRule(t, CodeSmellDefinition(), map[string]string{
		"ok.py": longFunctionSource(99),
	}, cfg)
	if len(out) != 0 {
		t.Fatalf("100-line function flagged: %v", out)
	}

	out = runRule(t, CodeSmellDefinition(), map[string]string{
		"long.py": longFunctionSource(100),
	}, cfg)
	if len(out) != 1 {
		t.Fatalf("results = %d, want 1", len(out))
	}
	res := out[0]
	if res.Message != "Function 'worker' is 101 lines long (limit 100)" {
		t.Fatalf("message = %q", res.Message)
	}
	if res.Line != 1 || res.Metadata["length"] != 101 {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestCodeSmell_DeepNestingOneReportPerFunction(t *testing.T) {
	src := strings.Join([]string{
		"def deep(items):",
		"    if items:",
		"        for i in items:",
		"            while i:",
		"                if i:",
		"                    x = 1",
		"                if x:",
		"                    y = 2",
		"",
	}, "\n")
	out := runRule(t, CodeSmellDefinition(), map[string]string{"deep.py": src}, smellOnly("nesting"))
	if len(out) != 1 {
		t.Fatalf("results = %d, want one report per function", len(out))
	}
	res := out[0]
	if res.Message != "Deeply nested code in function 'deep': depth 5 exceeds limit 4" {
		t.Fatalf("message = %q", res.Message)
	}
	if res.Line != 5 {
		t.Fatalf("line = %d, want first deepest offender at 5", res.Line)
	}
}

func TestCodeSmell_MagicNumbers(t *testing.T) {
	src := "threshold = 42\noffset = -1\npercent = 100\nscale = 2.5\n"
	out := runRule(t, CodeSmellDefinition(), map[string]string{"nums.py": src}, smellOnly("magic_numbers"))
	if len(out) != 2 {
		t.Fatalf("results = %d, want 2 (42 and 2.5)", len(out))
	}
	for _, res := range out {
		if res.Severity != ir.SeverityInfo {
			t.Fatalf("severity = %q, want info", res.Severity)
		}
	}
	if out[0].Message != "Magic number 42; consider a named constant" {
		t.Fatalf("message = %q", out[0].Message)
	}
	if out[1].Line != 4 {
		t.Fatalf("line = %d, want 4", out[1].Line)
	}
}

func TestCodeSmell_EmptyHandlers(t *testing.T) {
	src := strings.Join([]string{
		"try:",
		"    risky()",
		"except ValueError:",
		"    pass",
		"except KeyError as e:",
		"    log(e)",
		"try:",
		"    other()",
		"except:",
		"    ...",
		"",
	}, "\n")
	out := runRule(t, CodeSmellDefinition(), map[string]string{"h.py": src}, smellOnly("empty_handlers"))
	if len(out) != 2 {
		t.Fatalf("results = %d, want 2", len(out))
	}
	if !strings.Contains(out[0].Message, "(ValueError)") {
		t.Fatalf("message = %q", out[0].Message)
	}
	if !strings.Contains(out[1].Message, "(bare except)") {
		t.Fatalf("message = %q", out[1].Message)
	}
}

const dupBody = "    x = compute()\n    y = transform(x)\n    z = validate(y)\n    w = persist(z)\n    return w\n"

func TestCodeSmell_DuplicateBlocks(t *testing.T) {
	files := map[string]string{
		"first.py":  "def a():\n" + dupBody,
		"second.py": "def b():\n" + dupBody,
	}
	out := runRule(t, CodeSmellDefinition(), files, smellOnly("duplicates"))
	if len(out) != 1 {
		t.Fatalf("results = %d, want 1", len(out))
	}
	res := out[0]
	if res.Filepath != "first.py" || res.Line != 2 {
		t.Fatalf("location = %s:%d, want first.py:2", res.Filepath, res.Line)
	}
	if res.Metadata["duplicate_of"] != "second.py" || res.Metadata["duplicate_line"] != 2 {
		t.Fatalf("metadata = %v", res.Metadata)
	}
	if res.Metadata["length"] != 5 {
		t.Fatalf("length = %v, want 5", res.Metadata["length"])
	}
}

func TestCodeSmell_DuplicatesBelowMinimumIgnored(t *testing.T) {
	cfg := smellOnly("duplicates")
	cfg["min_duplicate_lines"] = 6
	files := map[string]string{
		"first.py":  "def a():\n" + dupBody,
		"second.py": "def b():\n" + dupBody,
	}
	out := runRule(t, CodeSmellDefinition(), files, cfg)
	if len(out) != 0 {
		t.Fatalf("results = %v, want none", out)
	}
}

func TestCodeSmell_DuplicatesSkipAboveCeilings(t *testing.T) {
	cfg := smellOnly("duplicates")
	cfg["max_duplicate_files"] = 1
	files := map[string]string{
		"first.py":  "def a():\n" + dupBody,
		"second.py": "def b():\n" + dupBody,
	}
	if out := runRule(t, CodeSmellDefinition(), files, cfg); len(out) != 0 {
		t.Fatalf("file ceiling not honored: %v", out)
	}

	cfg = smellOnly("duplicates")
	cfg["max_duplicate_total_lines"] = 3
	if out := runRule(t, CodeSmellDefinition(), files, cfg); len(out) != 0 {
		t.Fatalf("line ceiling not honored: %v", out)
	}
}
