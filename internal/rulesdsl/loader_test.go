package rulesdsl

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/codewithboateng/prlint/internal/ir"
	"github.com/codewithboateng/prlint/internal/rules"
)

const samplePack = `
rules:
  - id: no-print
    name: No Print Statements
    summary: print() left in committed code
    severity: info
    message: Remove debug print before merging
    where:
      content_regex: '\bprint\('
    fix_suggestions:
      - Use the logging module instead
  - id: no-staging-host
    severity: error
    message: Hard-coded staging hostname
    where:
      path_regex: '\.py$'
      content_regex: 'staging\.internal'
`

func writePack(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rules.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_CompilesPack(t *testing.T) {
	defs, err := Load(writePack(t, samplePack))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(defs) != 2 {
		t.Fatalf("defs = %d, want 2", len(defs))
	}
	if defs[0].ID != "no-print" || defs[0].Name != "No Print Statements" {
		t.Fatalf("first def = %+v", defs[0])
	}
	if defs[0].Category != ir.CategoryCustom || defs[0].Severity != ir.SeverityInfo {
		t.Fatalf("first def = %+v", defs[0])
	}
	// Name falls back to the id when omitted.
	if defs[1].Name != "no-staging-host" || defs[1].Severity != ir.SeverityError {
		t.Fatalf("second def = %+v", defs[1])
	}
}

func TestRegisterPack_AddsToRegistry(t *testing.T) {
	reg := rules.NewRegistry()
	n, err := RegisterPack(reg, writePack(t, samplePack))
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if n != 2 {
		t.Fatalf("registered = %d, want 2", n)
	}
	if _, ok := reg.Get("no-print"); !ok {
		t.Fatal("no-print not registered")
	}
}

func TestRegexRule_MatchesLines(t *testing.T) {
	defs, err := Load(writePack(t, samplePack))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	inst := defs[0].New(nil)

	ctx := rules.NewContext([]ir.SourceFile{{
		Filepath: "app.py",
		Content:  "import logging\nprint('debug')\nlogging.info('ok')\n",
	}}, nil, nil)
	if !inst.Applicable(ctx) {
		t.Fatal("rule not applicable")
	}
	out, err := inst.Analyze(ctx)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("results = %d, want 1", len(out))
	}
	res := out[0]
	if res.Line != 2 || res.Column != 1 {
		t.Fatalf("location = %d:%d, want 2:1", res.Line, res.Column)
	}
	if res.Message != "Remove debug print before merging" || res.CodeSnippet != "print('debug')" {
		t.Fatalf("result = %+v", res)
	}
}

func TestRegexRule_PathFilter(t *testing.T) {
	defs, err := Load(writePack(t, samplePack))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	inst := defs[1].New(nil)

	ctx := rules.NewContext([]ir.SourceFile{
		{Filepath: "notes.txt", Content: "staging.internal\n"},
		{Filepath: "deploy.py", Content: "host = 'staging.internal'\n"},
	}, nil, nil)
	out, err := inst.Analyze(ctx)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if len(out) != 1 || out[0].Filepath != "deploy.py" {
		t.Fatalf("results = %+v, want deploy.py only", out)
	}
}

func TestLoad_Errors(t *testing.T) {
	cases := map[string]string{
		"missing message": "rules:\n  - id: x\n    where:\n      content_regex: 'a'\n",
		"missing regex":   "rules:\n  - id: x\n    message: m\n",
		"bad severity":    "rules:\n  - id: x\n    message: m\n    severity: fatal\n    where:\n      content_regex: 'a'\n",
		"bad regex":       "rules:\n  - id: x\n    message: m\n    where:\n      content_regex: '['\n",
		"bad yaml":        "rules: [\n",
	}
	for name, content := range cases {
		if _, err := Load(writePack(t, content)); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestLoad_DefaultSeverityIsWarning(t *testing.T) {
	pack := "rules:\n  - id: x\n    message: m\n    where:\n      content_regex: 'todo'\n"
	defs, err := Load(writePack(t, pack))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if defs[0].Severity != ir.SeverityWarning {
		t.Fatalf("severity = %q, want warning", defs[0].Severity)
	}
	if !strings.EqualFold(string(defs[0].Category), "custom") {
		t.Fatalf("category = %q", defs[0].Category)
	}
}
