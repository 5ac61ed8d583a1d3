package rules

import (
	"sort"
	"testing"

	"github.com/codewithboateng/prlint/internal/ir"
)

// runRule instantiates one definition with its defaults plus overrides and
// analyzes the given files.
func runRule(t *testing.T, def *Definition, files map[string]string, overrides map[string]any) []ir.RuleResult {
	t.Helper()

	merged := make(map[string]any, len(def.Defaults)+len(overrides))
	for k, v := range def.Defaults {
		merged[k] = v
	}
	for k, v := range overrides {
		merged[k] = v
	}
	inst := def.New(merged)

	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)
	var set []ir.SourceFile
	for _, name := range names {
		set = append(set, ir.SourceFile{Filepath: name, Content: files[name]})
	}

	ctx := NewContext(set, nil, nil)
	if !inst.Applicable(ctx) {
		return nil
	}
	out, err := inst.Analyze(ctx)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	return out
}
