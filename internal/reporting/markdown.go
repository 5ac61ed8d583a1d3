package reporting

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/codewithboateng/prlint/internal/ir"
)

// WriteMarkdown renders the run as a Markdown document suitable for pasting
// into a pull request comment.
func WriteMarkdown(runID, outDir string, run *ir.Run) (string, error) {
	path := filepath.Join(outDir, runID+".md")
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	// Severity totals
	counts := map[ir.Severity]int{}
	for _, r := range run.Results {
		counts[r.Severity]++
	}

	fmt.Fprintf(f, "# prlint report: `%s`\n\n", runID)
	if title := run.PR["title"]; title != "" {
		fmt.Fprintf(f, "**PR:** %s\n\n", title)
	}
	fmt.Fprintf(f, "Files analyzed: %d &nbsp; Issues: %d\n\n", run.FileCount, len(run.Results))
	if st := run.Stats; st != nil {
		fmt.Fprintf(f, "%d lines (%d blank, %d comment), %d functions, %d classes\n\n",
			st.Lines, st.BlankLines, st.CommentLines, st.Functions, st.Classes)
	}
	fmt.Fprintf(f, "| Errors | Warnings | Info | Hints |\n|---|---|---|---|\n| %d | %d | %d | %d |\n\n",
		counts[ir.SeverityError], counts[ir.SeverityWarning], counts[ir.SeverityInfo], counts[ir.SeverityHint])

	if len(run.Results) == 0 {
		fmt.Fprint(f, "No issues found.\n")
		return path, nil
	}

	// Worst first within each file, files in path order.
	byFile := map[string][]ir.RuleResult{}
	for _, r := range run.Results {
		byFile[r.Filepath] = append(byFile[r.Filepath], r)
	}
	paths := make([]string, 0, len(byFile))
	for p := range byFile {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	for _, p := range paths {
		results := byFile[p]
		sort.SliceStable(results, func(i, j int) bool {
			if results[i].Severity.Rank() != results[j].Severity.Rank() {
				return results[i].Severity.Rank() > results[j].Severity.Rank()
			}
			return results[i].Line < results[j].Line
		})
		fmt.Fprintf(f, "## `%s`\n\n", p)
		for _, r := range results {
			loc := ""
			if r.Line > 0 {
				loc = fmt.Sprintf(" (line %d)", r.Line)
			}
			fmt.Fprintf(f, "- `%s` **%s**%s: %s\n", severityLabel(r.Severity), r.RuleID, loc, r.Message)
			if r.CodeSnippet != "" {
				fmt.Fprintf(f, "\n  ```python\n%s\n  ```\n", indentSnippet(r.CodeSnippet))
			}
			for _, fix := range r.FixSuggestions {
				fmt.Fprintf(f, "  - _Suggestion:_ %s\n", fix)
			}
		}
		fmt.Fprint(f, "\n")
	}
	return path, nil
}

func severityLabel(s ir.Severity) string {
	switch s {
	case ir.SeverityError:
		return "ERROR"
	case ir.SeverityWarning:
		return "WARN"
	case ir.SeverityInfo:
		return "INFO"
	}
	return "HINT"
}

func indentSnippet(s string) string {
	out := ""
	for i, line := range splitSnippetLines(s) {
		if i > 0 {
			out += "\n"
		}
		out += "  " + line
	}
	return out
}

func splitSnippetLines(s string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			lines = append(lines, s[start:i])
			start = i + 1
		}
	}
	return append(lines, s[start:])
}
