// Package metrics measures the analyzed change set: line counts from raw
// text, definition counts from parse trees. The numbers annotate a run and
// give reviewers a sense of scale next to the issue totals.
package metrics

import (
	"strings"

	"github.com/codewithboateng/prlint/internal/ir"
	"github.com/codewithboateng/prlint/internal/pyast"
)

// Compute tallies stats over the files and their trees. trees may be
// shorter than files (files that failed to parse contribute line counts
// only) or nil entirely.
func Compute(files []ir.SourceFile, trees []*pyast.Node) ir.RunStats {
	var st ir.RunStats
	st.Files = len(files)
	for _, f := range files {
		for _, line := range strings.Split(f.Content, "\n") {
			st.Lines++
			t := strings.TrimSpace(line)
			switch {
			case t == "":
				st.BlankLines++
			case strings.HasPrefix(t, "#"):
				st.CommentLines++
			}
		}
	}
	for _, tree := range trees {
		fns, classes := countDefs(tree)
		st.Functions += fns
		st.Classes += classes
	}
	return st
}

func countDefs(tree *pyast.Node) (functions, classes int) {
	pyast.Walk(tree, func(n *pyast.Node) bool {
		switch n.Kind {
		case pyast.KindFunctionDef:
			functions++
		case pyast.KindClassDef:
			classes++
		}
		return true
	})
	return functions, classes
}
