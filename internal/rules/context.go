package rules

import (
	"path/filepath"
	"strings"

	"github.com/codewithboateng/prlint/internal/ir"
	"github.com/codewithboateng/prlint/internal/pyast"
)

// Context is the per-run bundle of inputs and progressively filled prior
// results. Files, PR, and Options are read-only inputs; Results is written
// only by the Analyzer as dependency-ordered execution proceeds, so a rule
// that declares a dependency can read the dependency's findings.
type Context struct {
	Files   []ir.SourceFile
	PR      map[string]string
	Options map[string]any
	Results map[string][]ir.RuleResult

	trees map[string]*parseEntry
}

type parseEntry struct {
	tree *pyast.Node
	err  error
}

func NewContext(files []ir.SourceFile, pr map[string]string, opts map[string]any) *Context {
	return &Context{
		Files:   files,
		PR:      pr,
		Options: opts,
		Results: make(map[string][]ir.RuleResult),
		trees:   make(map[string]*parseEntry),
	}
}

// Tree returns the memoized parse result for a file, so every rule in a run
// shares a single parse per file.
func (c *Context) Tree(f ir.SourceFile) (*pyast.Node, error) {
	if c.trees == nil {
		c.trees = make(map[string]*parseEntry)
	}
	if e, ok := c.trees[f.Filepath]; ok {
		return e.tree, e.err
	}
	tree, err := pyast.Parse(f.Content)
	c.trees[f.Filepath] = &parseEntry{tree: tree, err: err}
	return tree, err
}

// IsPythonFile reports whether a path carries a supported extension.
func IsPythonFile(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".py")
}

// PythonFiles returns the subset of Files the AST rules operate on.
func (c *Context) PythonFiles() []ir.SourceFile {
	var out []ir.SourceFile
	for _, f := range c.Files {
		if IsPythonFile(f.Filepath) {
			out = append(out, f)
		}
	}
	return out
}

// ParsedPythonFiles returns the Python files that parse cleanly, alongside
// their trees. Files with syntax errors are the syntax-error rule's finding,
// not anyone else's.
func (c *Context) ParsedPythonFiles() ([]ir.SourceFile, []*pyast.Node) {
	var files []ir.SourceFile
	var trees []*pyast.Node
	for _, f := range c.PythonFiles() {
		tree, err := c.Tree(f)
		if err != nil {
			continue
		}
		files = append(files, f)
		trees = append(trees, tree)
	}
	return files, trees
}
