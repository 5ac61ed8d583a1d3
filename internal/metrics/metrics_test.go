package metrics

import (
	"testing"

	"github.com/codewithboateng/prlint/internal/ir"
	"github.com/codewithboateng/prlint/internal/pyast"
)

func TestCompute(t *testing.T) {
	src := "# module docs\n\nclass Greeter:\n    def hello(self):\n        return 'hi'\n\ndef main():\n    pass\n"
	tree, err := pyast.Parse(src)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	st := Compute([]ir.SourceFile{{Filepath: "g.py", Content: src}}, []*pyast.Node{tree})
	if st.Files != 1 {
		t.Fatalf("files = %d", st.Files)
	}
	// Trailing newline yields a final empty line.
	if st.Lines != 9 || st.BlankLines != 3 || st.CommentLines != 1 {
		t.Fatalf("lines = %d blank = %d comment = %d", st.Lines, st.BlankLines, st.CommentLines)
	}
	if st.Functions != 2 || st.Classes != 1 {
		t.Fatalf("functions = %d classes = %d", st.Functions, st.Classes)
	}
}

func TestCompute_UnparsedFilesCountLinesOnly(t *testing.T) {
	files := []ir.SourceFile{
		{Filepath: "ok.py", Content: "def f():\n    pass\n"},
		{Filepath: "broken.py", Content: "def g(:\n"},
	}
	tree, err := pyast.Parse(files[0].Content)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	st := Compute(files, []*pyast.Node{tree})
	if st.Files != 2 || st.Functions != 1 {
		t.Fatalf("stats = %+v", st)
	}
	if st.Lines != 5 {
		t.Fatalf("lines = %d, want 5", st.Lines)
	}
}

func TestCompute_Empty(t *testing.T) {
	st := Compute(nil, nil)
	if st != (ir.RunStats{}) {
		t.Fatalf("stats = %+v", st)
	}
}
