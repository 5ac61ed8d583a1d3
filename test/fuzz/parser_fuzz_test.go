package fuzz

import (
	"testing"

	"github.com/codewithboateng/prlint/internal/pyast"
)

// Fuzz the parser with arbitrary content to ensure we never panic.
func FuzzParseNoPanic(f *testing.F) {
	seeds := []string{
		"def f(a, b):\n    return a + b\n",
		"class C:\n    def m(self):\n        pass\n",
		"x = [1, 2, 3]\nfor i in x:\n    print(i)\n",
		"try:\n    open('f')\nexcept OSError:\n    pass\n",
		"if (n := len('s')) > 2:\n    n += 1\n",
		"def broken(x y):\n",
		"\t\tgarbage ::: but should not panic\n",
		"s = '''multi\nline'''\n",
	}
	for _, s := range seeds {
		f.Add(s)
	}
	f.Fuzz(func(t *testing.T, src string) {
		_, _ = pyast.Parse(src) // we only assert "no panic"
	})
}
