package pyast

import (
	"errors"
	"strings"
	"testing"
)

func mustParse(t *testing.T, src string) *Node {
	t.Helper()
	tree, err := Parse(src)
	if err != nil {
		t.Fatalf("parse failed: %v\nsource:\n%s", err, src)
	}
	if tree == nil || tree.Kind != KindModule {
		t.Fatalf("expected module root, got %v", tree)
	}
	return tree
}

func TestParse_FunctionDef(t *testing.T) {
	tree := mustParse(t, "def add(a, b=2, *args, **kw):\n    return a + b\n")
	if len(tree.Body) != 1 {
		t.Fatalf("expected 1 statement, got %d", len(tree.Body))
	}
	fn := tree.Body[0]
	if fn.Kind != KindFunctionDef || fn.Name != "add" {
		t.Fatalf("expected FunctionDef add, got %v %q", fn.Kind, fn.Name)
	}
	if len(fn.Params) != 4 {
		t.Fatalf("expected 4 params, got %d", len(fn.Params))
	}
	if fn.Params[1].Default == nil {
		t.Fatalf("expected default on b")
	}
	if !fn.Params[2].Star || !fn.Params[3].DoubleStar {
		t.Fatalf("expected *args and **kw flags, got %+v", fn.Params)
	}
	if len(fn.Body) != 1 || fn.Body[0].Kind != KindReturn {
		t.Fatalf("expected single return, got %+v", fn.Body)
	}
	ret := fn.Body[0].Value
	if ret == nil || ret.Kind != KindBinOp || ret.Op != "+" {
		t.Fatalf("expected BinOp +, got %+v", ret)
	}
}

func TestParse_MissingCommaInParams(t *testing.T) {
	_, err := Parse("def f(x y):\n    pass\n")
	if err == nil {
		t.Fatalf("expected syntax error")
	}
	var se *SyntaxError
	if !errors.As(err, &se) {
		t.Fatalf("expected *SyntaxError, got %T", err)
	}
	if se.Line != 1 || se.Col <= 0 {
		t.Fatalf("expected position on line 1, got line=%d col=%d", se.Line, se.Col)
	}
	if !strings.Contains(se.Msg, "parameter list") {
		t.Fatalf("unexpected message %q", se.Msg)
	}
}

func TestParse_ControlFlow(t *testing.T) {
	src := `if a:
    x = 1
elif b:
    x = 2
else:
    x = 3
for k, v in items:
    total += v
while not done:
    step()
try:
    risky()
except ValueError as e:
    handle(e)
except Exception:
    pass
finally:
    cleanup()
with open(path) as f:
    read(f)
`
	tree := mustParse(t, src)
	if len(tree.Body) != 5 {
		t.Fatalf("expected 5 statements, got %d", len(tree.Body))
	}
	ifStmt := tree.Body[0]
	if ifStmt.Kind != KindIf || len(ifStmt.Orelse) != 1 || ifStmt.Orelse[0].Kind != KindIf {
		t.Fatalf("expected elif chain under If.Orelse, got %+v", ifStmt.Orelse)
	}
	forStmt := tree.Body[1]
	if forStmt.Kind != KindFor || forStmt.Target.Kind != KindTuple {
		t.Fatalf("expected For with tuple target, got %+v", forStmt.Target)
	}
	tryStmt := tree.Body[3]
	if tryStmt.Kind != KindTry || len(tryStmt.Handlers) != 2 || len(tryStmt.Final) != 1 {
		t.Fatalf("expected 2 handlers and finally, got %+v", tryStmt)
	}
	if tryStmt.Handlers[0].ExcType != "ValueError" || tryStmt.Handlers[0].Name != "e" {
		t.Fatalf("expected except ValueError as e, got %+v", tryStmt.Handlers[0])
	}
	if tree.Body[4].Kind != KindWith {
		t.Fatalf("expected With, got %v", tree.Body[4].Kind)
	}
}

func TestParse_Expressions(t *testing.T) {
	src := `x = 1 if cond else 2
y = lambda n: n * 2
z = [i for i in range(5)]
d = {"a": 1, "b": 2}
s = {1, 2}
t = a[1:2]
w = 0 <= n < 10
v = (m := next(it))
`
	tree := mustParse(t, src)
	if len(tree.Body) != 8 {
		t.Fatalf("expected 8 statements, got %d", len(tree.Body))
	}
	kinds := []Kind{KindIfExp, KindLambda, KindComprehension, KindDict, KindSet, KindSubscript, KindCompare, KindBinOp}
	for i, want := range kinds {
		got := tree.Body[i].Value
		if got == nil || got.Kind != want {
			t.Fatalf("statement %d: expected value kind %v, got %+v", i, want, got)
		}
	}
	if tree.Body[7].Value.Op != ":=" {
		t.Fatalf("expected walrus op, got %q", tree.Body[7].Value.Op)
	}
}

func TestParse_LambdaParams(t *testing.T) {
	src := `a = lambda n: n * 2
b = lambda x, y=1: x + y
c = lambda: 0
d = lambda *args, **kw: args
`
	tree := mustParse(t, src)
	if len(tree.Body) != 4 {
		t.Fatalf("expected 4 statements, got %d", len(tree.Body))
	}
	wantParams := [][]string{{"n"}, {"x", "y"}, {}, {"args", "kw"}}
	for i, want := range wantParams {
		lam := tree.Body[i].Value
		if lam == nil || lam.Kind != KindLambda {
			t.Fatalf("statement %d: expected lambda, got %+v", i, lam)
		}
		if len(lam.Params) != len(want) {
			t.Fatalf("statement %d: expected %d params, got %d", i, len(want), len(lam.Params))
		}
		for j, name := range want {
			if lam.Params[j].Name != name {
				t.Fatalf("statement %d param %d: expected %q, got %q", i, j, name, lam.Params[j].Name)
			}
		}
	}
	if tree.Body[1].Value.Params[1].Default == nil {
		t.Fatalf("expected default for param y")
	}
	if tree.Body[0].Value.Value.Kind != KindBinOp {
		t.Fatalf("expected binop body, got %v", tree.Body[0].Value.Value.Kind)
	}
}

func TestParse_UnexpectedIndent(t *testing.T) {
	_, err := Parse("x = 1\n    y = 2\n")
	var se *SyntaxError
	if !errors.As(err, &se) {
		t.Fatalf("expected *SyntaxError, got %v", err)
	}
	if se.Line != 2 {
		t.Fatalf("expected error on line 2, got %d", se.Line)
	}
}

func TestParse_TripleQuotedAndComments(t *testing.T) {
	src := `def doc():
    """multi
    line docstring"""
    # a comment
    return 1
`
	tree := mustParse(t, src)
	fn := tree.Body[0]
	if len(fn.Body) != 2 {
		t.Fatalf("expected docstring and return, got %d statements", len(fn.Body))
	}
	if fn.Body[0].Kind != KindExprStmt || fn.Body[0].Value.Kind != KindString {
		t.Fatalf("expected docstring expression, got %+v", fn.Body[0])
	}
}

func TestSpan(t *testing.T) {
	tree := mustParse(t, "def f():\n    a = 1\n    b = 2\n    return a + b\n")
	fn := tree.Body[0]
	if got := fn.Span(); got != 4 {
		t.Fatalf("expected span 4, got %d", got)
	}
}

func TestFunctions_IncludesNested(t *testing.T) {
	src := `def outer():
    def inner():
        pass
    return inner

class C:
    def method(self):
        pass
`
	tree := mustParse(t, src)
	fns := Functions(tree)
	if len(fns) != 3 {
		t.Fatalf("expected 3 functions, got %d", len(fns))
	}
	names := map[string]bool{}
	for _, fn := range fns {
		names[fn.Name] = true
	}
	for _, want := range []string{"outer", "inner", "method"} {
		if !names[want] {
			t.Fatalf("missing function %q in %v", want, names)
		}
	}
}

func TestWalk_PruneStopsDescent(t *testing.T) {
	tree := mustParse(t, "def f():\n    return 1\n")
	visited := 0
	Walk(tree, func(n *Node) bool {
		visited++
		return n.Kind != KindFunctionDef
	})
	if visited != 2 { // module + functiondef, body pruned
		t.Fatalf("expected 2 visits, got %d", visited)
	}
}

func TestParse_Decorators(t *testing.T) {
	tree := mustParse(t, "@staticmethod\ndef f():\n    pass\n")
	fn := tree.Body[0]
	if fn.Kind != KindFunctionDef || len(fn.Items) != 1 {
		t.Fatalf("expected decorated function, got %+v", fn)
	}
}

func TestParse_ClassWithBases(t *testing.T) {
	tree := mustParse(t, "class Handler(Base, mixin.Cls):\n    attr = 1\n")
	cls := tree.Body[0]
	if cls.Kind != KindClassDef || cls.Name != "Handler" {
		t.Fatalf("expected ClassDef Handler, got %+v", cls)
	}
	if len(cls.Args) != 2 {
		t.Fatalf("expected 2 bases, got %d", len(cls.Args))
	}
}
