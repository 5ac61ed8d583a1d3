package rules

import (
	"errors"
	"testing"

	"github.com/codewithboateng/prlint/internal/ir"
)

func defOf(id string, deps ...string) *Definition {
	return &Definition{
		ID:           id,
		Name:         id,
		Category:     ir.CategoryCustom,
		Severity:     ir.SeverityWarning,
		Enabled:      true,
		Dependencies: deps,
		New: func(cfg map[string]any) Rule {
			return stubRule{}
		},
	}
}

type stubRule struct{}

func (stubRule) Applicable(*Context) bool                  { return true }
func (stubRule) Analyze(*Context) ([]ir.RuleResult, error) { return nil, nil }

func TestRegistry_DuplicateRegistration(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Register(defOf("a")); err != nil {
		t.Fatalf("first register: %v", err)
	}
	err := reg.Register(defOf("a"))
	var dup *DuplicateRuleError
	if !errors.As(err, &dup) || dup.ID != "a" {
		t.Fatalf("expected DuplicateRuleError for a, got %v", err)
	}
}

func TestResolveDependencies_Order(t *testing.T) {
	reg := NewRegistry()
	for _, d := range []*Definition{
		defOf("c", "b"),
		defOf("b", "a"),
		defOf("a"),
	} {
		if err := reg.Register(d); err != nil {
			t.Fatal(err)
		}
	}
	order, err := reg.ResolveDependencies([]string{"c", "a", "b"})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	pos := map[string]int{}
	for i, id := range order {
		pos[id] = i
	}
	if pos["a"] > pos["b"] || pos["b"] > pos["c"] {
		t.Fatalf("bad order %v", order)
	}
}

func TestResolveDependencies_Deterministic(t *testing.T) {
	reg := NewRegistry()
	for _, id := range []string{"z", "m", "a"} {
		if err := reg.Register(defOf(id)); err != nil {
			t.Fatal(err)
		}
	}
	first, err := reg.ResolveDependencies([]string{"z", "m", "a"})
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 10; i++ {
		again, err := reg.ResolveDependencies([]string{"a", "z", "m"})
		if err != nil {
			t.Fatal(err)
		}
		for j := range first {
			if first[j] != again[j] {
				t.Fatalf("order changed between runs: %v vs %v", first, again)
			}
		}
	}
}

func TestResolveDependencies_Cycle(t *testing.T) {
	reg := NewRegistry()
	for _, d := range []*Definition{
		defOf("x", "y"),
		defOf("y", "x"),
	} {
		if err := reg.Register(d); err != nil {
			t.Fatal(err)
		}
	}
	_, err := reg.ResolveDependencies([]string{"x", "y"})
	var cyc *CircularDependencyError
	if !errors.As(err, &cyc) {
		t.Fatalf("expected CircularDependencyError, got %v", err)
	}
}

func TestResolveDependencies_UnknownDepIgnored(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Register(defOf("solo", "never-registered")); err != nil {
		t.Fatal(err)
	}
	order, err := reg.ResolveDependencies([]string{"solo"})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(order) != 1 || order[0] != "solo" {
		t.Fatalf("expected [solo], got %v", order)
	}
}

func TestDefaultRegistry_Builtins(t *testing.T) {
	reg, err := DefaultRegistry()
	if err != nil {
		t.Fatal(err)
	}
	for _, id := range []string{SyntaxErrorID, CodeSmellID, MissingEdgeCaseID, UnusedParameterID} {
		if _, ok := reg.Get(id); !ok {
			t.Fatalf("builtin %s missing", id)
		}
	}
	byCat := reg.ByCategory(ir.CategoryCodeIntegrity)
	if len(byCat) != 2 {
		t.Fatalf("expected 2 code_integrity rules, got %d", len(byCat))
	}
}
